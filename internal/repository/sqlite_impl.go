package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/alexivanou/cityinfo-api/internal/model"
	"github.com/jmoiron/sqlx"
	"github.com/mattn/go-sqlite3"
)

type sqliteCityRepository struct {
	db *sqlx.DB
}

func (r *sqliteCityRepository) Create(ctx context.Context, city model.NewCity) (*model.City, error) {
	rec := newRecord(city)
	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO cities (id, name, country, tourist_rating, created_at, updated_at)
		VALUES (:id, :name, :country, :tourist_rating, :created_at, :updated_at)`,
		rec)
	if err != nil {
		if isSqliteUniqueViolation(err) {
			return nil, ErrConflict
		}
		return nil, err
	}
	return &rec, nil
}

func (r *sqliteCityRepository) UpdateRating(ctx context.Context, id string, rating int) (*model.City, error) {
	res, err := r.db.ExecContext(ctx,
		"UPDATE cities SET tourist_rating = ?, updated_at = ? WHERE id = ?",
		rating, time.Now().UTC(), id)
	if err != nil {
		return nil, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, ErrNotFound
	}

	city, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if city == nil {
		// Deleted between the update and the read
		return nil, ErrNotFound
	}
	return city, nil
}

func (r *sqliteCityRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM cities WHERE id = ?", id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *sqliteCityRepository) SearchByName(ctx context.Context, name string, limit int) ([]model.City, error) {
	q := `
		SELECT ` + cityColumns + `
		FROM cities
		WHERE go_lower(name) LIKE ? ESCAPE '\'
		ORDER BY name ASC
		LIMIT ?
	`
	var cities []model.City
	if err := r.db.SelectContext(ctx, &cities, q, containsPattern(name), limit); err != nil {
		return nil, err
	}
	return cities, nil
}

func (r *sqliteCityRepository) GetByID(ctx context.Context, id string) (*model.City, error) {
	var city model.City
	if err := r.db.GetContext(ctx, &city, "SELECT "+cityColumns+" FROM cities WHERE id = ?", id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &city, nil
}

func (r *sqliteCityRepository) Count(ctx context.Context) (int64, error) {
	return countCities(ctx, r.db)
}

func (r *sqliteCityRepository) BulkInsert(ctx context.Context, cities []model.NewCity) (int64, error) {
	records := newRecords(cities)

	// SQLite variable limit workaround (batch size of 100 * 6 params = 600 variables, well within standard limits)
	chunkSize := 100
	var inserted int64
	for i := 0; i < len(records); i += chunkSize {
		end := i + chunkSize
		if end > len(records) {
			end = len(records)
		}
		batch := records[i:end]

		res, err := r.db.NamedExecContext(ctx, `
		INSERT OR IGNORE INTO cities (id, name, country, tourist_rating, created_at, updated_at)
		VALUES (:id, :name, :country, :tourist_rating, :created_at, :updated_at)`,
			batch)
		if err != nil {
			return inserted, err
		}
		if n, err := res.RowsAffected(); err == nil {
			inserted += n
		}
	}
	return inserted, nil
}

func isSqliteUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	return errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
}
