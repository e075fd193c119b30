package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/alexivanou/cityinfo-api/internal/model"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
)

// --- PostgreSQL Implementation ---

const pgUniqueViolation = "23505"

type pgCityRepository struct {
	db *sqlx.DB
}

func (r *pgCityRepository) Create(ctx context.Context, city model.NewCity) (*model.City, error) {
	rec := newRecord(city)
	q := `
		INSERT INTO cities (id, name, country, tourist_rating, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + cityColumns

	var created model.City
	err := r.db.GetContext(ctx, &created, q,
		rec.ID, rec.Name, rec.Country, rec.TouristRating, rec.CreatedAt, rec.UpdatedAt)
	if err != nil {
		if isPgUniqueViolation(err) {
			return nil, ErrConflict
		}
		return nil, err
	}
	return &created, nil
}

func (r *pgCityRepository) UpdateRating(ctx context.Context, id string, rating int) (*model.City, error) {
	q := `
		UPDATE cities
		SET tourist_rating = $1, updated_at = $2
		WHERE id = $3
		RETURNING ` + cityColumns

	var updated model.City
	if err := r.db.GetContext(ctx, &updated, q, rating, time.Now().UTC(), id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &updated, nil
}

func (r *pgCityRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM cities WHERE id = $1", id)
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

func (r *pgCityRepository) SearchByName(ctx context.Context, name string, limit int) ([]model.City, error) {
	q := `
		SELECT ` + cityColumns + `
		FROM cities
		WHERE LOWER(name) LIKE $1 ESCAPE '\'
		ORDER BY name ASC
		LIMIT $2
	`
	var cities []model.City
	if err := r.db.SelectContext(ctx, &cities, q, containsPattern(name), limit); err != nil {
		return nil, err
	}
	return cities, nil
}

func (r *pgCityRepository) GetByID(ctx context.Context, id string) (*model.City, error) {
	var city model.City
	if err := r.db.GetContext(ctx, &city, "SELECT "+cityColumns+" FROM cities WHERE id = $1", id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &city, nil
}

func (r *pgCityRepository) Count(ctx context.Context) (int64, error) {
	return countCities(ctx, r.db)
}

func (r *pgCityRepository) BulkInsert(ctx context.Context, cities []model.NewCity) (int64, error) {
	records := newRecords(cities)

	// Chunking to avoid parameter limit issues even in PG (max 65535 parameters)
	chunkSize := 2000
	var inserted int64
	for i := 0; i < len(records); i += chunkSize {
		end := i + chunkSize
		if end > len(records) {
			end = len(records)
		}
		batch := records[i:end]

		res, err := r.db.NamedExecContext(ctx, `
		INSERT INTO cities (id, name, country, tourist_rating, created_at, updated_at)
		VALUES (:id, :name, :country, :tourist_rating, :created_at, :updated_at)
		ON CONFLICT (name, country) DO NOTHING`,
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

func isPgUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}
