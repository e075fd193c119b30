package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/alexivanou/cityinfo-api/internal/config"
	"github.com/alexivanou/cityinfo-api/internal/model"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

var (
	// ErrNotFound is returned when no city has the requested id
	ErrNotFound = errors.New("city not found")
	// ErrConflict is returned when a city with the same name and country exists
	ErrConflict = errors.New("city already exists")
)

// CityRepository defines operations for cities
type CityRepository interface {
	Create(ctx context.Context, city model.NewCity) (*model.City, error)
	UpdateRating(ctx context.Context, id string, rating int) (*model.City, error)
	Delete(ctx context.Context, id string) error
	SearchByName(ctx context.Context, name string, limit int) ([]model.City, error)
	GetByID(ctx context.Context, id string) (*model.City, error)
	BulkInsert(ctx context.Context, cities []model.NewCity) (int64, error)
	Count(ctx context.Context) (int64, error)
}

// NewCityRepository creates a repository implementation based on DB type
func NewCityRepository(db *sqlx.DB, dbType config.DBType) CityRepository {
	if dbType == config.DBTypePostgreSQL {
		return &pgCityRepository{db: db}
	}

	// Default to SQLite
	return &sqliteCityRepository{db: db}
}

// countCities is shared by both implementations
func countCities(ctx context.Context, db *sqlx.DB) (int64, error) {
	var count int64
	if err := db.GetContext(ctx, &count, "SELECT COUNT(*) FROM cities"); err != nil {
		return 0, err
	}
	return count, nil
}

const cityColumns = "id, name, country, tourist_rating, created_at, updated_at"

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern builds a lowercased LIKE pattern matching name anywhere,
// with LIKE metacharacters in the input matched literally (ESCAPE '\').
func containsPattern(name string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(name)) + "%"
}

// newRecord assigns the generated id and timestamps for a city about to be inserted
func newRecord(city model.NewCity) model.City {
	now := time.Now().UTC()
	return model.City{
		ID:            uuid.NewString(),
		Name:          city.Name,
		Country:       city.Country,
		TouristRating: ratingOrDefault(city.TouristRating),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

func newRecords(cities []model.NewCity) []model.City {
	records := make([]model.City, 0, len(cities))
	for _, c := range cities {
		records = append(records, newRecord(c))
	}
	return records
}

func ratingOrDefault(rating *int) int {
	if rating == nil {
		return 0
	}
	return *rating
}
