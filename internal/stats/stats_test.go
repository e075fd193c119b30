package stats

import (
	"context"
	"fmt"
	"testing"

	"github.com/alexivanou/cityinfo-api/internal/config"
	"github.com/alexivanou/cityinfo-api/internal/database"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func setupTestDB(t *testing.T) (*sqlx.DB, config.DBConfig) {
	cfg := config.DBConfig{Type: config.DBTypeMemory, Name: fmt.Sprintf("stats_%s", uuid.NewString())}
	db, err := database.Connect(context.Background(), cfg)
	require.NoError(t, err)

	driver, err := sqlite3.WithInstance(db.DB, &sqlite3.Config{})
	require.NoError(t, err)

	m, err := migrate.NewWithDatabaseInstance(
		"file://../../migrations/sqlite",
		"sqlite3",
		driver,
	)
	require.NoError(t, err)
	err = m.Up()
	require.NoError(t, err)

	return db, cfg
}

type fixedSize int

func (f fixedSize) Len() int { return int(f) }

func TestCollector_Collect(t *testing.T) {
	db, cfg := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()

	_, err := db.ExecContext(ctx, `INSERT INTO cities (id, name, country, tourist_rating, created_at, updated_at) VALUES
		('a', 'Paris', 'France', 5, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP),
		('b', 'Lyon', 'france', 0, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP),
		('c', 'Berlin', 'Germany', 4, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)`)
	require.NoError(t, err)

	collector := NewCollector(db, cfg).WithCountryCache(fixedSize(7)).WithRateLimiter(fixedSize(2))

	stats, err := collector.Collect(ctx)
	require.NoError(t, err)

	assert.Equal(t, "memory", stats.Database.Type)
	assert.Greater(t, stats.Database.TotalRecords, int64(0))
	assert.Equal(t, 2, stats.Database.DistinctCountries)
	assert.Equal(t, int64(2), stats.Database.RatedCities)

	var citiesCount int64
	for _, ts := range stats.Database.TableStats {
		if ts.Name == "cities" {
			citiesCount = ts.RowCount
		}
	}
	assert.Equal(t, int64(3), citiesCount)

	assert.Equal(t, 7, stats.Cache.CountryEntries)
	assert.Equal(t, 2, stats.Cache.RateLimitedClients)

	assert.Greater(t, stats.Memory.Alloc, uint64(0))
	assert.GreaterOrEqual(t, stats.Runtime.NumGoroutines, 1)

	stats2, err := collector.Collect(ctx)
	require.NoError(t, err)
	assert.Equal(t, stats.Memory.Alloc, stats2.Memory.Alloc)
}

func TestCollector_EmptyDB(t *testing.T) {
	db, cfg := setupTestDB(t)
	defer db.Close()

	collector := NewCollector(db, cfg)

	stats, err := collector.Collect(context.Background())
	require.NoError(t, err)

	var citiesCount int64
	for _, ts := range stats.Database.TableStats {
		if ts.Name == "cities" {
			citiesCount = ts.RowCount
		}
	}
	assert.Equal(t, int64(0), citiesCount)
	assert.Equal(t, 0, stats.Database.DistinctCountries)
	assert.Equal(t, CacheStats{}, stats.Cache)
}

func TestCollector_UnavailableTableSizeIsLogged(t *testing.T) {
	db, cfg := setupTestDB(t)
	defer db.Close()

	core, logs := observer.New(zap.DebugLevel)
	collector := NewCollector(db, cfg).WithLogger(zap.New(core))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.Equal(t, int64(0), collector.tableSize(ctx, "cities"))

	entries := logs.FilterMessage("Table size unavailable").All()
	require.Len(t, entries, 1)
	assert.Equal(t, zap.DebugLevel, entries[0].Level)
	assert.Equal(t, "cities", entries[0].ContextMap()["table"])
}
