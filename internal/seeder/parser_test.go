package seeder

import (
	"archive/zip"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alexivanou/cityinfo-api/internal/config"
	"github.com/alexivanou/cityinfo-api/internal/database"
	"github.com/alexivanou/cityinfo-api/internal/model"
	"github.com/alexivanou/cityinfo-api/internal/repository"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testData = "# name\tcountry\trating\n" +
	"Paris\tFrance\t5\n" +
	"Paris\tUnited States\n" +
	"\n" +
	"St. John's\tCanada\t\n" +
	"Nowhere\n" +
	"Lyon\tFrance\t9\n" +
	"Rome\tItaly\tgood\n" +
	"Berlin\tGermany\t4\r\n"

func writeFile(t *testing.T, name, content string) string {
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestParser_ParseCities(t *testing.T) {
	parser := NewParser(config.SeederConfig{DataFile: writeFile(t, "cities.tsv", testData)})

	result, err := parser.ParseCities()
	require.NoError(t, err)

	require.Len(t, result.Cities, 4)
	assert.Equal(t, 3, result.Skipped)

	assert.Equal(t, "Paris", result.Cities[0].Name)
	assert.Equal(t, "France", result.Cities[0].Country)
	require.NotNil(t, result.Cities[0].TouristRating)
	assert.Equal(t, 5, *result.Cities[0].TouristRating)

	assert.Equal(t, "United States", result.Cities[1].Country)
	assert.Nil(t, result.Cities[1].TouristRating)

	assert.Equal(t, "St. John's", result.Cities[2].Name)
	assert.Nil(t, result.Cities[2].TouristRating)

	assert.Equal(t, "Berlin", result.Cities[3].Name)
	assert.Equal(t, 4, *result.Cities[3].TouristRating)
}

func TestParser_ParseCitiesFromZip(t *testing.T) {
	zipPath := filepath.Join(t.TempDir(), "cities.zip")
	f, err := os.Create(zipPath)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	w, err := zw.Create("cities.tsv")
	require.NoError(t, err)
	_, err = w.Write([]byte(testData))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())

	result, err := NewParser(config.SeederConfig{DataFile: zipPath}).ParseCities()

	require.NoError(t, err)
	assert.Len(t, result.Cities, 4)
}

func TestParser_MissingFile(t *testing.T) {
	_, err := NewParser(config.SeederConfig{DataFile: "does/not/exist.tsv"}).ParseCities()
	assert.Error(t, err)
}

func TestParser_Batches(t *testing.T) {
	parser := NewParser(config.SeederConfig{BatchSize: 2})
	cities := make([]model.NewCity, 5)

	batches := parser.Batches(cities)

	require.Len(t, batches, 3)
	assert.Len(t, batches[0], 2)
	assert.Len(t, batches[2], 1)
	assert.Empty(t, parser.Batches(nil))
}

func TestSeed(t *testing.T) {
	cfg := config.DBConfig{Type: config.DBTypeMemory, Name: fmt.Sprintf("seed_%s", uuid.NewString())}
	db, err := database.Connect(context.Background(), cfg)
	require.NoError(t, err)
	defer db.Close()

	driver, err := sqlite3.WithInstance(db.DB, &sqlite3.Config{})
	require.NoError(t, err)
	m, err := migrate.NewWithDatabaseInstance("file://../../migrations/sqlite", "sqlite3", driver)
	require.NoError(t, err)
	require.NoError(t, m.Up())

	repo := repository.NewCityRepository(db, config.DBTypeMemory)
	parser := NewParser(config.SeederConfig{
		DataFile:  writeFile(t, "cities.tsv", testData+strings.Repeat("Paris\tFrance\n", 3)),
		BatchSize: 2,
	})
	ctx := context.Background()

	summary, err := Seed(ctx, parser, repo, nil)
	require.NoError(t, err)
	assert.Equal(t, 7, summary.Parsed)
	assert.Equal(t, int64(4), summary.Inserted)
	assert.Equal(t, 3, summary.Skipped)

	// Seeding again inserts nothing
	summary, err = Seed(ctx, parser, repo, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(0), summary.Inserted)

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(4), count)
}

func TestSeed_BundledDataFile(t *testing.T) {
	result, err := NewParser(config.SeederConfig{DataFile: "../../data/cities.tsv"}).ParseCities()

	require.NoError(t, err)
	assert.Zero(t, result.Skipped)
	assert.Greater(t, len(result.Cities), 50)
}
