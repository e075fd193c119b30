package database

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/alexivanou/cityinfo-api/internal/config"
	"github.com/golang-migrate/migrate/v4"
	migratedb "github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jmoiron/sqlx"
)

// NewMigrator binds golang-migrate to an open connection. migrationsDir holds
// one subdirectory per backend (postgres, sqlite). Using the live connection
// keeps in-memory SQLite databases reachable.
func NewMigrator(db *sqlx.DB, cfg config.DBConfig, migrationsDir string) (*migrate.Migrate, error) {
	var (
		driver     migratedb.Driver
		driverName string
		subdir     string
		err        error
	)

	if cfg.IsMemory() {
		driverName, subdir = "sqlite3", "sqlite"
		driver, err = sqlite3.WithInstance(db.DB, &sqlite3.Config{})
	} else {
		driverName, subdir = "postgres", "postgres"
		driver, err = postgres.WithInstance(db.DB, &postgres.Config{})
	}
	if err != nil {
		return nil, fmt.Errorf("could not create %s migration driver: %w", driverName, err)
	}

	sourceURL := "file://" + filepath.ToSlash(filepath.Join(migrationsDir, subdir))
	m, err := migrate.NewWithDatabaseInstance(sourceURL, driverName, driver)
	if err != nil {
		return nil, fmt.Errorf("could not create migrate instance: %w", err)
	}
	return m, nil
}

// MigrateUp applies all pending migrations
func MigrateUp(db *sqlx.DB, cfg config.DBConfig, migrationsDir string) error {
	m, err := NewMigrator(db, cfg, migrationsDir)
	if err != nil {
		return err
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	return nil
}
