package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/alexivanou/cityinfo-api/internal/config"
	_ "github.com/jackc/pgx/v5/stdlib" // Postgres driver for database/sql
	"github.com/jmoiron/sqlx"
	"github.com/mattn/go-sqlite3"
)

// SQLiteDriver is go-sqlite3 with a go_lower(text) function on every
// connection. SQLite's own LOWER folds ASCII only, go_lower folds Unicode the
// same way strings.ToLower does.
const SQLiteDriver = "sqlite3_cityinfo"

func init() {
	sql.Register(SQLiteDriver, &sqlite3.SQLiteDriver{
		ConnectHook: func(conn *sqlite3.SQLiteConn) error {
			return conn.RegisterFunc("go_lower", strings.ToLower, true)
		},
	})
	sqlx.BindDriver(SQLiteDriver, sqlx.QUESTION)
}

// Connect creates a database connection based on configuration using sqlx
func Connect(ctx context.Context, cfg config.DBConfig) (*sqlx.DB, error) {
	var driverName string
	var dsn string

	if cfg.IsMemory() {
		driverName = SQLiteDriver
		dsn = cfg.DSN()
	} else {
		driverName = "pgx"
		dsn = cfg.DSN()
	}

	db, err := sqlx.ConnectContext(ctx, driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// A shared in-memory SQLite database is dropped once its last connection
	// closes, so idle connections must never be recycled.
	if cfg.IsMemory() {
		db.SetMaxIdleConns(2)
		db.SetConnMaxLifetime(0)
		db.SetConnMaxIdleTime(0)
	} else {
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(30 * time.Minute)
	}

	return db, nil
}
