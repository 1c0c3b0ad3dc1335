package database

import (
	"context"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3" // SQLite driver
	"github.com/sirupsen/logrus"
)

const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "pgx"
)

// Open connects to the database, verifies the connection and tunes the pool for the driver.
func Open(ctx context.Context, driver, dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	switch driver {
	case DriverSQLite:
		// SQLite has a single writer; one connection also keeps :memory: databases alive.
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		db.SetConnMaxLifetime(0)
	default:
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(25)
		db.SetConnMaxLifetime(5 * time.Minute)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("error connecting to database: %w", err)
	}
	return db, nil
}

// Setup creates the schema and, when seed is true, fills empty catalogue tables.
func Setup(ctx context.Context, db *sqlx.DB, seed bool, logger logrus.FieldLogger) error {
	if err := Migrate(ctx, db); err != nil {
		return err
	}
	logger.Info("database schema ready")

	if !seed {
		return nil
	}
	return Seed(ctx, db, logger)
}

// LockClause returns the row-locking suffix for SELECT statements run inside a transaction.
// SQLite serializes writers so it needs none.
func LockClause(db interface{ DriverName() string }) string {
	if db.DriverName() == DriverPostgres {
		return " FOR UPDATE"
	}
	return ""
}
