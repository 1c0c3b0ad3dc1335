// Package dbtest provides throwaway databases for tests.
package dbtest

import (
	"context"
	"io"
	"testing"

	"dactylo_api/internal/platform/database"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

// MemoryDSN is a private in-memory SQLite database with foreign keys enforced.
const MemoryDSN = "file::memory:?_foreign_keys=on"

// Logger discards everything.
func Logger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

// New opens an in-memory database with the full schema. Seeding is optional.
func New(t testing.TB, seed bool) *sqlx.DB {
	t.Helper()
	ctx := context.Background()

	db, err := database.Open(ctx, database.DriverSQLite, MemoryDSN)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, database.Setup(ctx, db, seed, Logger()))
	return db
}
