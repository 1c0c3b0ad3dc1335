package database

import (
	"context"
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func TestSplitStatements(t *testing.T) {
	script := `-- header comment
CREATE TABLE a (id INTEGER);

-- only a comment;
INSERT INTO a (id) VALUES (1);
INSERT INTO a (id) VALUES (2)`

	stmts := splitStatements(script)
	assert.Equal(t, []string{
		"CREATE TABLE a (id INTEGER)",
		"INSERT INTO a (id) VALUES (1)",
		"INSERT INTO a (id) VALUES (2)",
	}, stmts)
}

func TestSetupIsIdempotentAndSeedsOnce(t *testing.T) {
	ctx := context.Background()
	db, err := Open(ctx, DriverSQLite, "file::memory:?_foreign_keys=on")
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, Setup(ctx, db, true, quietLogger()))

	var courses, subCourses, challenges int
	require.NoError(t, db.GetContext(ctx, &courses, "SELECT COUNT(*) FROM cours"))
	require.NoError(t, db.GetContext(ctx, &subCourses, "SELECT COUNT(*) FROM sous_cours"))
	require.NoError(t, db.GetContext(ctx, &challenges, "SELECT COUNT(*) FROM defis"))
	assert.Positive(t, courses)
	assert.Positive(t, challenges)

	// A second boot must neither fail on existing tables nor seed twice.
	require.NoError(t, Setup(ctx, db, true, quietLogger()))

	var coursesAfter, challengesAfter int
	require.NoError(t, db.GetContext(ctx, &coursesAfter, "SELECT COUNT(*) FROM cours"))
	require.NoError(t, db.GetContext(ctx, &challengesAfter, "SELECT COUNT(*) FROM defis"))
	assert.Equal(t, courses, coursesAfter)
	assert.Equal(t, challenges, challengesAfter)
	assert.Positive(t, subCourses)
}

func TestIsInitialized(t *testing.T) {
	ctx := context.Background()
	db, err := Open(ctx, DriverSQLite, "file::memory:?_foreign_keys=on")
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, Setup(ctx, db, false, quietLogger()))

	ok, err := IsInitialized(ctx, db, "badges")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = db.ExecContext(ctx, "INSERT INTO badges (titre) VALUES ('Premier pas')")
	require.NoError(t, err)

	ok, err = IsInitialized(ctx, db, "badges")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestLockClause(t *testing.T) {
	assert.Equal(t, " FOR UPDATE", LockClause(driverName(DriverPostgres)))
	assert.Equal(t, "", LockClause(driverName(DriverSQLite)))
}

type driverName string

func (d driverName) DriverName() string { return string(d) }
