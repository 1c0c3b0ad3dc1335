package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

type seedGroup struct {
	table  string
	script string
}

// Each group is applied only when its table has no row yet.
var seedGroups = []seedGroup{
	{table: "cours", script: "seed/cours.sql"},
	{table: "exercices", script: "seed/exercices.sql"},
	{table: "badges", script: "seed/badges.sql"},
	{table: "defis", script: "seed/defis.sql"},
}

func Seed(ctx context.Context, db *sqlx.DB, logger logrus.FieldLogger) error {
	for _, g := range seedGroups {
		initialized, err := IsInitialized(ctx, db, g.table)
		if err != nil {
			return err
		}
		if initialized {
			logger.WithField("table", g.table).Debug("seed skipped, table already populated")
			continue
		}

		if err := seedTable(ctx, db, g.script); err != nil {
			return fmt.Errorf("seeding %s: %w", g.table, err)
		}
		logger.WithField("table", g.table).Info("table seeded")
	}
	return nil
}

func seedTable(ctx context.Context, db *sqlx.DB, script string) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := execScript(ctx, tx, script); err != nil {
		return err
	}
	return tx.Commit()
}

// IsInitialized reports whether the table holds at least one row.
func IsInitialized(ctx context.Context, db sqlx.QueryerContext, table string) (bool, error) {
	var one int
	err := db.QueryRowxContext(ctx, "SELECT 1 FROM "+table+" LIMIT 1").Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("checking %s: %w", table, err)
	}
	return true, nil
}
