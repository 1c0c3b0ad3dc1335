package database

import (
	"context"
	"embed"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
)

//go:embed schema/*.sql seed/*.sql
var scripts embed.FS

// Migrate creates every table that does not exist yet.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	name := "schema/sqlite.sql"
	if db.DriverName() == DriverPostgres {
		name = "schema/postgres.sql"
	}
	if err := execScript(ctx, db, name); err != nil {
		return fmt.Errorf("error while building database schema: %w", err)
	}
	return nil
}

func execScript(ctx context.Context, db sqlx.ExecerContext, name string) error {
	raw, err := scripts.ReadFile(name)
	if err != nil {
		return err
	}
	for _, stmt := range splitStatements(string(raw)) {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	return nil
}

// splitStatements cuts a script on semicolons ending a line and drops comment-only chunks.
func splitStatements(script string) []string {
	var stmts []string
	for _, chunk := range strings.Split(script, ";\n") {
		var lines []string
		for _, line := range strings.Split(chunk, "\n") {
			trimmed := strings.TrimSpace(line)
			if trimmed == "" || strings.HasPrefix(trimmed, "--") {
				continue
			}
			lines = append(lines, line)
		}
		stmt := strings.TrimSuffix(strings.TrimSpace(strings.Join(lines, "\n")), ";")
		if stmt != "" {
			stmts = append(stmts, stmt)
		}
	}
	return stmts
}
