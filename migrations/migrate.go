// Package migrations embeds the goose migrations of both databases: the
// server's PostgreSQL document table and the client's SQLite key-value table.
package migrations

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"

	"github.com/pressly/goose/v3"
)

// Dialect names a migration set. The value is also its directory.
type Dialect string

const (
	Postgres Dialect = "postgres"
	SQLite   Dialect = "sqlite"
)

//go:embed postgres/*.sql sqlite/*.sql
var embedMigrations embed.FS

var gooseDialects = map[Dialect]goose.Dialect{
	Postgres: goose.DialectPostgres,
	SQLite:   goose.DialectSQLite3,
}

var errNilDB = errors.New("db is nil")

// Migrate applies every pending migration of dialect to db and returns how
// many were applied.
func Migrate(ctx context.Context, db *sql.DB, dialect Dialect) (int, error) {
	if db == nil {
		return 0, fmt.Errorf("migration error: %w", errNilDB)
	}

	gooseDialect, ok := gooseDialects[dialect]
	if !ok {
		return 0, fmt.Errorf("migration error: unknown dialect %q", dialect)
	}

	fsys, err := fs.Sub(embedMigrations, string(dialect))
	if err != nil {
		return 0, fmt.Errorf("migration error: %w", err)
	}

	provider, err := goose.NewProvider(gooseDialect, db, fsys)
	if err != nil {
		return 0, fmt.Errorf("migration error: %w", err)
	}

	results, err := provider.Up(ctx)
	if err != nil {
		return len(results), fmt.Errorf("migration error: %w", err)
	}
	return len(results), nil
}
