// Package migrations embeds the schema migrations for the durable snapshot
// stores and applies them with goose.
package migrations

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"

	"github.com/pressly/goose/v3"
)

//go:embed sqlite/*.sql postgres/*.sql
var files embed.FS

// Dialect directories inside the embedded filesystem.
const (
	DirSQLite   = "sqlite"
	DirPostgres = "postgres"
)

// Source returns the migration files for one dialect directory.
func Source(dir string) (fs.FS, error) {
	sub, err := fs.Sub(files, dir)
	if err != nil {
		return nil, fmt.Errorf("migrations %s: %w", dir, err)
	}
	return sub, nil
}

// UpSQLite applies every pending SQLite migration.
func UpSQLite(ctx context.Context, db *sql.DB) error {
	return up(ctx, db, goose.DialectSQLite3, DirSQLite)
}

// UpPostgres applies every pending Postgres migration.
func UpPostgres(ctx context.Context, db *sql.DB) error {
	return up(ctx, db, goose.DialectPostgres, DirPostgres)
}

func up(ctx context.Context, db *sql.DB, dialect goose.Dialect, dir string) error {
	source, err := Source(dir)
	if err != nil {
		return err
	}
	provider, err := goose.NewProvider(dialect, db, source)
	if err != nil {
		return fmt.Errorf("goose provider: %w", err)
	}
	if _, err := provider.Up(ctx); err != nil {
		return fmt.Errorf("apply %s migrations: %w", dir, err)
	}
	return nil
}
