package accounts

import (
	"context"
	"database/sql"
	"sync"

	goerrors "github.com/goliatone/go-errors"
	"github.com/pressly/goose/v3"
)

const migrationsDir = "data/sql/migrations"

// goose keeps its base FS and dialect in package state
var migrateMu sync.Mutex

// Migrate applies the embedded schema migrations. dialect is a goose
// dialect name, e.g. "sqlite3" or "postgres".
func Migrate(ctx context.Context, db *sql.DB, dialect string) error {
	migrateMu.Lock()
	defer migrateMu.Unlock()

	goose.SetBaseFS(GetMigrationsFS())
	defer goose.SetBaseFS(nil)

	if err := goose.SetDialect(dialect); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "unsupported migration dialect").
			WithMetadata(map[string]any{"dialect": dialect})
	}

	if err := goose.UpContext(ctx, db, migrationsDir); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to apply migrations")
	}

	return nil
}
