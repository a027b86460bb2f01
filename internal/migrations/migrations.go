// Package migrations holds the goose migrations of the relational schema.
// Migrations are Go functions registered at init, so the binaries carry them
// and no SQL files need to ship alongside.
package migrations

import (
	"context"
	"database/sql"

	"github.com/pressly/goose/v3"
)

// Dir is handed to goose. Only the registered Go migrations are used.
const Dir = "."

// Up applies every pending migration
func Up(ctx context.Context, db *sql.DB) error {
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	return goose.UpContext(ctx, db, Dir)
}
