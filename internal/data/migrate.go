package data

import (
	"context"
	"database/sql"
	_ "embed"

	"github.com/mdobak/go-xerrors"
)

//go:embed schema.sql
var schema string

// Migrate creates the tables that do not exist yet. It is safe to run on
// every start.
func Migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return xerrors.New(err)
	}
	return nil
}
