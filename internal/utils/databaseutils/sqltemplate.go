package databaseutils

import (
	"context"
	"database/sql"
	"time"

	"github.com/mdobak/go-xerrors"
)

// SQLTemplate runs queries against the transaction carried by the context, or
// against DB, with a per-statement timeout.
type SQLTemplate struct {
	DB      *sql.DB
	Timeout time.Duration
}

func NewSQLTemplate(db *sql.DB, timeout time.Duration) *SQLTemplate {
	return &SQLTemplate{
		DB:      db,
		Timeout: timeout,
	}
}

func (t *SQLTemplate) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if t.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, t.Timeout)
}

func ExecuteQuery[T any](sqlTemplate *SQLTemplate, ctx context.Context, query string, extractor func(rows *sql.Rows) (T, error), args ...any) ([]T, error) {
	ctx, cancel := sqlTemplate.withTimeout(ctx)
	defer cancel()

	rows, err := GetSQLExecutor(ctx, sqlTemplate.DB).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []T
	for rows.Next() {
		t, err := extractor(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return results, nil
}

// ExecuteSingleQuery returns sql.ErrNoRows when the query yields no row.
func ExecuteSingleQuery[T any](sqlTemplate *SQLTemplate, ctx context.Context, query string, extractor func(rows *sql.Rows) (T, error), args ...any) (T, error) {
	var zero T
	results, err := ExecuteQuery(sqlTemplate, ctx, query, extractor, args...)
	if err != nil {
		return zero, err
	}
	if len(results) == 0 {
		return zero, sql.ErrNoRows
	}
	return results[0], nil
}

// Execute runs a statement and returns the number of affected rows.
func Execute(sqlTemplate *SQLTemplate, ctx context.Context, query string, args ...any) (int64, error) {
	ctx, cancel := sqlTemplate.withTimeout(ctx)
	defer cancel()

	result, err := GetSQLExecutor(ctx, sqlTemplate.DB).ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// WithSavepoint runs fn behind a savepoint when ctx carries a transaction. A
// failing statement in fn is rolled back to the savepoint, so the transaction
// stays usable for the statements that follow.
func WithSavepoint(sqlTemplate *SQLTemplate, ctx context.Context, name string, fn func() error) error {
	if !InTransaction(ctx) {
		return fn()
	}

	if _, err := Execute(sqlTemplate, ctx, "SAVEPOINT "+name); err != nil {
		return xerrors.New(err)
	}

	if err := fn(); err != nil {
		if _, rollbackErr := Execute(sqlTemplate, ctx, "ROLLBACK TO SAVEPOINT "+name); rollbackErr != nil {
			return xerrors.New("savepoint: failed to rollback", rollbackErr)
		}
		return err
	}

	if _, err := Execute(sqlTemplate, ctx, "RELEASE SAVEPOINT "+name); err != nil {
		return xerrors.New(err)
	}
	return nil
}
