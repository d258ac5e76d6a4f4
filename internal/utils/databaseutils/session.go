package databaseutils

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/mdobak/go-xerrors"
)

type txKey struct {
}

// SQLExecutor is implemented by both *sql.DB and *sql.Tx.
type SQLExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Session starts transactions and hands them to callbacks through the context.
type Session struct {
	db  *sql.DB
	log *slog.Logger
}

func NewSession(db *sql.DB, log *slog.Logger) *Session {
	return &Session{db: db, log: log}
}

// DoTransactionally runs fn in a new transaction that is committed when fn
// returns nil and rolled back otherwise. Transactions are never shared
// between calls, even when ctx already carries one.
func (s *Session) DoTransactionally(ctx context.Context, opts *sql.TxOptions, fn func(txCtx context.Context) error) (err error) {
	tx, err := s.db.BeginTx(ctx, opts)
	if err != nil {
		return xerrors.New("session: failed to begin transaction", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}

		if err != nil {
			if rollbackErr := tx.Rollback(); rollbackErr != nil {
				s.log.Error("session: failed to rollback transaction",
					slog.String("rollback_error", rollbackErr.Error()),
					slog.String("error", err.Error()))
			}
			return
		}

		if commitErr := tx.Commit(); commitErr != nil {
			err = xerrors.New("session: failed to commit transaction", commitErr)
		}
	}()

	return fn(context.WithValue(ctx, txKey{}, tx))
}

// InTransaction reports whether ctx carries a transaction started by a Session.
func InTransaction(ctx context.Context) bool {
	_, ok := ctx.Value(txKey{}).(*sql.Tx)
	return ok
}

// GetSQLExecutor returns the transaction stored in ctx, or fallbackDB when
// the call is not part of a transaction.
func GetSQLExecutor(ctx context.Context, fallbackDB *sql.DB) SQLExecutor {
	value := ctx.Value(txKey{})
	if value == nil {
		return fallbackDB
	}

	tx, ok := value.(*sql.Tx)
	if !ok {
		panic(fmt.Sprintf("session: value in context for txKey is not a *sql.Tx, but %T", value))
	}
	return tx
}
