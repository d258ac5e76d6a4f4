package data

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/lib/pq"
	"github.com/siahsang/conduit/internal/core"
	"github.com/siahsang/conduit/internal/utils/databaseutils"
)

const uniqueViolation = "23505"

// Models are the postgres implementations of the core repository ports.
type Models struct {
	Users    *UserModel
	Articles *ArticleModel
	Comments *CommentModel
	Tx       *Transactor
}

func NewModels(db *sql.DB, log *slog.Logger, queryTimeout time.Duration) Models {
	sqlTemplate := databaseutils.NewSQLTemplate(db, queryTimeout)
	return Models{
		Users:    &UserModel{sqlTemplate: sqlTemplate, log: log},
		Articles: &ArticleModel{sqlTemplate: sqlTemplate, log: log},
		Comments: &CommentModel{sqlTemplate: sqlTemplate, log: log},
		Tx:       NewTransactor(databaseutils.NewSession(db, log)),
	}
}

// Transactor opens a new transaction for every use case invocation.
type Transactor struct {
	session *databaseutils.Session
}

var _ core.Transactor = (*Transactor)(nil)

func NewTransactor(session *databaseutils.Session) *Transactor {
	return &Transactor{session: session}
}

func (t *Transactor) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return t.session.DoTransactionally(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted}, fn)
}

func (t *Transactor) ReadOnly(ctx context.Context, fn func(ctx context.Context) error) error {
	return t.session.DoTransactionally(ctx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true}, fn)
}

// uniqueViolationConstraint returns the name of the violated unique
// constraint, if err is a unique violation.
func uniqueViolationConstraint(err error) (string, bool) {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return pqErr.Constraint, true
	}
	return "", false
}

func fromNullString(ns sql.NullString) *string {
	if ns.Valid {
		v := ns.String
		return &v
	}
	return nil
}

func toNullString(p *string) sql.NullString {
	if p == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *p, Valid: true}
}

func scanBool(rows *sql.Rows) (bool, error) {
	var b bool
	err := rows.Scan(&b)
	return b, err
}

func scanInt64(rows *sql.Rows) (int64, error) {
	var n int64
	err := rows.Scan(&n)
	return n, err
}

func scanString(rows *sql.Rows) (string, error) {
	var s string
	err := rows.Scan(&s)
	return s, err
}
