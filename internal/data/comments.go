package data

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/mdobak/go-xerrors"
	"github.com/siahsang/conduit/internal/core"
	"github.com/siahsang/conduit/internal/utils/databaseutils"
	"github.com/siahsang/conduit/models"
)

type CommentModel struct {
	sqlTemplate *databaseutils.SQLTemplate
	log         *slog.Logger
}

var _ core.CommentRepository = (*CommentModel)(nil)

// Add locks the article row so that concurrent comments on the same article
// get consecutive ids. Deleted comments keep their id, so ids never repeat.
func (m *CommentModel) Add(ctx context.Context, comment *models.Comment) error {
	lockSQL := `SELECT id FROM articles WHERE id = $1 FOR UPDATE`
	if _, err := databaseutils.ExecuteSingleQuery(m.sqlTemplate, ctx, lockSQL, scanInt64, comment.ArticleID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return xerrors.New(core.ErrArticleNotFound)
		}
		return xerrors.New(err)
	}

	insertSQL := `
		INSERT INTO comments (article_id, id, body, author_id, created_at, updated_at)
		VALUES ($1, (SELECT COALESCE(MAX(id), 0) + 1 FROM comments WHERE article_id = $1), $2, $3, now(), now())
		RETURNING id, created_at, updated_at
	`

	_, err := databaseutils.ExecuteSingleQuery(m.sqlTemplate, ctx, insertSQL, func(rows *sql.Rows) (*models.Comment, error) {
		if err := rows.Scan(&comment.ID, &comment.CreatedAt, &comment.UpdatedAt); err != nil {
			return nil, xerrors.New(err)
		}
		return comment, nil
	}, comment.ArticleID, comment.Body, comment.AuthorID)
	if err != nil {
		return xerrors.New(err)
	}

	return nil
}

func (m *CommentModel) Delete(ctx context.Context, articleID, commentID int64) error {
	query := `
		UPDATE comments
		SET deleted = true, updated_at = now()
		WHERE article_id = $1 AND id = $2 AND NOT deleted
	`

	affected, err := databaseutils.Execute(m.sqlTemplate, ctx, query, articleID, commentID)
	if err != nil {
		return xerrors.New(err)
	}
	if affected == 0 {
		return xerrors.New(core.ErrCommentNotFound)
	}
	return nil
}

func (m *CommentModel) Get(ctx context.Context, articleID, commentID int64) (*models.Comment, error) {
	query := `
		SELECT article_id, id, body, author_id, created_at, updated_at, deleted
		FROM comments
		WHERE article_id = $1 AND id = $2 AND NOT deleted
	`

	comment, err := databaseutils.ExecuteSingleQuery(m.sqlTemplate, ctx, query, scanComment, articleID, commentID)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, xerrors.New(core.ErrCommentNotFound)
		default:
			return nil, xerrors.New(err)
		}
	}
	return comment, nil
}

func (m *CommentModel) List(ctx context.Context, articleID int64) ([]*models.Comment, error) {
	query := `
		SELECT article_id, id, body, author_id, created_at, updated_at, deleted
		FROM comments
		WHERE article_id = $1 AND NOT deleted
		ORDER BY id
	`

	comments, err := databaseutils.ExecuteQuery(m.sqlTemplate, ctx, query, scanComment, articleID)
	if err != nil {
		return nil, xerrors.New(err)
	}
	return comments, nil
}

func scanComment(rows *sql.Rows) (*models.Comment, error) {
	comment := &models.Comment{}
	if err := rows.Scan(
		&comment.ArticleID,
		&comment.ID,
		&comment.Body,
		&comment.AuthorID,
		&comment.CreatedAt,
		&comment.UpdatedAt,
		&comment.Deleted,
	); err != nil {
		return nil, xerrors.New(err)
	}
	return comment, nil
}
