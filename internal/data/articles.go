package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/lib/pq"
	"github.com/mdobak/go-xerrors"
	"github.com/siahsang/conduit/internal/core"
	"github.com/siahsang/conduit/internal/filter"
	"github.com/siahsang/conduit/internal/utils/databaseutils"
	"github.com/siahsang/conduit/models"
)

const articlesSlugKey = "articles_slug_key"

const articleColumns = `a.id, a.slug, a.title, a.description, a.body, a.author_id, a.created_at, a.updated_at`

type ArticleModel struct {
	sqlTemplate *databaseutils.SQLTemplate
	log         *slog.Logger
}

var _ core.ArticleRepository = (*ArticleModel)(nil)

// Create relies on ON CONFLICT so that a taken slug does not abort the
// surrounding transaction; the caller can retry with another slug.
func (m *ArticleModel) Create(ctx context.Context, article *models.Article) error {
	query := `
		INSERT INTO articles (slug, title, description, body, author_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, now(), now())
		ON CONFLICT (slug) DO NOTHING
		RETURNING id, created_at, updated_at
	`
	args := []any{article.Slug, article.Title, article.Description, article.Body, article.AuthorID}

	_, err := databaseutils.ExecuteSingleQuery(m.sqlTemplate, ctx, query, func(rows *sql.Rows) (*models.Article, error) {
		if err := rows.Scan(&article.ID, &article.CreatedAt, &article.UpdatedAt); err != nil {
			return nil, xerrors.New(err)
		}
		return article, nil
	}, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return xerrors.New(core.ErrDuplicateSlug)
		}
		return mapArticleConstraint(err)
	}

	return nil
}

// Update skips the write when another article owns the new slug. A slug taken
// concurrently after that check fails the statement with a unique violation;
// the statement runs behind a savepoint so the surrounding transaction can
// still retry with another slug.
func (m *ArticleModel) Update(ctx context.Context, article *models.Article) error {
	query := `
		UPDATE articles
		SET slug = $1, title = $2, description = $3, body = $4, updated_at = now()
		WHERE id = $5
		  AND NOT EXISTS (SELECT 1 FROM articles other WHERE other.slug = $1 AND other.id <> $5)
		RETURNING updated_at
	`
	args := []any{article.Slug, article.Title, article.Description, article.Body, article.ID}

	return databaseutils.WithSavepoint(m.sqlTemplate, ctx, "update_article", func() error {
		_, err := databaseutils.ExecuteSingleQuery(m.sqlTemplate, ctx, query, func(rows *sql.Rows) (*models.Article, error) {
			if err := rows.Scan(&article.UpdatedAt); err != nil {
				return nil, xerrors.New(err)
			}
			return article, nil
		}, args...)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return xerrors.New(core.ErrDuplicateSlug)
			}
			return mapArticleConstraint(err)
		}
		return nil
	})
}

func (m *ArticleModel) Delete(ctx context.Context, articleID int64) error {
	affected, err := databaseutils.Execute(m.sqlTemplate, ctx, `DELETE FROM articles WHERE id = $1`, articleID)
	if err != nil {
		return xerrors.New(err)
	}
	if affected == 0 {
		return xerrors.New(core.ErrArticleNotFound)
	}
	return nil
}

func (m *ArticleModel) ExistsBySlug(ctx context.Context, slug string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM articles WHERE slug = $1)`

	exists, err := databaseutils.ExecuteSingleQuery(m.sqlTemplate, ctx, query, scanBool, slug)
	if err != nil {
		return false, xerrors.New(err)
	}
	return exists, nil
}

func (m *ArticleModel) GetBySlug(ctx context.Context, slug string) (*models.Article, error) {
	query := `SELECT ` + articleColumns + ` FROM articles a WHERE a.slug = $1`

	article, err := databaseutils.ExecuteSingleQuery(m.sqlTemplate, ctx, query, scanArticle, slug)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, xerrors.New(core.ErrArticleNotFound)
		default:
			return nil, xerrors.New(err)
		}
	}
	return article, nil
}

func (m *ArticleModel) GetArticles(ctx context.Context, f filter.ArticleFilter) ([]*models.Article, error) {
	where, args := articleConditions(f)
	args = append(args, f.Limit, f.Offset)

	query := fmt.Sprintf(`
		SELECT %s
		FROM articles a
		%s
		ORDER BY a.created_at DESC, a.id DESC
		LIMIT $%d OFFSET $%d
	`, articleColumns, where, len(args)-1, len(args))

	articles, err := databaseutils.ExecuteQuery(m.sqlTemplate, ctx, query, scanArticle, args...)
	if err != nil {
		return nil, xerrors.New(err)
	}
	return articles, nil
}

func (m *ArticleModel) GetArticlesCount(ctx context.Context, f filter.ArticleFilter) (int64, error) {
	where, args := articleConditions(f)
	query := `SELECT COUNT(*) FROM articles a ` + where

	count, err := databaseutils.ExecuteSingleQuery(m.sqlTemplate, ctx, query, scanInt64, args...)
	if err != nil {
		return 0, xerrors.New(err)
	}
	return count, nil
}

func (m *ArticleModel) GetFeed(ctx context.Context, viewerID int64, f filter.Filter) ([]*models.Article, error) {
	query := `
		SELECT ` + articleColumns + `
		FROM articles a
		WHERE a.author_id IN (SELECT followee_id FROM followers WHERE follower_id = $1)
		ORDER BY a.updated_at DESC, a.id DESC
		LIMIT $2 OFFSET $3
	`

	articles, err := databaseutils.ExecuteQuery(m.sqlTemplate, ctx, query, scanArticle, viewerID, f.Limit, f.Offset)
	if err != nil {
		return nil, xerrors.New(err)
	}
	return articles, nil
}

func (m *ArticleModel) GetFeedCount(ctx context.Context, viewerID int64) (int64, error) {
	query := `
		SELECT COUNT(*)
		FROM articles a
		WHERE a.author_id IN (SELECT followee_id FROM followers WHERE follower_id = $1)
	`

	count, err := databaseutils.ExecuteSingleQuery(m.sqlTemplate, ctx, query, scanInt64, viewerID)
	if err != nil {
		return 0, xerrors.New(err)
	}
	return count, nil
}

func (m *ArticleModel) AddFavorite(ctx context.Context, articleID, userID int64) error {
	query := `
		INSERT INTO favorites (article_id, user_id)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING
	`

	if _, err := databaseutils.Execute(m.sqlTemplate, ctx, query, articleID, userID); err != nil {
		return xerrors.New(err)
	}
	return nil
}

func (m *ArticleModel) RemoveFavorite(ctx context.Context, articleID, userID int64) error {
	query := `DELETE FROM favorites WHERE article_id = $1 AND user_id = $2`

	if _, err := databaseutils.Execute(m.sqlTemplate, ctx, query, articleID, userID); err != nil {
		return xerrors.New(err)
	}
	return nil
}

func (m *ArticleModel) IsFavorited(ctx context.Context, articleID, userID int64) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM favorites WHERE article_id = $1 AND user_id = $2
		)
	`

	favorited, err := databaseutils.ExecuteSingleQuery(m.sqlTemplate, ctx, query, scanBool, articleID, userID)
	if err != nil {
		return false, xerrors.New(err)
	}
	return favorited, nil
}

func (m *ArticleModel) FavoritesCount(ctx context.Context, articleID int64) (int64, error) {
	query := `SELECT COUNT(*) FROM favorites WHERE article_id = $1`

	count, err := databaseutils.ExecuteSingleQuery(m.sqlTemplate, ctx, query, scanInt64, articleID)
	if err != nil {
		return 0, xerrors.New(err)
	}
	return count, nil
}

func (m *ArticleModel) GetTags(ctx context.Context, articleID int64) ([]string, error) {
	query := `
		SELECT t.name
		FROM tags t
		JOIN article_tags at ON at.tag_id = t.id
		WHERE at.article_id = $1
		ORDER BY t.name
	`

	tags, err := databaseutils.ExecuteQuery(m.sqlTemplate, ctx, query, scanString, articleID)
	if err != nil {
		return nil, xerrors.New(err)
	}
	return tags, nil
}

// AddTags creates missing tags and links all of them to the article.
func (m *ArticleModel) AddTags(ctx context.Context, articleID int64, tags []string) error {
	if len(tags) == 0 {
		return nil
	}

	insertTags := `
		INSERT INTO tags (name)
		SELECT unnest($1::text[])
		ON CONFLICT (name) DO NOTHING
	`
	if _, err := databaseutils.Execute(m.sqlTemplate, ctx, insertTags, pq.Array(tags)); err != nil {
		return xerrors.New(err)
	}

	linkTags := `
		INSERT INTO article_tags (article_id, tag_id)
		SELECT $1, id FROM tags WHERE name = ANY($2)
		ON CONFLICT DO NOTHING
	`
	if _, err := databaseutils.Execute(m.sqlTemplate, ctx, linkTags, articleID, pq.Array(tags)); err != nil {
		return xerrors.New(err)
	}

	return nil
}

func (m *ArticleModel) AllTags(ctx context.Context) ([]string, error) {
	query := `
		SELECT DISTINCT t.name
		FROM tags t
		JOIN article_tags at ON at.tag_id = t.id
		ORDER BY t.name
	`

	tags, err := databaseutils.ExecuteQuery(m.sqlTemplate, ctx, query, scanString)
	if err != nil {
		return nil, xerrors.New(err)
	}
	return tags, nil
}

// articleConditions builds the WHERE clause of an article listing. Every
// predicate that is set is ANDed.
func articleConditions(f filter.ArticleFilter) (string, []any) {
	var (
		conditions []string
		args       []any
	)

	if f.Author != nil {
		args = append(args, *f.Author)
		conditions = append(conditions, fmt.Sprintf(
			`a.author_id = (SELECT id FROM users WHERE username = $%d)`, len(args)))
	}
	if f.Tag != nil {
		args = append(args, *f.Tag)
		conditions = append(conditions, fmt.Sprintf(
			`EXISTS (SELECT 1 FROM article_tags at JOIN tags t ON t.id = at.tag_id WHERE at.article_id = a.id AND t.name = $%d)`, len(args)))
	}
	if f.FavoritedBy != nil {
		args = append(args, *f.FavoritedBy)
		conditions = append(conditions, fmt.Sprintf(
			`EXISTS (SELECT 1 FROM favorites f JOIN users fu ON fu.id = f.user_id WHERE f.article_id = a.id AND fu.username = $%d)`, len(args)))
	}

	if len(conditions) == 0 {
		return "", args
	}
	return "WHERE " + strings.Join(conditions, " AND "), args
}

func scanArticle(rows *sql.Rows) (*models.Article, error) {
	article := &models.Article{}
	if err := rows.Scan(
		&article.ID,
		&article.Slug,
		&article.Title,
		&article.Description,
		&article.Body,
		&article.AuthorID,
		&article.CreatedAt,
		&article.UpdatedAt,
	); err != nil {
		return nil, xerrors.New(err)
	}
	return article, nil
}

func mapArticleConstraint(err error) error {
	if constraint, ok := uniqueViolationConstraint(err); ok && constraint == articlesSlugKey {
		return xerrors.New(core.ErrDuplicateSlug)
	}
	return xerrors.New(err)
}
