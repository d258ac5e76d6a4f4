package data

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/siahsang/conduit/internal/core"
	"github.com/siahsang/conduit/internal/filter"
	"github.com/siahsang/conduit/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sqlmock "gopkg.in/DATA-DOG/go-sqlmock.v1"
)

func newTestModels(t *testing.T) (Models, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewModels(db, log, time.Second), mock
}

func TestUserCreateFillsID(t *testing.T) {
	m, mock := newTestModels(t)

	mock.ExpectQuery("INSERT INTO users").
		WithArgs("jake@jake.jake", "jake", "hash", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))

	user := &models.User{Email: "jake@jake.jake", Username: "jake", Password: "hash"}
	require.NoError(t, m.Users.Create(context.Background(), user))

	assert.Equal(t, int64(7), user.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserCreateMapsUniqueViolations(t *testing.T) {
	tests := []struct {
		constraint string
		want       error
	}{
		{usersEmailKey, core.ErrEmailTaken},
		{usersUsernameKey, core.ErrUsernameTaken},
	}

	for _, tt := range tests {
		t.Run(tt.constraint, func(t *testing.T) {
			m, mock := newTestModels(t)

			mock.ExpectQuery("INSERT INTO users").
				WillReturnError(&pq.Error{Code: uniqueViolation, Constraint: tt.constraint})

			err := m.Users.Create(context.Background(), &models.User{Email: "a@b.c", Username: "a"})
			assert.True(t, errors.Is(err, tt.want))
			assert.Equal(t, core.CategoryConflict, core.CategoryOf(err))
		})
	}
}

func TestUserCreateKeepsOtherErrorsInternal(t *testing.T) {
	m, mock := newTestModels(t)

	mock.ExpectQuery("INSERT INTO users").WillReturnError(errors.New("connection reset"))

	err := m.Users.Create(context.Background(), &models.User{Email: "a@b.c", Username: "a"})
	require.Error(t, err)
	assert.Equal(t, core.CategoryInternal, core.CategoryOf(err))
}

func TestUserFindByEmail(t *testing.T) {
	m, mock := newTestModels(t)

	mock.ExpectQuery("SELECT id, email, username, password, bio, image").
		WithArgs("jake@jake.jake").
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "username", "password", "bio", "image"}).
			AddRow(1, "jake@jake.jake", "jake", "hash", "I work at statefarm", nil))

	user, err := m.Users.FindByEmail(context.Background(), "jake@jake.jake")
	require.NoError(t, err)

	assert.Equal(t, "jake", user.Username)
	require.NotNil(t, user.Bio)
	assert.Equal(t, "I work at statefarm", *user.Bio)
	assert.Nil(t, user.Image)
}

func TestUserFindByUsernameNotFound(t *testing.T) {
	m, mock := newTestModels(t)

	mock.ExpectQuery("FROM users").
		WithArgs("nobody").
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "username", "password", "bio", "image"}))

	_, err := m.Users.FindByUsername(context.Background(), "nobody")
	assert.True(t, errors.Is(err, core.ErrUserNotFound))
}

func TestUserUpdateMissingRow(t *testing.T) {
	m, mock := newTestModels(t)

	mock.ExpectExec("UPDATE users").WillReturnResult(sqlmock.NewResult(0, 0))

	err := m.Users.Update(context.Background(), &models.User{ID: 99})
	assert.True(t, errors.Is(err, core.ErrUserNotFound))
}

func TestUserExistsByEmail(t *testing.T) {
	m, mock := newTestModels(t)

	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("jake@jake.jake").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	exists, err := m.Users.ExistsByEmail(context.Background(), "jake@jake.jake")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestArticleCreateReportsTakenSlug(t *testing.T) {
	m, mock := newTestModels(t)

	mock.ExpectQuery("INSERT INTO articles").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}))

	err := m.Articles.Create(context.Background(), &models.Article{Slug: "taken", AuthorID: 1})
	assert.True(t, errors.Is(err, core.ErrDuplicateSlug))
}

func TestArticleCreateFillsGeneratedColumns(t *testing.T) {
	m, mock := newTestModels(t)
	now := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	mock.ExpectQuery("INSERT INTO articles").
		WithArgs("how-to-train-your-dragon", "How to train your dragon", "Ever wonder how?", "You have to believe", int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(3, now, now))

	article := &models.Article{
		Slug:        "how-to-train-your-dragon",
		Title:       "How to train your dragon",
		Description: "Ever wonder how?",
		Body:        "You have to believe",
		AuthorID:    1,
	}
	require.NoError(t, m.Articles.Create(context.Background(), article))

	assert.Equal(t, int64(3), article.ID)
	assert.Equal(t, now, article.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestArticleUpdateMapsRacingSlug(t *testing.T) {
	m, mock := newTestModels(t)

	mock.ExpectQuery("UPDATE articles").
		WillReturnError(&pq.Error{Code: uniqueViolation, Constraint: articlesSlugKey})

	err := m.Articles.Update(context.Background(), &models.Article{ID: 1, Slug: "x"})
	assert.True(t, errors.Is(err, core.ErrDuplicateSlug))
}

func TestArticleUpdateRacingSlugKeepsTransactionUsable(t *testing.T) {
	m, mock := newTestModels(t)

	mock.ExpectBegin()
	mock.ExpectExec("SAVEPOINT update_article").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("UPDATE articles").
		WillReturnError(&pq.Error{Code: uniqueViolation, Constraint: articlesSlugKey})
	mock.ExpectExec("ROLLBACK TO SAVEPOINT update_article").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("x-aaaaaa").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectCommit()

	err := m.Tx.InTx(context.Background(), func(ctx context.Context) error {
		err := m.Articles.Update(ctx, &models.Article{ID: 1, Slug: "x"})
		if !errors.Is(err, core.ErrDuplicateSlug) {
			return err
		}
		_, err = m.Articles.ExistsBySlug(ctx, "x-aaaaaa")
		return err
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestArticleUpdateReleasesSavepoint(t *testing.T) {
	m, mock := newTestModels(t)
	updatedAt := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectExec("SAVEPOINT update_article").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("UPDATE articles").
		WillReturnRows(sqlmock.NewRows([]string{"updated_at"}).AddRow(updatedAt))
	mock.ExpectExec("RELEASE SAVEPOINT update_article").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	article := &models.Article{ID: 1, Slug: "x"}
	err := m.Tx.InTx(context.Background(), func(ctx context.Context) error {
		return m.Articles.Update(ctx, article)
	})
	require.NoError(t, err)
	assert.Equal(t, updatedAt, article.UpdatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestArticleGetBySlugNotFound(t *testing.T) {
	m, mock := newTestModels(t)

	mock.ExpectQuery("FROM articles a WHERE a.slug").
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"id", "slug", "title", "description", "body", "author_id", "created_at", "updated_at"}))

	_, err := m.Articles.GetBySlug(context.Background(), "missing")
	assert.True(t, errors.Is(err, core.ErrArticleNotFound))
	assert.Equal(t, core.CategoryNotFound, core.CategoryOf(err))
}

func TestArticleListAppliesEveryFilter(t *testing.T) {
	m, mock := newTestModels(t)
	tag, author, favorited := "dragons", "jake", "jane"

	mock.ExpectQuery("(?s)username = \\$1.*t.name = \\$2.*fu.username = \\$3.*LIMIT \\$4 OFFSET \\$5").
		WithArgs(author, tag, favorited, int64(filter.DefaultLimit), int64(0)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "slug", "title", "description", "body", "author_id", "created_at", "updated_at"}))

	f := filter.ArticleFilter{Filter: filter.Default(), Tag: &tag, Author: &author, FavoritedBy: &favorited}
	articles, err := m.Articles.GetArticles(context.Background(), f)
	require.NoError(t, err)

	assert.Empty(t, articles)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestArticleConditionsWithoutFilters(t *testing.T) {
	where, args := articleConditions(filter.ArticleFilter{Filter: filter.Default()})

	assert.Empty(t, where)
	assert.Empty(t, args)
}

func TestArticleAddTagsSkipsEmptyList(t *testing.T) {
	m, mock := newTestModels(t)

	require.NoError(t, m.Articles.AddTags(context.Background(), 1, nil))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestArticleAddTags(t *testing.T) {
	m, mock := newTestModels(t)

	mock.ExpectExec("INSERT INTO tags").WithArgs(sqlmock.AnyArg()).WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec("INSERT INTO article_tags").WithArgs(int64(1), sqlmock.AnyArg()).WillReturnResult(sqlmock.NewResult(0, 2))

	require.NoError(t, m.Articles.AddTags(context.Background(), 1, []string{"dragons", "training"}))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCommentGetDeletedIsNotFound(t *testing.T) {
	m, mock := newTestModels(t)

	mock.ExpectQuery("FROM comments").
		WithArgs(int64(1), int64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"article_id", "id", "body", "author_id", "created_at", "updated_at", "deleted"}))

	_, err := m.Comments.Get(context.Background(), 1, 2)
	assert.True(t, errors.Is(err, core.ErrCommentNotFound))
}

func TestCommentAddOnMissingArticle(t *testing.T) {
	m, mock := newTestModels(t)

	mock.ExpectQuery("FOR UPDATE").
		WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	err := m.Comments.Add(context.Background(), &models.Comment{ArticleID: 5, Body: "hi", AuthorID: 1})
	assert.True(t, errors.Is(err, core.ErrArticleNotFound))
}

func TestCommentAddAssignsNextID(t *testing.T) {
	m, mock := newTestModels(t)
	now := time.Now().UTC()

	mock.ExpectQuery("FOR UPDATE").
		WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(5))
	mock.ExpectQuery("INSERT INTO comments").
		WithArgs(int64(5), "Thank you so much!", int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(2, now, now))

	comment := &models.Comment{ArticleID: 5, Body: "Thank you so much!", AuthorID: 1}
	require.NoError(t, m.Comments.Add(context.Background(), comment))

	assert.Equal(t, int64(2), comment.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCommentDeleteTwice(t *testing.T) {
	m, mock := newTestModels(t)

	mock.ExpectExec("UPDATE comments").WillReturnResult(sqlmock.NewResult(0, 0))

	err := m.Comments.Delete(context.Background(), 1, 2)
	assert.True(t, errors.Is(err, core.ErrCommentNotFound))
}

func TestTransactorCommitsOnSuccess(t *testing.T) {
	m, mock := newTestModels(t)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM favorites").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := m.Tx.InTx(context.Background(), func(ctx context.Context) error {
		return m.Articles.RemoveFavorite(ctx, 1, 2)
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactorRollsBackOnError(t *testing.T) {
	m, mock := newTestModels(t)

	mock.ExpectBegin()
	mock.ExpectRollback()

	err := m.Tx.InTx(context.Background(), func(ctx context.Context) error {
		return core.ErrNotArticleAuthor
	})
	assert.True(t, errors.Is(err, core.ErrNotArticleAuthor))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrateRunsSchema(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS users").WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, Migrate(context.Background(), db))
	assert.NoError(t, mock.ExpectationsWereMet())
}
