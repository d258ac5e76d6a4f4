package memstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/siahsang/conduit/internal/core"
	"github.com/siahsang/conduit/internal/filter"
	"github.com/siahsang/conduit/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type tickingClock struct {
	t time.Time
}

func (c *tickingClock) now() time.Time {
	c.t = c.t.Add(time.Second)
	return c.t
}

func newStore() *Store {
	clock := &tickingClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	return New().WithClock(clock.now)
}

func mustUser(t *testing.T, s *Store, name string) *models.User {
	t.Helper()
	u := &models.User{Email: name + "@example.com", Username: name, Password: "hash"}
	require.NoError(t, s.Users().Create(context.Background(), u))
	return u
}

func mustArticle(t *testing.T, s *Store, slug string, authorID int64, tags ...string) *models.Article {
	t.Helper()
	a := &models.Article{Slug: slug, Title: slug, AuthorID: authorID}
	require.NoError(t, s.Articles().Create(context.Background(), a))
	if len(tags) > 0 {
		require.NoError(t, s.Articles().AddTags(context.Background(), a.ID, tags))
	}
	return a
}

func TestUsersUniqueness(t *testing.T) {
	s := newStore()
	ctx := context.Background()
	mustUser(t, s, "jake")

	err := s.Users().Create(ctx, &models.User{Email: "jake@example.com", Username: "other"})
	assert.True(t, errors.Is(err, core.ErrEmailTaken))

	err = s.Users().Create(ctx, &models.User{Email: "other@example.com", Username: "jake"})
	assert.True(t, errors.Is(err, core.ErrUsernameTaken))

	exists, err := s.Users().ExistsByUsername(ctx, "jake")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = s.Users().ExistsByEmail(ctx, "nobody@example.com")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestUsersReturnCopies(t *testing.T) {
	s := newStore()
	u := mustUser(t, s, "jake")

	found, err := s.Users().FindByID(context.Background(), u.ID)
	require.NoError(t, err)
	found.Username = "changed"

	again, err := s.Users().FindByID(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Equal(t, "jake", again.Username)
}

func TestArticlesRejectTakenSlug(t *testing.T) {
	s := newStore()
	mustArticle(t, s, "dragons", 1)

	err := s.Articles().Create(context.Background(), &models.Article{Slug: "dragons", AuthorID: 1})
	assert.True(t, errors.Is(err, core.ErrDuplicateSlug))
}

func TestArticlesFilters(t *testing.T) {
	s := newStore()
	ctx := context.Background()
	jake := mustUser(t, s, "jake")
	jane := mustUser(t, s, "jane")

	first := mustArticle(t, s, "first", jake.ID, "dragons")
	mustArticle(t, s, "second", jake.ID, "training")
	third := mustArticle(t, s, "third", jane.ID, "dragons")
	require.NoError(t, s.Articles().AddFavorite(ctx, first.ID, jane.ID))

	tag, author, favorited, nobody := "dragons", "jake", "jane", "nobody"
	tests := []struct {
		name string
		f    filter.ArticleFilter
		want []string
	}{
		{"all newest first", filter.ArticleFilter{Filter: filter.Default()}, []string{"third", "second", "first"}},
		{"by tag", filter.ArticleFilter{Filter: filter.Default(), Tag: &tag}, []string{third.Slug, first.Slug}},
		{"by tag and author", filter.ArticleFilter{Filter: filter.Default(), Tag: &tag, Author: &author}, []string{first.Slug}},
		{"favorited by", filter.ArticleFilter{Filter: filter.Default(), FavoritedBy: &favorited}, []string{first.Slug}},
		{"unknown author", filter.ArticleFilter{Filter: filter.Default(), Author: &nobody}, []string{}},
		{"paged", filter.ArticleFilter{Filter: filter.NewFilter(1, 1)}, []string{"second"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			articles, err := s.Articles().GetArticles(ctx, tt.f)
			require.NoError(t, err)

			slugs := make([]string, 0, len(articles))
			for _, a := range articles {
				slugs = append(slugs, a.Slug)
			}
			assert.Equal(t, tt.want, slugs)
		})
	}

	count, err := s.Articles().GetArticlesCount(ctx, filter.ArticleFilter{Filter: filter.NewFilter(1, 1)})
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
}

func TestFeedOrdersByUpdate(t *testing.T) {
	s := newStore()
	ctx := context.Background()
	jake := mustUser(t, s, "jake")
	jane := mustUser(t, s, "jane")
	tarzan := mustUser(t, s, "tarzan")

	older := mustArticle(t, s, "older", jake.ID)
	mustArticle(t, s, "newer", jake.ID)
	mustArticle(t, s, "unfollowed", tarzan.ID)
	require.NoError(t, s.Users().AddFollower(ctx, jake.ID, jane.ID))

	older.Body = "edited"
	require.NoError(t, s.Articles().Update(ctx, older))

	feed, err := s.Articles().GetFeed(ctx, jane.ID, filter.Default())
	require.NoError(t, err)
	require.Len(t, feed, 2)
	assert.Equal(t, "older", feed[0].Slug)
	assert.Equal(t, "newer", feed[1].Slug)

	count, err := s.Articles().GetFeedCount(ctx, jane.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestCommentIDsAreScopedAndNeverReused(t *testing.T) {
	s := newStore()
	ctx := context.Background()
	a := mustArticle(t, s, "a", 1)
	b := mustArticle(t, s, "b", 1)

	for _, articleID := range []int64{a.ID, a.ID, b.ID} {
		require.NoError(t, s.Comments().Add(ctx, &models.Comment{ArticleID: articleID, Body: "hi", AuthorID: 1}))
	}
	require.NoError(t, s.Comments().Delete(ctx, a.ID, 2))

	next := &models.Comment{ArticleID: a.ID, Body: "again", AuthorID: 1}
	require.NoError(t, s.Comments().Add(ctx, next))
	assert.Equal(t, int64(3), next.ID)

	list, err := s.Comments().List(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, int64(1), list[0].ID)
	assert.Equal(t, int64(3), list[1].ID)

	_, err = s.Comments().Get(ctx, a.ID, 2)
	assert.True(t, errors.Is(err, core.ErrCommentNotFound))
	assert.True(t, errors.Is(s.Comments().Delete(ctx, a.ID, 2), core.ErrCommentNotFound))

	onB, err := s.Comments().List(ctx, b.ID)
	require.NoError(t, err)
	require.Len(t, onB, 1)
	assert.Equal(t, int64(1), onB[0].ID)
}

func TestDeleteArticleDropsDependents(t *testing.T) {
	s := newStore()
	ctx := context.Background()
	a := mustArticle(t, s, "a", 1, "dragons")
	require.NoError(t, s.Articles().AddFavorite(ctx, a.ID, 2))

	require.NoError(t, s.Articles().Delete(ctx, a.ID))

	tags, err := s.Articles().AllTags(ctx)
	require.NoError(t, err)
	assert.Empty(t, tags)

	count, err := s.Articles().FavoritesCount(ctx, a.ID)
	require.NoError(t, err)
	assert.Zero(t, count)
}
