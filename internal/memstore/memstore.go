// Package memstore keeps users, articles and comments in process memory. It
// implements the same repository contracts as the postgres models and is used
// for local runs and tests.
package memstore

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/mdobak/go-xerrors"
	"github.com/siahsang/conduit/internal/core"
	"github.com/siahsang/conduit/internal/filter"
	"github.com/siahsang/conduit/internal/utils/collectionutils"
	"github.com/siahsang/conduit/internal/utils/functional"
	"github.com/siahsang/conduit/models"
)

type pair struct {
	left, right int64
}

// Store is safe for concurrent use. Every repository method takes the store
// lock itself; InTx additionally serializes read-write units of work.
type Store struct {
	mu   sync.RWMutex
	txMu sync.Mutex
	now  func() time.Time

	users      map[int64]*models.User
	lastUserID int64
	followers  map[pair]struct{} // followee, follower

	articles      map[int64]*models.Article
	lastArticleID int64
	articleTags   map[int64][]string
	favorites     map[pair]struct{} // article, user

	comments map[int64][]*models.Comment
}

var (
	_ core.UserRepository    = (*Users)(nil)
	_ core.ArticleRepository = (*Articles)(nil)
	_ core.CommentRepository = (*Comments)(nil)
	_ core.Transactor        = (*Store)(nil)
)

func New() *Store {
	return &Store{
		now:         time.Now,
		users:       make(map[int64]*models.User),
		followers:   make(map[pair]struct{}),
		articles:    make(map[int64]*models.Article),
		articleTags: make(map[int64][]string),
		favorites:   make(map[pair]struct{}),
		comments:    make(map[int64][]*models.Comment),
	}
}

// WithClock replaces the time source used for timestamps.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

// Users returns the user repository view of the store.
func (s *Store) Users() *Users { return &Users{s: s} }

// Articles returns the article repository view of the store.
func (s *Store) Articles() *Articles { return &Articles{s: s} }

// Comments returns the comment repository view of the store.
func (s *Store) Comments() *Comments { return &Comments{s: s} }

// InTx runs fn while holding the write serialization lock. Changes made before
// fn fails are not undone.
func (s *Store) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()
	return fn(ctx)
}

func (s *Store) ReadOnly(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// Users is the UserRepository backed by a Store.
type Users struct {
	s *Store
}

func (r *Users) Create(_ context.Context, user *models.User) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkUnique(user); err != nil {
		return err
	}

	s.lastUserID++
	user.ID = s.lastUserID
	s.users[user.ID] = cloneUser(user)
	return nil
}

func (r *Users) Update(_ context.Context, user *models.User) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[user.ID]; !ok {
		return xerrors.New(core.ErrUserNotFound)
	}
	if err := s.checkUnique(user); err != nil {
		return err
	}

	s.users[user.ID] = cloneUser(user)
	return nil
}

func (s *Store) checkUnique(user *models.User) error {
	for _, u := range s.users {
		if u.ID == user.ID {
			continue
		}
		if u.Email == user.Email {
			return xerrors.New(core.ErrEmailTaken)
		}
		if u.Username == user.Username {
			return xerrors.New(core.ErrUsernameTaken)
		}
	}
	return nil
}

func (r *Users) FindByEmail(_ context.Context, email string) (*models.User, error) {
	return r.s.findUser(func(u *models.User) bool { return u.Email == email })
}

func (r *Users) FindByUsername(_ context.Context, username string) (*models.User, error) {
	return r.s.findUser(func(u *models.User) bool { return u.Username == username })
}

func (r *Users) FindByID(_ context.Context, id int64) (*models.User, error) {
	return r.s.findUser(func(u *models.User) bool { return u.ID == id })
}

func (r *Users) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return exists(r.FindByEmail(ctx, email))
}

func (r *Users) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	return exists(r.FindByUsername(ctx, username))
}

func exists(_ *models.User, err error) (bool, error) {
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, core.ErrUserNotFound):
		return false, nil
	default:
		return false, err
	}
}

func (s *Store) findUser(match func(*models.User) bool) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if match(u) {
			return cloneUser(u), nil
		}
	}
	return nil, xerrors.New(core.ErrUserNotFound)
}

func (s *Store) userByName(username string) (int64, bool) {
	for _, u := range s.users {
		if u.Username == username {
			return u.ID, true
		}
	}
	return 0, false
}

func (r *Users) AddFollower(_ context.Context, followeeID, followerID int64) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	s.followers[pair{followeeID, followerID}] = struct{}{}
	return nil
}

func (r *Users) RemoveFollower(_ context.Context, followeeID, followerID int64) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.followers, pair{followeeID, followerID})
	return nil
}

func (r *Users) HasFollower(_ context.Context, followeeID, followerID int64) (bool, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.followers[pair{followeeID, followerID}]
	return ok, nil
}

// Articles is the ArticleRepository backed by a Store.
type Articles struct {
	s *Store
}

func (r *Articles) Create(_ context.Context, article *models.Article) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.slugTaken(article.Slug, 0) {
		return xerrors.New(core.ErrDuplicateSlug)
	}

	s.lastArticleID++
	now := s.now()
	article.ID = s.lastArticleID
	article.CreatedAt = now
	article.UpdatedAt = now
	s.articles[article.ID] = cloneArticle(article)
	return nil
}

func (r *Articles) Update(_ context.Context, article *models.Article) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.articles[article.ID]
	if !ok {
		return xerrors.New(core.ErrArticleNotFound)
	}
	if s.slugTaken(article.Slug, article.ID) {
		return xerrors.New(core.ErrDuplicateSlug)
	}

	article.CreatedAt = stored.CreatedAt
	article.UpdatedAt = s.now()
	s.articles[article.ID] = cloneArticle(article)
	return nil
}

func (s *Store) slugTaken(slug string, exceptID int64) bool {
	for _, a := range s.articles {
		if a.Slug == slug && a.ID != exceptID {
			return true
		}
	}
	return false
}

func (r *Articles) Delete(_ context.Context, articleID int64) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.articles[articleID]; !ok {
		return xerrors.New(core.ErrArticleNotFound)
	}

	delete(s.articles, articleID)
	delete(s.articleTags, articleID)
	delete(s.comments, articleID)
	for fav := range s.favorites {
		if fav.left == articleID {
			delete(s.favorites, fav)
		}
	}
	return nil
}

func (r *Articles) ExistsBySlug(_ context.Context, slug string) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.s.slugTaken(slug, 0), nil
}

func (r *Articles) GetBySlug(_ context.Context, slug string) (*models.Article, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, a := range r.s.articles {
		if a.Slug == slug {
			return cloneArticle(a), nil
		}
	}
	return nil, xerrors.New(core.ErrArticleNotFound)
}

func (r *Articles) GetArticles(_ context.Context, f filter.ArticleFilter) ([]*models.Article, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	matched := r.s.match(f)
	sort.Slice(matched, func(i, j int) bool {
		return newer(matched[i].CreatedAt, matched[i].ID, matched[j].CreatedAt, matched[j].ID)
	})
	return page(matched, f.Filter), nil
}

func (r *Articles) GetArticlesCount(_ context.Context, f filter.ArticleFilter) (int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return int64(len(r.s.match(f))), nil
}

func (s *Store) match(f filter.ArticleFilter) []*models.Article {
	var (
		authorID    int64
		favoriterID int64
	)
	if f.Author != nil {
		id, ok := s.userByName(*f.Author)
		if !ok {
			return nil
		}
		authorID = id
	}
	if f.FavoritedBy != nil {
		id, ok := s.userByName(*f.FavoritedBy)
		if !ok {
			return nil
		}
		favoriterID = id
	}

	var matched []*models.Article
	for _, a := range s.articles {
		if f.Author != nil && a.AuthorID != authorID {
			continue
		}
		if f.Tag != nil && !contains(s.articleTags[a.ID], *f.Tag) {
			continue
		}
		if f.FavoritedBy != nil {
			if _, ok := s.favorites[pair{a.ID, favoriterID}]; !ok {
				continue
			}
		}
		matched = append(matched, a)
	}
	return matched
}

func (r *Articles) GetFeed(_ context.Context, viewerID int64, f filter.Filter) ([]*models.Article, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	feed := r.s.feed(viewerID)
	sort.Slice(feed, func(i, j int) bool {
		return newer(feed[i].UpdatedAt, feed[i].ID, feed[j].UpdatedAt, feed[j].ID)
	})
	return page(feed, f), nil
}

func (r *Articles) GetFeedCount(_ context.Context, viewerID int64) (int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return int64(len(r.s.feed(viewerID))), nil
}

func (s *Store) feed(viewerID int64) []*models.Article {
	return collectionutils.Filter(s.allArticles(), func(a *models.Article) bool {
		_, ok := s.followers[pair{a.AuthorID, viewerID}]
		return ok
	})
}

func (s *Store) allArticles() []*models.Article {
	all := make([]*models.Article, 0, len(s.articles))
	for _, a := range s.articles {
		all = append(all, a)
	}
	return all
}

func (r *Articles) AddFavorite(_ context.Context, articleID, userID int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.favorites[pair{articleID, userID}] = struct{}{}
	return nil
}

func (r *Articles) RemoveFavorite(_ context.Context, articleID, userID int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.favorites, pair{articleID, userID})
	return nil
}

func (r *Articles) IsFavorited(_ context.Context, articleID, userID int64) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	_, ok := r.s.favorites[pair{articleID, userID}]
	return ok, nil
}

func (r *Articles) FavoritesCount(_ context.Context, articleID int64) (int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var n int64
	for fav := range r.s.favorites {
		if fav.left == articleID {
			n++
		}
	}
	return n, nil
}

func (r *Articles) GetTags(_ context.Context, articleID int64) ([]string, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return append([]string{}, r.s.articleTags[articleID]...), nil
}

func (r *Articles) AddTags(_ context.Context, articleID int64, tags []string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	merged := collectionutils.Distinct(append(append([]string{}, r.s.articleTags[articleID]...), tags...))
	sort.Strings(merged)
	r.s.articleTags[articleID] = merged
	return nil
}

func (r *Articles) AllTags(_ context.Context) ([]string, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var all []string
	for _, tags := range r.s.articleTags {
		all = append(all, tags...)
	}
	all = collectionutils.Distinct(all)
	sort.Strings(all)
	return all, nil
}

// Comments is the CommentRepository backed by a Store.
type Comments struct {
	s *Store
}

// Add numbers comments per article. Deleted comments stay in the slice, so an
// ID is never handed out twice.
func (r *Comments) Add(_ context.Context, comment *models.Comment) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.articles[comment.ArticleID]; !ok {
		return xerrors.New(core.ErrArticleNotFound)
	}

	now := s.now()
	comment.ID = int64(len(s.comments[comment.ArticleID]) + 1)
	comment.CreatedAt = now
	comment.UpdatedAt = now
	comment.Deleted = false
	s.comments[comment.ArticleID] = append(s.comments[comment.ArticleID], cloneComment(comment))
	return nil
}

func (r *Comments) Delete(_ context.Context, articleID, commentID int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	c, ok := r.s.liveComment(articleID, commentID)
	if !ok {
		return xerrors.New(core.ErrCommentNotFound)
	}
	c.Deleted = true
	c.UpdatedAt = r.s.now()
	return nil
}

func (r *Comments) Get(_ context.Context, articleID, commentID int64) (*models.Comment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	c, ok := r.s.liveComment(articleID, commentID)
	if !ok {
		return nil, xerrors.New(core.ErrCommentNotFound)
	}
	return cloneComment(c), nil
}

func (r *Comments) List(_ context.Context, articleID int64) ([]*models.Comment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	live := collectionutils.Filter(r.s.comments[articleID], func(c *models.Comment) bool { return !c.Deleted })
	return functional.Map(live, cloneComment), nil
}

func (s *Store) liveComment(articleID, commentID int64) (*models.Comment, bool) {
	list := s.comments[articleID]
	if commentID < 1 || commentID > int64(len(list)) {
		return nil, false
	}
	c := list[commentID-1]
	if c.Deleted {
		return nil, false
	}
	return c, true
}

func newer(at time.Time, id int64, bt time.Time, bid int64) bool {
	if !at.Equal(bt) {
		return at.After(bt)
	}
	return id > bid
}

func page(articles []*models.Article, f filter.Filter) []*models.Article {
	return functional.Map(functional.Window(articles, f.Offset, f.Limit), cloneArticle)
}

func contains(items []string, item string) bool {
	for _, i := range items {
		if i == item {
			return true
		}
	}
	return false
}

func cloneUser(u *models.User) *models.User {
	c := *u
	return &c
}

func cloneArticle(a *models.Article) *models.Article {
	c := *a
	return &c
}

func cloneComment(cm *models.Comment) *models.Comment {
	c := *cm
	return &c
}
