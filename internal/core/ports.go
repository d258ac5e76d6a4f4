package core

import (
	"context"

	"github.com/siahsang/conduit/internal/filter"
	"github.com/siahsang/conduit/models"
)

// UserRepository persists users and the follow relation. Lookups return
// ErrUserNotFound when no row matches.
type UserRepository interface {
	// Create inserts the user and fills in its ID. A unique violation is
	// reported as ErrEmailTaken or ErrUsernameTaken.
	Create(ctx context.Context, user *models.User) error

	// Update overwrites email, username, password, bio and image of the user
	// with the given ID.
	Update(ctx context.Context, user *models.User) error

	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	FindByID(ctx context.Context, id int64) (*models.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)

	// AddFollower records that followerID follows followeeID. Adding an
	// existing pair is a no-op.
	AddFollower(ctx context.Context, followeeID, followerID int64) error

	// RemoveFollower deletes the pair if present.
	RemoveFollower(ctx context.Context, followeeID, followerID int64) error

	HasFollower(ctx context.Context, followeeID, followerID int64) (bool, error)
}

// ArticleRepository persists articles, their tags and the favorite relation.
type ArticleRepository interface {
	// Create inserts the article and fills in ID and timestamps. It returns
	// ErrDuplicateSlug when the slug is taken.
	Create(ctx context.Context, article *models.Article) error

	// Update stores slug, title, description and body and refreshes UpdatedAt.
	// It returns ErrDuplicateSlug when the new slug is taken.
	Update(ctx context.Context, article *models.Article) error

	Delete(ctx context.Context, articleID int64) error
	ExistsBySlug(ctx context.Context, slug string) (bool, error)

	// GetBySlug returns ErrArticleNotFound when no article has the slug.
	GetBySlug(ctx context.Context, slug string) (*models.Article, error)

	// GetArticles lists articles matching every predicate of f, newest first.
	GetArticles(ctx context.Context, f filter.ArticleFilter) ([]*models.Article, error)
	GetArticlesCount(ctx context.Context, f filter.ArticleFilter) (int64, error)

	// GetFeed lists articles written by users that viewerID follows, most
	// recently updated first.
	GetFeed(ctx context.Context, viewerID int64, f filter.Filter) ([]*models.Article, error)
	GetFeedCount(ctx context.Context, viewerID int64) (int64, error)

	// AddFavorite is a no-op when the pair already exists.
	AddFavorite(ctx context.Context, articleID, userID int64) error
	RemoveFavorite(ctx context.Context, articleID, userID int64) error
	IsFavorited(ctx context.Context, articleID, userID int64) (bool, error)
	FavoritesCount(ctx context.Context, articleID int64) (int64, error)

	// GetTags returns the tag names attached to the article.
	GetTags(ctx context.Context, articleID int64) ([]string, error)
	AddTags(ctx context.Context, articleID int64, tags []string) error

	// AllTags returns every tag that is attached to at least one article.
	AllTags(ctx context.Context) ([]string, error)
}

// CommentRepository persists comments. Comments are soft deleted.
type CommentRepository interface {
	// Add assigns the next per-article ID and the timestamps.
	Add(ctx context.Context, comment *models.Comment) error

	Delete(ctx context.Context, articleID, commentID int64) error

	// Get returns ErrCommentNotFound for unknown or deleted comments.
	Get(ctx context.Context, articleID, commentID int64) (*models.Comment, error)

	// List returns the live comments of the article, oldest first.
	List(ctx context.Context, articleID int64) ([]*models.Comment, error)
}

// Auth issues tokens and hashes passwords.
type Auth interface {
	CreateToken(userID int64) (string, error)
	// ParseToken returns ErrInvalidToken for malformed, forged or expired tokens.
	ParseToken(token string) (int64, error)
	EncryptPassword(plain string) (string, error)
	CheckPassword(plain, hash string) (bool, error)
}

// Transactor runs fn inside a fresh transaction carried by the context given
// to fn. The transaction is committed when fn returns nil.
type Transactor interface {
	// InTx starts a read-committed read-write transaction.
	InTx(ctx context.Context, fn func(ctx context.Context) error) error
	// ReadOnly starts a read-only transaction with a stable snapshot.
	ReadOnly(ctx context.Context, fn func(ctx context.Context) error) error
}

// TagCache holds the global tag list.
type TagCache interface {
	// Get reports ok=false on a cache miss.
	Get(ctx context.Context) (tags []string, ok bool, err error)
	Set(ctx context.Context, tags []string) error
	Invalidate(ctx context.Context) error
}

type noopTagCache struct{}

func (noopTagCache) Get(context.Context) ([]string, bool, error) { return nil, false, nil }
func (noopTagCache) Set(context.Context, []string) error         { return nil }
func (noopTagCache) Invalidate(context.Context) error            { return nil }
