package core

import (
	"context"
	"log/slog"
)

// Ports are the collaborators the use cases are built from. Tags may be nil,
// in which case the tag list is always read from the ArticleRepository.
type Ports struct {
	Users        UserRepository
	Articles     ArticleRepository
	Comments     CommentRepository
	Auth         Auth
	Tx           Transactor
	Tags         TagCache
	SlugAttempts int
}

// Core groups one orchestrator per command.
type Core struct {
	Authenticate *Authenticate
	Register     *RegisterUser
	Login        *LoginUser
	CurrentUser  *GetCurrentUser
	UpdateUser   *UpdateUser

	GetProfile *GetProfile
	Follow     *FollowUser
	Unfollow   *UnfollowUser

	CreateArticle *CreateArticle
	GetArticle    *GetArticle
	UpdateArticle *UpdateArticle
	DeleteArticle *DeleteArticle
	ListArticles  *ListArticles
	Feed          *FeedArticles
	Favorite      *FavoriteArticle
	Unfavorite    *UnfavoriteArticle

	AddComment    *AddComment
	ListComments  *ListComments
	DeleteComment *DeleteComment

	ListTags *ListTags
}

func New(p Ports, log *slog.Logger) *Core {
	tags := p.Tags
	if tags == nil {
		tags = noopTagCache{}
	}

	views := NewViews(p.Users, p.Articles)
	slugs := NewSlugGenerator(p.Articles, p.SlugAttempts)

	return &Core{
		Authenticate: &Authenticate{tx: p.Tx, users: p.Users, auth: p.Auth},
		Register: &RegisterUser{
			tx:        p.Tx,
			users:     p.Users,
			auth:      p.Auth,
			validator: NewRegistrationValidator(p.Users, p.Auth),
			log:       log,
		},
		Login:       &LoginUser{tx: p.Tx, users: p.Users, auth: p.Auth},
		CurrentUser: &GetCurrentUser{tx: p.Tx, users: p.Users},
		UpdateUser: &UpdateUser{
			tx:        p.Tx,
			users:     p.Users,
			auth:      p.Auth,
			validator: NewUserUpdateValidator(p.Users, p.Auth),
			log:       log,
		},

		GetProfile: &GetProfile{tx: p.Tx, users: p.Users, views: views},
		Follow:     &FollowUser{tx: p.Tx, users: p.Users, views: views, log: log},
		Unfollow:   &UnfollowUser{tx: p.Tx, users: p.Users, views: views, log: log},

		CreateArticle: &CreateArticle{tx: p.Tx, articles: p.Articles, slugs: slugs, views: views, tags: tags, log: log},
		GetArticle:    &GetArticle{tx: p.Tx, articles: p.Articles, views: views},
		UpdateArticle: &UpdateArticle{tx: p.Tx, articles: p.Articles, slugs: slugs, views: views, log: log},
		DeleteArticle: &DeleteArticle{tx: p.Tx, articles: p.Articles, tags: tags, log: log},
		ListArticles:  &ListArticles{tx: p.Tx, articles: p.Articles, views: views},
		Feed:          &FeedArticles{tx: p.Tx, articles: p.Articles, views: views},
		Favorite:      &FavoriteArticle{tx: p.Tx, articles: p.Articles, views: views, log: log},
		Unfavorite:    &UnfavoriteArticle{tx: p.Tx, articles: p.Articles, views: views, log: log},

		AddComment:    &AddComment{tx: p.Tx, articles: p.Articles, comments: p.Comments, views: views},
		ListComments:  &ListComments{tx: p.Tx, articles: p.Articles, comments: p.Comments, views: views},
		DeleteComment: &DeleteComment{tx: p.Tx, articles: p.Articles, comments: p.Comments, log: log},

		ListTags: &ListTags{tx: p.Tx, articles: p.Articles, cache: tags, log: log},
	}
}

// invalidateTags drops the cached tag list. The cache is best effort, so a
// failure is only logged.
func invalidateTags(ctx context.Context, cache TagCache, log *slog.Logger) {
	if err := cache.Invalidate(ctx); err != nil {
		log.Warn("failed to invalidate tag cache", slog.String("error", err.Error()))
	}
}
