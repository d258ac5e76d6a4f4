package core

import (
	"context"

	"github.com/mdobak/go-xerrors"
	"github.com/siahsang/conduit/models"
)

// Views builds the read models returned by the use cases. It only reads; the
// caller decides the transaction the reads run in.
type Views struct {
	users    UserRepository
	articles ArticleRepository
}

func NewViews(users UserRepository, articles ArticleRepository) *Views {
	return &Views{users: users, articles: articles}
}

// Profile projects user as seen by viewer. Anonymous viewers and users looking
// at themselves get FollowUnknown.
func (v *Views) Profile(ctx context.Context, viewer *models.User, user *models.User) (*models.Profile, error) {
	profile := &models.Profile{
		ID:        user.ID,
		Username:  user.Username,
		Bio:       user.Bio,
		Image:     user.Image,
		Following: models.FollowUnknown,
	}

	if viewer == nil || viewer.ID == user.ID {
		return profile, nil
	}

	following, err := v.users.HasFollower(ctx, user.ID, viewer.ID)
	if err != nil {
		return nil, xerrors.New(err)
	}
	profile.Following = models.FollowStateOf(following)

	return profile, nil
}

func (v *Views) ProfileByID(ctx context.Context, viewer *models.User, userID int64) (*models.Profile, error) {
	user, err := v.users.FindByID(ctx, userID)
	if err != nil {
		return nil, xerrors.New(err)
	}
	return v.Profile(ctx, viewer, user)
}

func (v *Views) Article(ctx context.Context, viewer *models.User, article *models.Article) (*models.ArticleView, error) {
	tags, err := v.articles.GetTags(ctx, article.ID)
	if err != nil {
		return nil, xerrors.New(err)
	}
	if tags == nil {
		tags = []string{}
	}

	count, err := v.articles.FavoritesCount(ctx, article.ID)
	if err != nil {
		return nil, xerrors.New(err)
	}

	favorited := false
	if viewer != nil {
		favorited, err = v.articles.IsFavorited(ctx, article.ID, viewer.ID)
		if err != nil {
			return nil, xerrors.New(err)
		}
	}

	author, err := v.ProfileByID(ctx, viewer, article.AuthorID)
	if err != nil {
		return nil, err
	}

	return &models.ArticleView{
		Slug:           article.Slug,
		Title:          article.Title,
		Description:    article.Description,
		Body:           article.Body,
		TagList:        tags,
		CreatedAt:      article.CreatedAt,
		UpdatedAt:      article.UpdatedAt,
		Favorited:      favorited,
		FavoritesCount: count,
		Author:         *author,
	}, nil
}

// Articles assembles every row with its own set of lookups.
func (v *Views) Articles(ctx context.Context, viewer *models.User, articles []*models.Article) ([]*models.ArticleView, error) {
	views := make([]*models.ArticleView, 0, len(articles))
	for _, article := range articles {
		view, err := v.Article(ctx, viewer, article)
		if err != nil {
			return nil, err
		}
		views = append(views, view)
	}
	return views, nil
}

func (v *Views) Comment(ctx context.Context, viewer *models.User, comment *models.Comment) (*models.CommentView, error) {
	author, err := v.ProfileByID(ctx, viewer, comment.AuthorID)
	if err != nil {
		return nil, err
	}

	return &models.CommentView{
		ID:        comment.ID,
		CreatedAt: comment.CreatedAt,
		UpdatedAt: comment.UpdatedAt,
		Body:      comment.Body,
		Author:    *author,
	}, nil
}
