package core

import (
	"context"
	"log/slog"
	"strings"

	"github.com/mdobak/go-xerrors"
	"github.com/siahsang/conduit/internal/filter"
	"github.com/siahsang/conduit/internal/utils/collectionutils"
	"github.com/siahsang/conduit/internal/validator"
	"github.com/siahsang/conduit/models"
)

type CreateArticle struct {
	tx       Transactor
	articles ArticleRepository
	slugs    *SlugGenerator
	views    *Views
	tags     TagCache
	log      *slog.Logger
}

// Execute stores the article under a unique slug together with its tags. The
// result is built from what was written: the author is the caller, nobody has
// favorited it yet.
func (uc *CreateArticle) Execute(ctx context.Context, author *models.User, cmd CreateArticleCommand) (*models.ArticleView, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	tags := normalizeTags(cmd.TagList)
	article := &models.Article{
		Title:       cmd.Title,
		Description: cmd.Description,
		Body:        cmd.Body,
		AuthorID:    author.ID,
	}

	var authorProfile *models.Profile
	err := uc.tx.InTx(ctx, func(ctx context.Context) error {
		_, err := uc.slugs.Save(ctx, article.Title, func(slug string) error {
			article.Slug = slug
			return uc.articles.Create(ctx, article)
		})
		if err != nil {
			return err
		}

		if len(tags) > 0 {
			if err := uc.articles.AddTags(ctx, article.ID, tags); err != nil {
				return xerrors.New(err)
			}
		}

		authorProfile, err = uc.views.Profile(ctx, author, author)
		return err
	})
	if err != nil {
		return nil, err
	}

	if len(tags) > 0 {
		invalidateTags(ctx, uc.tags, uc.log)
	}

	uc.log.Info("article created", "slug", article.Slug, "author_id", author.ID)
	return &models.ArticleView{
		Slug:           article.Slug,
		Title:          article.Title,
		Description:    article.Description,
		Body:           article.Body,
		TagList:        tags,
		CreatedAt:      article.CreatedAt,
		UpdatedAt:      article.UpdatedAt,
		Favorited:      false,
		FavoritesCount: 0,
		Author:         *authorProfile,
	}, nil
}

type GetArticle struct {
	tx       Transactor
	articles ArticleRepository
	views    *Views
}

func (uc *GetArticle) Execute(ctx context.Context, viewer *models.User, slug string) (*models.ArticleView, error) {
	var view *models.ArticleView
	err := uc.tx.ReadOnly(ctx, func(ctx context.Context) error {
		article, err := uc.articles.GetBySlug(ctx, slug)
		if err != nil {
			return xerrors.New(err)
		}

		view, err = uc.views.Article(ctx, viewer, article)
		return err
	})
	if err != nil {
		return nil, err
	}

	return view, nil
}

type UpdateArticle struct {
	tx       Transactor
	articles ArticleRepository
	slugs    *SlugGenerator
	views    *Views
	log      *slog.Logger
}

// Execute applies the present fields of cmd. A new title gets a new slug
// unless it slugifies to the current one.
func (uc *UpdateArticle) Execute(ctx context.Context, viewer *models.User, slug string, cmd UpdateArticleCommand) (*models.ArticleView, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	var view *models.ArticleView
	err := uc.tx.InTx(ctx, func(ctx context.Context) error {
		article, err := uc.articles.GetBySlug(ctx, slug)
		if err != nil {
			return xerrors.New(err)
		}
		if article.AuthorID != viewer.ID {
			return xerrors.New(ErrNotArticleAuthor)
		}

		if cmd.Description != nil {
			article.Description = *cmd.Description
		}
		if cmd.Body != nil {
			article.Body = *cmd.Body
		}

		if cmd.Title != nil && *cmd.Title != article.Title {
			article.Title = *cmd.Title
			if Slugify(article.Title) != article.Slug {
				_, err = uc.slugs.Save(ctx, article.Title, func(candidate string) error {
					article.Slug = candidate
					return uc.articles.Update(ctx, article)
				})
				if err != nil {
					return err
				}
				view, err = uc.views.Article(ctx, viewer, article)
				return err
			}
		}

		if err := uc.articles.Update(ctx, article); err != nil {
			return xerrors.New(err)
		}
		view, err = uc.views.Article(ctx, viewer, article)
		return err
	})
	if err != nil {
		return nil, err
	}

	uc.log.Info("article updated", "slug", view.Slug, "previous_slug", slug)
	return view, nil
}

type DeleteArticle struct {
	tx       Transactor
	articles ArticleRepository
	tags     TagCache
	log      *slog.Logger
}

func (uc *DeleteArticle) Execute(ctx context.Context, viewer *models.User, slug string) error {
	err := uc.tx.InTx(ctx, func(ctx context.Context) error {
		article, err := uc.articles.GetBySlug(ctx, slug)
		if err != nil {
			return xerrors.New(err)
		}
		if article.AuthorID != viewer.ID {
			return xerrors.New(ErrNotArticleAuthor)
		}

		if err := uc.articles.Delete(ctx, article.ID); err != nil {
			return xerrors.New(err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	invalidateTags(ctx, uc.tags, uc.log)
	uc.log.Info("article deleted", "slug", slug, "author_id", viewer.ID)
	return nil
}

type ListArticles struct {
	tx       Transactor
	articles ArticleRepository
	views    *Views
}

// Execute lists the articles matching every predicate set on f.
func (uc *ListArticles) Execute(ctx context.Context, viewer *models.User, f filter.ArticleFilter) (*models.ArticleList, error) {
	v := validator.New()
	filter.ValidateFilters(v, f.Filter)
	if err := validationResult(v); err != nil {
		return nil, err
	}

	list := &models.ArticleList{}
	err := uc.tx.ReadOnly(ctx, func(ctx context.Context) error {
		articles, err := uc.articles.GetArticles(ctx, f)
		if err != nil {
			return xerrors.New(err)
		}

		list.ArticlesCount, err = uc.articles.GetArticlesCount(ctx, f)
		if err != nil {
			return xerrors.New(err)
		}

		list.Articles, err = uc.views.Articles(ctx, viewer, articles)
		return err
	})
	if err != nil {
		return nil, err
	}

	return list, nil
}

type FeedArticles struct {
	tx       Transactor
	articles ArticleRepository
	views    *Views
}

// Execute lists the articles of the authors viewer follows.
func (uc *FeedArticles) Execute(ctx context.Context, viewer *models.User, f filter.Filter) (*models.ArticleList, error) {
	v := validator.New()
	filter.ValidateFilters(v, f)
	if err := validationResult(v); err != nil {
		return nil, err
	}

	list := &models.ArticleList{}
	err := uc.tx.ReadOnly(ctx, func(ctx context.Context) error {
		articles, err := uc.articles.GetFeed(ctx, viewer.ID, f)
		if err != nil {
			return xerrors.New(err)
		}

		list.ArticlesCount, err = uc.articles.GetFeedCount(ctx, viewer.ID)
		if err != nil {
			return xerrors.New(err)
		}

		list.Articles, err = uc.views.Articles(ctx, viewer, articles)
		return err
	})
	if err != nil {
		return nil, err
	}

	return list, nil
}

type FavoriteArticle struct {
	tx       Transactor
	articles ArticleRepository
	views    *Views
	log      *slog.Logger
}

// Execute marks the article as favorited by viewer. Favoriting twice is a
// no-op; authors cannot favorite their own articles.
func (uc *FavoriteArticle) Execute(ctx context.Context, viewer *models.User, slug string) (*models.ArticleView, error) {
	var view *models.ArticleView
	err := uc.tx.InTx(ctx, func(ctx context.Context) error {
		article, err := uc.articles.GetBySlug(ctx, slug)
		if err != nil {
			return xerrors.New(err)
		}
		if article.AuthorID == viewer.ID {
			return xerrors.New(ErrCannotFavoriteOwnArticle)
		}

		if err := uc.articles.AddFavorite(ctx, article.ID, viewer.ID); err != nil {
			return xerrors.New(err)
		}

		view, err = uc.views.Article(ctx, viewer, article)
		return err
	})
	if err != nil {
		return nil, err
	}

	uc.log.Debug("article favorited", "slug", slug, "user_id", viewer.ID)
	return view, nil
}

type UnfavoriteArticle struct {
	tx       Transactor
	articles ArticleRepository
	views    *Views
	log      *slog.Logger
}

// Execute removes viewer's favorite if there is one.
func (uc *UnfavoriteArticle) Execute(ctx context.Context, viewer *models.User, slug string) (*models.ArticleView, error) {
	var view *models.ArticleView
	err := uc.tx.InTx(ctx, func(ctx context.Context) error {
		article, err := uc.articles.GetBySlug(ctx, slug)
		if err != nil {
			return xerrors.New(err)
		}

		if err := uc.articles.RemoveFavorite(ctx, article.ID, viewer.ID); err != nil {
			return xerrors.New(err)
		}

		view, err = uc.views.Article(ctx, viewer, article)
		return err
	})
	if err != nil {
		return nil, err
	}

	uc.log.Debug("article unfavorited", "slug", slug, "user_id", viewer.ID)
	return view, nil
}

// normalizeTags trims tags and drops duplicates, keeping the first occurrence.
func normalizeTags(tags []string) []string {
	trimmed := make([]string, 0, len(tags))
	for _, tag := range tags {
		trimmed = append(trimmed, strings.TrimSpace(tag))
	}
	return collectionutils.Distinct(trimmed)
}
