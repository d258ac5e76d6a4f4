package core

import (
	"context"
	"log/slog"

	"github.com/mdobak/go-xerrors"
	"github.com/siahsang/conduit/models"
)

type AddComment struct {
	tx       Transactor
	articles ArticleRepository
	comments CommentRepository
	views    *Views
}

func (uc *AddComment) Execute(ctx context.Context, author *models.User, slug string, cmd AddCommentCommand) (*models.CommentView, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	var view *models.CommentView
	err := uc.tx.InTx(ctx, func(ctx context.Context) error {
		article, err := uc.articles.GetBySlug(ctx, slug)
		if err != nil {
			return xerrors.New(err)
		}

		comment := &models.Comment{
			ArticleID: article.ID,
			Body:      cmd.Body,
			AuthorID:  author.ID,
		}
		if err := uc.comments.Add(ctx, comment); err != nil {
			return xerrors.New(err)
		}

		view, err = uc.views.Comment(ctx, author, comment)
		return err
	})
	if err != nil {
		return nil, err
	}

	return view, nil
}

type ListComments struct {
	tx       Transactor
	articles ArticleRepository
	comments CommentRepository
	views    *Views
}

func (uc *ListComments) Execute(ctx context.Context, viewer *models.User, slug string) ([]*models.CommentView, error) {
	var views []*models.CommentView
	err := uc.tx.ReadOnly(ctx, func(ctx context.Context) error {
		article, err := uc.articles.GetBySlug(ctx, slug)
		if err != nil {
			return xerrors.New(err)
		}

		comments, err := uc.comments.List(ctx, article.ID)
		if err != nil {
			return xerrors.New(err)
		}

		views = make([]*models.CommentView, 0, len(comments))
		for _, comment := range comments {
			view, err := uc.views.Comment(ctx, viewer, comment)
			if err != nil {
				return err
			}
			views = append(views, view)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return views, nil
}

type DeleteComment struct {
	tx       Transactor
	articles ArticleRepository
	comments CommentRepository
	log      *slog.Logger
}

// Execute soft deletes the comment. A missing article is reported as
// ErrArticleNotFound, a missing or already deleted comment as ErrCommentNotFound.
func (uc *DeleteComment) Execute(ctx context.Context, viewer *models.User, slug string, commentID int64) error {
	err := uc.tx.InTx(ctx, func(ctx context.Context) error {
		article, err := uc.articles.GetBySlug(ctx, slug)
		if err != nil {
			return xerrors.New(err)
		}

		comment, err := uc.comments.Get(ctx, article.ID, commentID)
		if err != nil {
			return xerrors.New(err)
		}
		if comment.AuthorID != viewer.ID {
			return xerrors.New(ErrNotCommentAuthor)
		}

		if err := uc.comments.Delete(ctx, article.ID, commentID); err != nil {
			return xerrors.New(err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	uc.log.Debug("comment deleted", "slug", slug, "comment_id", commentID)
	return nil
}
