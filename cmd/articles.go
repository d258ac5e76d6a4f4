package main

import (
	"net/http"

	"github.com/siahsang/conduit/internal/core"
	"github.com/siahsang/conduit/internal/filter"
	"github.com/siahsang/conduit/internal/validator"
)

func (app *application) createArticle(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Article struct {
			Title       string   `json:"title"`
			Description string   `json:"description"`
			Body        string   `json:"body"`
			TagList     []string `json:"tagList"`
		} `json:"article"`
	}

	if err := app.readJSON(w, r, &input); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	article, err := app.core.CreateArticle.Execute(r.Context(), viewer(r), core.CreateArticleCommand{
		Title:       input.Article.Title,
		Description: input.Article.Description,
		Body:        input.Article.Body,
		TagList:     input.Article.TagList,
	})
	if err != nil {
		app.domainErrorResponse(w, r, err)
		return
	}

	if err := app.writeJSON(w, http.StatusCreated, envelope{"article": article}, nil); err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) getArticle(w http.ResponseWriter, r *http.Request) {
	article, err := app.core.GetArticle.Execute(r.Context(), viewer(r), param(r, "slug"))
	if err != nil {
		app.domainErrorResponse(w, r, err)
		return
	}

	if err := app.writeJSON(w, http.StatusOK, envelope{"article": article}, nil); err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) updateArticle(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Article struct {
			Title       *string `json:"title"`
			Description *string `json:"description"`
			Body        *string `json:"body"`
		} `json:"article"`
	}

	if err := app.readJSON(w, r, &input); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	article, err := app.core.UpdateArticle.Execute(r.Context(), viewer(r), param(r, "slug"), core.UpdateArticleCommand{
		Title:       input.Article.Title,
		Description: input.Article.Description,
		Body:        input.Article.Body,
	})
	if err != nil {
		app.domainErrorResponse(w, r, err)
		return
	}

	if err := app.writeJSON(w, http.StatusOK, envelope{"article": article}, nil); err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) deleteArticle(w http.ResponseWriter, r *http.Request) {
	if err := app.core.DeleteArticle.Execute(r.Context(), viewer(r), param(r, "slug")); err != nil {
		app.domainErrorResponse(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// listArticles serves GET /api/articles?tag=&author=&favorited=&limit=&offset=
func (app *application) listArticles(w http.ResponseWriter, r *http.Request) {
	qs := r.URL.Query()
	v := validator.New()

	f := filter.ArticleFilter{
		Filter: filter.NewFilter(
			app.readInt(qs, "limit", filter.DefaultLimit, v),
			app.readInt(qs, "offset", 0, v),
		),
		Tag:         app.readString(qs, "tag"),
		Author:      app.readString(qs, "author"),
		FavoritedBy: app.readString(qs, "favorited"),
	}
	if !v.IsValid() {
		app.failedValidationResponse(w, r, v.Errors)
		return
	}

	list, err := app.core.ListArticles.Execute(r.Context(), viewer(r), f)
	if err != nil {
		app.domainErrorResponse(w, r, err)
		return
	}

	if err := app.writeJSON(w, http.StatusOK, envelope{"articles": list.Articles, "articlesCount": list.ArticlesCount}, nil); err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) feedArticles(w http.ResponseWriter, r *http.Request) {
	qs := r.URL.Query()
	v := validator.New()

	f := filter.NewFilter(
		app.readInt(qs, "limit", filter.DefaultLimit, v),
		app.readInt(qs, "offset", 0, v),
	)
	if !v.IsValid() {
		app.failedValidationResponse(w, r, v.Errors)
		return
	}

	list, err := app.core.Feed.Execute(r.Context(), viewer(r), f)
	if err != nil {
		app.domainErrorResponse(w, r, err)
		return
	}

	if err := app.writeJSON(w, http.StatusOK, envelope{"articles": list.Articles, "articlesCount": list.ArticlesCount}, nil); err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) favoriteArticle(w http.ResponseWriter, r *http.Request) {
	article, err := app.core.Favorite.Execute(r.Context(), viewer(r), param(r, "slug"))
	if err != nil {
		app.domainErrorResponse(w, r, err)
		return
	}

	if err := app.writeJSON(w, http.StatusOK, envelope{"article": article}, nil); err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) unfavoriteArticle(w http.ResponseWriter, r *http.Request) {
	article, err := app.core.Unfavorite.Execute(r.Context(), viewer(r), param(r, "slug"))
	if err != nil {
		app.domainErrorResponse(w, r, err)
		return
	}

	if err := app.writeJSON(w, http.StatusOK, envelope{"article": article}, nil); err != nil {
		app.serverErrorResponse(w, r, err)
	}
}
