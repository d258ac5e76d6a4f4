package main

import (
	"net/http"

	"github.com/julienschmidt/httprouter"
)

func (app *application) routes() http.Handler {
	router := httprouter.New()

	router.NotFound = http.HandlerFunc(app.notFoundResponse)
	router.MethodNotAllowed = http.HandlerFunc(app.methodNotAllowedResponse)

	router.HandlerFunc(http.MethodGet, "/api/healthcheck", app.healthcheck)

	// Not require authentication for these routes
	router.HandlerFunc(http.MethodPost, "/api/users", app.registerUser)
	router.HandlerFunc(http.MethodPost, "/api/users/login", app.login)
	router.HandlerFunc(http.MethodGet, "/api/profiles/:username", app.getProfile)
	router.HandlerFunc(http.MethodGet, "/api/articles", app.listArticles)
	router.HandlerFunc(http.MethodGet, "/api/articles/:slug", app.getArticleOrFeed)
	router.HandlerFunc(http.MethodGet, "/api/articles/:slug/comments", app.listComments)
	router.HandlerFunc(http.MethodGet, "/api/tags", app.listTags)

	// Require authentication for these routes
	router.HandlerFunc(http.MethodGet, "/api/user", app.requireAuthenticatedUser(app.getCurrentUser))
	router.HandlerFunc(http.MethodPut, "/api/user", app.requireAuthenticatedUser(app.updateUser))
	router.HandlerFunc(http.MethodPost, "/api/profiles/:username/follow", app.requireAuthenticatedUser(app.followUser))
	router.HandlerFunc(http.MethodDelete, "/api/profiles/:username/follow", app.requireAuthenticatedUser(app.unfollowUser))
	router.HandlerFunc(http.MethodPost, "/api/articles", app.requireAuthenticatedUser(app.createArticle))
	router.HandlerFunc(http.MethodPut, "/api/articles/:slug", app.requireAuthenticatedUser(app.updateArticle))
	router.HandlerFunc(http.MethodDelete, "/api/articles/:slug", app.requireAuthenticatedUser(app.deleteArticle))
	router.HandlerFunc(http.MethodPost, "/api/articles/:slug/favorite", app.requireAuthenticatedUser(app.favoriteArticle))
	router.HandlerFunc(http.MethodDelete, "/api/articles/:slug/favorite", app.requireAuthenticatedUser(app.unfavoriteArticle))
	router.HandlerFunc(http.MethodPost, "/api/articles/:slug/comments", app.requireAuthenticatedUser(app.createComment))
	router.HandlerFunc(http.MethodDelete, "/api/articles/:slug/comments/:id", app.requireAuthenticatedUser(app.deleteComment))

	return app.recoverPanic(app.authenticate(router))
}

// getArticleOrFeed serves GET /api/articles/feed as well, since httprouter
// does not allow a static segment next to :slug.
func (app *application) getArticleOrFeed(w http.ResponseWriter, r *http.Request) {
	if httprouter.ParamsFromContext(r.Context()).ByName("slug") == "feed" {
		app.requireAuthenticatedUser(app.feedArticles)(w, r)
		return
	}
	app.getArticle(w, r)
}

func (app *application) healthcheck(w http.ResponseWriter, r *http.Request) {
	data := envelope{
		"status":  "available",
		"env":     app.config.Env,
		"storage": app.config.Storage,
	}
	if err := app.writeJSON(w, http.StatusOK, data, nil); err != nil {
		app.serverErrorResponse(w, r, err)
	}
}
