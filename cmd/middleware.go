package main

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/mdobak/go-xerrors"
	"github.com/siahsang/conduit/internal/core"
	"github.com/siahsang/conduit/internal/web"
)

// authenticate resolves the "Token <jwt>" Authorization header. Requests
// without the header continue anonymously.
func (app *application) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Add("Vary", "Authorization")

		authorization := r.Header.Get("Authorization")
		if authorization == "" {
			next.ServeHTTP(w, r)
			return
		}

		parts := strings.Split(authorization, " ")
		if len(parts) != 2 || parts[0] != "Token" {
			app.invalidAuthenticationTokenResponse(w, r, xerrors.Newf("authorization header must be in the format 'Token <token>'"))
			return
		}
		token := parts[1]

		user, err := app.core.Authenticate.Execute(r.Context(), token)
		if err != nil {
			if core.CategoryOf(err) == core.CategoryUnauthorized {
				app.invalidAuthenticationTokenResponse(w, r, err)
				return
			}
			app.serverErrorResponse(w, r, err)
			return
		}

		r = web.SetRequestContext(r, &web.RequestContext{User: user, Token: token})
		next.ServeHTTP(w, r)
	})
}

func (app *application) requireAuthenticatedUser(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if web.GetRequestContext(r) == nil {
			app.authenticationRequiredResponse(w, r)
			return
		}
		next(w, r)
	}
}

func (app *application) recoverPanic(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				w.Header().Set("Connection", "close")
				app.serverErrorResponse(w, r, xerrors.New(fmt.Sprintf("%v", err)))
			}
		}()
		next.ServeHTTP(w, r)
	})
}
