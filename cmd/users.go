package main

import (
	"net/http"

	"github.com/siahsang/conduit/internal/core"
	"github.com/siahsang/conduit/internal/web"
)

func (app *application) registerUser(w http.ResponseWriter, r *http.Request) {
	var input struct {
		User struct {
			Username string `json:"username"`
			Email    string `json:"email"`
			Password string `json:"password"`
		} `json:"user"`
	}

	if err := app.readJSON(w, r, &input); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	user, err := app.core.Register.Execute(r.Context(), core.RegisterCommand{
		Username: input.User.Username,
		Email:    input.User.Email,
		Password: input.User.Password,
	})
	if err != nil {
		app.domainErrorResponse(w, r, err)
		return
	}

	if err := app.writeJSON(w, http.StatusCreated, envelope{"user": user}, nil); err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) login(w http.ResponseWriter, r *http.Request) {
	var input struct {
		User struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		} `json:"user"`
	}

	if err := app.readJSON(w, r, &input); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	user, err := app.core.Login.Execute(r.Context(), core.LoginCommand{
		Email:    input.User.Email,
		Password: input.User.Password,
	})
	if err != nil {
		app.domainErrorResponse(w, r, err)
		return
	}

	if err := app.writeJSON(w, http.StatusOK, envelope{"user": user}, nil); err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) getCurrentUser(w http.ResponseWriter, r *http.Request) {
	rc := web.GetRequestContext(r)

	user, err := app.core.CurrentUser.Execute(r.Context(), rc.User.ID, rc.Token)
	if err != nil {
		app.domainErrorResponse(w, r, err)
		return
	}

	if err := app.writeJSON(w, http.StatusOK, envelope{"user": user}, nil); err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// updateUser applies a partial update. Fields missing from the body are kept.
func (app *application) updateUser(w http.ResponseWriter, r *http.Request) {
	var input struct {
		User struct {
			Email    *string `json:"email"`
			Username *string `json:"username"`
			Password *string `json:"password"`
			Bio      *string `json:"bio"`
			Image    *string `json:"image"`
		} `json:"user"`
	}

	if err := app.readJSON(w, r, &input); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	user, err := app.core.UpdateUser.Execute(r.Context(), viewer(r).ID, core.UpdateUserCommand{
		Email:    input.User.Email,
		Username: input.User.Username,
		Password: input.User.Password,
		Bio:      input.User.Bio,
		Image:    input.User.Image,
	})
	if err != nil {
		app.domainErrorResponse(w, r, err)
		return
	}

	if err := app.writeJSON(w, http.StatusOK, envelope{"user": user}, nil); err != nil {
		app.serverErrorResponse(w, r, err)
	}
}
