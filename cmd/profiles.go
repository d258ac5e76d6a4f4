package main

import (
	"net/http"
)

func (app *application) getProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := app.core.GetProfile.Execute(r.Context(), viewer(r), param(r, "username"))
	if err != nil {
		app.domainErrorResponse(w, r, err)
		return
	}

	if err := app.writeJSON(w, http.StatusOK, envelope{"profile": profile}, nil); err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) followUser(w http.ResponseWriter, r *http.Request) {
	profile, err := app.core.Follow.Execute(r.Context(), viewer(r), param(r, "username"))
	if err != nil {
		app.domainErrorResponse(w, r, err)
		return
	}

	if err := app.writeJSON(w, http.StatusOK, envelope{"profile": profile}, nil); err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) unfollowUser(w http.ResponseWriter, r *http.Request) {
	profile, err := app.core.Unfollow.Execute(r.Context(), viewer(r), param(r, "username"))
	if err != nil {
		app.domainErrorResponse(w, r, err)
		return
	}

	if err := app.writeJSON(w, http.StatusOK, envelope{"profile": profile}, nil); err != nil {
		app.serverErrorResponse(w, r, err)
	}
}
