package main

import (
	"net/http"

	"github.com/siahsang/conduit/internal/core"
)

func (app *application) createComment(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Comment struct {
			Body string `json:"body"`
		} `json:"comment"`
	}

	if err := app.readJSON(w, r, &input); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	comment, err := app.core.AddComment.Execute(r.Context(), viewer(r), param(r, "slug"), core.AddCommentCommand{
		Body: input.Comment.Body,
	})
	if err != nil {
		app.domainErrorResponse(w, r, err)
		return
	}

	if err := app.writeJSON(w, http.StatusCreated, envelope{"comment": comment}, nil); err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) listComments(w http.ResponseWriter, r *http.Request) {
	comments, err := app.core.ListComments.Execute(r.Context(), viewer(r), param(r, "slug"))
	if err != nil {
		app.domainErrorResponse(w, r, err)
		return
	}

	if err := app.writeJSON(w, http.StatusOK, envelope{"comments": comments}, nil); err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) deleteComment(w http.ResponseWriter, r *http.Request) {
	id, err := app.readIDParam(r, "id")
	if err != nil {
		app.notFoundResponse(w, r)
		return
	}

	if err := app.core.DeleteComment.Execute(r.Context(), viewer(r), param(r, "slug"), id); err != nil {
		app.domainErrorResponse(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
