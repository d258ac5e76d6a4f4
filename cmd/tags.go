package main

import "net/http"

func (app *application) listTags(w http.ResponseWriter, r *http.Request) {
	tags, err := app.core.ListTags.Execute(r.Context())
	if err != nil {
		app.domainErrorResponse(w, r, err)
		return
	}

	if err := app.writeJSON(w, http.StatusOK, envelope{"tags": tags}, nil); err != nil {
		app.serverErrorResponse(w, r, err)
	}
}
