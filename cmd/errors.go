package main

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/mdobak/go-xerrors"
	"github.com/siahsang/conduit/internal/core"
)

// fieldConflicts renders uniqueness conflicts under the field they are about.
var fieldConflicts = []struct {
	err     error
	field   string
	message string
}{
	{core.ErrEmailTaken, "email", "has already been taken"},
	{core.ErrUsernameTaken, "username", "has already been taken"},
}

// errorResponse writes {"errors": {...}} and logs the failure. Server errors
// are logged with their stack trace.
func (app *application) errorResponse(w http.ResponseWriter, r *http.Request, status int, details map[string][]string, cause error) {
	attrs := []slog.Attr{
		slog.String("request_url", r.URL.String()),
		slog.String("request_method", r.Method),
		slog.Int("status", status),
	}

	level := slog.LevelDebug
	if status >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	if cause != nil {
		if level == slog.LevelError {
			attrs = append(attrs, slog.String("stack", xerrors.Sprint(cause)))
		} else {
			attrs = append(attrs, slog.String("error", cause.Error()))
		}
	}
	app.logger.LogAttrs(r.Context(), level, "Error in handling request", attrs...)

	if err := app.writeJSON(w, status, envelope{"errors": details}, nil); err != nil {
		app.logger.Error(err.Error())
		w.WriteHeader(http.StatusInternalServerError)
	}
}

func bodyErrors(messages ...string) map[string][]string {
	return map[string][]string{"body": messages}
}

// domainErrorResponse maps an error returned by a use case to its status code.
func (app *application) domainErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	switch core.CategoryOf(err) {
	case core.CategoryUnprocessable:
		var validationErr *core.ValidationError
		errors.As(err, &validationErr)
		app.failedValidationResponse(w, r, validationErr.Fields)
	case core.CategoryConflict:
		for _, c := range fieldConflicts {
			if errors.Is(err, c.err) {
				app.errorResponse(w, r, http.StatusConflict, map[string][]string{c.field: {c.message}}, err)
				return
			}
		}
		app.errorResponse(w, r, http.StatusConflict, bodyErrors(err.Error()), err)
	case core.CategoryUnauthorized:
		app.errorResponse(w, r, http.StatusUnauthorized, bodyErrors(err.Error()), err)
	case core.CategoryForbidden:
		app.errorResponse(w, r, http.StatusForbidden, bodyErrors(err.Error()), err)
	case core.CategoryNotFound:
		app.errorResponse(w, r, http.StatusNotFound, bodyErrors(err.Error()), err)
	case core.CategoryInternal:
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) failedValidationResponse(w http.ResponseWriter, r *http.Request, fields map[string]string) {
	details := make(map[string][]string, len(fields))
	for field, message := range fields {
		details[field] = []string{message}
	}
	app.errorResponse(w, r, http.StatusUnprocessableEntity, details, nil)
}

func (app *application) badRequestResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.errorResponse(w, r, http.StatusBadRequest, bodyErrors(err.Error()), err)
}

func (app *application) serverErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.errorResponse(w, r, http.StatusInternalServerError,
		bodyErrors("the server encountered a problem and could not process your request"), err)
}

func (app *application) notFoundResponse(w http.ResponseWriter, r *http.Request) {
	app.errorResponse(w, r, http.StatusNotFound, bodyErrors("the requested resource could not be found"), nil)
}

func (app *application) methodNotAllowedResponse(w http.ResponseWriter, r *http.Request) {
	message := fmt.Sprintf("the %s method is not supported for this resource", r.Method)
	app.errorResponse(w, r, http.StatusMethodNotAllowed, bodyErrors(message), nil)
}

func (app *application) authenticationRequiredResponse(w http.ResponseWriter, r *http.Request) {
	app.errorResponse(w, r, http.StatusUnauthorized, bodyErrors("you must be authenticated to access this resource"), nil)
}

func (app *application) invalidAuthenticationTokenResponse(w http.ResponseWriter, r *http.Request, err error) {
	w.Header().Set("WWW-Authenticate", "Token")
	app.errorResponse(w, r, http.StatusUnauthorized, bodyErrors("invalid or missing authentication token"), err)
}
