package main

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/siahsang/conduit/internal/auth"
	"github.com/siahsang/conduit/internal/cache"
	"github.com/siahsang/conduit/internal/config"
	"github.com/siahsang/conduit/internal/core"
	"github.com/siahsang/conduit/internal/memstore"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newTestApp(t *testing.T) *application {
	t.Helper()

	store := memstore.New()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ports := core.Ports{
		Users:    store.Users(),
		Articles: store.Articles(),
		Comments: store.Comments(),
		Tx:       store,
		Auth:     auth.New("test-secret", time.Hour, bcrypt.MinCost),
		Tags:     cache.NewLocalTags(time.Minute),
	}

	return &application{
		config: &config.Config{Env: "test", Storage: config.StorageMemory},
		logger: logger,
		core:   core.New(ports, logger),
	}
}

type response struct {
	status int
	header http.Header
	body   map[string]any
}

func do(t *testing.T, app *application, method, path, token string, body any) response {
	t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		js, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(js)
	}

	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Token "+token)
	}

	rec := httptest.NewRecorder()
	app.routes().ServeHTTP(rec, req)

	res := response{status: rec.Code, header: rec.Header()}
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res.body), rec.Body.String())
	}
	return res
}

// signUp creates a user and returns its token.
func signUp(t *testing.T, app *application, username string) string {
	t.Helper()

	res := do(t, app, http.MethodPost, "/api/users", "", envelope{
		"user": envelope{"username": username, "email": username + "@example.com", "password": "secret-" + username},
	})
	require.Equal(t, http.StatusCreated, res.status, res.body)
	return res.body["user"].(map[string]any)["token"].(string)
}

// publish creates an article and returns its slug.
func publish(t *testing.T, app *application, token, title string, tags ...string) string {
	t.Helper()

	res := do(t, app, http.MethodPost, "/api/articles", token, envelope{
		"article": envelope{"title": title, "description": "about " + title, "body": "body of " + title, "tagList": tags},
	})
	require.Equal(t, http.StatusCreated, res.status, res.body)
	return res.body["article"].(map[string]any)["slug"].(string)
}

func errorsOf(t *testing.T, res response) map[string]any {
	t.Helper()

	errs, ok := res.body["errors"].(map[string]any)
	require.True(t, ok, "missing errors object in %v", res.body)
	return errs
}
