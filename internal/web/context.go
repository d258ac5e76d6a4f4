package web

import (
	"context"
	"net/http"
)

type contextKey string

const requestContextKey = contextKey("request_context")

func AddValueToContext(r *http.Request, key contextKey, value any) *http.Request {
	ctx := r.Context()
	ctx = context.WithValue(ctx, key, value)
	return r.WithContext(ctx)
}

func GetValueFromContext[T any](r *http.Request, key contextKey) (T, bool) {
	val := r.Context().Value(key)
	if val == nil {
		var zero T
		return zero, false
	}
	tVal, ok := val.(T)

	if !ok {
		var zero T
		return zero, false
	}

	return tVal, true
}

func SetRequestContext(r *http.Request, rc *RequestContext) *http.Request {
	return AddValueToContext(r, requestContextKey, rc)
}

// GetRequestContext returns nil for anonymous requests.
func GetRequestContext(r *http.Request) *RequestContext {
	rc, ok := GetValueFromContext[*RequestContext](r, requestContextKey)
	if !ok {
		return nil
	}
	return rc
}
