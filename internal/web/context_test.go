package web

import (
	"net/http/httptest"
	"testing"

	"github.com/siahsang/conduit/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestContextRoundTrip(t *testing.T) {
	r := httptest.NewRequest("GET", "/api/user", nil)
	assert.Nil(t, GetRequestContext(r))

	r = SetRequestContext(r, &RequestContext{User: &models.User{ID: 7, Username: "jane"}, Token: "t"})

	rc := GetRequestContext(r)
	require.NotNil(t, rc)
	assert.Equal(t, int64(7), rc.User.ID)
	assert.Equal(t, "t", rc.Token)
}

func TestGetValueFromContextWrongType(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r = AddValueToContext(r, contextKey("n"), 1)

	_, ok := GetValueFromContext[string](r, contextKey("n"))
	assert.False(t, ok)
}
