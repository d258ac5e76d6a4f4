package web

import "github.com/siahsang/conduit/models"

// RequestContext is what the authentication middleware knows about the caller.
type RequestContext struct {
	User  *models.User
	Token string
}
