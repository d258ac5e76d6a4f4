package core

import (
	"errors"
	"sort"
	"strings"

	"github.com/mdobak/go-xerrors"
)

// Category is the transport-independent severity of a failure. The HTTP
// boundary maps every category to exactly one status code.
type Category int

const (
	CategoryInternal Category = iota
	CategoryConflict
	CategoryUnauthorized
	CategoryForbidden
	CategoryNotFound
	CategoryUnprocessable
)

func (c Category) String() string {
	switch c {
	case CategoryConflict:
		return "conflict"
	case CategoryUnauthorized:
		return "unauthorized"
	case CategoryForbidden:
		return "forbidden"
	case CategoryNotFound:
		return "not-found"
	case CategoryUnprocessable:
		return "unprocessable"
	default:
		return "internal"
	}
}

var (
	ErrEmailTaken    = xerrors.Message("email has already been taken")
	ErrUsernameTaken = xerrors.Message("username has already been taken")

	ErrBadCredentials = xerrors.Message("email or password is invalid")
	ErrInvalidToken   = xerrors.Message("invalid or expired token")

	ErrNotArticleAuthor         = xerrors.Message("only the author can change this article")
	ErrNotCommentAuthor         = xerrors.Message("only the author can delete this comment")
	ErrCannotFavoriteOwnArticle = xerrors.Message("authors cannot favorite their own article")
	ErrCannotFollowSelf         = xerrors.Message("users cannot follow themselves")

	ErrUserNotFound    = xerrors.Message("user not found")
	ErrProfileNotFound = xerrors.Message("profile not found")
	ErrArticleNotFound = xerrors.Message("article not found")
	ErrCommentNotFound = xerrors.Message("comment not found")

	// ErrDuplicateSlug is returned by ArticleRepository.Create and Update when
	// the slug is already used by another article.
	ErrDuplicateSlug = xerrors.Message("duplicate slug")
	// ErrSlugUnavailable means no free slug was found within the attempt budget.
	ErrSlugUnavailable = xerrors.Message("could not generate a unique slug")
)

var categories = []struct {
	err      error
	category Category
}{
	{ErrEmailTaken, CategoryConflict},
	{ErrUsernameTaken, CategoryConflict},
	{ErrBadCredentials, CategoryUnauthorized},
	{ErrInvalidToken, CategoryUnauthorized},
	{ErrNotArticleAuthor, CategoryForbidden},
	{ErrNotCommentAuthor, CategoryForbidden},
	{ErrCannotFavoriteOwnArticle, CategoryForbidden},
	{ErrCannotFollowSelf, CategoryForbidden},
	{ErrUserNotFound, CategoryNotFound},
	{ErrProfileNotFound, CategoryNotFound},
	{ErrArticleNotFound, CategoryNotFound},
	{ErrCommentNotFound, CategoryNotFound},
}

// CategoryOf classifies err. Errors that are not domain errors are internal.
func CategoryOf(err error) Category {
	if err == nil {
		return CategoryInternal
	}

	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		return CategoryUnprocessable
	}

	for _, c := range categories {
		if errors.Is(err, c.err) {
			return c.category
		}
	}
	return CategoryInternal
}

// ValidationError carries every field-level problem found by a structural
// check. It is the only domain error that can hold more than one message.
type ValidationError struct {
	Fields map[string]string
}

func NewValidationError(fields map[string]string) *ValidationError {
	return &ValidationError{Fields: fields}
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+" "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}
