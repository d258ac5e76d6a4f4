package models

import (
	"encoding/json"
	"time"
)

type User struct {
	ID       int64   `json:"-"`
	Email    string  `json:"email"`
	Username string  `json:"username"`
	Password string  `json:"-"`
	Bio      *string `json:"bio"`
	Image    *string `json:"image"`
}

// AuthenticatedUser is a user together with the token that was issued for it.
type AuthenticatedUser struct {
	User
	Token string `json:"token"`
}

// FollowState is the viewer-relative follow flag of a profile. The zero value
// means there is no viewer (or the viewer looks at their own profile) and is
// rendered as JSON null.
type FollowState int8

const (
	FollowUnknown FollowState = iota
	Following
	NotFollowing
)

func FollowStateOf(following bool) FollowState {
	if following {
		return Following
	}
	return NotFollowing
}

func (f FollowState) MarshalJSON() ([]byte, error) {
	switch f {
	case Following:
		return []byte("true"), nil
	case NotFollowing:
		return []byte("false"), nil
	default:
		return []byte("null"), nil
	}
}

func (f *FollowState) UnmarshalJSON(data []byte) error {
	var v *bool
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	switch {
	case v == nil:
		*f = FollowUnknown
	case *v:
		*f = Following
	default:
		*f = NotFollowing
	}
	return nil
}

type Profile struct {
	ID        int64       `json:"-"`
	Username  string      `json:"username"`
	Bio       *string     `json:"bio"`
	Image     *string     `json:"image"`
	Following FollowState `json:"following"`
}

type Article struct {
	ID          int64
	Slug        string
	Title       string
	Description string
	Body        string
	AuthorID    int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ArticleView is an article enriched with its tags, favorite information and
// author profile as seen by a particular viewer.
type ArticleView struct {
	Slug           string    `json:"slug"`
	Title          string    `json:"title"`
	Description    string    `json:"description"`
	Body           string    `json:"body"`
	TagList        []string  `json:"tagList"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
	Favorited      bool      `json:"favorited"`
	FavoritesCount int64     `json:"favoritesCount"`
	Author         Profile   `json:"author"`
}

type ArticleList struct {
	Articles      []*ArticleView `json:"articles"`
	ArticlesCount int64          `json:"articlesCount"`
}

type Comment struct {
	ID        int64
	ArticleID int64
	Body      string
	AuthorID  int64
	CreatedAt time.Time
	UpdatedAt time.Time
	Deleted   bool
}

type CommentView struct {
	ID        int64     `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	Body      string    `json:"body"`
	Author    Profile   `json:"author"`
}
