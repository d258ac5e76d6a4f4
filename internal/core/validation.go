package core

import (
	"context"
	"strings"

	"github.com/mdobak/go-xerrors"
	"github.com/siahsang/conduit/internal/validator"
	"github.com/siahsang/conduit/models"
)

const (
	msgBlank        = "can't be blank"
	msgInvalidEmail = "is invalid"
	msgPasswordLong = "must not be more than 72 bytes long"

	// maxPasswordBytes is the longest input bcrypt accepts.
	maxPasswordBytes = 72
)

type RegisterCommand struct {
	Username string
	Email    string
	Password string
}

func (c *RegisterCommand) normalize() {
	c.Username = strings.TrimSpace(c.Username)
	c.Email = strings.TrimSpace(c.Email)
}

func (c RegisterCommand) Validate() error {
	v := validator.New()
	v.CheckNotBlank(c.Username, "username", msgBlank)
	v.CheckNotBlank(c.Email, "email", msgBlank)
	v.CheckEmail(c.Email, "email", msgInvalidEmail)
	v.CheckNotBlank(c.Password, "password", msgBlank)
	v.Check(len(c.Password) <= maxPasswordBytes, "password", msgPasswordLong)
	return validationResult(v)
}

type LoginCommand struct {
	Email    string
	Password string
}

func (c LoginCommand) Validate() error {
	v := validator.New()
	v.CheckNotBlank(c.Email, "email", msgBlank)
	v.CheckEmail(c.Email, "email", msgInvalidEmail)
	v.CheckNotBlank(c.Password, "password", msgBlank)
	return validationResult(v)
}

// UpdateUserCommand is a partial update: nil fields keep their current value.
type UpdateUserCommand struct {
	Email    *string
	Username *string
	Password *string
	Bio      *string
	Image    *string
}

func (c *UpdateUserCommand) normalize() {
	c.Email = trimmed(c.Email)
	c.Username = trimmed(c.Username)
}

func (c UpdateUserCommand) Validate() error {
	v := validator.New()
	v.CheckOptionalNotBlank(c.Email, "email", msgBlank)
	if c.Email != nil {
		v.CheckEmail(*c.Email, "email", msgInvalidEmail)
	}
	v.CheckOptionalNotBlank(c.Username, "username", msgBlank)
	v.CheckOptionalNotBlank(c.Password, "password", msgBlank)
	if c.Password != nil {
		v.Check(len(*c.Password) <= maxPasswordBytes, "password", msgPasswordLong)
	}
	return validationResult(v)
}

type CreateArticleCommand struct {
	Title       string
	Description string
	Body        string
	TagList     []string
}

func (c CreateArticleCommand) Validate() error {
	v := validator.New()
	v.CheckNotBlank(c.Title, "title", msgBlank)
	v.CheckNotBlank(c.Description, "description", msgBlank)
	v.CheckNotBlank(c.Body, "body", msgBlank)
	for _, tag := range c.TagList {
		v.CheckNotBlank(tag, "tagList", "can't contain blank tags")
	}
	return validationResult(v)
}

// UpdateArticleCommand is a partial update: nil fields keep their current value.
type UpdateArticleCommand struct {
	Title       *string
	Description *string
	Body        *string
}

func (c UpdateArticleCommand) Validate() error {
	v := validator.New()
	v.CheckOptionalNotBlank(c.Title, "title", msgBlank)
	v.CheckOptionalNotBlank(c.Description, "description", msgBlank)
	v.CheckOptionalNotBlank(c.Body, "body", msgBlank)
	return validationResult(v)
}

type AddCommentCommand struct {
	Body string
}

func (c AddCommentCommand) Validate() error {
	v := validator.New()
	v.CheckNotBlank(c.Body, "body", msgBlank)
	return validationResult(v)
}

func validationResult(v *validator.Validator) error {
	if v.IsValid() {
		return nil
	}
	return xerrors.New(NewValidationError(v.Errors))
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	return &t
}

// ValidRegistration is a registration that passed every uniqueness check and
// carries the hashed password.
type ValidRegistration struct {
	Username     string
	Email        string
	PasswordHash string
}

type RegistrationValidator struct {
	users UserRepository
	auth  Auth
}

func NewRegistrationValidator(users UserRepository, auth Auth) *RegistrationValidator {
	return &RegistrationValidator{users: users, auth: auth}
}

// Validate checks email uniqueness, then username uniqueness, and stops at the
// first conflict. The password is hashed only once both checks passed.
func (rv *RegistrationValidator) Validate(ctx context.Context, cmd RegisterCommand) (*ValidRegistration, error) {
	emailTaken, err := rv.users.ExistsByEmail(ctx, cmd.Email)
	if err != nil {
		return nil, xerrors.New(err)
	}
	if emailTaken {
		return nil, xerrors.New(ErrEmailTaken)
	}

	usernameTaken, err := rv.users.ExistsByUsername(ctx, cmd.Username)
	if err != nil {
		return nil, xerrors.New(err)
	}
	if usernameTaken {
		return nil, xerrors.New(ErrUsernameTaken)
	}

	hash, err := rv.auth.EncryptPassword(cmd.Password)
	if err != nil {
		return nil, xerrors.New(err)
	}

	return &ValidRegistration{
		Username:     cmd.Username,
		Email:        cmd.Email,
		PasswordHash: hash,
	}, nil
}

type UserUpdateValidator struct {
	users UserRepository
	auth  Auth
}

func NewUserUpdateValidator(users UserRepository, auth Auth) *UserUpdateValidator {
	return &UserUpdateValidator{users: users, auth: auth}
}

// Validate merges cmd into current and returns the resulting user. Uniqueness
// is only checked for fields that are present and differ from the current value.
func (uv *UserUpdateValidator) Validate(ctx context.Context, current *models.User, cmd UpdateUserCommand) (*models.User, error) {
	merged := *current

	if cmd.Email != nil && *cmd.Email != current.Email {
		taken, err := uv.users.ExistsByEmail(ctx, *cmd.Email)
		if err != nil {
			return nil, xerrors.New(err)
		}
		if taken {
			return nil, xerrors.New(ErrEmailTaken)
		}
		merged.Email = *cmd.Email
	}

	if cmd.Username != nil && *cmd.Username != current.Username {
		taken, err := uv.users.ExistsByUsername(ctx, *cmd.Username)
		if err != nil {
			return nil, xerrors.New(err)
		}
		if taken {
			return nil, xerrors.New(ErrUsernameTaken)
		}
		merged.Username = *cmd.Username
	}

	if cmd.Password != nil {
		hash, err := uv.auth.EncryptPassword(*cmd.Password)
		if err != nil {
			return nil, xerrors.New(err)
		}
		merged.Password = hash
	}

	if cmd.Bio != nil {
		merged.Bio = cmd.Bio
	}
	if cmd.Image != nil {
		merged.Image = cmd.Image
	}

	return &merged, nil
}
