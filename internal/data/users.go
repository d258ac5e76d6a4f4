package data

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/mdobak/go-xerrors"
	"github.com/siahsang/conduit/internal/core"
	"github.com/siahsang/conduit/internal/utils/databaseutils"
	"github.com/siahsang/conduit/models"
)

const (
	usersEmailKey    = "users_email_key"
	usersUsernameKey = "users_username_key"
)

type UserModel struct {
	sqlTemplate *databaseutils.SQLTemplate
	log         *slog.Logger
}

var _ core.UserRepository = (*UserModel)(nil)

func (m *UserModel) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (email, username, password, bio, image)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`
	args := []any{user.Email, user.Username, user.Password, toNullString(user.Bio), toNullString(user.Image)}

	id, err := databaseutils.ExecuteSingleQuery(m.sqlTemplate, ctx, query, scanInt64, args...)
	if err != nil {
		return mapUserConstraint(err)
	}

	user.ID = id
	return nil
}

func (m *UserModel) Update(ctx context.Context, user *models.User) error {
	query := `
		UPDATE users
		SET email = $1, username = $2, password = $3, bio = $4, image = $5
		WHERE id = $6
	`
	args := []any{user.Email, user.Username, user.Password, toNullString(user.Bio), toNullString(user.Image), user.ID}

	affected, err := databaseutils.Execute(m.sqlTemplate, ctx, query, args...)
	if err != nil {
		return mapUserConstraint(err)
	}
	if affected == 0 {
		return xerrors.New(core.ErrUserNotFound)
	}

	m.log.Debug("user row updated", "user_id", user.ID)
	return nil
}

func (m *UserModel) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return m.findOne(ctx, `
		SELECT id, email, username, password, bio, image
		FROM users
		WHERE email = $1
	`, email)
}

func (m *UserModel) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	return m.findOne(ctx, `
		SELECT id, email, username, password, bio, image
		FROM users
		WHERE username = $1
	`, username)
}

func (m *UserModel) FindByID(ctx context.Context, id int64) (*models.User, error) {
	return m.findOne(ctx, `
		SELECT id, email, username, password, bio, image
		FROM users
		WHERE id = $1
	`, id)
}

func (m *UserModel) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM users WHERE email = $1)`

	exists, err := databaseutils.ExecuteSingleQuery(m.sqlTemplate, ctx, query, scanBool, email)
	if err != nil {
		return false, xerrors.New(err)
	}
	return exists, nil
}

func (m *UserModel) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM users WHERE username = $1)`

	exists, err := databaseutils.ExecuteSingleQuery(m.sqlTemplate, ctx, query, scanBool, username)
	if err != nil {
		return false, xerrors.New(err)
	}
	return exists, nil
}

func (m *UserModel) AddFollower(ctx context.Context, followeeID, followerID int64) error {
	query := `
		INSERT INTO followers (followee_id, follower_id)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING
	`

	if _, err := databaseutils.Execute(m.sqlTemplate, ctx, query, followeeID, followerID); err != nil {
		return xerrors.New(err)
	}
	return nil
}

func (m *UserModel) RemoveFollower(ctx context.Context, followeeID, followerID int64) error {
	query := `
		DELETE FROM followers
		WHERE followee_id = $1 AND follower_id = $2
	`

	if _, err := databaseutils.Execute(m.sqlTemplate, ctx, query, followeeID, followerID); err != nil {
		return xerrors.New(err)
	}
	return nil
}

func (m *UserModel) HasFollower(ctx context.Context, followeeID, followerID int64) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM followers WHERE followee_id = $1 AND follower_id = $2
		)
	`

	exists, err := databaseutils.ExecuteSingleQuery(m.sqlTemplate, ctx, query, scanBool, followeeID, followerID)
	if err != nil {
		return false, xerrors.New(err)
	}
	return exists, nil
}

func (m *UserModel) findOne(ctx context.Context, query string, arg any) (*models.User, error) {
	user, err := databaseutils.ExecuteSingleQuery(m.sqlTemplate, ctx, query, scanUser, arg)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, xerrors.New(core.ErrUserNotFound)
		default:
			return nil, xerrors.New(err)
		}
	}
	return user, nil
}

func scanUser(rows *sql.Rows) (*models.User, error) {
	var (
		user  = &models.User{}
		bio   sql.NullString
		image sql.NullString
	)

	if err := rows.Scan(&user.ID, &user.Email, &user.Username, &user.Password, &bio, &image); err != nil {
		return nil, xerrors.New(err)
	}
	user.Bio = fromNullString(bio)
	user.Image = fromNullString(image)
	return user, nil
}

func mapUserConstraint(err error) error {
	constraint, ok := uniqueViolationConstraint(err)
	switch {
	case ok && constraint == usersEmailKey:
		return xerrors.New(core.ErrEmailTaken)
	case ok && constraint == usersUsernameKey:
		return xerrors.New(core.ErrUsernameTaken)
	default:
		return xerrors.New(err)
	}
}
