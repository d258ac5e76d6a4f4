package core

import (
	"context"
	"errors"
	"log/slog"

	"github.com/mdobak/go-xerrors"
	"github.com/siahsang/conduit/models"
)

// Authenticate resolves a bearer token to the user it was issued for.
type Authenticate struct {
	tx    Transactor
	users UserRepository
	auth  Auth
}

func (uc *Authenticate) Execute(ctx context.Context, token string) (*models.User, error) {
	userID, err := uc.auth.ParseToken(token)
	if err != nil {
		return nil, xerrors.New(err)
	}

	var user *models.User
	err = uc.tx.ReadOnly(ctx, func(ctx context.Context) error {
		user, err = uc.users.FindByID(ctx, userID)
		return err
	})
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, xerrors.New(ErrInvalidToken)
		}
		return nil, xerrors.New(err)
	}

	return user, nil
}

type RegisterUser struct {
	tx        Transactor
	users     UserRepository
	auth      Auth
	validator *RegistrationValidator
	log       *slog.Logger
}

func (uc *RegisterUser) Execute(ctx context.Context, cmd RegisterCommand) (*models.AuthenticatedUser, error) {
	cmd.normalize()
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	user := &models.User{}
	err := uc.tx.InTx(ctx, func(ctx context.Context) error {
		valid, err := uc.validator.Validate(ctx, cmd)
		if err != nil {
			return err
		}

		user.Username = valid.Username
		user.Email = valid.Email
		user.Password = valid.PasswordHash
		if err := uc.users.Create(ctx, user); err != nil {
			return xerrors.New(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	token, err := uc.auth.CreateToken(user.ID)
	if err != nil {
		return nil, xerrors.New(err)
	}

	uc.log.Info("user registered", "user_id", user.ID, "username", user.Username)
	return &models.AuthenticatedUser{User: *user, Token: token}, nil
}

type LoginUser struct {
	tx    Transactor
	users UserRepository
	auth  Auth
}

// Execute never tells an unknown email apart from a wrong password; both
// yield ErrBadCredentials.
func (uc *LoginUser) Execute(ctx context.Context, cmd LoginCommand) (*models.AuthenticatedUser, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	var user *models.User
	err := uc.tx.ReadOnly(ctx, func(ctx context.Context) error {
		var err error
		user, err = uc.users.FindByEmail(ctx, cmd.Email)
		return err
	})
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, xerrors.New(ErrBadCredentials)
		}
		return nil, xerrors.New(err)
	}

	match, err := uc.auth.CheckPassword(cmd.Password, user.Password)
	if err != nil {
		return nil, xerrors.New(err)
	}
	if !match {
		return nil, xerrors.New(ErrBadCredentials)
	}

	token, err := uc.auth.CreateToken(user.ID)
	if err != nil {
		return nil, xerrors.New(err)
	}

	return &models.AuthenticatedUser{User: *user, Token: token}, nil
}

type GetCurrentUser struct {
	tx    Transactor
	users UserRepository
}

func (uc *GetCurrentUser) Execute(ctx context.Context, userID int64, token string) (*models.AuthenticatedUser, error) {
	var user *models.User
	err := uc.tx.ReadOnly(ctx, func(ctx context.Context) error {
		var err error
		user, err = uc.users.FindByID(ctx, userID)
		return err
	})
	if err != nil {
		return nil, xerrors.New(err)
	}

	return &models.AuthenticatedUser{User: *user, Token: token}, nil
}

type UpdateUser struct {
	tx        Transactor
	users     UserRepository
	auth      Auth
	validator *UserUpdateValidator
	log       *slog.Logger
}

func (uc *UpdateUser) Execute(ctx context.Context, userID int64, cmd UpdateUserCommand) (*models.AuthenticatedUser, error) {
	cmd.normalize()
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	var updated *models.User
	err := uc.tx.InTx(ctx, func(ctx context.Context) error {
		current, err := uc.users.FindByID(ctx, userID)
		if err != nil {
			return xerrors.New(err)
		}

		updated, err = uc.validator.Validate(ctx, current, cmd)
		if err != nil {
			return err
		}

		if err := uc.users.Update(ctx, updated); err != nil {
			return xerrors.New(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	token, err := uc.auth.CreateToken(updated.ID)
	if err != nil {
		return nil, xerrors.New(err)
	}

	uc.log.Info("user updated", "user_id", updated.ID)
	return &models.AuthenticatedUser{User: *updated, Token: token}, nil
}
