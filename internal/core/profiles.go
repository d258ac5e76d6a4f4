package core

import (
	"context"
	"errors"
	"log/slog"

	"github.com/mdobak/go-xerrors"
	"github.com/siahsang/conduit/models"
)

type GetProfile struct {
	tx    Transactor
	users UserRepository
	views *Views
}

// Execute returns the profile of username; viewer may be nil.
func (uc *GetProfile) Execute(ctx context.Context, viewer *models.User, username string) (*models.Profile, error) {
	var profile *models.Profile
	err := uc.tx.ReadOnly(ctx, func(ctx context.Context) error {
		user, err := findProfileUser(ctx, uc.users, username)
		if err != nil {
			return err
		}

		profile, err = uc.views.Profile(ctx, viewer, user)
		return err
	})
	if err != nil {
		return nil, err
	}

	return profile, nil
}

type FollowUser struct {
	tx    Transactor
	users UserRepository
	views *Views
	log   *slog.Logger
}

// Execute is idempotent: following an already followed user succeeds
// without adding a second relation.
func (uc *FollowUser) Execute(ctx context.Context, follower *models.User, username string) (*models.Profile, error) {
	var profile *models.Profile
	err := uc.tx.InTx(ctx, func(ctx context.Context) error {
		followee, err := findProfileUser(ctx, uc.users, username)
		if err != nil {
			return err
		}
		if followee.ID == follower.ID {
			return xerrors.New(ErrCannotFollowSelf)
		}

		if err := uc.users.AddFollower(ctx, followee.ID, follower.ID); err != nil {
			return xerrors.New(err)
		}

		profile, err = uc.views.Profile(ctx, follower, followee)
		return err
	})
	if err != nil {
		return nil, err
	}

	uc.log.Debug("user followed", "follower", follower.Username, "followee", profile.Username)
	return profile, nil
}

type UnfollowUser struct {
	tx    Transactor
	users UserRepository
	views *Views
	log   *slog.Logger
}

// Execute is idempotent: unfollowing a user that is not followed succeeds.
func (uc *UnfollowUser) Execute(ctx context.Context, follower *models.User, username string) (*models.Profile, error) {
	var profile *models.Profile
	err := uc.tx.InTx(ctx, func(ctx context.Context) error {
		followee, err := findProfileUser(ctx, uc.users, username)
		if err != nil {
			return err
		}
		if followee.ID == follower.ID {
			return xerrors.New(ErrCannotFollowSelf)
		}

		if err := uc.users.RemoveFollower(ctx, followee.ID, follower.ID); err != nil {
			return xerrors.New(err)
		}

		profile, err = uc.views.Profile(ctx, follower, followee)
		return err
	})
	if err != nil {
		return nil, err
	}

	uc.log.Debug("user unfollowed", "follower", follower.Username, "followee", profile.Username)
	return profile, nil
}

func findProfileUser(ctx context.Context, users UserRepository, username string) (*models.User, error) {
	user, err := users.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, xerrors.New(ErrProfileNotFound)
		}
		return nil, xerrors.New(err)
	}
	return user, nil
}
