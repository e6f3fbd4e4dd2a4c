package db

import (
	"context"
	"errors"

	"github.com/geocoder89/taskhub/internal/config"
	"github.com/geocoder89/taskhub/internal/domain/user"
)

type Registrar interface {
	Register(ctx context.Context, name, email, password string) (user.User, error)
}

// EnsureSeedUser registers the configured demo account unless it already
// exists. It goes through the credential store so the password is hashed
// the same way as any other registration.
func EnsureSeedUser(ctx context.Context, accounts Registrar, cfg config.Config) (created bool, err error) {
	if cfg.SeedUserEmail == "" || cfg.SeedUserPassword == "" {
		return false, nil
	}

	_, err = accounts.Register(ctx, cfg.SeedUserName, cfg.SeedUserEmail, cfg.SeedUserPassword)

	if errors.Is(err, user.ErrEmailTaken) {
		return false, nil
	}

	if err != nil {
		return false, err
	}

	return true, nil
}
