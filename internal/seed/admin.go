package seed

import (
	"context"
	"errors"
	"fmt"

	"github.com/geocoder89/userhub/internal/config"
	"github.com/geocoder89/userhub/internal/domain/user"
	"github.com/geocoder89/userhub/internal/repo/memory"
)

type AdminStore interface {
	GetByEmail(ctx context.Context, email string) (user.User, error)
	Create(ctx context.Context, in user.CreateUserInput) (user.Public, error)
}

// EnsureAdminUser inserts the bootstrap admin unless a user with that email
// already exists. It returns the admin record either way.
func EnsureAdminUser(ctx context.Context, store AdminStore, cfg config.Config) (user.Public, error) {
	if cfg.AdminEmail == "" || cfg.AdminPassword == "" {
		return user.Public{}, errors.New("admin email and password are required")
	}

	// check if the user exists

	existing, err := store.GetByEmail(ctx, cfg.AdminEmail)

	if err == nil {
		return existing.Public(), nil
	}

	if !errors.Is(err, memory.ErrUserNotFound) {
		return user.Public{}, fmt.Errorf("lookup admin: %w", err)
	}

	name := cfg.AdminName
	if name == "" {
		name = "admin"
	}

	admin, err := store.Create(ctx, user.CreateUserInput{
		Name:     name,
		Email:    cfg.AdminEmail,
		Role:     user.RoleAdmin,
		Password: cfg.AdminPassword,
	})
	if err != nil {
		return user.Public{}, fmt.Errorf("create admin: %w", err)
	}

	return admin, nil
}
