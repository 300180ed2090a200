package seed

import (
	"context"
	"testing"

	"github.com/geocoder89/userhub/internal/config"
	"github.com/geocoder89/userhub/internal/domain/user"
	"github.com/geocoder89/userhub/internal/repo/memory"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestEnsureAdminUser_SeedsExactlyOnce(t *testing.T) {
	store := memory.NewUsersRepo(memory.WithBcryptCost(bcrypt.MinCost))
	cfg := config.Config{AdminName: "admin", AdminEmail: "admin@x.com", AdminPassword: "1234"}
	ctx := context.Background()

	first, err := EnsureAdminUser(ctx, store, cfg)
	require.NoError(t, err)
	require.Equal(t, int64(1), first.ID)
	require.Equal(t, user.RoleAdmin, first.Role)

	second, err := EnsureAdminUser(ctx, store, cfg)
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID)
	require.Equal(t, 1, store.Count())

	stored, err := store.GetByEmail(ctx, "admin@x.com")
	require.NoError(t, err)
	require.True(t, store.VerifyPassword("1234", stored.PasswordHash))
}

func TestEnsureAdminUser_RequiresCredentials(t *testing.T) {
	store := memory.NewUsersRepo(memory.WithBcryptCost(bcrypt.MinCost))

	_, err := EnsureAdminUser(context.Background(), store, config.Config{AdminEmail: "admin@x.com"})
	require.Error(t, err)
	require.Equal(t, 0, store.Count())
}
