package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/geocoder89/userhub/internal/auth"
	"github.com/geocoder89/userhub/internal/domain/user"
	"github.com/geocoder89/userhub/internal/repo/memory"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type recordingMetrics struct {
	logins []string
	ops    []string
}

func (m *recordingMetrics) ObserveLogin(result string) { m.logins = append(m.logins, result) }
func (m *recordingMetrics) ObserveUserOp(op string, err error) {
	if err != nil {
		op += ":error"
	}
	m.ops = append(m.ops, op)
}

type fixture struct {
	svc     *UserService
	store   *memory.UsersRepo
	tokens  *auth.Manager
	metrics *recordingMetrics
	admin   user.Public
}

func newFixture(t *testing.T) fixture {
	t.Helper()

	store := memory.NewUsersRepo(memory.WithBcryptCost(bcrypt.MinCost))
	tokens := auth.NewManager("test-secret", time.Hour)
	metrics := &recordingMetrics{}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	admin, err := store.Create(context.Background(), user.CreateUserInput{
		Name: "admin", Email: "admin@x.com", Role: user.RoleAdmin, Password: "1234",
	})
	require.NoError(t, err)

	return fixture{
		svc:     NewUserService(store, tokens, log, WithMetrics(metrics)),
		store:   store,
		tokens:  tokens,
		metrics: metrics,
		admin:   admin,
	}
}

func strp(s string) *string { return &s }

func TestLogin(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	t.Run("success issues a verifiable token", func(t *testing.T) {
		res, err := f.svc.Login(ctx, "admin@x.com", "1234")
		require.NoError(t, err)
		require.NotEmpty(t, res.Token)
		require.Equal(t, int64(3600), res.ExpiresIn)
		require.Equal(t, f.admin.ID, res.User.ID)

		claims, err := f.tokens.Verify(res.Token)
		require.NoError(t, err)
		require.Equal(t, auth.Identity{ID: f.admin.ID, Email: "admin@x.com", Role: user.RoleAdmin}, claims.Identity())
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := f.svc.Login(ctx, "admin@x.com", "nope")
		require.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("unknown email", func(t *testing.T) {
		_, err := f.svc.Login(ctx, "ghost@x.com", "1234")
		require.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("email match is case-sensitive", func(t *testing.T) {
		_, err := f.svc.Login(ctx, "ADMIN@x.com", "1234")
		require.ErrorIs(t, err, ErrInvalidCredentials)
	})
}

func TestLogin_ReportsMetrics(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	_, _ = f.svc.Login(ctx, "admin@x.com", "1234")
	_, _ = f.svc.Login(ctx, "admin@x.com", "bad")

	require.Equal(t, []string{"success", "invalid_credentials"}, f.metrics.logins)
}

func TestCreate(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.svc.Create(ctx, f.admin.ID, user.CreateUserInput{Name: "Alice", Email: "a@x.com", Password: "abcd"})
	require.NoError(t, err)
	require.Equal(t, user.RoleUser, created.Role)

	_, err = f.svc.Create(ctx, f.admin.ID, user.CreateUserInput{Name: "Alice", Email: "a@x.com", Password: "abcd"})
	require.ErrorIs(t, err, ErrEmailTaken)

	require.Equal(t, []string{"create"}, f.metrics.ops, "a rejected duplicate never reaches the store")
}

func TestList(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, f.admin.ID, user.CreateUserInput{Name: "Alice", Email: "a@x.com", Password: "abcd"})
	require.NoError(t, err)

	users, err := f.svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)
	require.Equal(t, "admin@x.com", users[0].Email)
}

func TestUpdate(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	alice, err := f.svc.Create(ctx, f.admin.ID, user.CreateUserInput{Name: "Alice", Email: "a@x.com", Password: "abcd"})
	require.NoError(t, err)

	t.Run("empty payload is rejected", func(t *testing.T) {
		_, err := f.svc.Update(ctx, f.admin.ID, alice.ID, user.UpdateUserInput{})
		require.ErrorIs(t, err, ErrNoFields)
	})

	t.Run("missing target", func(t *testing.T) {
		_, err := f.svc.Update(ctx, f.admin.ID, 999, user.UpdateUserInput{Name: strp("Ghost")})
		require.ErrorIs(t, err, ErrUserNotFound)
	})

	t.Run("email collision with another user", func(t *testing.T) {
		_, err := f.svc.Update(ctx, f.admin.ID, alice.ID, user.UpdateUserInput{Email: strp("admin@x.com")})
		require.ErrorIs(t, err, ErrEmailTaken)

		still, err := f.store.GetByID(ctx, alice.ID)
		require.NoError(t, err)
		require.Equal(t, "a@x.com", still.Email)
	})

	t.Run("unchanged email is fine", func(t *testing.T) {
		got, err := f.svc.Update(ctx, f.admin.ID, alice.ID, user.UpdateUserInput{Email: strp("a@x.com"), Name: strp("Alicia")})
		require.NoError(t, err)
		require.Equal(t, "Alicia", got.Name)
	})

	t.Run("password change lets the user log in with the new one", func(t *testing.T) {
		_, err := f.svc.Update(ctx, f.admin.ID, alice.ID, user.UpdateUserInput{Password: strp("newpass")})
		require.NoError(t, err)

		_, err = f.svc.Login(ctx, "a@x.com", "abcd")
		require.ErrorIs(t, err, ErrInvalidCredentials)

		_, err = f.svc.Login(ctx, "a@x.com", "newpass")
		require.NoError(t, err)
	})
}

func TestDelete(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	alice, err := f.svc.Create(ctx, f.admin.ID, user.CreateUserInput{Name: "Alice", Email: "a@x.com", Password: "abcd"})
	require.NoError(t, err)

	t.Run("self delete is forbidden even for admins", func(t *testing.T) {
		err := f.svc.Delete(ctx, f.admin.ID, f.admin.ID)
		require.ErrorIs(t, err, ErrSelfDelete)

		_, err = f.store.GetByID(ctx, f.admin.ID)
		require.NoError(t, err, "no state change")
	})

	t.Run("missing target", func(t *testing.T) {
		err := f.svc.Delete(ctx, f.admin.ID, 999)
		require.ErrorIs(t, err, ErrUserNotFound)
	})

	t.Run("removes another user", func(t *testing.T) {
		require.NoError(t, f.svc.Delete(ctx, f.admin.ID, alice.ID))

		_, err := f.store.GetByID(ctx, alice.ID)
		require.ErrorIs(t, err, memory.ErrUserNotFound)

		err = f.svc.Delete(ctx, f.admin.ID, alice.ID)
		require.ErrorIs(t, err, ErrUserNotFound)
	})
}

type failingStore struct {
	UserStore
}

func (failingStore) GetByEmail(context.Context, string) (user.User, error) {
	return user.User{}, errors.New("store unavailable")
}

func TestLogin_StoreFailureIsNotCredentialsError(t *testing.T) {
	t.Parallel()

	svc := NewUserService(failingStore{}, auth.NewManager("s", time.Hour), slog.New(slog.NewTextHandler(io.Discard, nil)))

	_, err := svc.Login(context.Background(), "a@x.com", "pw")
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrInvalidCredentials)
}
