package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/geocoder89/userhub/internal/domain/user"
	"github.com/geocoder89/userhub/internal/security"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrEmailTaken   = errors.New("email already in use")
)

// UsersRepo is the process-local user table. All mutations run under a single
// write lock; password hashing happens before the lock is taken.
type UsersRepo struct {
	mu     sync.RWMutex
	items  map[int64]user.User
	order  []int64 // insertion order for List
	nextID int64
	cost   int
	now    func() time.Time
}

type Option func(*UsersRepo)

// WithBcryptCost sets the hashing work factor. Tests use bcrypt.MinCost.
func WithBcryptCost(cost int) Option {
	return func(r *UsersRepo) { r.cost = cost }
}

func WithClock(now func() time.Time) Option {
	return func(r *UsersRepo) { r.now = now }
}

func NewUsersRepo(opts ...Option) *UsersRepo {
	r := &UsersRepo{
		items:  make(map[int64]user.User),
		nextID: 1,
		cost:   10,
		now:    func() time.Time { return time.Now().UTC() },
	}

	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *UsersRepo) Create(ctx context.Context, in user.CreateUserInput) (user.Public, error) {
	if err := ctx.Err(); err != nil {
		return user.Public{}, err
	}

	role := in.Role
	if role == "" {
		role = user.RoleUser
	}

	hash, err := security.HashPasswordCost(in.Password, r.cost)
	if err != nil {
		return user.Public{}, fmt.Errorf("hash password: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.findByEmailLocked(in.Email); ok {
		return user.Public{}, ErrEmailTaken
	}

	now := r.now()
	u := user.User{
		ID:           r.nextID,
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: hash,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	r.nextID++
	r.items[u.ID] = u
	r.order = append(r.order, u.ID)

	return u.Public(), nil
}

func (r *UsersRepo) GetByEmail(ctx context.Context, email string) (user.User, error) {
	if err := ctx.Err(); err != nil {
		return user.User{}, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.findByEmailLocked(email)
	if !ok {
		return user.User{}, ErrUserNotFound
	}
	return u, nil
}

func (r *UsersRepo) GetByID(ctx context.Context, id int64) (user.User, error) {
	if err := ctx.Err(); err != nil {
		return user.User{}, err
	}

	r.mu.RLock()
	u, ok := r.items[id]
	r.mu.RUnlock()

	if !ok {
		return user.User{}, ErrUserNotFound
	}
	return u, nil
}

func (r *UsersRepo) List(ctx context.Context) ([]user.Public, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]user.Public, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.items[id].Public())
	}
	return out, nil
}

// Update applies the non-nil fields of in to the record. The password is
// re-hashed only when a new one is supplied; UpdatedAt always moves.
func (r *UsersRepo) Update(ctx context.Context, id int64, in user.UpdateUserInput) (user.Public, error) {
	if err := ctx.Err(); err != nil {
		return user.Public{}, err
	}

	var newHash string
	if in.Password != nil {
		hash, err := security.HashPasswordCost(*in.Password, r.cost)
		if err != nil {
			return user.Public{}, fmt.Errorf("hash password: %w", err)
		}
		newHash = hash
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.items[id]
	if !ok {
		return user.Public{}, ErrUserNotFound
	}

	if in.Email != nil && *in.Email != u.Email {
		if other, taken := r.findByEmailLocked(*in.Email); taken && other.ID != id {
			return user.Public{}, ErrEmailTaken
		}
		u.Email = *in.Email
	}
	if in.Name != nil {
		u.Name = *in.Name
	}
	if in.Role != nil {
		u.Role = *in.Role
	}
	if in.Password != nil {
		u.PasswordHash = newHash
	}

	u.UpdatedAt = r.now()
	r.items[id] = u

	return u.Public(), nil
}

func (r *UsersRepo) Delete(ctx context.Context, id int64) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[id]; !ok {
		return false, nil
	}

	delete(r.items, id)
	for i, v := range r.order {
		if v == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return true, nil
}

func (r *UsersRepo) VerifyPassword(plain, hash string) bool {
	return security.CheckPassword(hash, plain) == nil
}

func (r *UsersRepo) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.items)
}

// Ping reports whether the table is usable. It exists so readiness checks can
// treat the in-memory store like any other backing store.
func (r *UsersRepo) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.items == nil {
		return errors.New("users table not initialised")
	}
	return nil
}

// exact, case-sensitive match
func (r *UsersRepo) findByEmailLocked(email string) (user.User, bool) {
	for _, u := range r.items {
		if u.Email == email {
			return u, true
		}
	}
	return user.User{}, false
}
