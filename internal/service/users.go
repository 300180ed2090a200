package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/geocoder89/userhub/internal/domain/user"
	"github.com/geocoder89/userhub/internal/observability"
	"github.com/geocoder89/userhub/internal/repo/memory"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailTaken         = memory.ErrEmailTaken
	ErrUserNotFound       = memory.ErrUserNotFound
	ErrSelfDelete         = errors.New("cannot delete own account")
	ErrNoFields           = errors.New("no fields to update")
)

type UserStore interface {
	Create(ctx context.Context, in user.CreateUserInput) (user.Public, error)
	GetByEmail(ctx context.Context, email string) (user.User, error)
	GetByID(ctx context.Context, id int64) (user.User, error)
	List(ctx context.Context) ([]user.Public, error)
	Update(ctx context.Context, id int64, in user.UpdateUserInput) (user.Public, error)
	Delete(ctx context.Context, id int64) (bool, error)
	VerifyPassword(plain, hash string) bool
}

type TokenIssuer interface {
	Issue(u user.User) (string, time.Time, error)
	TTL() time.Duration
}

type LoginResult struct {
	Token     string
	ExpiresIn int64 // seconds
	ExpiresAt time.Time
	User      user.Public
}

// Metrics is the subset of observability.Prom the service reports to.
type Metrics interface {
	ObserveLogin(result string)
	ObserveUserOp(op string, err error)
}

type nopMetrics struct{}

func (nopMetrics) ObserveLogin(string)         {}
func (nopMetrics) ObserveUserOp(string, error) {}

type UserService struct {
	store   UserStore
	tokens  TokenIssuer
	log     *slog.Logger
	tracer  trace.Tracer
	metrics Metrics
}

type Option func(*UserService)

func WithMetrics(m Metrics) Option {
	return func(s *UserService) {
		if m != nil {
			s.metrics = m
		}
	}
}

func NewUserService(store UserStore, tokens TokenIssuer, log *slog.Logger, opts ...Option) *UserService {
	if log == nil {
		log = slog.Default()
	}

	s := &UserService{
		store:   store,
		tokens:  tokens,
		log:     log,
		tracer:  observability.Tracer(),
		metrics: nopMetrics{},
	}

	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Login checks credentials and issues a token. Unknown email and wrong
// password are indistinguishable to the caller.
func (s *UserService) Login(ctx context.Context, email, password string) (LoginResult, error) {
	ctx, span := s.tracer.Start(ctx, "UserService.Login")
	defer span.End()

	u, err := s.store.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, memory.ErrUserNotFound) {
			observability.Security(ctx, s.log, "login_failed", "reason", "unknown_email", "email", email)
			s.metrics.ObserveLogin("invalid_credentials")
			return LoginResult{}, ErrInvalidCredentials
		}
		s.metrics.ObserveLogin("error")
		return LoginResult{}, s.fail(span, fmt.Errorf("lookup user: %w", err))
	}

	if !s.store.VerifyPassword(password, u.PasswordHash) {
		observability.Security(ctx, s.log, "login_failed", "reason", "bad_password", "user_id", u.ID)
		s.metrics.ObserveLogin("invalid_credentials")
		return LoginResult{}, ErrInvalidCredentials
	}

	token, expiresAt, err := s.tokens.Issue(u)
	if err != nil {
		s.metrics.ObserveLogin("error")
		return LoginResult{}, s.fail(span, fmt.Errorf("issue token: %w", err))
	}

	s.metrics.ObserveLogin("success")
	span.SetAttributes(attribute.Int64("user.id", u.ID))
	observability.Audit(ctx, s.log, "auth.login", u.ID)

	return LoginResult{
		Token:     token,
		ExpiresIn: int64(s.tokens.TTL().Seconds()),
		ExpiresAt: expiresAt,
		User:      u.Public(),
	}, nil
}

func (s *UserService) Create(ctx context.Context, actorID int64, in user.CreateUserInput) (user.Public, error) {
	ctx, span := s.tracer.Start(ctx, "UserService.Create")
	defer span.End()

	if in.Role == "" {
		in.Role = user.RoleUser
	}

	if _, err := s.store.GetByEmail(ctx, in.Email); err == nil {
		return user.Public{}, ErrEmailTaken
	} else if !errors.Is(err, memory.ErrUserNotFound) {
		return user.Public{}, s.fail(span, fmt.Errorf("lookup email: %w", err))
	}

	// The store re-checks under its lock, so a concurrent create with the same
	// email still ends in ErrEmailTaken here.
	created, err := s.store.Create(ctx, in)
	s.metrics.ObserveUserOp("create", err)
	if err != nil {
		if errors.Is(err, memory.ErrEmailTaken) {
			return user.Public{}, ErrEmailTaken
		}
		return user.Public{}, s.fail(span, fmt.Errorf("create user: %w", err))
	}

	span.SetAttributes(attribute.Int64("user.id", created.ID))
	observability.Audit(ctx, s.log, "user.create", actorID, "target_id", created.ID, "role", created.Role)

	return created, nil
}

func (s *UserService) List(ctx context.Context) ([]user.Public, error) {
	ctx, span := s.tracer.Start(ctx, "UserService.List")
	defer span.End()

	users, err := s.store.List(ctx)
	if err != nil {
		return nil, s.fail(span, fmt.Errorf("list users: %w", err))
	}

	span.SetAttributes(attribute.Int("users.count", len(users)))
	return users, nil
}

func (s *UserService) Update(ctx context.Context, actorID, id int64, in user.UpdateUserInput) (user.Public, error) {
	ctx, span := s.tracer.Start(ctx, "UserService.Update", trace.WithAttributes(attribute.Int64("user.id", id)))
	defer span.End()

	if in.Empty() {
		return user.Public{}, ErrNoFields
	}

	existing, err := s.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, memory.ErrUserNotFound) {
			return user.Public{}, ErrUserNotFound
		}
		return user.Public{}, s.fail(span, fmt.Errorf("lookup user: %w", err))
	}

	if in.Email != nil && *in.Email != existing.Email {
		other, err := s.store.GetByEmail(ctx, *in.Email)
		if err == nil && other.ID != id {
			return user.Public{}, ErrEmailTaken
		}
		if err != nil && !errors.Is(err, memory.ErrUserNotFound) {
			return user.Public{}, s.fail(span, fmt.Errorf("lookup email: %w", err))
		}
	}

	updated, err := s.store.Update(ctx, id, in)
	s.metrics.ObserveUserOp("update", err)
	if err != nil {
		switch {
		case errors.Is(err, memory.ErrUserNotFound):
			return user.Public{}, ErrUserNotFound
		case errors.Is(err, memory.ErrEmailTaken):
			return user.Public{}, ErrEmailTaken
		}
		return user.Public{}, s.fail(span, fmt.Errorf("update user: %w", err))
	}

	observability.Audit(ctx, s.log, "user.update", actorID, "target_id", id, "fields", changedFields(in))
	return updated, nil
}

// Delete removes user id on behalf of actorID. Nobody may delete their own
// account, admins included.
func (s *UserService) Delete(ctx context.Context, actorID, id int64) error {
	ctx, span := s.tracer.Start(ctx, "UserService.Delete", trace.WithAttributes(attribute.Int64("user.id", id)))
	defer span.End()

	if _, err := s.store.GetByID(ctx, id); err != nil {
		if errors.Is(err, memory.ErrUserNotFound) {
			return ErrUserNotFound
		}
		return s.fail(span, fmt.Errorf("lookup user: %w", err))
	}

	if actorID == id {
		observability.Security(ctx, s.log, "self_delete_blocked", "user_id", id)
		return ErrSelfDelete
	}

	removed, err := s.store.Delete(ctx, id)
	s.metrics.ObserveUserOp("delete", err)
	if err != nil {
		return s.fail(span, fmt.Errorf("delete user: %w", err))
	}
	if !removed {
		// lost a race with another delete
		return ErrUserNotFound
	}

	observability.Audit(ctx, s.log, "user.delete", actorID, "target_id", id)
	return nil
}

func (s *UserService) fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}

func changedFields(in user.UpdateUserInput) []string {
	fields := make([]string, 0, 4)
	if in.Name != nil {
		fields = append(fields, "name")
	}
	if in.Email != nil {
		fields = append(fields, "email")
	}
	if in.Role != nil {
		fields = append(fields, "role")
	}
	if in.Password != nil {
		fields = append(fields, "password")
	}
	return fields
}
