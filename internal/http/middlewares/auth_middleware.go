package middlewares

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/geocoder89/userhub/internal/actorctx"
	"github.com/geocoder89/userhub/internal/auth"
	"github.com/geocoder89/userhub/internal/domain/user"
	"github.com/geocoder89/userhub/internal/observability"
	"github.com/gin-gonic/gin"
)

// Keep these interfaces small so tests can fake them easily.
type TokenVerifier interface {
	Verify(token string) (*auth.Claims, error)
}

type UserLookup interface {
	GetByID(ctx context.Context, id int64) (user.User, error)
}

type RejectObserver interface {
	ObserveTokenReject(reason string)
}

type AuthMiddleware struct {
	jwt      TokenVerifier
	users    UserLookup
	observer RejectObserver
	log      *slog.Logger
}

func NewAuthMiddleware(jwt TokenVerifier, users UserLookup, log *slog.Logger) *AuthMiddleware {
	if log == nil {
		log = slog.Default()
	}
	return &AuthMiddleware{jwt: jwt, users: users, log: log}
}

func (m *AuthMiddleware) WithObserver(o RejectObserver) *AuthMiddleware {
	m.observer = o
	return m
}

// RequireAuth accepts exactly "Authorization: <Bearer> <token>" with a
// case-insensitive scheme. The token's user must still exist: deleting a user
// is what revokes their outstanding tokens.
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			m.reject(c, "missing", "token_not_provided", "token not provided")
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 {
			m.reject(c, "malformed", "malformed_token", "malformed token format, expected: Bearer <token>")
			return
		}

		if !strings.EqualFold(parts[0], "Bearer") {
			m.reject(c, "malformed", "malformed_token", "malformed token format, expected: Bearer <token>")
			return
		}

		claims, err := m.jwt.Verify(parts[1])
		if err != nil {
			if errors.Is(err, auth.ErrTokenExpired) {
				m.reject(c, "expired", "token_expired", "token has expired")
				return
			}
			m.reject(c, "invalid", "invalid_token", "token verification failed")
			return
		}

		if _, err := m.users.GetByID(c.Request.Context(), claims.UserID); err != nil {
			m.reject(c, "user_not_found", "invalid_token", "user not found")
			return
		}

		c.Request = c.Request.WithContext(actorctx.WithIdentity(c.Request.Context(), claims.Identity()))

		c.Next()
	}
}

func (m *AuthMiddleware) reject(c *gin.Context, reason, code, message string) {
	if m.observer != nil {
		m.observer.ObserveTokenReject(reason)
	}

	observability.Security(c.Request.Context(), m.log, "token_rejected",
		"reason", reason,
		"path", c.Request.URL.Path,
	)

	abortWithError(c, http.StatusUnauthorized, code, message)
}

// UserIDFromContext reads the authenticated caller set by RequireAuth.
func UserIDFromContext(c *gin.Context) (int64, bool) {
	return actorctx.UserIDFrom(c.Request.Context())
}
