package auth

import (
	"errors"
	"strconv"
	"time"

	"github.com/geocoder89/userhub/internal/domain/user"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const issuer = "userhub"

var (
	ErrTokenExpired = errors.New("token expired")
	ErrTokenInvalid = errors.New("token invalid")
)

// Identity is what a verified token asserts about its bearer.
type Identity struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

type Claims struct {
	UserID int64  `json:"id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

func (c *Claims) Identity() Identity {
	return Identity{ID: c.UserID, Email: c.Email, Role: c.Role}
}

type Manager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewManager(secret string, ttl time.Duration) *Manager {
	return &Manager{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

func (m *Manager) TTL() time.Duration {
	return m.ttl
}

// Issue signs an HS256 access token for u that expires after the manager's TTL.
func (m *Manager) Issue(u user.User) (token string, expiresAt time.Time, err error) {
	now := m.now().UTC()
	expiresAt = now.Add(m.ttl)

	claims := Claims{
		UserID: u.ID,
		Email:  u.Email,
		Role:   u.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   strconv.FormatInt(u.ID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			ID:        uuid.NewString(),
		},
	}

	token, err = jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	return
}

// Verify checks signature, algorithm and expiry. Anything that is not a valid,
// unexpired HS256 token from this issuer is ErrTokenInvalid.
func (m *Manager) Verify(tokenStr string) (*Claims, error) {
	token, err := m.parse(tokenStr,
		jwt.WithExpirationRequired(),
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(m.now),
	)

	if err != nil {
		// Only report expiry for tokens we actually signed.
		if errors.Is(err, jwt.ErrTokenExpired) {
			if _, sigErr := m.parse(tokenStr, jwt.WithoutClaimsValidation()); sigErr == nil {
				return nil, ErrTokenExpired
			}
		}
		return nil, ErrTokenInvalid
	}

	claims, ok := token.Claims.(*Claims)

	if !ok || !token.Valid || claims.UserID <= 0 {
		return nil, ErrTokenInvalid
	}

	return claims, nil
}

func (m *Manager) parse(tokenStr string, opts ...jwt.ParserOption) (*jwt.Token, error) {
	opts = append(opts, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))

	return jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		// Enforce HS256
		_, ok := t.Method.(*jwt.SigningMethodHMAC)

		if !ok {
			return nil, errors.New("unexpected signing method")
		}
		return m.secret, nil
	}, opts...)
}
