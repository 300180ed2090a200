package middlewares

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/geocoder89/userhub/internal/actorctx"
	"github.com/geocoder89/userhub/internal/auth"
	"github.com/geocoder89/userhub/internal/domain/user"
	"github.com/gin-gonic/gin"
)

type fakeVerifier struct {
	claims *auth.Claims
	err    error
}

func (f fakeVerifier) Verify(string) (*auth.Claims, error) { return f.claims, f.err }

type fakeLookup struct{ known map[int64]bool }

func (f fakeLookup) GetByID(_ context.Context, id int64) (user.User, error) {
	if f.known[id] {
		return user.User{ID: id}, nil
	}
	return user.User{}, errors.New("not found")
}

type countingObserver struct{ reasons []string }

func (o *countingObserver) ObserveTokenReject(reason string) { o.reasons = append(o.reasons, reason) }

func authRouter(v TokenVerifier, users UserLookup, obs RejectObserver) *gin.Engine {
	gin.SetMode(gin.TestMode)

	m := NewAuthMiddleware(v, users, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if obs != nil {
		m = m.WithObserver(obs)
	}

	r := gin.New()
	r.GET("/private", m.RequireAuth(), func(c *gin.Context) {
		id, _ := UserIDFromContext(c)
		identity, _ := actorctx.IdentityFrom(c.Request.Context())
		c.JSON(http.StatusOK, gin.H{"id": id, "role": identity.Role, "ctxID": identity.ID})
	})
	return r
}

func TestRequireAuth(t *testing.T) {
	valid := &auth.Claims{UserID: 3, Email: "a@x.com", Role: "user"}
	known := fakeLookup{known: map[int64]bool{3: true}}

	tests := []struct {
		name     string
		header   string
		verifier fakeVerifier
		users    fakeLookup
		status   int
		code     string
		reason   string
	}{
		{"missing header", "", fakeVerifier{claims: valid}, known, http.StatusUnauthorized, "token_not_provided", "missing"},
		{"single part", "Bearer", fakeVerifier{claims: valid}, known, http.StatusUnauthorized, "malformed_token", "malformed"},
		{"wrong scheme", "Token abc", fakeVerifier{claims: valid}, known, http.StatusUnauthorized, "malformed_token", "malformed"},
		{"expired", "Bearer abc", fakeVerifier{err: auth.ErrTokenExpired}, known, http.StatusUnauthorized, "token_expired", "expired"},
		{"invalid", "Bearer abc", fakeVerifier{err: auth.ErrTokenInvalid}, known, http.StatusUnauthorized, "invalid_token", "invalid"},
		{"deleted user", "Bearer abc", fakeVerifier{claims: valid}, fakeLookup{}, http.StatusUnauthorized, "invalid_token", "user_not_found"},
		{"ok", "Bearer abc", fakeVerifier{claims: valid}, known, http.StatusOK, "", ""},
		{"ok lowercase scheme", "bearer abc", fakeVerifier{claims: valid}, known, http.StatusOK, "", ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			obs := &countingObserver{}

			req := httptest.NewRequest(http.MethodGet, "/private", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}

			w := httptest.NewRecorder()
			authRouter(tc.verifier, tc.users, obs).ServeHTTP(w, req)

			if w.Code != tc.status {
				t.Fatalf("status=%d want %d body=%s", w.Code, tc.status, w.Body.String())
			}

			if tc.status == http.StatusOK {
				var body struct {
					ID    int64  `json:"id"`
					Role  string `json:"role"`
					CtxID int64  `json:"ctxID"`
				}
				if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
					t.Fatal(err)
				}
				if body.ID != 3 || body.CtxID != 3 || body.Role != "user" {
					t.Fatalf("identity not propagated: %+v", body)
				}
				if len(obs.reasons) != 0 {
					t.Fatalf("unexpected rejects: %v", obs.reasons)
				}
				return
			}

			var body map[string]string
			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
				t.Fatal(err)
			}
			if body["error"] != tc.code {
				t.Fatalf("error=%q want %q", body["error"], tc.code)
			}
			if len(obs.reasons) != 1 || obs.reasons[0] != tc.reason {
				t.Fatalf("reasons=%v want [%s]", obs.reasons, tc.reason)
			}
		})
	}
}
