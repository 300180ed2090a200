package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/geocoder89/userhub/internal/domain/user"
	"github.com/geocoder89/userhub/internal/service"
	"github.com/gin-gonic/gin"
)

type Authenticator interface {
	Login(ctx context.Context, email, password string) (service.LoginResult, error)
}

type AuthHandler struct {
	svc Authenticator
}

func NewAuthHandler(svc Authenticator) *AuthHandler {
	return &AuthHandler{svc: svc}
}

func (h *AuthHandler) Login(ctx *gin.Context) {
	var req user.LoginRequest

	if !BindJSON(ctx, &req) {
		return
	}

	res, err := h.svc.Login(ctx.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			RespondUnAuthorized(ctx, "invalid_credentials", "Email or password is incorrect.")
			return
		}

		RespondInternal(ctx, "Could not log in", err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"message":   "Login successful",
		"token":     res.Token,
		"user":      res.User,
		"expiresIn": res.ExpiresIn,
	})
}
