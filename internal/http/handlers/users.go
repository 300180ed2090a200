package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/geocoder89/userhub/internal/actorctx"
	"github.com/geocoder89/userhub/internal/domain/user"
	"github.com/geocoder89/userhub/internal/service"
	"github.com/gin-gonic/gin"
)

type UsersService interface {
	Create(ctx context.Context, actorID int64, in user.CreateUserInput) (user.Public, error)
	List(ctx context.Context) ([]user.Public, error)
	Update(ctx context.Context, actorID, id int64, in user.UpdateUserInput) (user.Public, error)
	Delete(ctx context.Context, actorID, id int64) error
}

type UsersHandler struct {
	svc UsersService
}

func NewUsersHandler(svc UsersService) *UsersHandler {
	return &UsersHandler{svc: svc}
}

func (h *UsersHandler) ListUsers(ctx *gin.Context) {
	users, err := h.svc.List(ctx.Request.Context())
	if err != nil {
		RespondInternal(ctx, "Could not list users", err)
		return
	}

	RespondJSONWithETag(ctx, http.StatusOK, gin.H{
		"message": "Users retrieved successfully",
		"users":   users,
		"total":   len(users),
	}, users)
}

func (h *UsersHandler) CreateUser(ctx *gin.Context) {
	var req user.CreateUserRequest

	if !BindJSON(ctx, &req) {
		return
	}

	actorID, _ := actorctx.UserIDFrom(ctx.Request.Context())

	created, err := h.svc.Create(ctx.Request.Context(), actorID, req.Input())
	if err != nil {
		if errors.Is(err, service.ErrEmailTaken) {
			RespondConflict(ctx, "email_taken", "Email is already in use.")
			return
		}
		RespondInternal(ctx, "Could not create user", err)
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{
		"message": "User created successfully",
		"user":    created,
	})
}

func (h *UsersHandler) UpdateUser(ctx *gin.Context) {
	id, ok := parseUserID(ctx)
	if !ok {
		RespondNotFound(ctx, "User not found")
		return
	}

	var req user.UpdateUserRequest

	if !BindJSON(ctx, &req) {
		return
	}

	if !req.HasChanges() {
		RespondValidation(ctx, "At least one field must be provided", []FieldError{{
			Field:   "body",
			Rule:    "required",
			Message: "must contain at least one of name, email, role, password",
		}})
		return
	}

	actorID, _ := actorctx.UserIDFrom(ctx.Request.Context())

	updated, err := h.svc.Update(ctx.Request.Context(), actorID, id, req.Input())
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUserNotFound):
			RespondNotFound(ctx, "User not found")
		case errors.Is(err, service.ErrEmailTaken):
			RespondConflict(ctx, "email_taken", "Email is already in use.")
		case errors.Is(err, service.ErrNoFields):
			RespondBadRequest(ctx, "validation_error", "At least one field must be provided")
		default:
			RespondInternal(ctx, "Could not update user", err)
		}
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"message": "User updated successfully",
		"user":    updated,
	})
}

func (h *UsersHandler) DeleteUser(ctx *gin.Context) {
	id, ok := parseUserID(ctx)
	if !ok {
		RespondNotFound(ctx, "User not found")
		return
	}

	actorID, ok := actorctx.UserIDFrom(ctx.Request.Context())
	if !ok {
		RespondUnAuthorized(ctx, "token_not_provided", "token not provided")
		return
	}

	err := h.svc.Delete(ctx.Request.Context(), actorID, id)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUserNotFound):
			RespondNotFound(ctx, "User not found")
		case errors.Is(err, service.ErrSelfDelete):
			RespondForbidden(ctx, "self_delete_forbidden", "You cannot delete your own account")
		default:
			RespondInternal(ctx, "Could not delete user", err)
		}
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"message": "User deleted successfully",
	})
}

// ids are positive integers; anything else cannot name a user
func parseUserID(ctx *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
