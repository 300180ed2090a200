package handlers

import (
	"log/slog"
	"net/http"

	"github.com/geocoder89/userhub/internal/http/middlewares"
	"github.com/gin-gonic/gin"
)

type APIError struct {
	Error     string       `json:"error"`
	Message   string       `json:"message"`
	Messages  []string     `json:"messages,omitempty"`
	Fields    []FieldError `json:"fields,omitempty"`
	RequestID string       `json:"requestId,omitempty"`
}

func requestIDFrom(ctx *gin.Context) string {
	v, ok := ctx.Get(middlewares.CtxRequestID)

	if ok {
		s, ok := v.(string)
		if ok && s != "" {
			return s
		}
	}

	// fallback header
	return ctx.GetHeader("X-Request-Id")
}

func RespondError(ctx *gin.Context, status int, code, message string) {
	ctx.JSON(status, APIError{
		Error:     code,
		Message:   message,
		RequestID: requestIDFrom(ctx),
	})
}

func RespondValidation(ctx *gin.Context, message string, fields []FieldError) {
	messages := make([]string, 0, len(fields))
	for _, f := range fields {
		messages = append(messages, f.Field+" "+f.Message)
	}

	ctx.JSON(http.StatusBadRequest, APIError{
		Error:     "validation_error",
		Message:   message,
		Messages:  messages,
		Fields:    fields,
		RequestID: requestIDFrom(ctx),
	})
}

func RespondBadRequest(ctx *gin.Context, code, message string) {
	RespondError(ctx, http.StatusBadRequest, code, message)
}

func RespondUnAuthorized(ctx *gin.Context, code, message string) {
	RespondError(ctx, http.StatusUnauthorized, code, message)
}

func RespondForbidden(ctx *gin.Context, code, message string) {
	RespondError(ctx, http.StatusForbidden, code, message)
}

func RespondNotFound(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusNotFound, "not_found", message)
}

func RespondConflict(ctx *gin.Context, code, message string) {
	RespondError(ctx, http.StatusConflict, code, message)
}

// RespondInternal hides err from the client; it only reaches the log.
func RespondInternal(ctx *gin.Context, message string, err error) {
	if err != nil {
		slog.ErrorContext(ctx.Request.Context(), message, "err", err, "path", ctx.Request.URL.Path)
	}
	RespondError(ctx, http.StatusInternalServerError, "internal_error", message)
}
