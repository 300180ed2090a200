package middlewares

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"
)

// Recovery turns a panic into an opaque 500. The detail, including the stack,
// stays in the server log.
func Recovery(log *slog.Logger) gin.HandlerFunc {
	if log == nil {
		log = slog.Default()
	}

	return gin.CustomRecoveryWithWriter(nil, func(c *gin.Context, recovered any) {
		log.ErrorContext(c.Request.Context(), "panic recovered",
			"err", fmt.Sprint(recovered),
			"stack", string(debug.Stack()),
			"path", c.Request.URL.Path,
		)

		abortWithError(c, http.StatusInternalServerError, "internal_error", "an unexpected error occurred")
	})
}
