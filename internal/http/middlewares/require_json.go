package middlewares

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// RequireJSON gates write requests that carry a body: the content type must be
// JSON and the body must parse. Malformed JSON is rejected here, before auth or
// any handler runs.
func RequireJSON() gin.HandlerFunc {
	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodPost, http.MethodPut, http.MethodPatch:
		default:
			c.Next()
			return
		}

		if c.Request.Body == nil || c.Request.ContentLength == 0 {
			c.Next()
			return
		}

		ct := c.GetHeader("Content-Type")
		// allow "application/json; charset=utf-8"
		if ct == "" || !strings.HasPrefix(strings.ToLower(ct), "application/json") {
			abortWithError(c, http.StatusUnsupportedMediaType, "unsupported_media_type", "Content-Type must be application/json")
			return
		}

		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				abortWithError(c, http.StatusRequestEntityTooLarge, "payload_too_large", "request body is too large")
				return
			}
			abortWithError(c, http.StatusBadRequest, "invalid_json", "could not read request body")
			return
		}

		if len(bytes.TrimSpace(body)) > 0 && !json.Valid(body) {
			abortWithError(c, http.StatusBadRequest, "invalid_json", "request body contains malformed JSON")
			return
		}

		c.Request.Body = io.NopCloser(bytes.NewReader(body))
		c.Next()
	}
}
