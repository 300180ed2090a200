package middlewares

import "github.com/gin-gonic/gin"

// abortWithError writes the service error shape and stops the chain.
func abortWithError(c *gin.Context, status int, code, message string) {
	body := gin.H{
		"error":   code,
		"message": message,
	}

	if id, ok := c.Get(CtxRequestID); ok {
		if s, ok := id.(string); ok && s != "" {
			body["requestId"] = s
		}
	}

	c.AbortWithStatusJSON(status, body)
}
