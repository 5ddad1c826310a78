package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"upload-whisper/internal/api/errors"
)

// LimitBody rejects requests whose declared length exceeds maxBytes and caps
// the body reader for the rest, so chunked uploads hit the same limit.
func LimitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if maxBytes <= 0 {
			c.Next()
			return
		}

		if c.Request.ContentLength > maxBytes {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, errors.NewPayloadTooLargeError(maxBytes))
			return
		}

		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}
