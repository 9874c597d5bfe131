package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/halewood/mediasearch/internal/logutil"
)

// RequestID tags every request with an id, echoes it in the response header
// and binds a request-scoped logger into the context.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-Id")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set("request_id", requestID)
		c.Writer.Header().Set("X-Request-Id", requestID)

		logger := logutil.GetLogger(c.Request.Context()).With(zap.String("request_id", requestID))
		c.Request = c.Request.WithContext(logutil.WithLogger(c.Request.Context(), logger))
		c.Next()
	}
}
