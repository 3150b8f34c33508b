package logging

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// HeaderRequestID carries the request id in and out of the server.
const HeaderRequestID = "X-Request-ID"

// GinMiddleware attaches a request-scoped child logger to the request
// context and logs each completed request.
func GinMiddleware(logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		reqID := c.GetHeader(HeaderRequestID)
		if reqID == "" {
			reqID = uuid.NewString()
		}

		child := logger.With().
			Str("request_id", reqID).
			Str("method", c.Request.Method).
			Str("http_path", c.Request.URL.Path).
			Logger()

		c.Header(HeaderRequestID, reqID)
		c.Request = c.Request.WithContext(WithLogger(c.Request.Context(), child))

		c.Next()

		child.Info().
			Int("status", c.Writer.Status()).
			Float64("latency_ms", durationMillis(time.Since(start))).
			Msg("request completed")
	}
}
