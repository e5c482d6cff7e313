package api

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/evnavlabs/evnav-simulator/internal/logging"
)

// requestLogging stamps every request with a request_id, stores a
// request-scoped logger on the context for handlers to pick up, and
// emits one structured access-log line per request.
func requestLogging(base logging.Logger) gin.HandlerFunc {
	if base == nil {
		base = logging.Noop()
	}
	return func(c *gin.Context) {
		start := time.Now()

		ctx, log := logging.WithRequestLogger(c.Request.Context(), base)
		ctx = logging.ContextWithLogger(ctx, log)
		c.Request = c.Request.WithContext(ctx)
		c.Writer.Header().Set("X-Request-Id", logging.RequestIDFromContext(ctx))

		c.Next()

		log.Info(ctx, "request handled",
			logging.String("method", c.Request.Method),
			logging.String("path", c.Request.URL.Path),
			logging.Int("status", c.Writer.Status()),
			logging.Float64("duration_ms", float64(time.Since(start).Microseconds())/1000),
		)
	}
}
