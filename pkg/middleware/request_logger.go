package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Jansmig/magmamath/pkg/logger"
)

// RequestLogger logs one line per request through the request-scoped logger.
// It must run after CorrelationID.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		l := logger.Ctx(c.Request.Context())
		ev := l.Info()
		if status >= 500 {
			ev = l.Error()
		} else if status >= 400 {
			ev = l.Warn()
		}
		ev.Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Msg("request handled")
	}
}
