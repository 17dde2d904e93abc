package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/suPer8Hu/docchat/internal/metrics"
)

// Logger writes one line per request and feeds the HTTP metrics.
func Logger(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		elapsed := time.Since(start)

		if route != "/metrics" && route != "/health" {
			metrics.RequestsTotal.WithLabelValues(c.Request.Method, route, strconv.Itoa(status)).Inc()
			metrics.RequestDuration.WithLabelValues(c.Request.Method, route).Observe(elapsed.Seconds())
		}

		ev := log.Info()
		switch {
		case status >= 500:
			ev = log.Error()
		case status >= 400:
			ev = log.Warn()
		}
		if len(c.Errors) > 0 {
			ev = ev.Str("errors", c.Errors.String())
		}
		ev.Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", status).
			Dur("latency", elapsed).
			Str("request_id", RequestIDFrom(c)).
			Msg("request")
	}
}
