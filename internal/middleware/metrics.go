package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/friendindeed/friendindeed/internal/telemetry"
)

// Metrics records the request counter and latency histogram for every request
// passing through the router.
//
// The path label comes from c.FullPath(), the matched route template
// (e.g. /needs/:id/claim) rather than the raw URL, so user-supplied path
// segments never inflate label cardinality. Requests matching no registered
// route use the literal "<no-route>".
//
// Register after gin.Recovery() and RequestID so the status set by error
// handlers is captured correctly.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "<no-route>"
		}
		method := c.Request.Method
		status := strconv.Itoa(c.Writer.Status())

		telemetry.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
		telemetry.HTTPRequestDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
	}
}
