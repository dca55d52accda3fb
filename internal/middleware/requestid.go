// Package middleware provides the Gin HTTP middleware for the Friend Indeed
// API. Everything here is registered in internal/api/router.go before any
// route handlers so every request is covered regardless of handler.
package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	// RequestIDHeader is the HTTP header used to propagate the request identifier.
	RequestIDHeader = "X-Request-ID"

	// RequestIDKey is the gin.Context key under which the request ID is stored
	// so handlers and other middleware can retrieve it without reading headers.
	RequestIDKey = "request_id"
)

// RequestID ensures every request carries a unique identifier. An inbound
// X-Request-ID (set by an upstream load balancer or the hosting platform) is
// reused unchanged; otherwise a fresh UUID is generated. The identifier is
// stored in the gin context and echoed back in the response header so clients
// can correlate a request with the server-side log entries.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.New().String()
		}
		c.Set(RequestIDKey, id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}
