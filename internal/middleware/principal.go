// principal.go decodes the x-ms-client-principal header injected by the
// hosting platform's auth layer. The service never runs an OAuth flow itself;
// it only consumes the resulting identity header.
package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/friendindeed/friendindeed/internal/identity"
)

// PrincipalKey is the gin.Context key under which the decoded principal is
// stored for handlers.
const PrincipalKey = "principal"

// Principal decodes the identity header when present and stores the result in
// the gin context. Absence is not an error here: public routes serve
// anonymous callers, they just see the anonymous view. A malformed header is
// treated exactly like an absent one, so a garbled value can never grant or
// crash anything.
func Principal() gin.HandlerFunc {
	return func(c *gin.Context) {
		p, err := identity.Decode(c.GetHeader(identity.Header))
		if err == nil {
			c.Set(PrincipalKey, p)
		}
		c.Next()
	}
}

// RequirePrincipal aborts with 401 when no valid principal was decoded.
// Register it per route group after Principal.
func RequirePrincipal() gin.HandlerFunc {
	return func(c *gin.Context) {
		if PrincipalFrom(c) == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "authentication required",
			})
			return
		}
		c.Next()
	}
}

// PrincipalFrom returns the decoded principal for the request, or nil for an
// anonymous caller.
func PrincipalFrom(c *gin.Context) *identity.Principal {
	v, exists := c.Get(PrincipalKey)
	if !exists {
		return nil
	}
	p, ok := v.(*identity.Principal)
	if !ok {
		return nil
	}
	return p
}
