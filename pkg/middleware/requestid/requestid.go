// Package requestid tags every request with an identifier that is echoed back and logged.
package requestid

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Header carries the identifier in both directions.
const Header = "X-Request-ID"

const (
	ginKey = "request_id"
	maxLen = 128
)

type ctxKey struct{}

// Middleware reuses a well-formed inbound X-Request-ID or mints a UUID. The value is stored on the gin
// context and on the request context so services can log it.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(Header)
		if !valid(id) {
			id = uuid.NewString()
		}
		c.Set(ginKey, id)
		c.Request = c.Request.WithContext(context.WithValue(c.Request.Context(), ctxKey{}, id))
		c.Header(Header, id)
		c.Next()
	}
}

// Value returns the identifier assigned to c, or "".
func Value(c *gin.Context) string {
	return c.GetString(ginKey)
}

// FromContext returns the identifier carried by ctx, or "".
func FromContext(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}

// valid accepts printable ASCII without spaces so the value is safe to log and echo.
func valid(id string) bool {
	if id == "" || len(id) > maxLen {
		return false
	}
	for i := 0; i < len(id); i++ {
		if id[i] <= ' ' || id[i] > '~' {
			return false
		}
	}
	return true
}
