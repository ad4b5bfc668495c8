package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/campus-api/internal/authz"
	"github.com/noah-isme/campus-api/internal/models"
	"github.com/noah-isme/campus-api/pkg/response"
)

// SelfAccess lets a caller through RBAC when the :id path parameter is their own user id.
const SelfAccess = "SELF"

// RBAC is the static role gate in front of a route group. Entries are role names or
// SelfAccess. Relationship checks stay in the services.
func RBAC(allowed ...string) gin.HandlerFunc {
	roles := make([]models.Role, 0, len(allowed))
	allowSelf := false
	for _, a := range allowed {
		if a == SelfAccess {
			allowSelf = true
			continue
		}
		role, ok := models.ParseRole(a)
		if !ok {
			panic("rbac: unknown role " + a)
		}
		roles = append(roles, role)
	}

	return func(c *gin.Context) {
		claims := Claims(c)
		err := authz.RequireRole(claims, roles...)
		if err == nil {
			c.Next()
			return
		}
		if allowSelf && claims != nil && claims.UserID != "" && c.Param("id") == claims.UserID {
			c.Next()
			return
		}
		response.Error(c, err)
		c.Abort()
	}
}

// RequireRoles is RBAC over typed roles.
func RequireRoles(roles ...models.Role) gin.HandlerFunc {
	allowed := make([]string, len(roles))
	for i, r := range roles {
		allowed[i] = string(r)
	}
	return RBAC(allowed...)
}
