package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/univlabs/campus-portal-api/internal/models"
	appErrors "github.com/univlabs/campus-portal-api/pkg/errors"
	"github.com/univlabs/campus-portal-api/pkg/response"
)

// SelfRole is accepted by RBAC as a pseudo-role: it lets a request through
// when the :id route param equals the caller's own user id. Students read
// their own attendance this way without holding ADMIN.
const SelfRole = "SELF"

// RBAC restricts a route to the listed roles.
func RBAC(allowed ...string) gin.HandlerFunc {
	roles := make(map[models.UserRole]struct{}, len(allowed))
	allowSelf := false
	for _, entry := range allowed {
		if entry == SelfRole {
			allowSelf = true
			continue
		}
		roles[models.UserRole(entry)] = struct{}{}
	}

	return func(c *gin.Context) {
		claims, ok := c.Get(ContextUserKey)
		if !ok {
			abortWith(c, appErrors.ErrUnauthorized)
			return
		}
		user, ok := claims.(*models.JWTClaims)
		if !ok {
			abortWith(c, appErrors.ErrUnauthorized)
			return
		}

		if _, ok := roles[user.Role]; ok {
			c.Next()
			return
		}
		if allowSelf && user.UserID != "" && c.Param("id") == user.UserID {
			c.Next()
			return
		}

		abortWith(c, appErrors.ErrForbidden)
	}
}

// RequireRoles is RBAC with typed roles.
func RequireRoles(roles ...models.UserRole) gin.HandlerFunc {
	allowed := make([]string, len(roles))
	for i, r := range roles {
		allowed[i] = string(r)
	}
	return RBAC(allowed...)
}

func abortWith(c *gin.Context, err error) {
	response.Error(c, err)
	c.Abort()
}
