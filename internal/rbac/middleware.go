package rbac

import (
	"slices"

	"todo-platform/internal/apperr"
	"todo-platform/internal/auth"

	"github.com/gin-gonic/gin"
)

// RequireAnyRole admits callers whose access token carries one of roles.
// It reads the principal set by auth.RequireAccessToken, so a route without
// that middleware answers 401 rather than leaking the handler.
func RequireAnyRole(roles ...string) gin.HandlerFunc {
	roles = slices.Clone(roles)
	return func(c *gin.Context) {
		role, err := auth.Role(c.Request.Context())
		if err != nil || role == "" {
			apperr.Abort(c, apperr.New(apperr.KindUnauthenticated, "missing_role", "sign in to continue"))
			return
		}
		if !slices.Contains(roles, role) {
			apperr.Abort(c, apperr.New(apperr.KindForbidden, "forbidden", "role "+role+" may not access this resource"))
			return
		}
		c.Next()
	}
}

// RequireAdmin guards the user directory and other cross-account views.
func RequireAdmin() gin.HandlerFunc {
	return RequireAnyRole(RoleAdmin)
}
