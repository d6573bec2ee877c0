package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/univ-portal-api/internal/models"
	appErrors "github.com/noah-isme/univ-portal-api/pkg/errors"
	"github.com/noah-isme/univ-portal-api/pkg/response"
)

// RequireRoles allows the request through only for the listed roles.
// It must run after JWT.
func RequireRoles(roles ...models.UserRole) gin.HandlerFunc {
	allowed := make(map[models.UserRole]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(c *gin.Context) {
		claims := Claims(c)
		if claims == nil {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		if _, ok := allowed[claims.Role]; !ok {
			response.Error(c, appErrors.ErrForbidden)
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireStaff admits faculty and administrators.
func RequireStaff() gin.HandlerFunc {
	return RequireRoles(models.RoleSuperAdmin, models.RoleAdmin, models.RoleFaculty)
}

// RequireAdmin admits administrators only.
func RequireAdmin() gin.HandlerFunc {
	return RequireRoles(models.RoleSuperAdmin, models.RoleAdmin)
}
