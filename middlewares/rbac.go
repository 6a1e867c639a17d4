package middlewares

import (
	"net/http"

	"civicpulse-be/models"

	"github.com/gin-gonic/gin"
)

// RequireCapability lets through only roles that carry capability.
func RequireCapability(capability models.Capability) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := CurrentUser(c)
		if user == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
			return
		}
		if !user.Role.Can(capability) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error":         "Insufficient permissions",
				"requiredRoles": models.RolesWith(capability),
			})
			return
		}
		c.Next()
	}
}
