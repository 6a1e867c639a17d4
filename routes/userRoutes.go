package routes

import (
	"civicpulse-be/controllers"
	"civicpulse-be/middlewares"
	"civicpulse-be/models"

	"github.com/gin-gonic/gin"
)

func UserRoutes(r *gin.Engine, users *controllers.UserController, authenticated gin.HandlerFunc) {
	user := r.Group("/api/users")
	{
		user.GET("/:id", users.GetUserProfile)
		user.GET("/:id/issues", users.GetUserIssues)

		user.PUT("/profile", authenticated, users.UpdateProfile)
		user.GET("/subscribed-issues", authenticated, users.GetSubscribedIssues)

		admin := user.Group("", authenticated, middlewares.RequireCapability(models.CapManageUsers))
		admin.PUT("/:id/role", users.UpdateUserRole)
		admin.POST("/:id/badge", users.AwardBadge)
	}
}
