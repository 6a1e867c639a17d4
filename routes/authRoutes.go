package routes

import (
	"civicpulse-be/controllers"

	"github.com/gin-gonic/gin"
)

// AuthRoutes sets up the authentication and phone verification routes
func AuthRoutes(r *gin.Engine, auth *controllers.AuthController, authenticated gin.HandlerFunc) {
	group := r.Group("/api/auth")
	{
		group.POST("/register", auth.RegisterUser)
		group.POST("/login", auth.LoginUser)
		group.GET("/me", authenticated, auth.GetMe)
		group.POST("/send-verification", authenticated, auth.SendPhoneVerification)
		group.POST("/verify-phone", authenticated, auth.VerifyPhoneCode)
	}
}
