package routes

import (
	handlers "raddiwala/internal/handlers/shared"

	"github.com/gin-gonic/gin"
)

// SetupAuthRoutes mounts OTP, signup and session routes. Only /me and /logout need a session.
func SetupAuthRoutes(r *gin.RouterGroup, authHandler *handlers.AuthHandler, auth gin.HandlerFunc) {
	authGroup := r.Group("/auth")
	{
		authGroup.POST("/send-otp", authHandler.SendOTP)
		authGroup.POST("/signup", authHandler.Signup)
		authGroup.POST("/login", authHandler.Login)
		authGroup.POST("/logout", authHandler.Logout)
		authGroup.GET("/me", auth, authHandler.Me)
	}
}
