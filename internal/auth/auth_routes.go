package auth

import (
	"github.com/Abhinav7558/employee-management-system/internal/middleware"

	"github.com/gin-gonic/gin"
)

// RegisterRoutes mounts /auth. authenticate guards the routes that need a
// signed-in user.
func RegisterRoutes(r *gin.RouterGroup, handler *Handler, authenticate gin.HandlerFunc) {
	auth := r.Group("/auth")
	{
		auth.POST("/register", middleware.RateLimitByIP(0.1, 3), handler.Register)
		auth.POST("/login", middleware.RateLimitByIP(0.2, 5), handler.Login)
		auth.POST("/refresh", middleware.RateLimitByIP(0.5, 5), handler.Refresh)

		auth.POST("/change-password", authenticate, middleware.RateLimitByUser(0.1, 3), handler.ChangePassword)
		auth.GET("/profile", authenticate, middleware.RateLimitByUser(2, 5), handler.GetProfile)
		auth.PUT("/profile", authenticate, middleware.RateLimitByUser(1, 3), handler.UpdateProfile)
	}
}
