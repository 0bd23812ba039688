package routes

import (
	"github.com/gin-gonic/gin"

	"bridge-local-platform/internal/api/handlers"
)

// RegisterAuthRoutes registers login and token lifecycle routes
func RegisterAuthRoutes(rg *gin.RouterGroup, authHandler *handlers.AuthHandler) {
	auth := rg.Group("/auth")
	{
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh", authHandler.Refresh)
		auth.POST("/logout", authHandler.Logout)
	}
}
