package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/ajebo/storefront-api/auth"
	"github.com/ajebo/storefront-api/middleware"
)

// SetupAuthRoutes registers all "/auth/*" endpoints.
func SetupAuthRoutes(r *gin.Engine, d Deps) {
	authGroup := r.Group("/auth")
	authGroup.Use(middleware.AdminAPIKey(d.Config.Auth.AdminAPIKey))
	{
		authGroup.POST("/session", auth.CreateSession(d.DB, d.Config.Auth.JWTSecret))
	}
}
