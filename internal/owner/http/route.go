package http

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes registers account and sign-in routes.
func RegisterRoutes(g *gin.RouterGroup, h *OwnerHandler, authMiddleware gin.HandlerFunc) {
	// Public Routes
	authGroup := g.Group("/auth")
	{
		authGroup.POST("/register", h.Register)
		authGroup.POST("/login", h.Login)
		authGroup.POST("/logout", authMiddleware, h.Logout)
	}

	g.GET("/me", authMiddleware, h.Me)
}
