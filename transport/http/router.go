package http

import (
	"github.com/ethereum/go-ethereum/log"
	"github.com/gin-gonic/gin"
	"github.com/layer-3/webauth/service"
)

// SetupRouter sets up the Gin router
func SetupRouter(authService *service.AuthService, logger log.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), RequestLogger(logger))

	// Create handlers
	handlers := NewAuthHandlers(authService)

	// Auth routes
	auth := router.Group("/auth")
	{
		auth.GET("", handlers.ChallengeQuery)
		auth.POST("", handlers.Validate)
		auth.POST("/challenge", handlers.Challenge)
	}

	// Protected API routes
	api := router.Group("/api")
	api.Use(AuthMiddleware(authService))
	{
		api.GET("/me", handlers.Me)
	}

	return router
}
