package api

import (
	"log/slog"

	"helix/internal/api/handlers"
	"helix/internal/api/middleware"
	"helix/internal/lookup"

	"github.com/gin-gonic/gin"
)

// RouterConfig holds dependencies for the API router
type RouterConfig struct {
	Lookup    lookup.Lookup
	Authority handlers.TokenAuthority
	APIKey    string
	Logger    *slog.Logger
}

// NewRouter creates and configures the Gin router
func NewRouter(config RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Apply global middleware
	router.Use(middleware.RequestID())
	router.Use(middleware.Recovery(config.Logger))
	router.Use(middleware.Logging(config.Logger))
	router.Use(middleware.NoiseFilter(config.Logger))

	// Health check (no auth)
	healthHandler := handlers.NewHealthHandler()
	router.GET("/health", healthHandler.GetHealth)

	// API v1 routes (with authentication)
	v1 := router.Group("/v1")
	v1.Use(middleware.APIKeyAuth(config.APIKey))
	{
		usersHandler := handlers.NewUsersHandler(config.Lookup, config.Logger)
		v1.GET("/users", usersHandler.ListUsers)
		v1.GET("/users/:login", usersHandler.GetUser)

		tokenHandler := handlers.NewTokenHandler(config.Authority, config.Logger)
		v1.GET("/token", tokenHandler.GetTokenStatus)
		v1.POST("/token/refresh", tokenHandler.RefreshToken)
	}

	return router
}
