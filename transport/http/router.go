package http

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/layer-3/walletvault/service"
)

// RouterConfig holds transport settings
type RouterConfig struct {
	// MaxUploadSize caps request bodies in bytes; zero means no limit
	MaxUploadSize int64
}

// SetupRouter sets up the Gin router
func SetupRouter(cfg RouterConfig, authService *service.AuthService, storageService *service.StorageService, logger *slog.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), RequestLogger(logger))

	// Create handlers
	auth := NewAuthHandlers(authService, logger)
	files := NewStorageHandlers(storageService, logger)

	api := router.Group("/api")

	// Auth routes
	authGroup := api.Group("/auth")
	{
		authGroup.GET("/challenge", auth.Challenge)
		authGroup.POST("/authenticate", auth.Authenticate)
		authGroup.GET("/check", AuthMiddleware(authService), auth.Check)
	}

	// Protected storage routes
	storage := api.Group("/storage")
	storage.Use(AuthMiddleware(authService))
	{
		storage.GET("/files", files.List)
		storage.POST("/files", BodyLimit(cfg.MaxUploadSize), files.Upload)
		storage.DELETE("/files", files.Delete)
		storage.GET("/download", files.Download)
		storage.POST("/rename", files.Rename)
		storage.POST("/move", files.Move)
		storage.POST("/copy", files.Copy)
	}

	return router
}
