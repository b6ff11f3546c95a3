package http

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/baglabel/backend/config"
)

// SetupRouter creates and configures the Gin router
func SetupRouter(cfg *config.Config, handler *Handler, logger logrus.FieldLogger) *gin.Engine {
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	// Filament types such as "Support for PLA/PETG" arrive with an escaped slash.
	router.UseRawPath = true

	// Global middleware
	router.Use(RequestIDMiddleware())
	router.Use(LoggerMiddleware(logger))
	router.Use(RecoveryMiddleware(logger))
	router.Use(CORSMiddleware(cfg.Server.AllowedOrigins))

	// Health check endpoint
	router.GET("/health", handler.HealthCheck)

	// API v1 routes
	v1 := router.Group("/api/v1")
	v1.Use(RateLimitMiddleware(cfg.RateLimit.PerIP))
	{
		products := v1.Group("/products")
		{
			products.POST("/extract", handler.ExtractProduct)
		}

		labels := v1.Group("/labels")
		{
			labels.POST("/manual", handler.ManualLabel)
		}

		drying := v1.Group("/drying")
		{
			drying.GET("", handler.ListDrying)
			drying.GET("/:type", handler.GetDrying)
		}

		v1.GET("/cache/stats", handler.CacheStats)
	}

	return router
}
