// internal/api/api.go
package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/poslytics/backend/internal/api/handlers"
	"github.com/poslytics/backend/internal/api/middleware"
	"github.com/poslytics/backend/internal/cache"
	"github.com/poslytics/backend/internal/service"
)

type Services struct {
	ImportService    *service.ImportService
	AnalyticsService *service.AnalyticsService
	ForecastService  *service.ForecastService
	StatusCache      cache.ImportStatusCache
}

func NewRouter(services *Services, allowedOrigins []string) *gin.Engine {
	router := gin.New()

	router.Use(middleware.Logger())
	router.Use(middleware.Recovery())

	defaultOrigins := []string{"http://localhost:3000", "http://127.0.0.1:3000"}
	corsConfig := cors.Config{
		AllowOrigins:     defaultOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(allowedOrigins) > 0 {
		normalizedOrigins, allowAll := normalizeAllowedOrigins(allowedOrigins)
		if allowAll {
			corsConfig.AllowOrigins = nil
			corsConfig.AllowOriginFunc = func(origin string) bool { return true }
		} else if len(normalizedOrigins) > 0 {
			corsConfig.AllowOrigins = normalizedOrigins
		}
	}
	router.Use(cors.New(corsConfig))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	apiGroup := router.Group("/api/v1")

	if services != nil {
		if services.ImportService != nil {
			importHandler := handlers.NewImportHandler(services.ImportService, services.StatusCache)
			importGroup := apiGroup.Group("/imports")
			{
				importGroup.POST("", importHandler.ImportSales)
				importGroup.POST("/cogs", importHandler.ImportCogs)
				importGroup.GET("/logs", importHandler.ImportLogs)
				importGroup.GET("/status/:job_id", importHandler.ImportStatus)
			}
		}

		if services.AnalyticsService != nil {
			analyticsHandler := handlers.NewAnalyticsHandler(services.AnalyticsService)
			datasetGroup := apiGroup.Group("/datasets")
			{
				datasetGroup.GET("", analyticsHandler.ListDatasets)
				datasetGroup.GET("/:id/analytics", analyticsHandler.Analytics)
				datasetGroup.GET("/:id/summary", analyticsHandler.Summary)
				datasetGroup.GET("/:id/series", analyticsHandler.Series)
			}
			apiGroup.POST("/products/top", analyticsHandler.TopProducts)
		}

		if services.ForecastService != nil {
			forecastHandler := handlers.NewForecastHandler(services.ForecastService)
			forecastGroup := apiGroup.Group("/forecast")
			{
				forecastGroup.POST("/predictions", forecastHandler.RegisterPrediction)
				forecastGroup.POST("/reconcile", forecastHandler.Reconcile)
				forecastGroup.GET("/metrics", forecastHandler.Metrics)
			}
		}
	}

	return router
}

func normalizeAllowedOrigins(origins []string) ([]string, bool) {
	var (
		parsed   []string
		allowAll bool
	)
	for _, origin := range origins {
		parts := strings.Split(origin, ",")
		for _, part := range parts {
			trimmed := strings.TrimSpace(part)
			if trimmed == "" {
				continue
			}
			if trimmed == "*" {
				allowAll = true
				continue
			}
			parsed = append(parsed, trimmed)
		}
	}
	return parsed, allowAll
}
