// cmd/server/main.go
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/poslytics/backend/internal/api"
	"github.com/poslytics/backend/internal/cache"
	"github.com/poslytics/backend/internal/config"
	"github.com/poslytics/backend/internal/repository/postgres"
	"github.com/poslytics/backend/internal/service"
	"github.com/poslytics/backend/internal/storage"
	"github.com/poslytics/backend/pkg/logger"
)

func main() {
	cfg := config.Load()

	logger.Init(cfg.Server.LogLevel, cfg.Server.Mode == "debug")
	if cfg.Server.Mode == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := postgres.NewDB(&cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	ctx := context.Background()
	if err := db.Migrate(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}

	store := postgres.NewStore(db)

	var archive storage.ObjectStorage
	if cfg.Archive.Enabled {
		client, err := storage.NewMinioClient(cfg.Archive)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialize archive storage")
		}
		if err := client.EnsureBucket(ctx); err != nil {
			log.Fatal().Err(err).Msg("failed to prepare archive bucket")
		}
		archive = client
	}

	statusCache, err := cache.NewImportStatusCache(cfg.Cache)
	if err != nil {
		log.Warn().Err(err).Msg("import status cache unavailable, falling back to noop")
		statusCache = cache.NewNoopImportStatusCache()
	}

	services := &api.Services{
		ImportService:    service.NewImportService(store, cfg.Import, archive),
		AnalyticsService: service.NewAnalyticsService(store, cfg.Import),
		ForecastService:  service.NewForecastService(store, cfg.Forecast),
		StatusCache:      statusCache,
	}

	router := api.NewRouter(services, cfg.Server.AllowedOrigins)
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Server.Port).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server exiting")
}
