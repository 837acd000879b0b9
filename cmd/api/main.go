// cmd/api/main.go
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/cmass/marketshare-backend/internal/api"
	"github.com/cmass/marketshare-backend/internal/cache"
	"github.com/cmass/marketshare-backend/internal/config"
	"github.com/cmass/marketshare-backend/internal/ingest"
	"github.com/cmass/marketshare-backend/internal/service"
	"github.com/cmass/marketshare-backend/pkg/logger"
)

func main() {
	// Load environment variables from .env file if it exists
	_ = godotenv.Load()

	cfg := config.Load()

	if cfg.Server.Mode == "release" {
		logger.SetLevel("info")
	}

	reportYear := time.Now().Year()
	if y := os.Getenv("REPORT_YEAR"); y != "" {
		fmt.Sscanf(y, "%d", &reportYear)
	}

	loader := ingest.NewLoader(cfg.Data.Resolved())
	ds, err := loader.Load(context.Background())
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("failed to load dataset")
	}

	reportCache, err := cache.NewReportCache(cfg.Cache)
	if err != nil {
		logger.Log.Warn().Err(err).Msg("report cache unavailable, running without")
		reportCache = cache.NewNoopReportCache()
	}

	reportService := service.NewReportService(ds, reportCache, reportYear)
	router := api.NewRouter(&api.Services{ReportService: reportService}, cfg.Server.AllowedOrigins)

	router.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		logger.Log.Info().Str("addr", srv.Addr).Int("report_year", reportYear).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Error().Err(err).Msg("forced shutdown")
	}
	logger.Log.Info().Msg("server stopped")
}
