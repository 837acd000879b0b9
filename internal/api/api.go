// internal/api/api.go
package api

import (
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/cmass/marketshare-backend/internal/api/handlers"
	"github.com/cmass/marketshare-backend/internal/service"
)

type Services struct {
	ReportService *service.ReportService
}

func NewRouter(services *Services, allowedOrigins []string) *gin.Engine {
	router := gin.New()

	router.Use(gin.Logger())
	router.Use(gin.Recovery())
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

	apiGroup := router.Group("/api/v1")

	if services != nil && services.ReportService != nil {
		reportHandler := handlers.NewReportHandler(services.ReportService)
		reportGroup := apiGroup.Group("/reports")
		{
			reportGroup.GET("/summary", reportHandler.GetSummary)
			reportGroup.GET("/shares/subject", reportHandler.GetSharesBySubject)
			reportGroup.GET("/shares/distributor", reportHandler.GetSharesByDistributor)
			reportGroup.GET("/shares/region", reportHandler.GetSharesByRegion)
			reportGroup.GET("/shares/matrix", reportHandler.GetShareMatrix)
			reportGroup.GET("/achievement", reportHandler.GetAchievement)
			reportGroup.GET("/yearly", reportHandler.GetYearComparison)
			reportGroup.GET("/distributor_markets", reportHandler.GetDistributorMarkets)
		}

		diagGroup := apiGroup.Group("/diagnostics")
		{
			diagGroup.GET("/unmapped", reportHandler.GetUnmapped)
			diagGroup.GET("/suggestions", reportHandler.GetSuggestions)
		}
	}

	return router
}

func errorResponse(c *gin.Context, statusCode int, message string) {
	log.Error().Msg(message)
	c.JSON(statusCode, gin.H{"error": message})
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
