// internal/api/handlers/report_handler.go
package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/cmass/marketshare-backend/internal/domain"
	"github.com/cmass/marketshare-backend/internal/service"
)

type ReportHandler struct {
	service *service.ReportService
}

func NewReportHandler(service *service.ReportService) *ReportHandler {
	return &ReportHandler{service: service}
}

func (h *ReportHandler) GetSummary(c *gin.Context) {
	summary, err := h.service.Summary(c.Request.Context())
	if err != nil {
		h.fail(c, "failed to build summary", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"year":    h.service.ReportYear(),
		"summary": summary,
	})
}

func (h *ReportHandler) GetSharesBySubject(c *gin.Context) {
	h.shares(c, h.service.SharesBySubject)
}

func (h *ReportHandler) GetSharesByDistributor(c *gin.Context) {
	h.shares(c, h.service.SharesByDistributor)
}

func (h *ReportHandler) GetSharesByRegion(c *gin.Context) {
	h.shares(c, h.service.SharesByRegion)
}

func (h *ReportHandler) GetShareMatrix(c *gin.Context) {
	h.shares(c, h.service.ShareMatrix)
}

func (h *ReportHandler) GetAchievement(c *gin.Context) {
	rows, err := h.service.Achievement(c.Request.Context())
	if err != nil {
		h.fail(c, "failed to build achievement report", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"year":  h.service.ReportYear(),
		"rows":  rows,
		"count": len(rows),
	})
}

func (h *ReportHandler) GetYearComparison(c *gin.Context) {
	rows, churn, err := h.service.YearComparison(c.Request.Context())
	if err != nil {
		h.fail(c, "failed to build year comparison", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"year":  h.service.ReportYear(),
		"rows":  rows,
		"churn": churn,
	})
}

func (h *ReportHandler) GetDistributorMarkets(c *gin.Context) {
	rows, err := h.service.DistributorMarkets(c.Request.Context())
	if err != nil {
		h.fail(c, "failed to build distributor markets", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"rows":  rows,
		"count": len(rows),
	})
}

func (h *ReportHandler) GetUnmapped(c *gin.Context) {
	rows, err := h.service.Unmapped(c.Request.Context())
	if err != nil {
		h.fail(c, "failed to list unmapped distributors", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"rows":  rows,
		"count": len(rows),
	})
}

func (h *ReportHandler) GetSuggestions(c *gin.Context) {
	rows, err := h.service.Suggestions(c.Request.Context())
	if err != nil {
		h.fail(c, "failed to build name suggestions", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"rows":  rows,
		"count": len(rows),
	})
}

func (h *ReportHandler) shares(c *gin.Context, build func(ctx context.Context) ([]domain.MarketShareRow, error)) {
	rows, err := build(c.Request.Context())
	if err != nil {
		h.fail(c, "failed to build share report", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"year":  h.service.ReportYear(),
		"rows":  rows,
		"count": len(rows),
	})
}

func (h *ReportHandler) fail(c *gin.Context, message string, err error) {
	log.Error().Err(err).Msg(message)
	c.JSON(http.StatusInternalServerError, gin.H{"error": message})
}
