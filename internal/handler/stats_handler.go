package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/openvalley/strmatch-backend-go/internal/service"
	"github.com/openvalley/strmatch-backend-go/pkg/response"
)

// StatsHandler handles HTTP requests for statistics
type StatsHandler struct {
	statsService *service.StatsService
}

// NewStatsHandler creates a new stats handler
func NewStatsHandler(statsService *service.StatsService) *StatsHandler {
	return &StatsHandler{
		statsService: statsService,
	}
}

// GetReviewStats handles GET /api/v1/str-review/stats
func (h *StatsHandler) GetReviewStats(c *gin.Context) {
	stats, err := h.statsService.GetReviewStats()
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "Failed to get review stats", err)
		return
	}

	response.Success(c, stats)
}

// GetDashboard handles GET /api/v1/stats/dashboard
func (h *StatsHandler) GetDashboard(c *gin.Context) {
	stats, err := h.statsService.GetDashboardStats()
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "Failed to get dashboard stats", err)
		return
	}

	response.Success(c, stats)
}
