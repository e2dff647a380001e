package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/campusops/unireg-api/internal/service"
	"github.com/campusops/unireg-api/pkg/response"
)

// StatsHandler exposes the derived aggregates endpoint.
type StatsHandler struct {
	stats *service.StatsService
}

// NewStatsHandler constructs StatsHandler.
func NewStatsHandler(stats *service.StatsService) *StatsHandler {
	return &StatsHandler{stats: stats}
}

// Snapshot godoc
// @Summary Aggregate snapshot recomputed from live data
// @Tags Stats
// @Produce json
// @Param top query int false "Most-registered-courses limit override"
// @Success 200 {object} response.Envelope
// @Router /stats [get]
func (h *StatsHandler) Snapshot(c *gin.Context) {
	topN := 0
	if raw := c.Query("top"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil {
			topN = v
		}
	}
	snap, err := h.stats.Snapshot(c.Request.Context(), topN)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, snap, nil)
}
