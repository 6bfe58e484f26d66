package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sushil-kumar-saw/mitra-farm/internal/config"
	"github.com/sushil-kumar-saw/mitra-farm/internal/services"
)

// StatsHandler serves the public landing page figures and the health probe.
type StatsHandler struct {
	cfg          *config.Config
	statsService services.IStatsService
	ping         func(ctx context.Context) error
}

// NewStatsHandler creates a new StatsHandler. ping checks the database.
func NewStatsHandler(cfg *config.Config, statsService services.IStatsService, ping func(ctx context.Context) error) *StatsHandler {
	return &StatsHandler{cfg: cfg, statsService: statsService, ping: ping}
}

// Platform handles GET /api/stats/platform. The body is the bare stats object.
func (h *StatsHandler) Platform(c *gin.Context) {
	stats, err := h.statsService.PlatformStats(c.Request.Context())
	if err != nil {
		respondError(c, h.cfg, err, "Failed to load platform stats", nil)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// Health handles GET /api/health
func (h *StatsHandler) Health(c *gin.Context) {
	if h.ping != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := h.ping(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"success": false, "status": "unavailable", "message": "Database unreachable"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "status": "ok"})
}
