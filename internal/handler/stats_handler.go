package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/entity-review-api/internal/models"
	"github.com/noah-isme/entity-review-api/pkg/response"
)

type quickStatsProvider interface {
	QuickStats(ctx context.Context, sess *models.Session) (*models.QuickStats, error)
}

type systemStatsProvider interface {
	Snapshot() models.SystemMetrics
}

// StatsHandler exposes landing page counters and service health figures.
type StatsHandler struct {
	reviews quickStatsProvider
	system  systemStatsProvider
}

// NewStatsHandler constructs the handler.
func NewStatsHandler(reviews quickStatsProvider, system systemStatsProvider) *StatsHandler {
	return &StatsHandler{reviews: reviews, system: system}
}

// Quick godoc
// @Summary Quick stats
// @Description Pending reviews, submissions completed today and reviews open in this session
// @Tags Stats
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Router /stats/quick [get]
func (h *StatsHandler) Quick(c *gin.Context) {
	sess, err := sessionFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	stats, err := h.reviews.QuickStats(c.Request.Context(), sess)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, stats)
}

// System godoc
// @Summary System metrics
// @Description Cache, upstream, database and submission figures since start
// @Tags Stats
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /stats/system [get]
func (h *StatsHandler) System(c *gin.Context) {
	if h.system == nil {
		c.Status(http.StatusServiceUnavailable)
		return
	}
	response.OK(c, h.system.Snapshot())
}
