package api

import (
	"net/http"

	"github.com/okian/lookingforlove/internal/domain/model"
	"github.com/okian/lookingforlove/pkg/logger"
)

// StatisticsHandler serves the operator statistics endpoints.
type StatisticsHandler struct {
	stats StatisticsService
	log   logger.Logger
}

// NewStatisticsHandler creates a new statistics handler.
func NewStatisticsHandler(stats StatisticsService, log logger.Logger) *StatisticsHandler {
	return &StatisticsHandler{stats: stats, log: log}
}

// HandleCurrent handles GET /statistics.
func (h *StatisticsHandler) HandleCurrent(w http.ResponseWriter, r *http.Request, _ model.UserProfile) {
	snap, err := h.stats.Current(r.Context())
	if err != nil {
		writeDomainError(r.Context(), w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// HandleRefresh handles POST /statistics/update.
func (h *StatisticsHandler) HandleRefresh(w http.ResponseWriter, r *http.Request, _ model.UserProfile) {
	snap, err := h.stats.Refresh(r.Context())
	if err != nil {
		writeDomainError(r.Context(), w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// HandleMatchQuality handles GET /statistics/match-quality.
func (h *StatisticsHandler) HandleMatchQuality(w http.ResponseWriter, r *http.Request, _ model.UserProfile) {
	q, err := h.stats.MatchQualityBreakdown(r.Context())
	if err != nil {
		writeDomainError(r.Context(), w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, q)
}
