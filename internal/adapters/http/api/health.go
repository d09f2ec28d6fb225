// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/okian/lookingforlove/pkg/logger"
	"github.com/okian/lookingforlove/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const readinessTimeout = 2 * time.Second

// HealthHandler handles health and readiness requests.
type HealthHandler struct {
	metrics   http.Handler
	readiness ReadinessChecker
	log       logger.Logger
}

// NewHealthHandler creates a new health handler. readiness may be nil.
func NewHealthHandler(readiness ReadinessChecker, log logger.Logger) *HealthHandler {
	return &HealthHandler{
		metrics:   promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{}),
		readiness: readiness,
		log:       log,
	}
}

// HandleHealth handles GET /healthz requests by serving the service metrics.
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	h.metrics.ServeHTTP(w, r)
}

// HandleReady handles GET /readyz by pinging the backing stores.
func (h *HealthHandler) HandleReady(w http.ResponseWriter, r *http.Request) {
	if h.readiness != nil {
		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()
		if err := h.readiness.Ready(ctx); err != nil {
			h.log.Warn(r.Context(), "readiness check failed", logger.Error(err))
			writeError(w, http.StatusServiceUnavailable, "unavailable", err)
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
