package handlers

import (
	"net/http"

	"github.com/openkaspa/market-gateway/internal/service"
)

// StatusHandler serves operational status endpoints.
type StatusHandler struct {
	gw *service.Gateway
}

// NewStatusHandler creates a status handler.
func NewStatusHandler(gw *service.Gateway) *StatusHandler {
	return &StatusHandler{gw: gw}
}

// CacheStats handles GET /api/v1/status, reporting per-category cache
// statistics.
func (h *StatusHandler) CacheStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.gw.CacheStats())
}

// RateLimit handles GET /api/v1/rate-limit, reporting upstream window
// occupancy.
func (h *StatusHandler) RateLimit(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.gw.RateLimitStats())
}

// Health handles GET /healthz.
func Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
