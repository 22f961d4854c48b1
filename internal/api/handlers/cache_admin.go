package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/openkaspa/market-gateway/internal/apierr"
	"github.com/openkaspa/market-gateway/internal/config"
	"github.com/openkaspa/market-gateway/internal/logger"
	"github.com/openkaspa/market-gateway/internal/service"
)

// CacheAdminHandler serves cache administration endpoints. All routes
// require the admin bearer token.
type CacheAdminHandler struct {
	gw *service.Gateway
}

// NewCacheAdminHandler creates a cache admin handler.
func NewCacheAdminHandler(gw *service.Gateway) *CacheAdminHandler {
	return &CacheAdminHandler{gw: gw}
}

// authorize validates the Authorization bearer token against the
// configured admin token. A server with no token configured rejects all
// admin calls.
func authorize(w http.ResponseWriter, r *http.Request) bool {
	token := config.Load().AdminAPIToken
	if token == "" {
		apierr.WriteErrorWithContext(w, r, apierr.AuthForbidden("admin API is not enabled"))
		return false
	}

	header := r.Header.Get("Authorization")
	if header == "" {
		apierr.WriteErrorWithContext(w, r, apierr.AuthMissing("missing Authorization header"))
		return false
	}

	supplied := strings.TrimPrefix(header, "Bearer ")
	if supplied == header || supplied != token {
		apierr.WriteErrorWithContext(w, r, apierr.AuthForbidden("invalid admin token"))
		return false
	}
	return true
}

type invalidateRequest struct {
	Ticker   string `json:"ticker"`
	Category string `json:"category"`
	Key      string `json:"key"`
}

// Invalidate handles POST /api/v1/admin/cache/invalidate. The body
// either names a ticker (dropping every per-token entry) or a single
// category/key pair.
func (h *CacheAdminHandler) Invalidate(w http.ResponseWriter, r *http.Request) {
	if !authorize(w, r) {
		return
	}

	var req invalidateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierr.WriteErrorWithContext(w, r, apierr.ValidationInvalidJSON())
		return
	}

	var err error
	switch {
	case req.Ticker != "":
		err = h.gw.InvalidateToken(req.Ticker)
	case req.Category != "" && req.Key != "":
		err = h.gw.Invalidate(req.Category, req.Key)
	default:
		apierr.WriteErrorWithContext(w, r, apierr.ValidationMissingField("ticker or category/key"))
		return
	}
	if err != nil {
		apierr.WriteErrorWithContext(w, r, apierr.CacheInvalidateFailed(err.Error()))
		return
	}

	logger.InfoContext(r.Context(), "cache invalidated by admin",
		"ticker", req.Ticker, "category", req.Category, "key", req.Key)
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type refreshRequest struct {
	Ticker    string `json:"ticker"`
	TimeFrame string `json:"timeFrame"`
}

// Refresh handles POST /api/v1/admin/cache/refresh, re-fetching trade
// stats for a ticker and overwriting both cache tiers.
func (h *CacheAdminHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	if !authorize(w, r) {
		return
	}

	var req refreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierr.WriteErrorWithContext(w, r, apierr.ValidationInvalidJSON())
		return
	}
	if req.TimeFrame == "" {
		req.TimeFrame = "6h"
	}

	payload, err := h.gw.RefreshTradeStats(r.Context(), req.TimeFrame, req.Ticker)
	if err != nil {
		apierr.WriteErrorWithContext(w, r, apierr.CacheRefreshFailed(err.Error()))
		return
	}

	logger.InfoContext(r.Context(), "cache refreshed by admin",
		"ticker", req.Ticker, "time_frame", req.TimeFrame)
	writeRaw(w, payload)
}
