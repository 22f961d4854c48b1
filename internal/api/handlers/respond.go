package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/openkaspa/market-gateway/internal/apierr"
	"github.com/openkaspa/market-gateway/internal/cache"
	"github.com/openkaspa/market-gateway/internal/logger"
	"github.com/openkaspa/market-gateway/internal/marketapi"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warn("failed to encode response", "error", err)
	}
}

// writeRaw emits an already-encoded JSON payload.
func writeRaw(w http.ResponseWriter, payload json.RawMessage) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(payload); err != nil {
		logger.Warn("failed to write response", "error", err)
	}
}

// writeServiceError maps cache orchestration and upstream errors onto
// the API error taxonomy.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var rateLimit *cache.RateLimitError
	if errors.As(err, &rateLimit) {
		apierr.WriteErrorWithContext(w, r, apierr.UpstreamRateLimited(rateLimit.Limit))
		return
	}

	var decode *cache.DecodeError
	if errors.As(err, &decode) {
		apierr.WriteErrorWithContext(w, r, apierr.UpstreamDecodeFailed(decode.Error()))
		return
	}

	var apiErr *marketapi.APIError
	if errors.As(err, &apiErr) && apiErr.Type == marketapi.ErrorNotFound {
		apierr.WriteErrorWithContext(w, r, apierr.ResourceNotFound("token"))
		return
	}

	var fetch *cache.FetchError
	if errors.As(err, &fetch) {
		apierr.WriteErrorWithContext(w, r, apierr.UpstreamFetchFailed(fetch.Error()))
		return
	}

	apierr.WriteErrorWithContext(w, r, apierr.SystemInternal(err.Error()))
}
