package apierr

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/openkaspa/market-gateway/internal/logger"
)

func TestErrorInterface(t *testing.T) {
	err := New(ErrUpstreamFetch, "connection refused", http.StatusBadGateway)

	if err.Error() != "UPSTREAM_FETCH_FAILED: connection refused" {
		t.Errorf("Error() = %q", err.Error())
	}
	if err.Status() != http.StatusBadGateway {
		t.Errorf("Status() = %d, want %d", err.Status(), http.StatusBadGateway)
	}
}

func TestUpstreamRateLimitedCarriesLimit(t *testing.T) {
	err := UpstreamRateLimited(60)

	if err.Status() != http.StatusTooManyRequests {
		t.Errorf("Status() = %d, want 429", err.Status())
	}
	limit, ok := err.Details["limit_per_minute"]
	if !ok {
		t.Fatal("expected limit_per_minute in details")
	}
	if limit != 60 {
		t.Errorf("limit_per_minute = %v, want 60", limit)
	}
}

func TestWriteError(t *testing.T) {
	w := httptest.NewRecorder()
	WriteError(w, ResourceNotFound("token"))

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}

	var resp ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid JSON response: %v", err)
	}
	if resp.Error.Code != ErrResourceNotFound {
		t.Errorf("code = %q, want %q", resp.Error.Code, ErrResourceNotFound)
	}
}

func TestWriteErrorWithContext(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/tokens/NACHO", nil)
	ctx := context.WithValue(req.Context(), logger.RequestIDKey, "req-123")
	req = req.WithContext(ctx)

	w := httptest.NewRecorder()
	WriteErrorWithContext(w, req, SystemInternal(""))

	var resp ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid JSON response: %v", err)
	}
	if resp.Error.RequestID != "req-123" {
		t.Errorf("request_id = %q, want req-123", resp.Error.RequestID)
	}
}
