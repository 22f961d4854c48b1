package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/openkaspa/market-gateway/internal/cache"
	"github.com/openkaspa/market-gateway/internal/config"
	"github.com/openkaspa/market-gateway/internal/contentapi"
	"github.com/openkaspa/market-gateway/internal/marketapi"
	"github.com/openkaspa/market-gateway/internal/service"
	"github.com/openkaspa/market-gateway/internal/upstream"
)

type testEnv struct {
	router   http.Handler
	calls    *atomic.Int64
	lastPath *atomic.Value
	gateway  *service.Gateway
}

func newTestEnv(t *testing.T, upstreamBody string, env map[string]string) *testEnv {
	t.Helper()
	t.Setenv("HTTP_MAX_RETRIES", "1")
	for k, v := range env {
		t.Setenv(k, v)
	}
	config.ResetForTest()
	t.Cleanup(config.ResetForTest)

	var calls atomic.Int64
	var lastPath atomic.Value
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		lastPath.Store(r.URL.String())
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(upstreamBody))
	}))
	t.Cleanup(ts.Close)

	disk, err := cache.NewDiskStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewDiskStore: %v", err)
	}
	limit := config.Load().UpstreamRateLimit
	limiter := upstream.NewLimiter(limit)
	gw := service.New(
		cache.NewService(cache.NewMockFastStore(), disk, limiter),
		marketapi.NewClientWithBaseURL(ts.URL),
		contentapi.NewClientWithBaseURL(ts.URL),
		limiter)

	return &testEnv{router: NewRouter(gw), calls: &calls, lastPath: &lastPath, gateway: gw}
}

func (e *testEnv) upstreamPath() string {
	if v := e.lastPath.Load(); v != nil {
		return v.(string)
	}
	return ""
}

func (e *testEnv) do(t *testing.T, method, path string, body []byte, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func TestTokenInfoEndpoint(t *testing.T) {
	env := newTestEnv(t, `{"ticker":"NACHO","holders":1000}`, nil)

	rec := env.do(t, http.MethodGet, "/api/v1/tokens/nacho", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if rec.Body.String() != `{"ticker":"NACHO","holders":1000}` {
		t.Errorf("body = %s", rec.Body.String())
	}

	env.do(t, http.MethodGet, "/api/v1/tokens/nacho", nil, nil)
	if env.calls.Load() != 1 {
		t.Errorf("upstream calls = %d, want 1 (second request cached)", env.calls.Load())
	}
}

func TestTradeStatsEndpointDefaults(t *testing.T) {
	env := newTestEnv(t, `[]`, nil)

	rec := env.do(t, http.MethodGet, "/api/v1/trade-stats", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestSoldOrdersValidation(t *testing.T) {
	env := newTestEnv(t, `[]`, nil)

	rec := env.do(t, http.MethodGet, "/api/v1/orders/sold?minutes=abc", nil, nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
	if env.calls.Load() != 0 {
		t.Errorf("upstream should not be called on invalid input")
	}
}

func TestLastOrderSoldEndpoint(t *testing.T) {
	env := newTestEnv(t, `{"ticker":"NACHO","price":42}`, nil)

	rec := env.do(t, http.MethodGet, "/api/v1/orders/last", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if got := env.upstreamPath(); got != "/api/last-order-sold" {
		t.Errorf("upstream path = %q, want /api/last-order-sold", got)
	}

	env.do(t, http.MethodGet, "/api/v1/orders/last", nil, nil)
	if env.calls.Load() != 1 {
		t.Errorf("upstream calls = %d, want 1 (second request cached)", env.calls.Load())
	}
}

func TestNFTFloorPriceEndpoint(t *testing.T) {
	env := newTestEnv(t, `[{"ticker":"KASPUNKS","floor":10}]`, nil)

	rec := env.do(t, http.MethodGet, "/api/v1/nft/floor-price?ticker=kaspunks", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	// The literal segment must route to floor prices, not be captured as
	// a collection ticker.
	if got := env.upstreamPath(); got != "/api/krc721/floor-price?ticker=KASPUNKS" {
		t.Errorf("upstream path = %q", got)
	}

	env.do(t, http.MethodGet, "/api/v1/nft/floor-price?ticker=kaspunks", nil, nil)
	if env.calls.Load() != 1 {
		t.Errorf("upstream calls = %d, want 1 (second request cached)", env.calls.Load())
	}
}

func TestRateLimitExhaustedMapsTo429(t *testing.T) {
	env := newTestEnv(t, `{}`, map[string]string{"UPSTREAM_RATE_LIMIT": "0"})

	rec := env.do(t, http.MethodGet, "/api/v1/tokens/nacho", nil, nil)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", rec.Code)
	}
	if env.calls.Load() != 0 {
		t.Error("upstream should not be called when window is exhausted")
	}
}

func TestStatusEndpoint(t *testing.T) {
	env := newTestEnv(t, `{"x":1}`, nil)
	env.do(t, http.MethodGet, "/api/v1/tokens/nacho", nil, nil)

	rec := env.do(t, http.MethodGet, "/api/v1/status", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var stats cache.CacheStats
	if err := json.Unmarshal(rec.Body.Bytes(), &stats); err != nil {
		t.Fatalf("decode stats: %v", err)
	}
	cat, ok := stats.Categories[cache.CategoryTokens]
	if !ok {
		t.Fatal("expected tokens category in stats")
	}
	if cat.Requests != cat.Hits+cat.Misses {
		t.Errorf("requests %d != hits %d + misses %d", cat.Requests, cat.Hits, cat.Misses)
	}
}

func TestRateLimitStatusEndpoint(t *testing.T) {
	env := newTestEnv(t, `{}`, nil)

	rec := env.do(t, http.MethodGet, "/api/v1/rate-limit", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var stats upstream.Stats
	if err := json.Unmarshal(rec.Body.Bytes(), &stats); err != nil {
		t.Fatalf("decode stats: %v", err)
	}
	if stats.Limit != 60 {
		t.Errorf("limit = %d, want default 60", stats.Limit)
	}
}

func TestAdminDisabledWithoutToken(t *testing.T) {
	env := newTestEnv(t, `{}`, nil)

	rec := env.do(t, http.MethodPost, "/api/v1/admin/cache/invalidate",
		[]byte(`{"ticker":"NACHO"}`), nil)
	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", rec.Code)
	}
}

func TestAdminInvalidate(t *testing.T) {
	env := newTestEnv(t, `{"x":1}`, map[string]string{"ADMIN_API_TOKEN": "sekrit"})

	// No token.
	rec := env.do(t, http.MethodPost, "/api/v1/admin/cache/invalidate",
		[]byte(`{"ticker":"NACHO"}`), nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("missing token: status = %d, want 401", rec.Code)
	}

	// Wrong token.
	rec = env.do(t, http.MethodPost, "/api/v1/admin/cache/invalidate",
		[]byte(`{"ticker":"NACHO"}`), map[string]string{"Authorization": "Bearer nope"})
	if rec.Code != http.StatusForbidden {
		t.Errorf("wrong token: status = %d, want 403", rec.Code)
	}

	// Correct token.
	rec = env.do(t, http.MethodPost, "/api/v1/admin/cache/invalidate",
		[]byte(`{"ticker":"NACHO"}`), map[string]string{"Authorization": "Bearer sekrit"})
	if rec.Code != http.StatusOK {
		t.Errorf("valid token: status = %d, want 200, body = %s", rec.Code, rec.Body.String())
	}
}

func TestAdminRefresh(t *testing.T) {
	env := newTestEnv(t, `[{"volume":5}]`, map[string]string{"ADMIN_API_TOKEN": "sekrit"})

	rec := env.do(t, http.MethodPost, "/api/v1/admin/cache/refresh",
		[]byte(`{"ticker":"NACHO","timeFrame":"6h"}`), map[string]string{"Authorization": "Bearer sekrit"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if rec.Body.String() != `[{"volume":5}]` {
		t.Errorf("body = %s", rec.Body.String())
	}
	if env.calls.Load() != 1 {
		t.Errorf("upstream calls = %d, want 1", env.calls.Load())
	}
}

func TestHealthz(t *testing.T) {
	env := newTestEnv(t, `{}`, nil)

	rec := env.do(t, http.MethodGet, "/healthz", nil, nil)
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	env := newTestEnv(t, `{}`, nil)

	rec := env.do(t, http.MethodGet, "/metrics", nil, nil)
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}
