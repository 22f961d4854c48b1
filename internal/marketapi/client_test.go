package marketapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/openkaspa/market-gateway/internal/config"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	t.Setenv("HTTP_MAX_RETRIES", "1")
	config.ResetForTest()
	t.Cleanup(config.ResetForTest)

	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)
	return NewClientWithBaseURL(ts.URL)
}

func TestNormalizeTicker(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"nacho", "NACHO"},
		{"NACHO", "NACHO"},
		{"  Kasper ", "KASPER"},
		{"token123", "TOKEN123"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := NormalizeTicker(tt.in); got != tt.want {
			t.Errorf("NormalizeTicker(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestTradeStatsRequest(t *testing.T) {
	var gotPath string
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.String()
		w.Write([]byte(`[{"ticker":"NACHO"}]`))
	}))

	payload, err := client.TradeStats(context.Background(), "6h", "nacho")
	if err != nil {
		t.Fatalf("TradeStats: %v", err)
	}
	if gotPath != "/api/trade-stats?timeFrame=6h&ticker=NACHO" {
		t.Errorf("path = %q", gotPath)
	}
	if string(payload) != `[{"ticker":"NACHO"}]` {
		t.Errorf("payload = %s", payload)
	}
}

func TestFloorPricesNoTicker(t *testing.T) {
	var gotPath string
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.String()
		w.Write([]byte(`[]`))
	}))

	if _, err := client.FloorPrices(context.Background(), ""); err != nil {
		t.Fatalf("FloorPrices: %v", err)
	}
	if gotPath != "/api/floor-price" {
		t.Errorf("path = %q", gotPath)
	}
}

func TestSoldOrdersQuery(t *testing.T) {
	var gotPath string
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.String()
		w.Write([]byte(`[]`))
	}))

	if _, err := client.SoldOrders(context.Background(), "nacho", 60); err != nil {
		t.Fatalf("SoldOrders: %v", err)
	}
	if !strings.Contains(gotPath, "ticker=NACHO") || !strings.Contains(gotPath, "minutes=60") {
		t.Errorf("path = %q", gotPath)
	}
}

func TestTokenInfoPath(t *testing.T) {
	var gotPath string
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Write([]byte(`{"ticker":"NACHO"}`))
	}))

	if _, err := client.TokenInfo(context.Background(), "nacho"); err != nil {
		t.Fatalf("TokenInfo: %v", err)
	}
	if gotPath != "/api/token-info/NACHO" {
		t.Errorf("path = %q", gotPath)
	}
}

func TestFetchCreatesSpan(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"ticker":"NACHO"}`))
	}))

	if _, err := client.TokenInfo(context.Background(), "nacho"); err != nil {
		t.Fatalf("TokenInfo: %v", err)
	}

	var names []string
	for _, s := range recorder.Ended() {
		names = append(names, s.Name())
	}
	for _, name := range names {
		if name == "marketapi.get" {
			return
		}
	}
	t.Errorf("recorded spans = %v, want marketapi.get", names)
}

func TestNotFoundClassified(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"message":"no such token"}`))
	}))

	_, err := client.TokenInfo(context.Background(), "nope")
	if err == nil {
		t.Fatal("expected an error")
	}
	apiErr, ok := err.(*APIError)
	if !ok {
		t.Fatalf("err = %T, want *APIError", err)
	}
	if apiErr.Type != ErrorNotFound {
		t.Errorf("type = %v, want ErrorNotFound", apiErr.Type)
	}
	if !strings.Contains(apiErr.Message, "no such token") {
		t.Errorf("message = %q, want upstream detail included", apiErr.Message)
	}
}

func TestClassifyError(t *testing.T) {
	tests := []struct {
		status    int
		wantType  ErrorType
		retryable bool
	}{
		{http.StatusTooManyRequests, ErrorRateLimited, true},
		{http.StatusNotFound, ErrorNotFound, false},
		{http.StatusForbidden, ErrorForbidden, false},
		{http.StatusUnauthorized, ErrorUnauthorized, false},
		{http.StatusBadRequest, ErrorBadRequest, false},
		{http.StatusBadGateway, ErrorServerError, true},
	}

	for _, tt := range tests {
		resp := &http.Response{StatusCode: tt.status}
		got := ClassifyError(resp)
		if got.Type != tt.wantType {
			t.Errorf("status %d: type = %v, want %v", tt.status, got.Type, tt.wantType)
		}
		if got.Retryable != tt.retryable {
			t.Errorf("status %d: retryable = %v, want %v", tt.status, got.Retryable, tt.retryable)
		}
	}

	if got := ClassifyError(nil); got.Type != ErrorUnknown {
		t.Errorf("nil response: type = %v, want ErrorUnknown", got.Type)
	}
}
