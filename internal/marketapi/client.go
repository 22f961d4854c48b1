// Package marketapi is the HTTP client for the remote KRC20/KRC721
// marketplace API. It only fetches fresh data; callers are expected to
// run every response through the cache before serving it.
package marketapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/openkaspa/market-gateway/internal/circuitbreaker"
	"github.com/openkaspa/market-gateway/internal/config"
	"github.com/openkaspa/market-gateway/internal/httpx"
	"github.com/openkaspa/market-gateway/internal/logger"
	"github.com/openkaspa/market-gateway/internal/tracing"
)

const userAgent = "market-gateway/1.0"

// Client talks to the marketplace API with retries and a circuit
// breaker around the upstream.
type Client struct {
	http    *http.Client
	baseURL string
	breaker *circuitbreaker.CircuitBreaker
}

// NewClient builds a client from configuration.
func NewClient() *Client {
	cfg := config.Load()
	return NewClientWithBaseURL(cfg.MarketAPIBaseURL)
}

// NewClientWithBaseURL builds a client against a custom base URL, used
// by tests with an httptest server.
func NewClientWithBaseURL(baseURL string) *Client {
	return &Client{
		http:    &http.Client{Timeout: config.Load().HTTPTimeout},
		baseURL: strings.TrimRight(baseURL, "/"),
		breaker: circuitbreaker.New(circuitbreaker.Config{
			Name:    "marketapi",
			Timeout: 30 * time.Second,
		}),
	}
}

// NormalizeTicker uppercases and trims a ticker. The marketplace API
// requires uppercase tickers.
func NormalizeTicker(ticker string) string {
	return strings.ToUpper(strings.TrimSpace(ticker))
}

// get issues a GET through the retry helper and circuit breaker and
// returns the raw JSON body.
func (c *Client) get(ctx context.Context, path string) (json.RawMessage, error) {
	ctx, span := tracing.StartSpan(ctx, "marketapi.get")
	defer span.End()
	span.SetAttributes(attribute.String("http.path", path))

	fullURL := c.baseURL + path
	logger.DebugContext(ctx, "fetching from marketplace API", "url", fullURL)

	var payload json.RawMessage
	err := c.breaker.Call(func() error {
		resp, err := httpx.DoWithRetry(c.http, func() (*http.Request, error) {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
			if err != nil {
				return nil, err
			}
			req.Header.Set("Accept", "application/json")
			req.Header.Set("User-Agent", userAgent)
			return req, nil
		}, nil)
		if err != nil {
			return fmt.Errorf("fetch %s: %w", fullURL, err)
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return ClassifyError(resp)
		}

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("read body from %s: %w", fullURL, err)
		}
		payload = json.RawMessage(body)
		return nil
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	span.SetAttributes(attribute.Int("response_bytes", len(payload)))
	return payload, nil
}

// TradeStats fetches trade statistics for KRC20 tokens.
// GET /api/trade-stats?timeFrame=6h&ticker=TICKER
func (c *Client) TradeStats(ctx context.Context, timeFrame, ticker string) (json.RawMessage, error) {
	path := "/api/trade-stats?timeFrame=" + url.QueryEscape(timeFrame)
	if ticker != "" {
		path += "&ticker=" + url.QueryEscape(NormalizeTicker(ticker))
	}
	return c.get(ctx, path)
}

// FloorPrices fetches floor prices, optionally for a single ticker.
// GET /api/floor-price?ticker=TICKER
func (c *Client) FloorPrices(ctx context.Context, ticker string) (json.RawMessage, error) {
	path := "/api/floor-price"
	if ticker != "" {
		path += "?ticker=" + url.QueryEscape(NormalizeTicker(ticker))
	}
	return c.get(ctx, path)
}

// SoldOrders fetches recently sold orders.
// GET /api/sold-orders?ticker=TICKER&minutes=60
func (c *Client) SoldOrders(ctx context.Context, ticker string, minutes int) (json.RawMessage, error) {
	q := url.Values{}
	if ticker != "" {
		q.Set("ticker", NormalizeTicker(ticker))
	}
	if minutes > 0 {
		q.Set("minutes", strconv.Itoa(minutes))
	}
	path := "/api/sold-orders"
	if enc := q.Encode(); enc != "" {
		path += "?" + enc
	}
	return c.get(ctx, path)
}

// LastOrderSold fetches the most recent sold order.
// GET /api/last-order-sold
func (c *Client) LastOrderSold(ctx context.Context) (json.RawMessage, error) {
	return c.get(ctx, "/api/last-order-sold")
}

// OpenOrders fetches tickers with active open orders.
// GET /api/open-orders
func (c *Client) OpenOrders(ctx context.Context) (json.RawMessage, error) {
	return c.get(ctx, "/api/open-orders")
}

// HotMints fetches tokens with high recent minting activity.
// GET /api/hot-mints?timeInterval=1h
func (c *Client) HotMints(ctx context.Context, timeInterval string) (json.RawMessage, error) {
	return c.get(ctx, "/api/hot-mints?timeInterval="+url.QueryEscape(timeInterval))
}

// TokenInfo fetches comprehensive info for one token.
// GET /api/token-info/:ticker
func (c *Client) TokenInfo(ctx context.Context, ticker string) (json.RawMessage, error) {
	return c.get(ctx, "/api/token-info/"+url.PathEscape(NormalizeTicker(ticker)))
}

// TokenLogos fetches logo references, optionally for a single ticker.
// GET /api/tokens-logos?ticker=TICKER
func (c *Client) TokenLogos(ctx context.Context, ticker string) (json.RawMessage, error) {
	path := "/api/tokens-logos"
	if ticker != "" {
		path += "?ticker=" + url.QueryEscape(NormalizeTicker(ticker))
	}
	return c.get(ctx, path)
}

// HistoricalData fetches historical price/volume frames.
// GET /api/historical-data?timeFrame=7d&ticker=TICKER
func (c *Client) HistoricalData(ctx context.Context, timeFrame, ticker string) (json.RawMessage, error) {
	path := "/api/historical-data?timeFrame=" + url.QueryEscape(timeFrame) +
		"&ticker=" + url.QueryEscape(NormalizeTicker(ticker))
	return c.get(ctx, path)
}

// NFTCollectionInfo fetches KRC721 collection info.
// GET /krc721/:ticker
func (c *Client) NFTCollectionInfo(ctx context.Context, ticker string) (json.RawMessage, error) {
	return c.get(ctx, "/krc721/"+url.PathEscape(NormalizeTicker(ticker)))
}

// NFTTradeStats fetches NFT trade statistics.
// GET /api/krc721/trade-stats?timeFrame=6h&ticker=TICKER
func (c *Client) NFTTradeStats(ctx context.Context, timeFrame, ticker string) (json.RawMessage, error) {
	path := "/api/krc721/trade-stats?timeFrame=" + url.QueryEscape(timeFrame)
	if ticker != "" {
		path += "&ticker=" + url.QueryEscape(NormalizeTicker(ticker))
	}
	return c.get(ctx, path)
}

// NFTFloorPrices fetches NFT floor prices.
// GET /api/krc721/floor-price?ticker=TICKER
func (c *Client) NFTFloorPrices(ctx context.Context, ticker string) (json.RawMessage, error) {
	path := "/api/krc721/floor-price"
	if ticker != "" {
		path += "?ticker=" + url.QueryEscape(NormalizeTicker(ticker))
	}
	return c.get(ctx, path)
}
