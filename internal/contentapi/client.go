// Package contentapi fetches static token assets (logos) from the
// raw-file content host.
package contentapi

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/openkaspa/market-gateway/internal/config"
	"github.com/openkaspa/market-gateway/internal/httpx"
	"github.com/openkaspa/market-gateway/internal/logger"
)

// Asset is a fetched file with its content type.
type Asset struct {
	Data        []byte
	ContentType string
}

// Client talks to the content host.
type Client struct {
	http    *http.Client
	baseURL string
}

// NewClient builds a client from configuration.
func NewClient() *Client {
	return NewClientWithBaseURL(config.Load().ContentAPIBaseURL)
}

// NewClientWithBaseURL builds a client against a custom base URL, used
// by tests.
func NewClientWithBaseURL(baseURL string) *Client {
	return &Client{
		http:    &http.Client{Timeout: config.Load().HTTPTimeout},
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// Logo fetches the logo asset for a ticker. Returns nil when the host
// has no logo for it.
func (c *Client) Logo(ctx context.Context, ticker string) (*Asset, error) {
	normalized := strings.ToUpper(strings.TrimSpace(ticker))
	path := "/krc20/" + url.PathEscape(normalized) + ".jpg"
	return c.fetch(ctx, path)
}

// fetch retrieves a file, returning nil without error on 404.
func (c *Client) fetch(ctx context.Context, path string) (*Asset, error) {
	fullURL := c.baseURL + path
	logger.DebugContext(ctx, "fetching from content host", "url", fullURL)

	resp, err := httpx.DoWithRetry(c.http, func() (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", fullURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("content host returned status %d for %s", resp.StatusCode, fullURL)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body from %s: %w", fullURL, err)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	return &Asset{Data: data, ContentType: contentType}, nil
}
