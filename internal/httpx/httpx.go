// Package httpx wraps outbound HTTP requests with lightweight retries,
// honoring Retry-After on 429/5xx responses.
package httpx

import (
	"context"
	"errors"
	"math/rand"
	"net/http"
	"strconv"
	"time"

	"github.com/openkaspa/market-gateway/internal/config"
	"github.com/openkaspa/market-gateway/internal/logger"
	"github.com/openkaspa/market-gateway/internal/metrics"
)

// PreAttempt lets callers run logic before each try; return a context error
// to abort.
type PreAttempt func(ctx context.Context, attempt int) error

// DoWithRetry issues the request produced by build, retrying transport
// errors, 429s, and 5xx responses up to the configured attempt budget. The
// request must be rebuilt per attempt because a request body can only be
// consumed once.
func DoWithRetry(client *http.Client, build func() (*http.Request, error), pre PreAttempt) (*http.Response, error) {
	cfg := config.Load()
	maxAttempts := cfg.HTTPMaxRetries
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	baseDelay := cfg.HTTPRetryBase

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if pre != nil {
			if err := pre(context.Background(), attempt); err != nil {
				return nil, err
			}
		}
		req, err := build()
		if err != nil {
			return nil, err
		}

		resp, err := client.Do(req)
		if err != nil {
			metrics.HTTPRequests.WithLabelValues("error").Inc()
			if attempt == maxAttempts || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				if cfg.LogHTTPRetries {
					logger.Debug("request failed, no more retries",
						"attempt", attempt, "method", req.Method, "url", req.URL.String(), "error", err)
				}
				return nil, err
			}
			metrics.HTTPRetries.Inc()
		} else {
			if resp.StatusCode != http.StatusTooManyRequests && resp.StatusCode < 500 {
				metrics.HTTPRequests.WithLabelValues("success").Inc()
				return resp, nil
			}

			// 429 or 5xx: retry, respecting Retry-After when present.
			metrics.HTTPRequests.WithLabelValues("retry").Inc()
			if attempt == maxAttempts {
				if cfg.LogHTTPRetries {
					logger.Debug("giving up after retryable status",
						"attempt", attempt, "url", req.URL.String(), "status", resp.StatusCode)
				}
				return resp, nil
			}
			if wait, ok := retryAfter(resp); ok {
				resp.Body.Close()
				metrics.RetryAfterWaits.Observe(wait.Seconds())
				if cfg.LogHTTPRetries {
					logger.Debug("honoring Retry-After",
						"attempt", attempt, "url", req.URL.String(), "wait", wait)
				}
				time.Sleep(wait)
				continue
			}
			resp.Body.Close()
			metrics.HTTPRetries.Inc()
		}

		// Backoff with jitter.
		jitter := time.Duration(rand.Intn(200)) * time.Millisecond
		delay := baseDelay*time.Duration(attempt) + jitter
		if cfg.LogHTTPRetries {
			logger.Debug("backing off before retry", "attempt", attempt, "delay", delay)
		}
		time.Sleep(delay)
	}
	return nil, errors.New("exhausted retries")
}

// retryAfter parses the Retry-After header as either delay-seconds or an
// HTTP date.
func retryAfter(resp *http.Response) (time.Duration, bool) {
	ra := resp.Header.Get("Retry-After")
	if ra == "" {
		return 0, false
	}
	if secs, err := strconv.Atoi(ra); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second, true
	}
	if t, err := http.ParseTime(ra); err == nil {
		if delta := time.Until(t); delta > 0 {
			return delta, true
		}
	}
	return 0, false
}
