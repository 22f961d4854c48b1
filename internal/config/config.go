package config

import (
	"os"
	"strings"
	"time"

	"github.com/openkaspa/market-gateway/internal/utils"
)

// Config holds application configuration derived from environment variables.
type Config struct {
	// HTTP server
	Port string
	// Fast cache (Redis). Empty RedisAddr falls back to the in-process store.
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	// In-process fast-store fallback sizing
	MemCacheMaxMB      int
	MemCacheMaxEntries int
	// Durable cache
	CacheDir        string
	CleanupInterval time.Duration
	// Upstream APIs
	MarketAPIBaseURL  string
	ContentAPIBaseURL string
	UpstreamRateLimit int // requests per rolling minute to the marketplace API
	HTTPMaxRetries    int
	HTTPRetryBase     time.Duration
	HTTPTimeout       time.Duration
	LogHTTPRetries    bool
	// Admin API token for gating admin endpoints (Bearer token)
	AdminAPIToken string
	// Gateway-facing rate limiting
	RateLimitGlobal      float64
	RateLimitGlobalBurst int
	RateLimitPerIP       float64
	RateLimitPerIPBurst  int
	EnableRateLimit      bool
	CORSAllowedOrigins   []string
	// Observability settings
	LogLevel          string
	OTELEnabled       bool
	OTELEndpoint      string
	OTELSampleRate    float64
	SentryDSN         string
	SentryEnvironment string
	SentryRelease     string
	SentrySampleRate  float64
}

var cached *Config

// Load reads env vars once and caches them.
func Load() *Config {
	if cached != nil {
		return cached
	}
	cached = &Config{
		Port:               strings.TrimSpace(os.Getenv("PORT")),
		RedisAddr:          strings.TrimSpace(os.Getenv("REDIS_ADDR")),
		RedisPassword:      os.Getenv("REDIS_PASSWORD"),
		RedisDB:            utils.GetEnvAsInt("REDIS_DB", 0),
		MemCacheMaxMB:      utils.GetEnvAsInt("MEM_CACHE_MAX_MB", 64),
		MemCacheMaxEntries: utils.GetEnvAsInt("MEM_CACHE_MAX_ENTRIES", 10000),
		CacheDir:           strings.TrimSpace(os.Getenv("CACHE_DIR")),
		CleanupInterval:    time.Duration(utils.GetEnvAsInt("CACHE_CLEANUP_INTERVAL_MIN", 30)) * time.Minute,
		MarketAPIBaseURL:   strings.TrimSpace(os.Getenv("MARKET_API_BASE_URL")),
		ContentAPIBaseURL:  strings.TrimSpace(os.Getenv("CONTENT_API_BASE_URL")),
		UpstreamRateLimit:  utils.GetEnvAsInt("UPSTREAM_RATE_LIMIT", 60),
		HTTPMaxRetries:     utils.GetEnvAsInt("HTTP_MAX_RETRIES", 3),
		HTTPRetryBase:      time.Duration(utils.GetEnvAsInt("HTTP_RETRY_BASE_MS", 300)) * time.Millisecond,
		HTTPTimeout:        time.Duration(utils.GetEnvAsInt("HTTP_TIMEOUT_MS", 30000)) * time.Millisecond,
		LogHTTPRetries:     utils.GetEnvAsBool("LOG_HTTP_RETRIES", false),
		AdminAPIToken:      strings.TrimSpace(os.Getenv("ADMIN_API_TOKEN")),
		// Security settings with sensible defaults
		RateLimitGlobal:      utils.GetEnvAsFloat("RATE_LIMIT_GLOBAL", 100.0),
		RateLimitGlobalBurst: utils.GetEnvAsInt("RATE_LIMIT_GLOBAL_BURST", 200),
		RateLimitPerIP:       utils.GetEnvAsFloat("RATE_LIMIT_PER_IP", 10.0),
		RateLimitPerIPBurst:  utils.GetEnvAsInt("RATE_LIMIT_PER_IP_BURST", 20),
		EnableRateLimit:      utils.GetEnvAsBool("ENABLE_RATE_LIMIT", true),
		// Observability settings
		LogLevel:          strings.ToLower(strings.TrimSpace(os.Getenv("LOG_LEVEL"))),
		OTELEnabled:       utils.GetEnvAsBool("OTEL_ENABLED", false),
		OTELEndpoint:      strings.TrimSpace(os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")),
		OTELSampleRate:    utils.GetEnvAsFloat("OTEL_TRACE_SAMPLE_RATE", 0.1),
		SentryDSN:         strings.TrimSpace(os.Getenv("SENTRY_DSN")),
		SentryEnvironment: strings.TrimSpace(os.Getenv("SENTRY_ENVIRONMENT")),
		SentryRelease:     strings.TrimSpace(os.Getenv("SENTRY_RELEASE")),
		SentrySampleRate:  utils.GetEnvAsFloat("SENTRY_SAMPLE_RATE", 1.0),
	}
	if cached.Port == "" {
		cached.Port = "8000"
	}
	if cached.CacheDir == "" {
		cached.CacheDir = "data/cache"
	}
	if cached.MarketAPIBaseURL == "" {
		cached.MarketAPIBaseURL = "https://api.kaspa.com"
	}
	if cached.ContentAPIBaseURL == "" {
		cached.ContentAPIBaseURL = "https://krc20-assets.kas.fyi"
	}
	if cached.LogLevel == "" {
		cached.LogLevel = "info"
	}
	if cached.SentryEnvironment == "" {
		if env := os.Getenv("ENV"); env != "" {
			cached.SentryEnvironment = env
		} else {
			cached.SentryEnvironment = "development"
		}
	}

	// Parse CORS allowed origins
	corsOrigins := strings.TrimSpace(os.Getenv("CORS_ALLOWED_ORIGINS"))
	if corsOrigins == "" {
		// Default to common development origins
		cached.CORSAllowedOrigins = []string{"http://localhost:5173", "http://localhost:3000"}
	} else {
		cached.CORSAllowedOrigins = strings.Split(corsOrigins, ",")
		for i := range cached.CORSAllowedOrigins {
			cached.CORSAllowedOrigins[i] = strings.TrimSpace(cached.CORSAllowedOrigins[i])
		}
	}

	return cached
}

// ResetForTest clears cached config; for use in tests only.
func ResetForTest() { cached = nil }
