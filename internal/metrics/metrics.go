package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Cache metrics
	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_cache_lookups_total",
			Help: "Total number of tiered cache lookups",
		},
		[]string{"category", "result"}, // result: hit_fast, hit_disk, miss
	)

	CacheWriteFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_cache_write_failures_total",
			Help: "Total number of best-effort cache write failures",
		},
		[]string{"store"}, // store: fast, disk
	)

	DiskStoreKeys = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "gateway_disk_store_keys",
			Help: "Number of entries persisted per category",
		},
		[]string{"category"},
	)

	DiskStoreBytes = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "gateway_disk_store_bytes",
			Help: "Bytes persisted per category",
		},
		[]string{"category"},
	)

	// Upstream metrics
	UpstreamFetches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_upstream_fetches_total",
			Help: "Total number of fetches against the upstream APIs",
		},
		[]string{"status"}, // status: success, error, rate_limited
	)

	UpstreamFetchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "gateway_upstream_fetch_duration_seconds",
			Help:    "Duration of upstream fetches in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	UpstreamRateLimitRejections = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gateway_upstream_rate_limit_rejections_total",
			Help: "Total number of calls suppressed by the upstream admission window",
		},
	)

	// HTTP client metrics (used by the retry helper)
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_http_requests_total",
			Help: "Total number of HTTP requests made to remote APIs",
		},
		[]string{"status"}, // status: success, retry, error
	)

	HTTPRetries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gateway_http_retries_total",
			Help: "Total number of HTTP request retries",
		},
	)

	RetryAfterWaits = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "gateway_retry_after_wait_seconds",
			Help:    "Duration of Retry-After waits in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		},
	)

	// Circuit breaker metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "gateway_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=open, 2=half-open)",
		},
		[]string{"name"},
	)

	CircuitBreakerTrips = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_circuit_breaker_trips_total",
			Help: "Total number of circuit breaker trips",
		},
		[]string{"name"},
	)
)
