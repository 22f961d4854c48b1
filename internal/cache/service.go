package cache

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/openkaspa/market-gateway/internal/logger"
	"github.com/openkaspa/market-gateway/internal/metrics"
)

// Admitter gates outbound calls to the rate-limited upstream source.
type Admitter interface {
	// TryAdmit reports whether one more upstream call may proceed now,
	// recording it if so.
	TryAdmit() bool
	// Limit is the configured window size, for error reporting.
	Limit() int
}

// FetchFunc retrieves a value from the remote source. It is supplied per
// call by the layer that knows the upstream endpoint shape, and owns its own
// timeout policy.
type FetchFunc func(ctx context.Context) (json.RawMessage, error)

// Keys identifies one piece of cached data across both tiers.
type Keys struct {
	// Fast is the fast-store key.
	Fast string
	// Category partitions the disk store and buckets statistics.
	Category string
	// Disk is the key within the category.
	Disk string
}

// categoryCounters holds live hit/miss counters for one category. Counters
// are process-lifetime only and never persisted.
type categoryCounters struct {
	hits     atomic.Uint64
	misses   atomic.Uint64
	requests atomic.Uint64
}

// Service is the tiered lookup/populate/refresh/invalidate engine. Lookups
// check the fast store, then the disk store, then fetch from the remote
// source through the admission gate and repopulate both tiers.
//
// Concurrent misses on the same key are not deduplicated: simultaneous
// callers each pass the admission gate and fetch independently, last writer
// wins. Acceptable for idempotent read-only upstream calls.
type Service struct {
	fast    FastStore
	disk    *DiskStore
	limiter Admitter

	mu         sync.Mutex
	categories map[string]*categoryCounters
}

// NewService wires the orchestrator to its stores and admission gate.
func NewService(fast FastStore, disk *DiskStore, limiter Admitter) *Service {
	return &Service{
		fast:       fast,
		disk:       disk,
		limiter:    limiter,
		categories: make(map[string]*categoryCounters),
	}
}

// counters returns the live counter set for a category, creating it lazily.
func (s *Service) counters(category string) *categoryCounters {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.categories[category]
	if !ok {
		c = &categoryCounters{}
		s.categories[category] = c
	}
	return c
}

// Every lookup is classified as exactly one of hit or miss before returning,
// so hits+misses == requests holds at all times.

func (s *Service) recordHit(category string) {
	c := s.counters(category)
	c.hits.Add(1)
	c.requests.Add(1)
}

func (s *Service) recordMiss(category string) {
	c := s.counters(category)
	c.misses.Add(1)
	c.requests.Add(1)
}

// GetCachedJSON looks up raw JSON through the tiered cache, fetching from
// the remote source on a full miss.
func (s *Service) GetCachedJSON(ctx context.Context, keys Keys, tier Tier, fetch FetchFunc) (json.RawMessage, error) {
	// 1. Fast tier. A present but non-JSON value is a miss here, not an
	// error; it falls through to the disk tier.
	if val, ok := s.fast.Get(ctx, keys.Fast); ok {
		if json.Valid(val) {
			logger.DebugContext(ctx, "fast cache hit", "key", keys.Fast)
			metrics.CacheLookups.WithLabelValues(keys.Category, "hit_fast").Inc()
			s.recordHit(keys.Category)
			return json.RawMessage(val), nil
		}
		logger.WarnContext(ctx, "fast cache entry undecodable, falling through", "key", keys.Fast)
	}

	// 2. Disk tier. Read-path failures degrade to a miss.
	if s.disk.IsValid(keys.Category, keys.Disk, tier.Disk) {
		payload, err := s.disk.Read(keys.Category, keys.Disk)
		if err == nil && payload != nil && json.Valid(payload) {
			logger.DebugContext(ctx, "disk cache hit", "category", keys.Category, "key", keys.Disk)
			metrics.CacheLookups.WithLabelValues(keys.Category, "hit_disk").Inc()
			s.recordHit(keys.Category)

			// Best-effort promotion back into the fast tier.
			s.fast.Set(ctx, keys.Fast, payload, tier.Fast)

			return json.RawMessage(payload), nil
		}
		if err != nil {
			logger.WarnContext(ctx, "disk cache read failed, treating as miss",
				"category", keys.Category, "key", keys.Disk, "error", err)
		}
	}

	// 3. Full miss: fetch from the remote source through the admission gate.
	logger.InfoContext(ctx, "cache miss, fetching from upstream", "key", keys.Fast)
	s.recordMiss(keys.Category)
	metrics.CacheLookups.WithLabelValues(keys.Category, "miss").Inc()

	return s.fetchAndPopulate(ctx, keys, tier, fetch)
}

// Refresh forces a remote fetch and repopulates both tiers, bypassing the
// lookup path. Still subject to the admission gate.
func (s *Service) Refresh(ctx context.Context, keys Keys, tier Tier, fetch FetchFunc) (json.RawMessage, error) {
	logger.InfoContext(ctx, "force refreshing cache entry", "key", keys.Fast)
	return s.fetchAndPopulate(ctx, keys, tier, fetch)
}

func (s *Service) fetchAndPopulate(ctx context.Context, keys Keys, tier Tier, fetch FetchFunc) (json.RawMessage, error) {
	if !s.limiter.TryAdmit() {
		metrics.UpstreamRateLimitRejections.Inc()
		return nil, &RateLimitError{Limit: s.limiter.Limit()}
	}

	start := time.Now()
	value, err := fetch(ctx)
	metrics.UpstreamFetchDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.UpstreamFetches.WithLabelValues("error").Inc()
		return nil, &FetchError{Err: err}
	}
	metrics.UpstreamFetches.WithLabelValues("success").Inc()

	if !json.Valid(value) {
		return nil, &DecodeError{Err: errInvalidJSON}
	}

	s.populate(ctx, keys, tier, value)
	return value, nil
}

// populate writes a fetched value into both tiers. Failures are logged and
// ignored; the freshly fetched value is returned to the caller regardless of
// cache-persistence success.
func (s *Service) populate(ctx context.Context, keys Keys, tier Tier, value []byte) {
	s.fast.Set(ctx, keys.Fast, value, tier.Fast)

	if err := s.disk.Write(keys.Category, keys.Disk, value, tier.Disk); err != nil {
		metrics.CacheWriteFailures.WithLabelValues("disk").Inc()
		logger.WarnContext(ctx, "disk cache write failed, value served uncached",
			"category", keys.Category, "key", keys.Disk, "error", err)
	}
}

// Invalidate deletes the durable entry. The fast-tier copy has no delete
// primitive and ages out on its own TTL, so invalidation is not instantaneous
// at that tier.
func (s *Service) Invalidate(category, diskKey string) error {
	if err := s.disk.Delete(category, diskKey); err != nil {
		return err
	}
	logger.Info("invalidated cache entry", "category", category, "key", diskKey)
	return nil
}

// CleanupExpired sweeps a category for entries older than maxAge.
func (s *Service) CleanupExpired(category string, maxAge time.Duration) (int, error) {
	return s.disk.CleanupExpired(category, maxAge)
}

// GetCached looks a value up through the tiered cache and decodes it into T.
// A fast-tier value that fails to decode falls through; a fetched value that
// fails to decode is a hard error and is never cached.
func GetCached[T any](ctx context.Context, s *Service, keys Keys, tier Tier, fetch FetchFunc) (T, error) {
	var zero T

	// 1. Fast tier.
	if val, ok := s.fast.Get(ctx, keys.Fast); ok {
		var decoded T
		if err := json.Unmarshal(val, &decoded); err == nil {
			logger.DebugContext(ctx, "fast cache hit", "key", keys.Fast)
			metrics.CacheLookups.WithLabelValues(keys.Category, "hit_fast").Inc()
			s.recordHit(keys.Category)
			return decoded, nil
		}
	}

	// 2. Disk tier.
	if s.disk.IsValid(keys.Category, keys.Disk, tier.Disk) {
		if payload, err := s.disk.Read(keys.Category, keys.Disk); err == nil && payload != nil {
			var decoded T
			if err := json.Unmarshal(payload, &decoded); err == nil {
				logger.DebugContext(ctx, "disk cache hit", "category", keys.Category, "key", keys.Disk)
				metrics.CacheLookups.WithLabelValues(keys.Category, "hit_disk").Inc()
				s.recordHit(keys.Category)
				s.fast.Set(ctx, keys.Fast, payload, tier.Fast)
				return decoded, nil
			}
		}
	}

	// 3. Full miss.
	logger.InfoContext(ctx, "cache miss, fetching from upstream", "key", keys.Fast)
	s.recordMiss(keys.Category)
	metrics.CacheLookups.WithLabelValues(keys.Category, "miss").Inc()

	if !s.limiter.TryAdmit() {
		metrics.UpstreamRateLimitRejections.Inc()
		return zero, &RateLimitError{Limit: s.limiter.Limit()}
	}

	start := time.Now()
	value, err := fetch(ctx)
	metrics.UpstreamFetchDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.UpstreamFetches.WithLabelValues("error").Inc()
		return zero, &FetchError{Err: err}
	}
	metrics.UpstreamFetches.WithLabelValues("success").Inc()

	var decoded T
	if err := json.Unmarshal(value, &decoded); err != nil {
		return zero, &DecodeError{Err: err}
	}

	s.populate(ctx, keys, tier, value)
	return decoded, nil
}

var errInvalidJSON = errors.New("payload is not valid JSON")
