// Package cache implements the tiered caching layer of the gateway: a fast
// TTL-bearing store (Redis or in-process), a durable on-disk store, and the
// orchestrator that composes them with the upstream admission gate.
package cache

import (
	"context"
	"time"

	"github.com/dgraph-io/ristretto"
	"github.com/redis/go-redis/v9"

	"github.com/openkaspa/market-gateway/internal/logger"
	"github.com/openkaspa/market-gateway/internal/metrics"
)

// FastStore is the low-latency cache tier. It is an optimization, not a
// source of truth: implementations must fail soft. A Get that cannot reach
// the backend reports a miss; a Set that fails is logged and dropped.
type FastStore interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, val []byte, ttl time.Duration)
}

// RedisStore is a Redis-backed FastStore.
type RedisStore struct {
	rdb *redis.Client
}

// NewRedisStore creates a Redis-backed fast store.
func NewRedisStore(addr, password string, db int) *RedisStore {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return &RedisStore{rdb: rdb}
}

// Get retrieves a value by key. Misses and connection errors both report
// (nil, false).
func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, bool) {
	val, err := s.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			logger.Debug("redis get failed, treating as miss", "key", key, "error", err)
		}
		return nil, false
	}
	return val, true
}

// Set stores a value under key with the given TTL. Errors are logged and
// otherwise discarded.
func (s *RedisStore) Set(ctx context.Context, key string, val []byte, ttl time.Duration) {
	if err := s.rdb.Set(ctx, key, val, ttl).Err(); err != nil {
		metrics.CacheWriteFailures.WithLabelValues("fast").Inc()
		logger.Debug("redis set failed, entry not cached", "key", key, "error", err)
	}
}

// Ping checks the Redis connection.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

// Close closes the underlying Redis client.
func (s *RedisStore) Close() error {
	return s.rdb.Close()
}

// MemoryStore is an in-process FastStore backed by ristretto, used when no
// Redis address is configured so single-instance deployments still get a
// fast tier.
type MemoryStore struct {
	cache *ristretto.Cache
}

// memoryItem wraps the data with its expiration time.
type memoryItem struct {
	data      []byte
	expiresAt time.Time
}

// NewMemoryStore creates an in-process fast store bounded by maxSizeMB and
// maxEntries.
func NewMemoryStore(maxSizeMB int64, maxEntries int64) (*MemoryStore, error) {
	// NumCounters should be ~10x the number of entries for optimal admission
	numCounters := maxEntries * 10
	if numCounters < 1000 {
		numCounters = 1000
	}

	c, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: numCounters,
		MaxCost:     maxSizeMB * 1024 * 1024,
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}
	return &MemoryStore{cache: c}, nil
}

// Get retrieves a value by key, honoring the per-entry TTL.
func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, bool) {
	val, found := s.cache.Get(key)
	if !found {
		return nil, false
	}

	item, ok := val.(*memoryItem)
	if !ok {
		s.cache.Del(key)
		return nil, false
	}

	if time.Now().After(item.expiresAt) {
		s.cache.Del(key)
		return nil, false
	}

	return item.data, true
}

// Set stores a value under key with the given TTL.
func (s *MemoryStore) Set(_ context.Context, key string, val []byte, ttl time.Duration) {
	item := &memoryItem{
		data:      val,
		expiresAt: time.Now().Add(ttl),
	}

	// Cost is the size of the data; ristretto handles admission internally.
	if !s.cache.Set(key, item, int64(len(val))) {
		metrics.CacheWriteFailures.WithLabelValues("fast").Inc()
		logger.Debug("memory store rejected entry", "key", key, "bytes", len(val))
	}

	// Wait for the value to pass through the internal buffers.
	s.cache.Wait()
}

// Close releases the underlying cache resources.
func (s *MemoryStore) Close() {
	s.cache.Close()
}
