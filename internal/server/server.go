// Package server assembles the gateway's stores, clients, and background
// workers.
package server

import (
	"context"
	"time"

	"github.com/openkaspa/market-gateway/internal/cache"
	"github.com/openkaspa/market-gateway/internal/config"
	"github.com/openkaspa/market-gateway/internal/contentapi"
	"github.com/openkaspa/market-gateway/internal/logger"
	"github.com/openkaspa/market-gateway/internal/marketapi"
	"github.com/openkaspa/market-gateway/internal/metrics"
	"github.com/openkaspa/market-gateway/internal/service"
	"github.com/openkaspa/market-gateway/internal/upstream"
)

// Server holds the assembled gateway components.
type Server struct {
	Cache   *cache.Service
	Gateway *service.Gateway
	Limiter *upstream.Limiter

	collector *metrics.Collector
	redis     *cache.RedisStore
	memory    *cache.MemoryStore
}

// New builds the full component graph from configuration. When a Redis
// address is configured but unreachable, the in-process store takes over
// so caching still works.
func New() (*Server, error) {
	cfg := config.Load()
	s := &Server{}

	var fast cache.FastStore
	if cfg.RedisAddr != "" {
		redis := cache.NewRedisStore(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		err := redis.Ping(ctx)
		cancel()
		if err != nil {
			logger.Warn("redis unreachable, using in-process fast store", "addr", cfg.RedisAddr, "error", err)
			redis.Close()
		} else {
			logger.Info("using redis fast store", "addr", cfg.RedisAddr)
			s.redis = redis
			fast = redis
		}
	}
	if fast == nil {
		memory, err := cache.NewMemoryStore(int64(cfg.MemCacheMaxMB), int64(cfg.MemCacheMaxEntries))
		if err != nil {
			return nil, err
		}
		s.memory = memory
		fast = memory
	}

	disk, err := cache.NewDiskStore(cfg.CacheDir)
	if err != nil {
		return nil, err
	}

	s.Limiter = upstream.NewLimiter(cfg.UpstreamRateLimit)
	s.Cache = cache.NewService(fast, disk, s.Limiter)
	s.Gateway = service.New(s.Cache, marketapi.NewClient(), contentapi.NewClient(), s.Limiter)

	s.collector = metrics.NewCollector(func() map[string]metrics.DiskUsage {
		usage := make(map[string]metrics.DiskUsage)
		for category, fp := range s.Cache.DiskFootprint() {
			usage[category] = metrics.DiskUsage{Keys: fp.Keys, Bytes: fp.Bytes}
		}
		return usage
	}, 30*time.Second)

	return s, nil
}

// Start launches the background workers: the expired-entry sweep and the
// disk footprint metrics collector. They stop when ctx is cancelled.
func (s *Server) Start(ctx context.Context) {
	s.Gateway.StartCleanup(ctx, config.Load().CleanupInterval)
	go s.collector.Start(ctx)
}

// Close releases store connections.
func (s *Server) Close() {
	s.collector.Stop()
	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			logger.Warn("closing redis store", "error", err)
		}
	}
	if s.memory != nil {
		s.memory.Close()
	}
}
