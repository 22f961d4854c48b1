package service

import (
	"context"
	"time"

	"github.com/openkaspa/market-gateway/internal/logger"
)

// StartCleanup launches a background sweep that deletes expired durable
// entries on the given interval. It stops when ctx is cancelled.
func (g *Gateway) StartCleanup(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				logger.Info("cache cleanup sweep stopped")
				return
			case <-ticker.C:
				g.sweep()
			}
		}
	}()
}

// sweep removes expired entries for every category using its tier's
// disk TTL as the age limit.
func (g *Gateway) sweep() {
	total := 0
	for category, tier := range categoryTiers {
		removed, err := g.cache.CleanupExpired(category, tier.Disk)
		if err != nil {
			logger.Warn("cleanup sweep failed for category", "category", category, "error", err)
			continue
		}
		total += removed
	}
	if total > 0 {
		logger.Info("cache cleanup sweep removed expired entries", "removed", total)
	}
}
