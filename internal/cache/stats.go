package cache

import "github.com/openkaspa/market-gateway/internal/logger"

// CategoryStats merges the on-disk footprint of a category with its live
// hit/miss counters.
type CategoryStats struct {
	Keys      int    `json:"keys"`
	SizeBytes int64  `json:"size_bytes"`
	Hits      uint64 `json:"hits"`
	Misses    uint64 `json:"misses"`
	Requests  uint64 `json:"requests"`
}

// CacheStats is a point-in-time snapshot across all categories.
type CacheStats struct {
	TotalKeys      int                      `json:"total_keys"`
	TotalSizeBytes int64                    `json:"total_size_bytes"`
	BasePath       string                   `json:"base_path"`
	Categories     map[string]CategoryStats `json:"categories"`
}

// Stats returns durable-store aggregates merged with the live per-category
// counters. It never fails: a disk walk error yields counters-only data. A
// category with recorded activity but no disk footprint yet still appears.
func (s *Service) Stats() CacheStats {
	stats := CacheStats{
		BasePath:   s.disk.BasePath(),
		Categories: make(map[string]CategoryStats),
	}

	footprint, err := s.disk.Footprint()
	if err != nil {
		logger.Warn("disk store footprint unavailable", "error", err)
	}
	for category, fp := range footprint {
		stats.TotalKeys += fp.Keys
		stats.TotalSizeBytes += fp.Bytes
		stats.Categories[category] = CategoryStats{Keys: fp.Keys, SizeBytes: fp.Bytes}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for category, counters := range s.categories {
		entry := stats.Categories[category]
		entry.Hits = counters.hits.Load()
		entry.Misses = counters.misses.Load()
		entry.Requests = counters.requests.Load()
		stats.Categories[category] = entry
	}

	return stats
}

// DiskFootprint exposes the per-category durable footprint, for the metrics
// collector.
func (s *Service) DiskFootprint() map[string]CategoryFootprint {
	footprint, err := s.disk.Footprint()
	if err != nil {
		return nil
	}
	return footprint
}
