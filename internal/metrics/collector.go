package metrics

import (
	"context"
	"time"
)

// DiskUsage is a per-category footprint snapshot of the durable store.
type DiskUsage struct {
	Keys  int
	Bytes int64
}

// UsageFunc supplies the current durable-store footprint per category.
type UsageFunc func() map[string]DiskUsage

// Collector periodically exports the durable-store footprint as gauges.
type Collector struct {
	usage    UsageFunc
	interval time.Duration
	stop     chan struct{}
}

// NewCollector creates a new metrics collector.
func NewCollector(usage UsageFunc, interval time.Duration) *Collector {
	return &Collector{
		usage:    usage,
		interval: interval,
		stop:     make(chan struct{}),
	}
}

// Start begins the metrics collection loop. Blocks until Stop is called or
// the context is cancelled.
func (c *Collector) Start(ctx context.Context) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	c.collect()

	for {
		select {
		case <-ticker.C:
			c.collect()
		case <-c.stop:
			return
		case <-ctx.Done():
			return
		}
	}
}

// Stop stops the metrics collector.
func (c *Collector) Stop() {
	close(c.stop)
}

func (c *Collector) collect() {
	for category, usage := range c.usage() {
		DiskStoreKeys.WithLabelValues(category).Set(float64(usage.Keys))
		DiskStoreBytes.WithLabelValues(category).Set(float64(usage.Bytes))
	}
}
