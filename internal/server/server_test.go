package server

import (
	"context"
	"testing"
	"time"

	"github.com/openkaspa/market-gateway/internal/config"
)

func TestNewUsesMemoryStoreWithoutRedis(t *testing.T) {
	t.Setenv("REDIS_ADDR", "")
	t.Setenv("CACHE_DIR", t.TempDir())
	config.ResetForTest()
	t.Cleanup(config.ResetForTest)

	s, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer s.Close()

	if s.memory == nil {
		t.Error("expected in-process fast store when no redis address is set")
	}
	if s.redis != nil {
		t.Error("expected no redis store")
	}
	if s.Gateway == nil || s.Cache == nil || s.Limiter == nil {
		t.Error("expected all components assembled")
	}
}

func TestStartAndShutdown(t *testing.T) {
	t.Setenv("REDIS_ADDR", "")
	t.Setenv("CACHE_DIR", t.TempDir())
	t.Setenv("CACHE_CLEANUP_INTERVAL_MIN", "60")
	config.ResetForTest()
	t.Cleanup(config.ResetForTest)

	s, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.Start(ctx)
	time.Sleep(10 * time.Millisecond)
	cancel()
	s.Close()
}
