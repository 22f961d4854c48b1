package upstream

import (
	"sync"
	"testing"
	"time"
)

func TestLimiterAdmitsUpToLimit(t *testing.T) {
	l := NewLimiter(5)

	for i := 0; i < 5; i++ {
		if !l.TryAdmit() {
			t.Fatalf("admission %d denied, want admitted", i+1)
		}
	}
	if l.TryAdmit() {
		t.Error("6th admission allowed, want denied")
	}
}

func TestLimiterZeroLimitAdmitsNothing(t *testing.T) {
	l := NewLimiter(0)
	if l.TryAdmit() {
		t.Error("limit=0 should never admit")
	}
}

func TestLimiterWindowExpiry(t *testing.T) {
	current := time.Unix(1_700_000_000, 0)
	l := NewLimiter(2)
	l.now = func() time.Time { return current }

	if !l.TryAdmit() || !l.TryAdmit() {
		t.Fatal("initial admissions denied")
	}
	if l.TryAdmit() {
		t.Fatal("3rd admission within window allowed")
	}

	// Advance past the window; the old admissions must be pruned.
	current = current.Add(61 * time.Second)
	if !l.TryAdmit() {
		t.Error("admission after window expiry denied")
	}
}

func TestLimiterStats(t *testing.T) {
	current := time.Unix(1_700_000_030, 0) // 30s into a minute
	l := NewLimiter(10)
	l.now = func() time.Time { return current }

	for i := 0; i < 3; i++ {
		l.TryAdmit()
	}

	stats := l.Stats()
	if stats.Limit != 10 {
		t.Errorf("Limit = %d, want 10", stats.Limit)
	}
	if stats.Used != 3 {
		t.Errorf("Used = %d, want 3", stats.Used)
	}
	if stats.Remaining != 7 {
		t.Errorf("Remaining = %d, want 7", stats.Remaining)
	}
	// Reset is the next minute boundary.
	if stats.Reset != 1_700_000_040 {
		t.Errorf("Reset = %d, want 1700000040", stats.Reset)
	}
}

func TestLimiterStatsRemainingNeverNegative(t *testing.T) {
	l := NewLimiter(1)
	l.TryAdmit()
	l.TryAdmit()

	if got := l.Stats().Remaining; got != 0 {
		t.Errorf("Remaining = %d, want 0", got)
	}
}

func TestLimiterConcurrentAdmissions(t *testing.T) {
	const limit = 50
	l := NewLimiter(limit)

	var wg sync.WaitGroup
	var mu sync.Mutex
	admitted := 0

	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if l.TryAdmit() {
				mu.Lock()
				admitted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if admitted != limit {
		t.Errorf("admitted = %d, want exactly %d", admitted, limit)
	}
}
