// Package upstream gates outbound calls to the rate-limited marketplace API.
package upstream

import (
	"sync"
	"time"
)

const window = 60 * time.Second

// Limiter is a sliding-window admission gate bounding upstream calls per
// rolling minute. Admission is decided per call; there is no persistent
// open/closed state.
type Limiter struct {
	limit int
	now   func() time.Time

	mu       sync.Mutex
	admitted []time.Time
}

// NewLimiter creates a limiter admitting requestsPerMinute calls per rolling
// 60-second window.
func NewLimiter(requestsPerMinute int) *Limiter {
	return &Limiter{
		limit: requestsPerMinute,
		now:   time.Now,
	}
}

// TryAdmit prunes timestamps outside the window and admits the call if the
// window has room, recording it. The whole decision is one short critical
// section; it never blocks on I/O.
func (l *Limiter) TryAdmit() bool {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	l.prune(now)
	if len(l.admitted) < l.limit {
		l.admitted = append(l.admitted, now)
		return true
	}
	return false
}

// prune drops admissions older than the window. Caller holds l.mu.
func (l *Limiter) prune(now time.Time) {
	cutoff := now.Add(-window)
	keep := l.admitted[:0]
	for _, t := range l.admitted {
		if t.After(cutoff) {
			keep = append(keep, t)
		}
	}
	l.admitted = keep
}

// Limit returns the configured window size.
func (l *Limiter) Limit() int {
	return l.limit
}

// Stats describes the current admission window.
type Stats struct {
	Limit     int   `json:"limit"`
	Used      int   `json:"used"`
	Remaining int   `json:"remaining"`
	Reset     int64 `json:"reset"` // epoch seconds
}

// Stats reports the window occupancy. Reset is the next wall-clock minute
// boundary rather than the expiry of the oldest admission; existing
// consumers of the rate-limit endpoint expect minute-aligned resets.
func (l *Limiter) Stats() Stats {
	now := l.now()

	l.mu.Lock()
	l.prune(now)
	used := len(l.admitted)
	l.mu.Unlock()

	epoch := now.Unix()
	reset := epoch + (60 - epoch%60)

	remaining := l.limit - used
	if remaining < 0 {
		remaining = 0
	}

	return Stats{
		Limit:     l.limit,
		Used:      used,
		Remaining: remaining,
		Reset:     reset,
	}
}
