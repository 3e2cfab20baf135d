package services

import (
	"sync"
	"time"
)

type rateBucket struct {
	count   int
	resetAt time.Time
}

// RateLimiter is a sliding-window counter keyed by caller-chosen strings.
// Each instance owns its bucket table, so tests can build isolated limiters.
type RateLimiter struct {
	mu      sync.Mutex
	buckets map[string]*rateBucket
	now     func() time.Time
}

// NewRateLimiter builds an empty limiter.
func NewRateLimiter() *RateLimiter {
	return &RateLimiter{
		buckets: make(map[string]*rateBucket),
		now:     time.Now,
	}
}

// Allow reports whether the caller identified by key may proceed, permitting
// maxCount calls per window. The window is not reset early by denied calls.
func (rl *RateLimiter) Allow(key string, maxCount int, window time.Duration) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	b, ok := rl.buckets[key]
	if !ok || now.After(b.resetAt) {
		rl.buckets[key] = &rateBucket{count: 1, resetAt: now.Add(window)}
		return true
	}

	b.count++
	return b.count <= maxCount
}

// SweepExpired drops buckets whose window has elapsed, bounding memory.
func (rl *RateLimiter) SweepExpired() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	for key, b := range rl.buckets {
		if now.After(b.resetAt) {
			delete(rl.buckets, key)
		}
	}
}

// StartSweeper sweeps expired buckets on the given interval until stop is
// closed.
func (rl *RateLimiter) StartSweeper(interval time.Duration, stop <-chan struct{}) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				rl.SweepExpired()
			case <-stop:
				return
			}
		}
	}()
}
