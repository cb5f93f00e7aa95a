package ratelimit

import (
	"context"
	"sync"
	"time"
)

type bucket struct {
	count int
	start time.Time
}

type MemoryLimiter struct {
	limit  int
	window time.Duration
	now    func() time.Time

	mu      sync.Mutex
	buckets map[string]*bucket
}

func NewMemoryLimiter(limit int, window time.Duration) *MemoryLimiter {
	return &MemoryLimiter{
		limit:   limit,
		window:  window,
		now:     time.Now,
		buckets: make(map[string]*bucket),
	}
}

func (l *MemoryLimiter) Allow(_ context.Context, key string) (bool, error) {
	start := windowStart(l.now(), l.window)

	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.buckets[key]
	if !ok || !b.start.Equal(start) {
		l.evict(start)
		b = &bucket{start: start}
		l.buckets[key] = b
	}

	if b.count >= l.limit {
		return false, nil
	}
	b.count++
	return true, nil
}

// evict drops buckets from earlier windows so idle clients do not pile up.
func (l *MemoryLimiter) evict(current time.Time) {
	for key, b := range l.buckets {
		if b.start.Before(current) {
			delete(l.buckets, key)
		}
	}
}
