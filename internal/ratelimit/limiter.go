package ratelimit

import (
	"context"
	"time"
)

// Limiter counts requests per key inside a fixed window.
type Limiter interface {
	// Allow records one hit for key and reports whether it is still within
	// the limit.
	Allow(ctx context.Context, key string) (bool, error)
}

func windowStart(now time.Time, window time.Duration) time.Time {
	return now.Truncate(window)
}
