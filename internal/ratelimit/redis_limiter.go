package ratelimit

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/rueidis"
)

// RedisLimiter shares counters between instances. Each window gets its own
// key that expires with the window.
type RedisLimiter struct {
	client rueidis.Client
	prefix string
	limit  int
	window time.Duration
	now    func() time.Time
}

func NewRedisLimiter(client rueidis.Client, prefix string, limit int, window time.Duration) *RedisLimiter {
	return &RedisLimiter{
		client: client,
		prefix: prefix,
		limit:  limit,
		window: window,
		now:    time.Now,
	}
}

// Allow creates the window key with its TTL before counting, both in one
// round trip, so a key never outlives its window.
func (r *RedisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	start := windowStart(r.now(), r.window)
	redisKey := r.prefix + ":" + key + ":" + strconv.FormatInt(start.Unix(), 10)

	seconds := int64(r.window / time.Second)
	if seconds < 1 {
		seconds = 1
	}
	results := r.client.DoMulti(ctx,
		r.client.B().Set().Key(redisKey).Value("0").Nx().ExSeconds(seconds).Build(),
		r.client.B().Incr().Key(redisKey).Build(),
	)
	// SET NX replies nil when the window key already exists
	if err := results[0].Error(); err != nil && !rueidis.IsRedisNil(err) {
		return false, err
	}
	count, err := results[1].AsInt64()
	if err != nil {
		return false, err
	}

	return count <= int64(r.limit), nil
}
