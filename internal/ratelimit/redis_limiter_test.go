package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/rueidis"
	"github.com/redis/rueidis/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func newMockLimiter(t *testing.T, limit int) (*RedisLimiter, *mock.Client) {
	t.Helper()
	ctrl := gomock.NewController(t)
	client := mock.NewClient(ctrl)

	now := time.Date(2026, 3, 1, 12, 0, 30, 0, time.UTC)
	limiter := NewRedisLimiter(client, "rl", limit, time.Minute)
	limiter.now = func() time.Time { return now }
	return limiter, client
}

// the key carries the start of the current window: 2026-03-01T12:00:00Z
const windowKey = "rl:10.0.0.1:1772366400"

func expectCount(client *mock.Client, created bool, count int64) *gomock.Call {
	set := mock.Result(mock.RedisNil())
	if created {
		set = mock.Result(mock.RedisString("OK"))
	}
	return client.EXPECT().
		DoMulti(gomock.Any(),
			mock.Match("SET", windowKey, "0", "NX", "EX", "60"),
			mock.Match("INCR", windowKey),
		).
		Return([]rueidis.RedisResult{set, mock.Result(mock.RedisInt64(count))})
}

func TestRedisLimiter_CountsWithinWindow(t *testing.T) {
	limiter, client := newMockLimiter(t, 2)
	ctx := context.Background()

	gomock.InOrder(
		expectCount(client, true, 1),
		expectCount(client, false, 2),
		expectCount(client, false, 3),
	)

	ok, err := limiter.Allow(ctx, "10.0.0.1")
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = limiter.Allow(ctx, "10.0.0.1")
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = limiter.Allow(ctx, "10.0.0.1")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestRedisLimiter_PropagatesErrors(t *testing.T) {
	limiter, client := newMockLimiter(t, 2)
	ctx := context.Background()
	down := errors.New("connection refused")

	client.EXPECT().
		DoMulti(gomock.Any(), gomock.Any(), gomock.Any()).
		Return([]rueidis.RedisResult{mock.ErrorResult(down), mock.ErrorResult(down)})
	ok, err := limiter.Allow(ctx, "10.0.0.1")
	require.ErrorIs(t, err, down)
	require.False(t, ok)

	client.EXPECT().
		DoMulti(gomock.Any(), gomock.Any(), gomock.Any()).
		Return([]rueidis.RedisResult{mock.Result(mock.RedisString("OK")), mock.ErrorResult(down)})
	ok, err = limiter.Allow(ctx, "10.0.0.1")
	require.ErrorIs(t, err, down)
	require.False(t, ok)
}
