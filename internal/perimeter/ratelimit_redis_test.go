package perimeter

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisLimiterForTest(t *testing.T, clock *fakeClock) (*miniredis.Miniredis, *RedisLimiter) {
	t.Helper()
	m := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: m.Addr()})
	t.Cleanup(func() {
		_ = client.Close()
	})

	limiter := NewRedisLimiter(client, "rl_test", testPolicy)
	limiter.now = clock.Now
	return m, limiter
}

func TestRedisLimiter_ExhaustAndRefill(t *testing.T) {
	clock := newFakeClock()
	m, limiter := newRedisLimiterForTest(t, clock)
	ctx := context.Background()

	for i := 0; i < testPolicy.Capacity; i++ {
		res, err := limiter.Take(ctx, "1.2.3.4", 1)
		require.NoError(t, err)
		assert.True(t, res.Allowed, "request %d", i+1)
		assert.Equal(t, testPolicy.Capacity-i-1, res.Remaining)
	}

	res, err := limiter.Take(ctx, "1.2.3.4", 1)
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Equal(t, 2*time.Second, res.RetryAfter)

	assert.True(t, m.Exists("rl_test:1.2.3.4"))

	clock.Advance(testPolicy.Interval)
	for i := 0; i < testPolicy.Refill; i++ {
		res, err = limiter.Take(ctx, "1.2.3.4", 1)
		require.NoError(t, err)
		assert.True(t, res.Allowed, "refilled request %d", i+1)
	}
	res, err = limiter.Take(ctx, "1.2.3.4", 1)
	require.NoError(t, err)
	assert.False(t, res.Allowed)
}

func TestRedisLimiter_KeysAreIndependent(t *testing.T) {
	_, limiter := newRedisLimiterForTest(t, newFakeClock())
	ctx := context.Background()

	res, err := limiter.Take(ctx, "a", testPolicy.Capacity)
	require.NoError(t, err)
	assert.True(t, res.Allowed)

	res, err = limiter.Take(ctx, "a", 1)
	require.NoError(t, err)
	assert.False(t, res.Allowed)

	res, err = limiter.Take(ctx, "", 1)
	require.NoError(t, err)
	assert.True(t, res.Allowed)
}

func TestRedisLimiter_Errors(t *testing.T) {
	limiter := NewRedisLimiter(nil, "", testPolicy)
	_, err := limiter.Take(context.Background(), "k", 1)
	require.Error(t, err)

	badClient := redis.NewClient(&redis.Options{
		Addr:         "127.0.0.1:1",
		DialTimeout:  20 * time.Millisecond,
		ReadTimeout:  20 * time.Millisecond,
		WriteTimeout: 20 * time.Millisecond,
	})
	t.Cleanup(func() { _ = badClient.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	_, err = NewRedisLimiter(badClient, "", testPolicy).Take(ctx, "k", 1)
	require.Error(t, err)
}

func TestParseRedisInt64(t *testing.T) {
	v, err := parseRedisInt64(int64(4))
	require.NoError(t, err)
	assert.Equal(t, int64(4), v)

	v, err = parseRedisInt64(3)
	require.NoError(t, err)
	assert.Equal(t, int64(3), v)

	_, err = parseRedisInt64("1")
	assert.Error(t, err)
}
