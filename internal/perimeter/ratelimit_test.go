package perimeter

import (
	"context"
	"errors"
	"net/netip"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testPolicy = BucketPolicy{Capacity: 10, Refill: 5, Interval: 10 * time.Second}

// fakeClock is a manually advanced time source.
type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func TestLocalLimiter_ExhaustAndRefill(t *testing.T) {
	clock := newFakeClock()
	limiter := newLocalLimiter(testPolicy, clock.Now)
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

	// Other clients have their own bucket
	res, err = limiter.Take(ctx, "5.6.7.8", 1)
	require.NoError(t, err)
	assert.True(t, res.Allowed)

	// 5 tokens per 10s is one token every 2s
	clock.Advance(2 * time.Second)
	res, err = limiter.Take(ctx, "1.2.3.4", 1)
	require.NoError(t, err)
	assert.True(t, res.Allowed)

	res, err = limiter.Take(ctx, "1.2.3.4", 1)
	require.NoError(t, err)
	assert.False(t, res.Allowed)

	// A full interval restores the refill amount
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

func TestLocalLimiter_CostAboveCapacity(t *testing.T) {
	limiter := newLocalLimiter(testPolicy, newFakeClock().Now)

	res, err := limiter.Take(context.Background(), "k", testPolicy.Capacity+1)
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Positive(t, res.RetryAfter)
}

func TestLocalLimiter_EvictsIdleBuckets(t *testing.T) {
	clock := newFakeClock()
	limiter := newLocalLimiter(testPolicy, clock.Now)
	ctx := context.Background()

	_, err := limiter.Take(ctx, "idle", 1)
	require.NoError(t, err)
	assert.Len(t, limiter.buckets, 1)

	clock.Advance(time.Hour)
	_, err = limiter.Take(ctx, "fresh", 1)
	require.NoError(t, err)

	assert.Len(t, limiter.buckets, 1)
	assert.Contains(t, limiter.buckets, "fresh")
}

// stubLimiter returns a fixed outcome.
type stubLimiter struct {
	result TakeResult
	err    error
	key    string
	cost   int
}

func (s *stubLimiter) Take(ctx context.Context, key string, cost int) (TakeResult, error) {
	s.key = key
	s.cost = cost
	return s.result, s.err
}

func TestRateLimitRule_Evaluate(t *testing.T) {
	tests := []struct {
		name               string
		limiter            *stubLimiter
		mode               FailureMode
		requested          int
		expectError        bool
		expectedConclusion Conclusion
		expectedCost       int
	}{
		{
			name:               "Allowed",
			limiter:            &stubLimiter{result: TakeResult{Allowed: true}},
			mode:               FailOpen,
			requested:          1,
			expectedConclusion: Allow,
			expectedCost:       1,
		},
		{
			name:               "Denied carries retry after",
			limiter:            &stubLimiter{result: TakeResult{Allowed: false, RetryAfter: 3 * time.Second}},
			mode:               FailOpen,
			requested:          1,
			expectedConclusion: Deny,
			expectedCost:       1,
		},
		{
			name:               "Zero cost is charged as one",
			limiter:            &stubLimiter{result: TakeResult{Allowed: true}},
			mode:               FailOpen,
			requested:          0,
			expectedConclusion: Allow,
			expectedCost:       1,
		},
		{
			name:               "Backend error fails open",
			limiter:            &stubLimiter{err: errors.New("redis down")},
			mode:               FailOpen,
			requested:          1,
			expectedConclusion: Allow,
			expectedCost:       1,
		},
		{
			name:         "Backend error fails closed",
			limiter:      &stubLimiter{err: errors.New("redis down")},
			mode:         FailClosed,
			requested:    1,
			expectError:  true,
			expectedCost: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rule := NewRateLimitRule(tt.limiter, tt.mode, zerolog.Nop())
			req := &Request{IP: netip.MustParseAddr("192.0.2.10"), Requested: tt.requested}

			res, err := rule.Evaluate(context.Background(), req)

			assert.Equal(t, "192.0.2.10", tt.limiter.key)
			assert.Equal(t, tt.expectedCost, tt.limiter.cost)

			if tt.expectError {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expectedConclusion, res.Conclusion)
			if res.Conclusion == Deny {
				assert.Equal(t, KindRateLimit, res.Reason.Kind)
				assert.Equal(t, 3*time.Second, res.Reason.RetryAfter)
			}
		})
	}
}
