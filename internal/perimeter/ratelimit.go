package perimeter

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// BucketPolicy describes a token bucket.
type BucketPolicy struct {
	Capacity int
	Refill   int
	Interval time.Duration
}

// fullAfter is how long an empty bucket takes to refill completely.
func (p BucketPolicy) fullAfter() time.Duration {
	return time.Duration(float64(p.Interval) * float64(p.Capacity) / float64(p.Refill))
}

// TakeResult reports the outcome of taking tokens from a bucket.
type TakeResult struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
}

// Limiter takes tokens from the bucket identified by key.
type Limiter interface {
	Take(ctx context.Context, key string, cost int) (TakeResult, error)
}

// FailureMode selects what happens when the limiter backend fails.
type FailureMode string

const (
	FailOpen   FailureMode = "fail_open"
	FailClosed FailureMode = "fail_closed"
)

type localBucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// LocalLimiter keeps one in-process token bucket per key.
type LocalLimiter struct {
	policy  BucketPolicy
	now     func() time.Time
	mu      sync.Mutex
	buckets map[string]*localBucket
	cleanup time.Time
}

// NewLocalLimiter creates an in-process limiter.
func NewLocalLimiter(policy BucketPolicy) *LocalLimiter {
	return newLocalLimiter(policy, time.Now)
}

func newLocalLimiter(policy BucketPolicy, now func() time.Time) *LocalLimiter {
	return &LocalLimiter{
		policy:  policy,
		now:     now,
		buckets: make(map[string]*localBucket),
		cleanup: now().Add(policy.fullAfter()),
	}
}

// Take implements Limiter.
func (l *LocalLimiter) Take(_ context.Context, key string, cost int) (TakeResult, error) {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	// Buckets idle long enough to be full again carry no state worth keeping.
	if now.After(l.cleanup) {
		idle := l.policy.fullAfter()
		for k, b := range l.buckets {
			if now.Sub(b.lastSeen) > idle {
				delete(l.buckets, k)
			}
		}
		l.cleanup = now.Add(idle)
	}

	b, ok := l.buckets[key]
	if !ok {
		every := l.policy.Interval / time.Duration(l.policy.Refill)
		b = &localBucket{limiter: rate.NewLimiter(rate.Every(every), l.policy.Capacity)}
		l.buckets[key] = b
	}
	b.lastSeen = now

	if cost > l.policy.Capacity {
		return TakeResult{Allowed: false, RetryAfter: l.policy.fullAfter()}, nil
	}

	r := b.limiter.ReserveN(now, cost)
	if delay := r.DelayFrom(now); delay > 0 {
		r.CancelAt(now)
		return TakeResult{Allowed: false, RetryAfter: delay}, nil
	}

	return TakeResult{Allowed: true, Remaining: int(b.limiter.TokensAt(now))}, nil
}

// RateLimitRule denies clients whose bucket is empty.
type RateLimitRule struct {
	limiter Limiter
	mode    FailureMode
	logger  zerolog.Logger
}

// NewRateLimitRule creates a rate limit rule over limiter.
func NewRateLimitRule(limiter Limiter, mode FailureMode, logger zerolog.Logger) *RateLimitRule {
	return &RateLimitRule{
		limiter: limiter,
		mode:    mode,
		logger:  logger.With().Str("component", "rate-limit").Logger(),
	}
}

// Name implements Rule.
func (rl *RateLimitRule) Name() string { return "rate_limit" }

// Evaluate implements Rule.
func (rl *RateLimitRule) Evaluate(ctx context.Context, req *Request) (RuleResult, error) {
	cost := req.Requested
	if cost < 1 {
		cost = 1
	}

	res, err := rl.limiter.Take(ctx, req.Key(), cost)
	if err != nil {
		if rl.mode == FailOpen {
			rl.logger.Warn().Err(err).Str("mode", string(rl.mode)).Msg("rate limiter backend unavailable, allowing request")
			return allow(rl.Name()), nil
		}
		return RuleResult{}, fmt.Errorf("rate limiter backend: %w", err)
	}

	if !res.Allowed {
		return deny(rl.Name(), Reason{Kind: KindRateLimit, RetryAfter: res.RetryAfter}), nil
	}

	return allow(rl.Name()), nil
}
