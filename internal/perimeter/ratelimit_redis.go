package perimeter

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// redisTokenBucketScript refills the bucket for the elapsed time, then takes
// ARGV[4] tokens if available. The key expires once the bucket would be full.
var redisTokenBucketScript = redis.NewScript(`
local capacity = tonumber(ARGV[1])
local refill = tonumber(ARGV[2])
local interval_ms = tonumber(ARGV[3])
local cost = tonumber(ARGV[4])
local now_ms = tonumber(ARGV[5])

local state = redis.call("HMGET", KEYS[1], "tokens", "ts")
local tokens = tonumber(state[1])
local ts = tonumber(state[2])
if tokens == nil or ts == nil then
  tokens = capacity
  ts = now_ms
end

local elapsed = now_ms - ts
if elapsed < 0 then
  elapsed = 0
end
tokens = math.min(capacity, tokens + elapsed * refill / interval_ms)

local allowed = 0
local retry_ms = 0
if tokens >= cost then
  tokens = tokens - cost
  allowed = 1
else
  retry_ms = math.ceil((cost - tokens) * interval_ms / refill)
end

redis.call("HSET", KEYS[1], "tokens", tostring(tokens), "ts", tostring(now_ms))
redis.call("PEXPIRE", KEYS[1], tostring(math.ceil(capacity * interval_ms / refill) + 1000))
return {allowed, retry_ms, math.floor(tokens)}
`)

// RedisLimiter keeps token buckets in Redis so every instance shares them.
type RedisLimiter struct {
	client redis.UniversalClient
	prefix string
	policy BucketPolicy
	now    func() time.Time
}

// NewRedisLimiter creates a Redis-backed limiter. Keys are "<prefix>:<key>".
func NewRedisLimiter(client redis.UniversalClient, prefix string, policy BucketPolicy) *RedisLimiter {
	if prefix == "" {
		prefix = "rl"
	}
	return &RedisLimiter{
		client: client,
		prefix: prefix,
		policy: policy,
		now:    time.Now,
	}
}

// Take implements Limiter.
func (l *RedisLimiter) Take(ctx context.Context, key string, cost int) (TakeResult, error) {
	if l.client == nil {
		return TakeResult{}, fmt.Errorf("redis client is nil")
	}
	if key == "" {
		key = "unknown"
	}

	intervalMS := l.policy.Interval.Milliseconds()
	if intervalMS <= 0 {
		intervalMS = 1000
	}

	storeKey := fmt.Sprintf("%s:%s", l.prefix, key)
	raw, err := redisTokenBucketScript.Run(ctx, l.client, []string{storeKey},
		l.policy.Capacity, l.policy.Refill, intervalMS, cost, l.now().UnixMilli(),
	).Result()
	if err != nil {
		return TakeResult{}, err
	}

	values, ok := raw.([]interface{})
	if !ok || len(values) != 3 {
		return TakeResult{}, fmt.Errorf("unexpected redis script response type")
	}

	allowed, err := parseRedisInt64(values[0])
	if err != nil {
		return TakeResult{}, err
	}
	retryMS, err := parseRedisInt64(values[1])
	if err != nil {
		return TakeResult{}, err
	}
	remaining, err := parseRedisInt64(values[2])
	if err != nil {
		return TakeResult{}, err
	}

	return TakeResult{
		Allowed:    allowed == 1,
		Remaining:  int(remaining),
		RetryAfter: time.Duration(retryMS) * time.Millisecond,
	}, nil
}

func parseRedisInt64(v interface{}) (int64, error) {
	switch n := v.(type) {
	case int64:
		return n, nil
	case int:
		return int64(n), nil
	default:
		return 0, fmt.Errorf("unexpected redis response type %T", v)
	}
}
