package ratelimit

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// bucketExpiryMultiplier bounds how long an idle bucket survives, in windows.
const bucketExpiryMultiplier = 2

var takeScript = redis.NewScript(`
-- KEYS[1] = bucket hash {tokens, ts}
-- ARGV[1] = capacity (int)
-- ARGV[2] = window_ms (int)
-- ARGV[3] = now_ms (int)
-- ARGV[4] = ttl_ms (int)
--
-- Returns {allowed (0|1), tokens_after (string), wait_ms (int)}
local capacity = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local now = tonumber(ARGV[3])
local ttl = tonumber(ARGV[4])

local state = redis.call('HMGET', KEYS[1], 'tokens', 'ts')
local tokens = tonumber(state[1])
local ts = tonumber(state[2])
if tokens == nil or ts == nil then
  tokens = capacity
  ts = now
end

-- Instance clocks may disagree; never let a bucket's time run backwards.
if now < ts then
  now = ts
end

tokens = math.min(capacity, tokens + (now - ts) * capacity / window)

local allowed = 0
local wait = 0
if tokens >= 1 then
  tokens = tokens - 1
  allowed = 1
else
  wait = math.ceil((1 - tokens) * window / capacity)
end

redis.call('HSET', KEYS[1], 'tokens', tostring(tokens), 'ts', tostring(now))
redis.call('PEXPIRE', KEYS[1], ttl)
return {allowed, tostring(tokens), wait}
`)

// RedisStore keeps buckets in Redis hashes under prefix+key.
type RedisStore struct {
	rdb    redis.Scripter
	prefix string
}

func NewRedisStore(rdb redis.Scripter, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "ratelimit:"
	}
	return &RedisStore{rdb: rdb, prefix: prefix}
}

func (s *RedisStore) Take(ctx context.Context, key string, capacity int, window time.Duration, now time.Time) (Take, error) {
	if capacity <= 0 || window < time.Millisecond {
		return Take{}, fmt.Errorf("ratelimit: invalid bucket capacity=%d window=%s", capacity, window)
	}
	windowMS := window.Milliseconds()
	ttlMS := windowMS * bucketExpiryMultiplier

	res, err := takeScript.Run(ctx, s.rdb, []string{s.prefix + key}, capacity, windowMS, now.UnixMilli(), ttlMS).Slice()
	if err != nil {
		return Take{}, err
	}
	if len(res) != 3 {
		return Take{}, fmt.Errorf("ratelimit: unexpected script reply %v", res)
	}

	allowed, ok := res[0].(int64)
	if !ok {
		return Take{}, fmt.Errorf("ratelimit: unexpected allowed value %T", res[0])
	}
	tokensStr, ok := res[1].(string)
	if !ok {
		return Take{}, fmt.Errorf("ratelimit: unexpected tokens value %T", res[1])
	}
	tokens, err := strconv.ParseFloat(tokensStr, 64)
	if err != nil {
		return Take{}, fmt.Errorf("ratelimit: parse tokens: %w", err)
	}
	waitMS, ok := res[2].(int64)
	if !ok {
		return Take{}, fmt.Errorf("ratelimit: unexpected wait value %T", res[2])
	}

	return Take{
		Allowed: allowed == 1,
		Tokens:  math.Max(0, tokens),
		Wait:    time.Duration(waitMS) * time.Millisecond,
	}, nil
}
