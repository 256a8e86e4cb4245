package ratelimit

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// keyPrefix is the Redis key prefix for client buckets.
	keyPrefix = "ntpapi:ratelimit:ip:"
	// bucketTTL is how long an idle bucket is kept.
	bucketTTL = 10 * time.Second
)

// Result contains the result of a rate limit check.
type Result struct {
	Allowed    bool
	Limit      int
	Remaining  int64
	RetryAfter time.Duration
}

// tokenBucketScript is a Lua script implementing the token bucket algorithm.
// Refill and consumption happen atomically in a single round trip.
var tokenBucketScript = redis.NewScript(`
	local key = KEYS[1]
	local rate = tonumber(ARGV[1])      -- tokens per second
	local burst = tonumber(ARGV[2])     -- max tokens (bucket capacity)
	local now = tonumber(ARGV[3])       -- current time in seconds
	local ttl = tonumber(ARGV[4])       -- TTL in seconds

	local data = redis.call('HMGET', key, 'tokens', 'last_update')
	local tokens = tonumber(data[1]) or burst
	local last_update = tonumber(data[2]) or now

	local elapsed = math.max(0, now - last_update)
	tokens = math.min(burst, tokens + (elapsed * rate))

	local allowed = 0
	local retry_after = 0

	if tokens >= 1 then
		tokens = tokens - 1
		allowed = 1
	else
		retry_after = math.ceil((1 - tokens) / rate)
	end

	redis.call('HSET', key, 'tokens', tokens, 'last_update', now)
	redis.call('EXPIRE', key, ttl)

	return {allowed, retry_after, math.floor(tokens)}
`)

// Allow consumes one token from the bucket of clientIP.
// On Redis errors the error is returned and the caller decides whether to fail open.
func (l *Limiter) Allow(ctx context.Context, clientIP string) (*Result, error) {
	key := keyPrefix + hashIP(clientIP)
	ttl := int(math.Max(bucketTTL.Seconds(), math.Ceil(float64(l.burst)/l.rate)))

	out, err := tokenBucketScript.Run(ctx, l.client,
		[]string{key},
		l.rate, l.burst, time.Now().Unix(), ttl,
	).Int64Slice()
	if err != nil {
		return nil, fmt.Errorf("rate limit script: %w", err)
	}

	return parseResult(out, l.burst)
}

func parseResult(out []int64, burst int) (*Result, error) {
	if len(out) != 3 {
		return nil, fmt.Errorf("unexpected rate limit reply length %d", len(out))
	}
	return &Result{
		Allowed:    out[0] == 1,
		Limit:      burst,
		Remaining:  out[2],
		RetryAfter: time.Duration(out[1]) * time.Second,
	}, nil
}

// hashIP creates a truncated SHA256 hash of an IP address.
// Raw client addresses never become Redis keys.
func hashIP(ip string) string {
	hash := sha256.Sum256([]byte(ip))
	return hex.EncodeToString(hash[:8]) // 16 hex chars
}
