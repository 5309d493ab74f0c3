package api

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
)

// redisTokenBucketScript handles the token bucket algorithm atomically in Redis.
// KEYS[1] = bucket key (e.g. "seal_limit:10.0.0.1")
// ARGV[1] = refill rate (tokens per second)
// ARGV[2] = capacity (max tokens)
// ARGV[3] = cost (tokens to consume)
// ARGV[4] = current unix timestamp (seconds)
var redisTokenBucketScript = redis.NewScript(`
local key = KEYS[1]
local rate = tonumber(ARGV[1])
local capacity = tonumber(ARGV[2])
local cost = tonumber(ARGV[3])
local now = tonumber(ARGV[4])

local state = redis.call("HMGET", key, "tokens", "last_refill")
local tokens = tonumber(state[1])
local last_refill = tonumber(state[2])

if not tokens or not last_refill then
    tokens = capacity
    last_refill = now
end

local elapsed = now - last_refill
if elapsed > 0 then
    local added = elapsed * rate
    tokens = tokens + added
    if tokens > capacity then
        tokens = capacity
    end
    last_refill = now
end

local allowed = 0
if tokens >= cost then
    tokens = tokens - cost
    allowed = 1
end

redis.call("HMSET", key, "tokens", tokens, "last_refill", last_refill)
redis.call("EXPIRE", key, math.ceil(capacity / rate) * 2)

return allowed
`)

// RedisRateLimiter throttles the seal path across process replicas using a
// shared Redis token bucket.
type RedisRateLimiter struct {
	client   *redis.Client
	rate     float64
	capacity int
}

// NewRedisRateLimiter creates a limiter backed by the given Redis address.
func NewRedisRateLimiter(addr string, rps, burst int) *RedisRateLimiter {
	return &RedisRateLimiter{
		client:   redis.NewClient(&redis.Options{Addr: addr}),
		rate:     float64(rps),
		capacity: burst,
	}
}

// Allow consumes one token for the caller key. Fails open on Redis errors:
// losing throttling is preferable to refusing sealed submissions.
func (l *RedisRateLimiter) Allow(ctx context.Context, key string) bool {
	res, err := redisTokenBucketScript.Run(ctx, l.client,
		[]string{fmt.Sprintf("seal_limit:%s", key)},
		l.rate, l.capacity, 1, time.Now().Unix(),
	).Int()
	if err != nil {
		return true
	}
	return res == 1
}

// Middleware applies the shared limiter per client IP.
func (l *RedisRateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			ip = r.RemoteAddr
		}
		if !l.Allow(r.Context(), ip) {
			WriteError(w, r, http.StatusTooManyRequests, "Rate Limit Exceeded", "too many requests from this address")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Close releases the Redis connection.
func (l *RedisRateLimiter) Close() error {
	return l.client.Close()
}
