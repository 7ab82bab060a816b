// Package ratelimit throttles checkout requests with a Redis-backed token bucket.
package ratelimit

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/megbaru-hub/teffexpo/internal/logging"
	"github.com/megbaru-hub/teffexpo/internal/models"
	"github.com/redis/go-redis/v9"
)

// RedisClient is the subset of the redis client the limiter needs
type RedisClient interface {
	Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd
}

const tokenBucketScript = `
local key = KEYS[1]
local capacity = tonumber(ARGV[1])
local rate = tonumber(ARGV[2])
local now = tonumber(ARGV[3])
local ttl = tonumber(ARGV[4])

local bucket = redis.call('HMGET', key, 'tokens', 'last_refill')
local tokens = tonumber(bucket[1])
local last = tonumber(bucket[2])
if tokens == nil then
	tokens = capacity
	last = now
end

tokens = math.min(capacity, tokens + ((now - last) / 1000) * rate)

local allowed = 0
if tokens >= 1 then
	tokens = tokens - 1
	allowed = 1
end

redis.call('HSET', key, 'tokens', tokens, 'last_refill', now)
redis.call('EXPIRE', key, ttl)
return allowed
`

// TokenBucket allows Capacity requests in a burst, refilled at Rate tokens per second
type TokenBucket struct {
	client   RedisClient
	Capacity int
	Rate     float64
	Prefix   string
	now      func() time.Time
}

// NewTokenBucket creates a limiter. A nil client disables limiting.
func NewTokenBucket(client RedisClient, capacity int, rate float64) *TokenBucket {
	if capacity < 1 {
		capacity = 1
	}
	if rate <= 0 {
		rate = 1
	}
	return &TokenBucket{client: client, Capacity: capacity, Rate: rate, Prefix: "teff:ratelimit:", now: time.Now}
}

// ttlSeconds keeps idle buckets around long enough to refill completely.
func (b *TokenBucket) ttlSeconds() int {
	ttl := int(float64(b.Capacity)/b.Rate) + 1
	if ttl < 60 {
		ttl = 60
	}
	return ttl
}

// Allow takes a token for key. Redis errors are returned with allowed=true.
func (b *TokenBucket) Allow(ctx context.Context, key string) (bool, error) {
	if b == nil || b.client == nil {
		return true, nil
	}
	result, err := b.client.Eval(ctx, tokenBucketScript, []string{b.Prefix + key},
		b.Capacity, b.Rate, b.now().UnixMilli(), b.ttlSeconds()).Int64()
	if err != nil {
		return true, err
	}
	return result == 1, nil
}

// Middleware rejects callers over their budget with 429. Callers are keyed by client IP.
func (b *TokenBucket) Middleware(scope string) gin.HandlerFunc {
	return func(c *gin.Context) {
		allowed, err := b.Allow(c.Request.Context(), scope+":"+c.ClientIP())
		if err != nil {
			logging.LogKV("warn", "rate limiter unavailable", map[string]interface{}{
				"scope": scope,
				"error": err.Error(),
			})
		}
		if !allowed {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, models.ErrorResponse{
				Error:   "Too many requests",
				Message: "Please wait before placing another order",
			})
			return
		}
		c.Next()
	}
}
