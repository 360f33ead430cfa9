package security

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"flight-system/monitoring"

	"github.com/pocketbase/pocketbase/core"
	"github.com/redis/go-redis/v9"
)

// RateLimiter bounds per-client request volume with a fixed window counter
// in Redis. It fails open: if Redis is unreachable the request proceeds,
// because autocomplete availability matters more than the limit.
type RateLimiter struct {
	redis  *redis.Client
	limit  int
	window time.Duration
}

func NewRateLimiter(redisClient *redis.Client, limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		redis:  redisClient,
		limit:  limit,
		window: window,
	}
}

// allow increments the client's window counter and reports whether the
// request is within the limit.
func (r *RateLimiter) allow(ctx context.Context, route, clientID string) (bool, error) {
	key := fmt.Sprintf("ratelimit:%s:%s", route, clientID)

	count, err := r.redis.Incr(ctx, key).Result()
	if err != nil {
		return true, err
	}

	if count == 1 {
		r.redis.Expire(ctx, key, r.window)
	}

	return count <= int64(r.limit), nil
}

// Limit is a route middleware; authenticated clients are limited per user,
// anonymous ones per IP.
func (r *RateLimiter) Limit(route string) func(e *core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		clientID := e.RealIP()
		if e.Auth != nil {
			clientID = "user:" + e.Auth.Id
		}

		ok, err := r.allow(e.Request.Context(), route, clientID)
		if err != nil {
			// Redis down, fail open.
			return e.Next()
		}

		if !ok {
			monitoring.TrackRateLimited(route)
			return e.JSON(http.StatusTooManyRequests, map[string]string{
				"error": "Rate limit exceeded. Please try again later.",
			})
		}

		return e.Next()
	}
}

// AntiBot rejects obvious scripted clients before they reach the store.
func AntiBot() func(e *core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		userAgent := e.Request.Header.Get("User-Agent")
		if isSuspiciousUserAgent(userAgent) {
			return e.JSON(http.StatusForbidden, map[string]string{
				"error": "Access denied",
			})
		}
		return e.Next()
	}
}

func isSuspiciousUserAgent(ua string) bool {
	suspicious := []string{"bot", "crawler", "spider", "scraper"}
	for _, pattern := range suspicious {
		if strings.Contains(strings.ToLower(ua), pattern) {
			return true
		}
	}
	return false
}
