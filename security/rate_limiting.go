package security

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"
	"github.com/redis/go-redis/v9"
)

type RateLimiter struct {
	redis *redis.Client
	limit int64
}

func NewRateLimiter(redisClient *redis.Client, perMinute int64) *RateLimiter {
	return &RateLimiter{
		redis: redisClient,
		limit: perMinute,
	}
}

// Middleware applies a per-IP sliding minute window backed by Redis and a
// basic scraper filter. A Redis outage fails open: limiting is protection,
// not a dependency the API may die on.
func (r *RateLimiter) Middleware() func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		if r.isSuspiciousUserAgent(e.Request.Header.Get("User-Agent")) {
			return apis.NewForbiddenError("Access denied", nil)
		}

		ip := e.RealIP()
		key := fmt.Sprintf("ratelimit:%s", ip)

		count, err := r.redis.Incr(e.Request.Context(), key).Result()
		if err == nil {
			if count == 1 {
				r.redis.Expire(e.Request.Context(), key, time.Minute)
			}
			if count > r.limit {
				return apis.NewApiError(http.StatusTooManyRequests, "Too many requests", nil)
			}
		}

		return e.Next()
	}
}

func (r *RateLimiter) isSuspiciousUserAgent(ua string) bool {
	suspicious := []string{"bot", "crawler", "spider", "scraper"}
	for _, pattern := range suspicious {
		if strings.Contains(strings.ToLower(ua), pattern) {
			return true
		}
	}
	return false
}
