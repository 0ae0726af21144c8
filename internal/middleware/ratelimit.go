package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/farellandr/ticketgate/internal/helpers"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// RateLimiter is a fixed-window per-client limiter backed by redis.
type RateLimiter struct {
	redis  *redis.Client
	limit  int
	window time.Duration
	log    *slog.Logger
}

func NewRateLimiter(client *redis.Client, limit int, window time.Duration, log *slog.Logger) *RateLimiter {
	return &RateLimiter{redis: client, limit: limit, window: window, log: log}
}

func rateLimitKey(scope, clientIP string) string {
	return fmt.Sprintf("ratelimit:%s:%s", scope, clientIP)
}

// Limit counts requests per client IP within scope. A nil limiter, a nil
// redis client or a zero limit disables limiting; redis errors let the
// request through.
func (r *RateLimiter) Limit(scope string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if r == nil || r.redis == nil || r.limit <= 0 {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		key := rateLimitKey(scope, c.ClientIP())

		count, err := r.redis.Incr(ctx, key).Result()
		if err != nil {
			r.log.WarnContext(ctx, "rate limiter unavailable", "scope", scope, "error", err)
			c.Next()
			return
		}
		// NX on every hit restores a TTL lost to a failed or skipped expire.
		if err := r.redis.ExpireNX(ctx, key, r.window).Err(); err != nil {
			r.log.WarnContext(ctx, "rate limiter expire failed", "key", key, "error", err)
		}

		remaining := r.limit - int(count)
		if remaining < 0 {
			remaining = 0
		}
		c.Header("X-RateLimit-Limit", strconv.Itoa(r.limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))

		if int(count) > r.limit {
			c.Header("Retry-After", strconv.Itoa(int(r.window.Seconds())))
			helpers.RespondWithError(c, http.StatusTooManyRequests, "Rate limit exceeded. Please try again later.")
			return
		}
		c.Next()
	}
}
