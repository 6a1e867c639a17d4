package middlewares

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

const rateWindow = 24 * time.Hour

// RateCounter is the subset of the Redis client the limiter needs.
type RateCounter interface {
	Incr(ctx context.Context, key string) *redis.IntCmd
	Decr(ctx context.Context, key string) *redis.IntCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
	TTL(ctx context.Context, key string) *redis.DurationCmd
}

// IssueRateLimiter caps issue submissions per user per day. The window
// opens with the user's first submission. A submission the handler rejects
// with a 4xx is refunded and does not count.
func IssueRateLimiter(counter RateCounter, queuePrefix string, limit int, log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetString(userIDKey)
		if userID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
			return
		}

		ctx := c.Request.Context()
		userKey := queuePrefix + ":" + userID

		count, err := counter.Incr(ctx, userKey).Result()
		if err != nil {
			log.ErrorContext(ctx, "rate limiter increment", "key", userKey, "error", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Something went wrong"})
			return
		}
		if count == 1 {
			if err := counter.Expire(ctx, userKey, rateWindow).Err(); err != nil {
				log.ErrorContext(ctx, "rate limiter ttl", "key", userKey, "error", err)
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Something went wrong"})
				return
			}
		}

		if count > int64(limit) {
			retryAfter, _ := counter.TTL(ctx, userKey).Result()
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       "rate limit exceeded",
				"retry_after": retryAfter.Seconds(),
			})
			return
		}

		c.Next()

		if status := c.Writer.Status(); status >= 400 && status < 500 {
			if err := counter.Decr(ctx, userKey).Err(); err != nil {
				log.WarnContext(ctx, "rate limiter refund", "key", userKey, "status", status, "error", err)
			}
		}
	}
}
