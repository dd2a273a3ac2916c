package middlewares

import (
	"net/http"
	"time"

	"civicresolve-be/models"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// ReportWindow is the rolling window of the per-account report limit.
const ReportWindow = 24 * time.Hour

// IssueRateLimiter caps reports per account per window. It must run after
// RequireCitizen. A nil client disables the limit.
func IssueRateLimiter(client *redis.Client, queuePrefix string, limit int) gin.HandlerFunc {
	return func(c *gin.Context) {
		if client == nil {
			c.Next()
			return
		}

		session, ok := CitizenFrom(c)
		if !ok || session.AccountID == "" {
			AbortWithError(c, models.NewUnauthorizedError("User not authenticated"))
			return
		}

		ctx := c.Request.Context()
		// Create individual key for each user
		userKey := queuePrefix + ":" + session.AccountID

		count, err := client.Incr(ctx, userKey).Result()
		if err != nil {
			AbortWithError(c, models.NewInternalError("redis error incrementing count", err))
			return
		}

		// Set TTL only for the first increment (when count = 1)
		if count == 1 {
			if err := client.Expire(ctx, userKey, ReportWindow).Err(); err != nil {
				AbortWithError(c, models.NewInternalError("redis error setting TTL", err))
				return
			}
		}

		if count > int64(limit) {
			retryAfter, _ := client.TTL(ctx, userKey).Result()
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       "rate limit exceeded",
				"type":        models.ErrorTypeRateLimited,
				"retry_after": retryAfter.Seconds(),
			})
			return
		}

		c.Next()
	}
}
