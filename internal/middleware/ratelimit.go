package middleware

import (
	"math"
	"strconv"

	"task-tracker/backend/internal/apperrors"
	"task-tracker/backend/internal/logger"
	"task-tracker/backend/internal/ratelimit"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RateLimit rejects a client once the limiter denies its address. Requests
// pass through when the limiter itself fails.
func RateLimit(limiter ratelimit.Limiter, scope string, log *zap.Logger, exposeCause bool) gin.HandlerFunc {
	if log == nil {
		log = zap.NewNop()
	}

	return func(c *gin.Context) {
		key := scope + ":" + c.ClientIP()

		decision, err := limiter.Allow(c.Request.Context(), key)
		if err != nil {
			logger.WithRequestID(c.Request.Context(), log).Warn("rate limiter unavailable",
				zap.String("scope", scope),
				zap.Error(err),
			)
			c.Next()
			return
		}

		c.Header("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))
		if !decision.Allowed {
			retry := int(math.Ceil(decision.RetryAfter.Seconds()))
			if retry < 1 {
				retry = 1
			}
			c.Header("Retry-After", strconv.Itoa(retry))

			logger.WithRequestID(c.Request.Context(), log).Info("rate limit exceeded",
				zap.String("scope", scope),
				zap.String("client_ip", c.ClientIP()),
			)
			apperrors.Respond(c, apperrors.TooManyRequests("Too many attempts, please try again later"), exposeCause)
			return
		}

		c.Next()
	}
}
