package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"contacts/internal/pkg/response"
	"contacts/internal/ratelimit"

	"github.com/gin-gonic/gin"
)

// RateLimit counts requests per client IP. When the counter store is down
// requests are rejected rather than let through.
func RateLimit(limiter *ratelimit.Limiter) gin.HandlerFunc {
	retryAfter := strconv.Itoa(int(limiter.Window().Seconds()))

	return func(c *gin.Context) {
		err := limiter.Allow(c.Request.Context(), c.ClientIP())
		switch {
		case err == nil:
			c.Next()
			return
		case errors.Is(err, ratelimit.ErrTooManyRequests):
			c.Header("Retry-After", retryAfter)
			response.Error(c, http.StatusTooManyRequests, "TOO_MANY_REQUESTS", "Too many requests, please try again later")
		default:
			_ = c.Error(fmt.Errorf("rate limit: %w", err))
			response.Error(c, http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "Service temporarily unavailable")
		}
		c.Abort()
	}
}
