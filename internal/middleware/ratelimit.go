package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// newTimeoutContext derives the per-request context used by RequestTimeout.
func newTimeoutContext(c *gin.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(c.Request.Context())
	}
	return context.WithTimeout(c.Request.Context(), timeout)
}

// RateLimit applies a process-wide token bucket to inbound requests. The
// generation backend enforces its own quotas; throttling here keeps a
// misbehaving LIS client from exhausting them.
func RateLimit(perSecond, burst int) gin.HandlerFunc {
	if perSecond <= 0 {
		perSecond = 20
	}
	if burst <= 0 {
		burst = perSecond
	}
	limiter := rate.NewLimiter(rate.Limit(perSecond), burst)

	return func(c *gin.Context) {
		if !limiter.Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":          "rate limit exceeded",
				"correlation_id": c.GetString("correlation_id"),
			})
			return
		}
		c.Next()
	}
}
