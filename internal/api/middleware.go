package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jonesrussell/north-cloud/tariff-classifier/internal/processor"
	"github.com/jonesrussell/north-cloud/tariff-classifier/internal/telemetry"
)

// RateLimitMiddleware rejects requests with 429 once limiter is exhausted.
func RateLimitMiddleware(limiter *processor.RateLimiter, tp *telemetry.Provider) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !limiter.Allow() {
			if tp != nil {
				tp.IncrementThrottleCount()
			}
			c.Header("Retry-After", "1")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}
		c.Next()
	}
}
