package processor

import (
	"context"

	"golang.org/x/time/rate"

	infralogger "github.com/jonesrussell/north-cloud/tariff-classifier/internal/infrastructure/logger"
)

// DefaultRPS is used when no positive rate is configured.
const DefaultRPS = 100

// RateLimiter provides rate limiting for operations
type RateLimiter struct {
	limiter *rate.Limiter
	logger  infralogger.Logger
}

// NewRateLimiter creates a new rate limiter
// rps: requests per second
// burst: maximum burst size
func NewRateLimiter(rps, burst int, logger infralogger.Logger) *RateLimiter {
	if rps <= 0 {
		rps = DefaultRPS
	}
	if burst <= 0 {
		burst = rps
	}
	if logger == nil {
		logger = infralogger.NewNop()
	}

	return &RateLimiter{
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
		logger:  logger,
	}
}

// Wait waits until rate limit allows the operation
func (r *RateLimiter) Wait(ctx context.Context) error {
	if err := r.limiter.Wait(ctx); err != nil {
		r.logger.Warn("Rate limiter wait failed", infralogger.Error(err))
		return err
	}
	return nil
}

// Allow checks if an operation is allowed without waiting
func (r *RateLimiter) Allow() bool {
	return r.limiter.Allow()
}
