package repository

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"shareit/internal/domain"

	"github.com/rs/zerolog"
)

// FailoverRateLimiter asks the primary limiter and switches to the fallback
// when the primary errors. The primary is retried once the recovery interval
// has passed.
type FailoverRateLimiter struct {
	primary  domain.RateLimiter
	fallback domain.RateLimiter
	logger   *zerolog.Logger
	recovery time.Duration

	isDown    atomic.Bool
	mu        sync.Mutex
	lastCheck time.Time
}

func NewFailoverRateLimiter(primary, fallback domain.RateLimiter, logger *zerolog.Logger) *FailoverRateLimiter {
	return &FailoverRateLimiter{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
		recovery: time.Minute,
	}
}

func (r *FailoverRateLimiter) CheckRateLimit(ctx context.Context, userID int64, limit int, window time.Duration) (bool, error) {
	if !r.isDown.Load() || r.shouldRetryPrimary() {
		allowed, err := r.primary.CheckRateLimit(ctx, userID, limit, window)
		if err == nil {
			if r.isDown.CompareAndSwap(true, false) {
				r.logger.Info().Msg("primary rate limiter recovered")
			}
			return allowed, nil
		}
		if !r.isDown.Swap(true) {
			r.logger.Error().Err(err).Msg("primary rate limiter failed, falling back to memory")
		}
		r.markChecked()
	}

	return r.fallback.CheckRateLimit(ctx, userID, limit, window)
}

func (r *FailoverRateLimiter) shouldRetryPrimary() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if time.Since(r.lastCheck) <= r.recovery {
		return false
	}
	r.lastCheck = time.Now()
	return true
}

func (r *FailoverRateLimiter) markChecked() {
	r.mu.Lock()
	r.lastCheck = time.Now()
	r.mu.Unlock()
}
