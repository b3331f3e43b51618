package repository

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// RetryPolicy defines exponential backoff parameters.
type RetryPolicy struct {
	MaxAttempts   int
	InitialDelay  time.Duration
	MaxDelay      time.Duration
	BackoffFactor float64
}

// NextDelay returns delay for a given attempt (1-based) with clamping.
func (r RetryPolicy) NextDelay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	initial := r.InitialDelay
	if initial <= 0 {
		initial = time.Second
	}
	factor := r.BackoffFactor
	if factor <= 0 {
		factor = 2
	}

	d := time.Duration(float64(initial) * math.Pow(factor, float64(attempt-1)))
	if r.MaxDelay > 0 && d > r.MaxDelay {
		d = r.MaxDelay
	}
	if d <= 0 {
		d = initial
	}
	return d
}

// PingWithRetry pings Redis until it answers, the attempts run out or ctx ends.
func PingWithRetry(ctx context.Context, client *redis.Client, policy RetryPolicy, logger *zerolog.Logger) error {
	attempts := policy.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err = Ping(ctx, client); err == nil {
			return nil
		}
		if attempt == attempts {
			break
		}

		delay := policy.NextDelay(attempt)
		logger.Warn().Err(err).Int("attempt", attempt).Dur("retry_in", delay).Msg("redis ping failed")
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
	return fmt.Errorf("redis unavailable after %d attempts: %w", attempts, err)
}
