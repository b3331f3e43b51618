package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryRateLimiter(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)
	limiter := NewMemoryRateLimiter(time.Minute)
	limiter.now = func() time.Time { return now }

	t.Run("BurstUpToLimit", func(t *testing.T) {
		for i := 0; i < 3; i++ {
			allowed, err := limiter.CheckRateLimit(ctx, 1, 3, 3*time.Second)
			require.NoError(t, err)
			assert.True(t, allowed)
		}
		allowed, err := limiter.CheckRateLimit(ctx, 1, 3, 3*time.Second)
		require.NoError(t, err)
		assert.False(t, allowed)
	})

	t.Run("RefillsOverWindow", func(t *testing.T) {
		now = now.Add(time.Second)
		allowed, _ := limiter.CheckRateLimit(ctx, 1, 3, 3*time.Second)
		assert.True(t, allowed, "one token back after window/limit")
		allowed, _ = limiter.CheckRateLimit(ctx, 1, 3, 3*time.Second)
		assert.False(t, allowed)
	})

	t.Run("UsersAreIndependent", func(t *testing.T) {
		allowed, _ := limiter.CheckRateLimit(ctx, 2, 3, 3*time.Second)
		assert.True(t, allowed)
	})

	t.Run("DisabledWhenLimitNotPositive", func(t *testing.T) {
		allowed, err := limiter.CheckRateLimit(ctx, 9, 0, time.Second)
		require.NoError(t, err)
		assert.True(t, allowed)
	})

	t.Run("SweepDropsIdle", func(t *testing.T) {
		now = now.Add(2 * time.Minute)
		assert.Equal(t, 2, limiter.Sweep())
		assert.Equal(t, 0, limiter.Sweep())
	})
}

func TestMemoryRateLimiterSweeperStops(t *testing.T) {
	limiter := NewMemoryRateLimiter(0)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		limiter.RunSweeper(ctx, time.Millisecond)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop")
	}
}
