package repository

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// MemoryRateLimiter keeps a token bucket per user inside the process. The
// bucket refills limit tokens per window and holds at most limit.
type MemoryRateLimiter struct {
	mu       sync.Mutex
	limiters map[int64]*userLimiter
	idleTTL  time.Duration
	now      func() time.Time
}

type userLimiter struct {
	limiter  *rate.Limiter
	limit    int
	window   time.Duration
	lastSeen time.Time
}

func NewMemoryRateLimiter(idleTTL time.Duration) *MemoryRateLimiter {
	if idleTTL <= 0 {
		idleTTL = 10 * time.Minute
	}
	return &MemoryRateLimiter{
		limiters: make(map[int64]*userLimiter),
		idleTTL:  idleTTL,
		now:      time.Now,
	}
}

func (r *MemoryRateLimiter) CheckRateLimit(_ context.Context, userID int64, limit int, window time.Duration) (bool, error) {
	if limit <= 0 || window <= 0 {
		return true, nil
	}
	now := r.now()

	r.mu.Lock()
	defer r.mu.Unlock()

	ul, ok := r.limiters[userID]
	if !ok || ul.limit != limit || ul.window != window {
		every := rate.Every(window / time.Duration(limit))
		ul = &userLimiter{limiter: rate.NewLimiter(every, limit), limit: limit, window: window}
		r.limiters[userID] = ul
	}
	ul.lastSeen = now

	return ul.limiter.AllowN(now, 1), nil
}

// Sweep drops buckets idle for longer than the TTL and reports how many were removed.
func (r *MemoryRateLimiter) Sweep() int {
	now := r.now()

	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for id, ul := range r.limiters {
		if now.Sub(ul.lastSeen) > r.idleTTL {
			delete(r.limiters, id)
			removed++
		}
	}
	return removed
}

// RunSweeper calls Sweep every interval until ctx is done.
func (r *MemoryRateLimiter) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Sweep()
		}
	}
}
