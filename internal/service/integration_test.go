package service

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"shareit/internal/database"
	"shareit/internal/domain"
	"shareit/internal/events"
	"shareit/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupStore(t *testing.T) (*database.DB, *BookingService, *events.EventBus) {
	t.Helper()
	logger := zerolog.New(io.Discard)
	db, err := database.NewDB(filepath.Join(t.TempDir(), "shareit.db"), &logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, db.SeedFixtures(context.Background(),
		[]models.User{*userA, *userB},
		[]models.Item{*itemX},
	))

	bus := events.NewEventBus()
	svc := NewBookingService(db, db, db, SystemClock{}, bus, &logger)
	return db, svc, bus
}

func TestLifecycleScenario(t *testing.T) {
	_, svc, bus := setupStore(t)
	ctx := context.Background()

	var seen []string
	for _, et := range []string{events.EventBookingCreated, events.EventBookingApproved, events.EventBookingRejected} {
		bus.Subscribe(et, func(e *events.Event) error { seen = append(seen, e.Type); return nil })
	}

	now := time.Now()
	created, err := svc.Create(ctx, userB.ID, itemX.ID, now.Add(time.Minute), now.Add(24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, models.StatusWaiting, created.Status)

	approved, err := svc.Decide(ctx, userA.ID, created.ID, true)
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, approved.Status)

	_, err = svc.Decide(ctx, userA.ID, created.ID, true)
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)

	_, err = svc.Create(ctx, userB.ID, itemX.ID, now.Add(24*time.Hour), now.Add(time.Minute))
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)

	_, err = svc.Create(ctx, userA.ID, itemX.ID, now.Add(time.Hour), now.Add(2*time.Hour))
	assert.ErrorIs(t, err, domain.ErrNotFound)

	list, err := svc.ListByOwner(ctx, userA.ID, models.StateFuture, 0, 10)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, created.ID, list[0].ID)

	assert.Equal(t, []string{events.EventBookingCreated, events.EventBookingApproved}, seen)
}

func TestConcurrentDecide(t *testing.T) {
	_, svc, _ := setupStore(t)
	ctx := context.Background()

	now := time.Now()
	created, err := svc.Create(ctx, userB.ID, itemX.ID, now.Add(time.Hour), now.Add(2*time.Hour))
	require.NoError(t, err)

	const numGoroutines = 8
	var wg sync.WaitGroup
	wg.Add(numGoroutines)
	results := make(chan error, numGoroutines)
	for i := 0; i < numGoroutines; i++ {
		go func() {
			defer wg.Done()
			_, err := svc.Decide(ctx, userA.ID, created.ID, true)
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	successes := 0
	for err := range results {
		if err == nil {
			successes++
			continue
		}
		var derr *domain.Error
		require.True(t, errors.As(err, &derr), "unexpected error %v", err)
		assert.ErrorIs(t, err, domain.ErrInvalidRequest)
	}
	assert.Equal(t, 1, successes)

	got, err := svc.GetByID(ctx, created.ID, userB.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, got.Status)
}
