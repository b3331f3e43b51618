package database

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"shareit/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConcurrentStatusUpdate(t *testing.T) {
	logger := zerolog.New(zerolog.NewConsoleWriter())
	dbPath := filepath.Join(t.TempDir(), "concurrency.db")
	db, err := NewDB(dbPath, &logger)
	require.NoError(t, err)
	defer db.Close()

	f := seedFixture(t, db)
	b := insertBooking(t, db, f, time.Now().Add(time.Hour), time.Now().Add(2*time.Hour), models.StatusWaiting)

	ctx := context.Background()
	const numGoroutines = 10
	var wg sync.WaitGroup
	wg.Add(numGoroutines)

	results := make(chan error, numGoroutines)
	for i := 0; i < numGoroutines; i++ {
		go func(id int) {
			defer wg.Done()
			status := models.StatusApproved
			if id%2 == 1 {
				status = models.StatusRejected
			}
			results <- db.UpdateBookingStatusWithVersion(ctx, b.ID, b.Version, status)
		}(i)
	}

	wg.Wait()
	close(results)

	successCount := 0
	for err := range results {
		if err == nil {
			successCount++
			continue
		}
		assert.ErrorIs(t, err, ErrConcurrentModification)
	}
	assert.Equal(t, 1, successCount, "only one writer may move the booking off its version")

	got, err := db.GetBooking(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), got.Version)
	assert.NotEqual(t, models.StatusWaiting, got.Status)
}
