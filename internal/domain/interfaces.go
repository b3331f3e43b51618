package domain

import (
	"context"
	"time"

	"shareit/internal/models"
)

// Clock supplies the current instant. Implementations truncate to seconds.
type Clock interface {
	Now() time.Time
}

type UserDirectory interface {
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
}

type ItemCatalog interface {
	GetItemByID(ctx context.Context, id int64) (*models.Item, error)
}

type BookingRepository interface {
	CreateBooking(ctx context.Context, booking *models.Booking) error
	GetBooking(ctx context.Context, id int64) (*models.Booking, error)
	UpdateBookingStatusWithVersion(ctx context.Context, id int64, version int64, status models.Status) error
	ListBookings(ctx context.Context, query models.BookingQuery) ([]*models.Booking, error)
	GetLastBooking(ctx context.Context, itemID int64, now time.Time) (*models.Booking, error)
	GetNextBooking(ctx context.Context, itemID int64, now time.Time) (*models.Booking, error)
	HasFinishedApprovedBooking(ctx context.Context, bookerID, itemID int64, now time.Time) (bool, error)
}

type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

type RateLimiter interface {
	CheckRateLimit(ctx context.Context, userID int64, limit int, window time.Duration) (bool, error)
}
