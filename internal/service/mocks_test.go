package service

import (
	"context"
	"time"

	"shareit/internal/models"

	"github.com/stretchr/testify/mock"
)

type mockRepo struct {
	mock.Mock
}

func (m *mockRepo) CreateBooking(ctx context.Context, b *models.Booking) error {
	return m.Called(ctx, b).Error(0)
}
func (m *mockRepo) GetBooking(ctx context.Context, id int64) (*models.Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Booking), args.Error(1)
}
func (m *mockRepo) UpdateBookingStatusWithVersion(ctx context.Context, id, v int64, s models.Status) error {
	return m.Called(ctx, id, v, s).Error(0)
}
func (m *mockRepo) ListBookings(ctx context.Context, q models.BookingQuery) ([]*models.Booking, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Booking), args.Error(1)
}
func (m *mockRepo) GetLastBooking(ctx context.Context, itemID int64, now time.Time) (*models.Booking, error) {
	args := m.Called(ctx, itemID, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Booking), args.Error(1)
}
func (m *mockRepo) GetNextBooking(ctx context.Context, itemID int64, now time.Time) (*models.Booking, error) {
	args := m.Called(ctx, itemID, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Booking), args.Error(1)
}
func (m *mockRepo) HasFinishedApprovedBooking(ctx context.Context, bookerID, itemID int64, now time.Time) (bool, error) {
	args := m.Called(ctx, bookerID, itemID, now)
	return args.Bool(0), args.Error(1)
}

type mockDirectory struct {
	mock.Mock
}

func (m *mockDirectory) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}
func (m *mockDirectory) GetItemByID(ctx context.Context, id int64) (*models.Item, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Item), args.Error(1)
}

type mockEventBus struct {
	mock.Mock
}

func (m *mockEventBus) PublishJSON(et string, p interface{}) error { return m.Called(et, p).Error(0) }
