package service

import (
	"context"
	"errors"
	"time"

	"shareit/internal/database"
	"shareit/internal/domain"
	"shareit/internal/events"
	"shareit/internal/metrics"
	"shareit/internal/models"

	"github.com/rs/zerolog"
)

// BookingService owns the booking lifecycle: creation, the owner's single
// decision and the visibility rules for reads.
type BookingService struct {
	repo     domain.BookingRepository
	users    domain.UserDirectory
	items    domain.ItemCatalog
	clock    domain.Clock
	eventBus domain.EventPublisher
	logger   *zerolog.Logger
}

func NewBookingService(
	repo domain.BookingRepository,
	users domain.UserDirectory,
	items domain.ItemCatalog,
	clock domain.Clock,
	eventBus domain.EventPublisher,
	logger *zerolog.Logger,
) *BookingService {
	if clock == nil {
		clock = SystemClock{}
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &BookingService{
		repo:     repo,
		users:    users,
		items:    items,
		clock:    clock,
		eventBus: eventBus,
		logger:   logger,
	}
}

// Create books itemID for requesterID over [start, end]. The checks run in a
// fixed order and the first failure wins.
func (s *BookingService) Create(ctx context.Context, requesterID, itemID int64, start, end time.Time) (*models.BookingView, error) {
	booker, err := s.getUser(ctx, requesterID)
	if err != nil {
		return nil, err
	}

	item, err := s.items.GetItemByID(ctx, itemID)
	if errors.Is(err, database.ErrNotFound) {
		return nil, s.reject(domain.NotFoundf("Item id=%d not found!", itemID), requesterID, 0)
	}
	if err != nil {
		return nil, err
	}

	// Владелец не может бронировать свою вещь, ответ как для отсутствующей
	if item.OwnerID == requesterID {
		return nil, s.reject(domain.NotFoundf("Item id=%d not available for booking", item.ID), requesterID, 0)
	}
	if !item.Available {
		return nil, s.reject(domain.InvalidRequestf("Item id=%d not available for booking", item.ID), requesterID, 0)
	}

	now := s.clock.Now()
	start = start.Truncate(time.Second)
	end = end.Truncate(time.Second)
	switch {
	case start.After(end):
		return nil, s.reject(domain.InvalidRequestf("Start time later than the end time"), requesterID, 0)
	case start.Before(now):
		return nil, s.reject(domain.InvalidRequestf("Start time earlier than the current time"), requesterID, 0)
	case start.Equal(end):
		return nil, s.reject(domain.InvalidRequestf("Start time must be no equal end time"), requesterID, 0)
	}

	booking := &models.Booking{
		Start:  start,
		End:    end,
		Status: models.StatusWaiting,
		Item:   *item,
		Booker: *booker,
	}
	if err := s.repo.CreateBooking(ctx, booking); err != nil {
		return nil, err
	}

	metrics.IncBookingCreated()
	s.publishEvent(events.EventBookingCreated, booking, requesterID)
	s.logger.Info().Int64("booking_id", booking.ID).Int64("item_id", item.ID).Int64("booker_id", booker.ID).Msg("booking created")

	view := models.ToBookingView(booking)
	return &view, nil
}

// Decide records the owner's approval or rejection. An APPROVED booking is
// final; WAITING and REJECTED may move to either terminal status.
func (s *BookingService) Decide(ctx context.Context, callerID, bookingID int64, approve bool) (*models.BookingView, error) {
	booking, err := s.repo.GetBooking(ctx, bookingID)
	if errors.Is(err, database.ErrNotFound) {
		return nil, s.reject(domain.NotFoundf("Booking id=%d not found!", bookingID), callerID, bookingID)
	}
	if err != nil {
		return nil, err
	}

	if !booking.IsOwnedBy(callerID) {
		return nil, s.reject(domain.NotFoundf("User is not the owner of the item"), callerID, bookingID)
	}
	if booking.Status == models.StatusApproved {
		return nil, s.reject(domain.InvalidRequestf("Booking is already approved"), callerID, bookingID)
	}

	status := models.StatusRejected
	if approve {
		status = models.StatusApproved
	}

	err = s.repo.UpdateBookingStatusWithVersion(ctx, booking.ID, booking.Version, status)
	if errors.Is(err, database.ErrConcurrentModification) {
		return nil, s.reject(domain.InvalidRequestf("Booking id=%d was modified concurrently", bookingID), callerID, bookingID)
	}
	if err != nil {
		return nil, err
	}

	booking.Status = status
	booking.Version++

	metrics.IncBookingDecision(status.String())
	eventType := events.EventBookingRejected
	if approve {
		eventType = events.EventBookingApproved
	}
	s.publishEvent(eventType, booking, callerID)
	s.logger.Info().Int64("booking_id", booking.ID).Int64("owner_id", callerID).Str("status", status.String()).Msg("booking decided")

	view := models.ToBookingView(booking)
	return &view, nil
}

// GetByID shows a booking to its booker or the item owner only.
func (s *BookingService) GetByID(ctx context.Context, bookingID, callerID int64) (*models.BookingView, error) {
	booking, err := s.repo.GetBooking(ctx, bookingID)
	if errors.Is(err, database.ErrNotFound) {
		return nil, s.reject(domain.NotFoundf("Booking id=%d not found!", bookingID), callerID, bookingID)
	}
	if err != nil {
		return nil, err
	}
	if !booking.IsVisibleTo(callerID) {
		return nil, s.reject(domain.NotFoundf("Booking not found"), callerID, bookingID)
	}

	view := models.ToBookingView(booking)
	return &view, nil
}

func (s *BookingService) ListByBooker(ctx context.Context, userID int64, state models.State, from, size int) ([]models.BookingView, error) {
	return s.list(ctx, models.ScopeBooker, userID, state, from, size)
}

func (s *BookingService) ListByOwner(ctx context.Context, userID int64, state models.State, from, size int) ([]models.BookingView, error) {
	return s.list(ctx, models.ScopeOwner, userID, state, from, size)
}

func (s *BookingService) list(ctx context.Context, scope models.Scope, userID int64, state models.State, from, size int) ([]models.BookingView, error) {
	if _, err := s.getUser(ctx, userID); err != nil {
		return nil, err
	}

	bookings, err := s.repo.ListBookings(ctx, models.BookingQuery{
		Scope:  scope,
		UserID: userID,
		State:  state,
		Now:    s.clock.Now(),
		Page:   models.Page{Offset: from, Limit: size},
	})
	if err != nil {
		return nil, err
	}
	return models.ToBookingViews(bookings), nil
}

// HasCompletedBooking reports whether userID has finished an approved
// booking of itemID.
func (s *BookingService) HasCompletedBooking(ctx context.Context, userID, itemID int64) (bool, error) {
	return s.repo.HasFinishedApprovedBooking(ctx, userID, itemID, s.clock.Now())
}

func (s *BookingService) getUser(ctx context.Context, userID int64) (*models.User, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if errors.Is(err, database.ErrNotFound) {
		return nil, s.reject(domain.NotFoundf("User id=%d not found!", userID), userID, 0)
	}
	return user, err
}

func (s *BookingService) reject(err error, userID, bookingID int64) error {
	ev := s.logger.Debug().Err(err).Int64("user_id", userID)
	if bookingID != 0 {
		ev = ev.Int64("booking_id", bookingID)
	}
	ev.Msg("booking request rejected")
	return err
}

func (s *BookingService) publishEvent(eventType string, booking *models.Booking, changedByID int64) {
	if s.eventBus == nil {
		return
	}

	payload := events.BookingEventPayload{
		BookingID:   booking.ID,
		BookerID:    booking.Booker.ID,
		ItemID:      booking.Item.ID,
		ItemName:    booking.Item.Name,
		OwnerID:     booking.Item.OwnerID,
		Status:      booking.Status.String(),
		Start:       booking.Start,
		End:         booking.End,
		ChangedByID: changedByID,
	}

	if err := s.eventBus.PublishJSON(eventType, payload); err != nil {
		s.logger.Error().Err(err).Str("event_type", eventType).Int64("booking_id", booking.ID).Msg("publish event error")
	}
}
