package service

import (
	"context"
	"errors"

	"shareit/internal/database"
	"shareit/internal/domain"
	"shareit/internal/models"
)

// ItemProjector attaches last/next booking summaries to items. Nothing is
// cached; every call reads the store against a fresh now.
type ItemProjector struct {
	repo  domain.BookingRepository
	items domain.ItemCatalog
	clock domain.Clock
}

func NewItemProjector(repo domain.BookingRepository, items domain.ItemCatalog, clock domain.Clock) *ItemProjector {
	if clock == nil {
		clock = SystemClock{}
	}
	return &ItemProjector{repo: repo, items: items, clock: clock}
}

// LastBookingFor returns the booking with the latest start before now.
// Rejected bookings are not excluded.
func (p *ItemProjector) LastBookingFor(ctx context.Context, itemID int64) (*models.BookingInfo, error) {
	b, err := p.repo.GetLastBooking(ctx, itemID, p.clock.Now())
	if err != nil {
		return nil, err
	}
	return models.ToBookingInfo(b), nil
}

// NextBookingFor returns the earliest non-rejected booking starting after now.
func (p *ItemProjector) NextBookingFor(ctx context.Context, itemID int64) (*models.BookingInfo, error) {
	b, err := p.repo.GetNextBooking(ctx, itemID, p.clock.Now())
	if err != nil {
		return nil, err
	}
	return models.ToBookingInfo(b), nil
}

// ItemDetails renders an item. Only the owner sees its last and next bookings.
func (p *ItemProjector) ItemDetails(ctx context.Context, callerID, itemID int64) (*models.ItemView, error) {
	item, err := p.items.GetItemByID(ctx, itemID)
	if errors.Is(err, database.ErrNotFound) {
		return nil, domain.NotFoundf("Item id=%d not found!", itemID)
	}
	if err != nil {
		return nil, err
	}

	view := models.ToItemView(*item)
	if item.OwnerID != callerID {
		return &view, nil
	}

	now := p.clock.Now()
	last, err := p.repo.GetLastBooking(ctx, itemID, now)
	if err != nil {
		return nil, err
	}
	next, err := p.repo.GetNextBooking(ctx, itemID, now)
	if err != nil {
		return nil, err
	}
	view.LastBooking = models.ToBookingInfo(last)
	view.NextBooking = models.ToBookingInfo(next)
	return &view, nil
}
