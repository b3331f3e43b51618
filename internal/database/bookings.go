package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"shareit/internal/models"
)

const selectBookings = `SELECT b.id, b.start_date, b.end_date, b.status, b.version, b.created_at, b.updated_at,
                 i.id, i.name, i.description, i.is_available, i.owner_id, i.request_id,
                 u.id, u.name, u.email
              FROM bookings b
              JOIN items i ON i.id = b.item_id
              JOIN users u ON u.id = b.booker_id`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBooking(row rowScanner) (*models.Booking, error) {
	var (
		b          models.Booking
		start, end string
		status     string
		requestID  sql.NullInt64
	)
	err := row.Scan(
		&b.ID, &start, &end, &status, &b.Version, &b.CreatedAt, &b.UpdatedAt,
		&b.Item.ID, &b.Item.Name, &b.Item.Description, &b.Item.Available, &b.Item.OwnerID, &requestID,
		&b.Booker.ID, &b.Booker.Name, &b.Booker.Email,
	)
	if err != nil {
		return nil, err
	}

	if b.Start, err = models.ParseDateTime(start); err != nil {
		return nil, fmt.Errorf("failed to parse booking %d start: %w", b.ID, err)
	}
	if b.End, err = models.ParseDateTime(end); err != nil {
		return nil, fmt.Errorf("failed to parse booking %d end: %w", b.ID, err)
	}
	var ok bool
	if b.Status, ok = models.ParseStatus(status); !ok {
		return nil, fmt.Errorf("booking %d has unknown status %q", b.ID, status)
	}
	b.Item.RequestID = idFromNull(requestID)
	return &b, nil
}

func (db *DB) CreateBooking(ctx context.Context, booking *models.Booking) error {
	query := `INSERT INTO bookings (
				start_date, end_date, item_id, booker_id, status, created_at, updated_at, version
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	now := time.Now()
	result, err := db.ExecContext(ctx, query,
		models.FormatDateTime(booking.Start),
		models.FormatDateTime(booking.End),
		booking.Item.ID,
		booking.Booker.ID,
		string(booking.Status),
		now,
		now,
		1,
	)
	if err != nil {
		return fmt.Errorf("failed to create booking: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	booking.ID = id
	booking.CreatedAt = now
	booking.UpdatedAt = now
	booking.Version = 1

	return nil
}

func (db *DB) GetBooking(ctx context.Context, id int64) (*models.Booking, error) {
	row := db.QueryRowContext(ctx, selectBookings+` WHERE b.id = ?`, id)
	booking, err := scanBooking(row)
	if err != nil {
		return nil, notFound(err, "booking")
	}
	return booking, nil
}

// UpdateBookingStatusWithVersion sets the status only if the row still holds
// fromVersion. A stale version yields ErrConcurrentModification.
func (db *DB) UpdateBookingStatusWithVersion(ctx context.Context, id, fromVersion int64, status models.Status) error {
	query := `UPDATE bookings SET status = ?, version = version + 1, updated_at = ? WHERE id = ? AND version = ?`
	result, err := db.ExecContext(ctx, query, string(status), time.Now(), id, fromVersion)
	if err != nil {
		return fmt.Errorf("failed to update booking status: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if rows == 0 {
		return ErrConcurrentModification
	}
	return nil
}

// ListBookings returns one page of the booker's or owner's bookings matching
// the state filter, newest start first.
func (db *DB) ListBookings(ctx context.Context, q models.BookingQuery) ([]*models.Booking, error) {
	var scope string
	switch q.Scope {
	case models.ScopeBooker:
		scope = "b.booker_id = ?"
	case models.ScopeOwner:
		scope = "i.owner_id = ?"
	default:
		return nil, fmt.Errorf("unknown booking scope %d", q.Scope)
	}

	cond, condArgs, err := stateCondition(q.State, q.Now)
	if err != nil {
		return nil, err
	}

	where := []string{scope}
	args := []any{q.UserID}
	if cond != "" {
		where = append(where, cond)
		args = append(args, condArgs...)
	}

	limit, offset := q.Page.Limit, q.Page.Offset
	if limit <= 0 {
		limit = -1
	}
	if offset < 0 {
		offset = 0
	}
	args = append(args, limit, offset)

	query := selectBookings + ` WHERE ` + strings.Join(where, " AND ") +
		` ORDER BY b.start_date DESC, b.id DESC LIMIT ? OFFSET ?`
	return db.queryBookings(ctx, query, args...)
}

// stateCondition is the total mapping from a State to its filter. CURRENT is
// inclusive of both window bounds.
func stateCondition(state models.State, now time.Time) (string, []any, error) {
	ts := models.FormatDateTime(now)
	switch state {
	case models.StateAll:
		return "", nil, nil
	case models.StateCurrent:
		return "b.start_date <= ? AND b.end_date >= ?", []any{ts, ts}, nil
	case models.StatePast:
		return "b.end_date < ?", []any{ts}, nil
	case models.StateFuture:
		return "b.start_date > ?", []any{ts}, nil
	case models.StateWaiting:
		return "b.status = ? AND b.start_date > ?", []any{string(models.StatusWaiting), ts}, nil
	case models.StateRejected:
		return "b.status = ?", []any{string(models.StatusRejected)}, nil
	default:
		return "", nil, fmt.Errorf("unknown booking state %d", state)
	}
}

// GetLastBooking returns the item's booking with the latest start before now,
// or nil when there is none.
func (db *DB) GetLastBooking(ctx context.Context, itemID int64, now time.Time) (*models.Booking, error) {
	query := selectBookings + ` WHERE b.item_id = ? AND b.start_date < ?
              ORDER BY b.start_date DESC, b.end_date DESC, b.id DESC LIMIT 1`
	return db.queryOptionalBooking(ctx, query, itemID, models.FormatDateTime(now))
}

// GetNextBooking returns the item's earliest non-rejected booking starting
// after now, or nil when there is none.
func (db *DB) GetNextBooking(ctx context.Context, itemID int64, now time.Time) (*models.Booking, error) {
	query := selectBookings + ` WHERE b.item_id = ? AND b.start_date > ? AND b.status != ?
              ORDER BY b.start_date ASC, b.id ASC LIMIT 1`
	return db.queryOptionalBooking(ctx, query, itemID, models.FormatDateTime(now), string(models.StatusRejected))
}

// HasFinishedApprovedBooking reports whether the booker has an approved
// booking of the item that ended before now.
func (db *DB) HasFinishedApprovedBooking(ctx context.Context, bookerID, itemID int64, now time.Time) (bool, error) {
	query := `SELECT EXISTS (
                SELECT 1 FROM bookings
                WHERE booker_id = ? AND item_id = ? AND status = ? AND end_date < ?
              )`
	var exists bool
	err := db.QueryRowContext(ctx, query, bookerID, itemID, string(models.StatusApproved), models.FormatDateTime(now)).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check finished bookings: %w", err)
	}
	return exists, nil
}

func (db *DB) queryOptionalBooking(ctx context.Context, query string, args ...any) (*models.Booking, error) {
	booking, err := scanBooking(db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	return booking, nil
}

func (db *DB) queryBookings(ctx context.Context, query string, args ...any) ([]*models.Booking, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	defer rows.Close()

	bookings := make([]*models.Booking, 0)
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan booking: %w", err)
		}
		bookings = append(bookings, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate bookings: %w", err)
	}
	return bookings, nil
}
