package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"shareit/internal/models"
)

func (db *DB) CreateItem(ctx context.Context, item *models.Item) error {
	query := `INSERT INTO items (name, description, is_available, owner_id, request_id, created_at, updated_at)
              VALUES (?, ?, ?, ?, ?, ?, ?)`
	now := time.Now()
	result, err := db.ExecContext(ctx, query,
		item.Name,
		item.Description,
		item.Available,
		item.OwnerID,
		nullableID(item.RequestID),
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("failed to create item: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	item.ID = id
	item.CreatedAt = now
	item.UpdatedAt = now
	return nil
}

const upsertItemQuery = `INSERT INTO items (id, name, description, is_available, owner_id, request_id, created_at, updated_at)
              VALUES (?, ?, ?, ?, ?, ?, ?, ?)
              ON CONFLICT(id) DO UPDATE SET
                name = excluded.name,
                description = excluded.description,
                is_available = excluded.is_available,
                owner_id = excluded.owner_id,
                request_id = excluded.request_id,
                updated_at = excluded.updated_at`

func (db *DB) GetItemByID(ctx context.Context, id int64) (*models.Item, error) {
	var item models.Item
	var requestID sql.NullInt64
	query := `SELECT id, name, description, is_available, owner_id, request_id, created_at, updated_at
              FROM items WHERE id = ?`
	err := db.QueryRowContext(ctx, query, id).Scan(
		&item.ID, &item.Name, &item.Description, &item.Available, &item.OwnerID,
		&requestID, &item.CreatedAt, &item.UpdatedAt,
	)
	if err != nil {
		return nil, notFound(err, "item")
	}
	item.RequestID = idFromNull(requestID)
	return &item, nil
}

func (db *DB) UpdateItemAvailability(ctx context.Context, id int64, available bool) error {
	query := `UPDATE items SET is_available = ?, updated_at = ? WHERE id = ?`
	result, err := db.ExecContext(ctx, query, available, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update item availability: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return ErrNotFound
	}
	return nil
}

// SeedFixtures upserts the configured users first, then their items.
func (db *DB) SeedFixtures(ctx context.Context, users []models.User, items []models.Item) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	now := time.Now()
	for _, u := range users {
		if _, err := tx.ExecContext(ctx, upsertUserQuery, u.ID, u.Name, u.Email, now); err != nil {
			return fmt.Errorf("failed to seed user %d: %w", u.ID, err)
		}
	}
	for _, it := range items {
		_, err := tx.ExecContext(ctx, upsertItemQuery,
			it.ID, it.Name, it.Description, it.Available, it.OwnerID, nullableID(it.RequestID), now, now)
		if err != nil {
			return fmt.Errorf("failed to seed item %d: %w", it.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit fixtures: %w", err)
	}
	db.logger.Info().Int("users", len(users)).Int("items", len(items)).Msg("fixtures seeded")
	return nil
}

func nullableID(id *int64) sql.NullInt64 {
	if id == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *id, Valid: true}
}

func idFromNull(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	id := v.Int64
	return &id
}
