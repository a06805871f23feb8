package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"camrent/internal/booking"
	"camrent/internal/models"
)

const itemColumns = `id, name, status, created_at, updated_at`

// UpsertItem creates the item as available, or renames it keeping its status.
func (db *DB) UpsertItem(ctx context.Context, id int64, name string) error {
	now := formatTime(time.Now())
	_, err := db.q.ExecContext(ctx, `
		INSERT INTO items (id, name, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name, updated_at = excluded.updated_at`,
		id, name, models.ItemAvailable, now, now,
	)
	if err != nil {
		return fmt.Errorf("upsert item %d: %w", id, err)
	}
	return nil
}

// ListItems returns all items ordered by id.
func (db *DB) ListItems(ctx context.Context) ([]models.Item, error) {
	rows, err := db.q.QueryContext(ctx, `SELECT `+itemColumns+` FROM items ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []models.Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

// GetItem returns the item or nil.
func (db *DB) GetItem(ctx context.Context, id int64) (*models.Item, error) {
	row := db.q.QueryRowContext(ctx, `SELECT `+itemColumns+` FROM items WHERE id = ?`, id)
	item, err := scanItem(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return item, nil
}

// SetItemStatus updates the item status.
func (db *DB) SetItemStatus(ctx context.Context, id int64, status models.ItemStatus) error {
	result, err := db.q.ExecContext(ctx,
		`UPDATE items SET status = ?, updated_at = ? WHERE id = ?`,
		status, formatTime(time.Now()), id,
	)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return booking.ItemNotFound(id)
	}
	return nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanItem(s scanner) (*models.Item, error) {
	var (
		item             models.Item
		status           string
		created, updated string
	)
	if err := s.Scan(&item.ID, &item.Name, &status, &created, &updated); err != nil {
		return nil, err
	}
	item.Status = models.ItemStatus(status)

	var err error
	if item.CreatedAt, err = parseTime(created); err != nil {
		return nil, fmt.Errorf("item %d created_at: %w", item.ID, err)
	}
	if item.UpdatedAt, err = parseTime(updated); err != nil {
		return nil, fmt.Errorf("item %d updated_at: %w", item.ID, err)
	}
	return &item, nil
}
