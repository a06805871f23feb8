package postgres

import (
	"context"
	"errors"
	"fmt"

	"camrent/internal/booking"
	"camrent/internal/models"
	"github.com/jackc/pgx/v5"
)

func (db *DB) UpsertItem(ctx context.Context, id int64, name string) error {
	const q = `
		INSERT INTO items (id, name, status)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, updated_at = now()`
	if _, err := db.q.Exec(ctx, q, id, name, string(models.ItemAvailable)); err != nil {
		return fmt.Errorf("upsert item %d: %w", id, err)
	}
	return nil
}

func (db *DB) ListItems(ctx context.Context) ([]models.Item, error) {
	const q = `SELECT id, name, status, created_at, updated_at FROM items ORDER BY id`
	rows, err := db.q.Query(ctx, q)
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

func (db *DB) GetItem(ctx context.Context, id int64) (*models.Item, error) {
	const q = `SELECT id, name, status, created_at, updated_at FROM items WHERE id = $1`
	item, err := scanItem(db.q.QueryRow(ctx, q, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return item, nil
}

func (db *DB) SetItemStatus(ctx context.Context, id int64, status models.ItemStatus) error {
	const q = `UPDATE items SET status = $2, updated_at = now() WHERE id = $1`
	tag, err := db.q.Exec(ctx, q, id, string(status))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return booking.ItemNotFound(id)
	}
	return nil
}

func scanItem(row pgx.Row) (*models.Item, error) {
	var (
		item   models.Item
		status string
	)
	if err := row.Scan(&item.ID, &item.Name, &status, &item.CreatedAt, &item.UpdatedAt); err != nil {
		return nil, err
	}
	item.Status = models.ItemStatus(status)
	return &item, nil
}
