package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"camrent/internal/booking"
	"camrent/internal/models"
)

const bookingSelect = `
	SELECT b.id, b.item_id, i.name, b.customer_name, b.start_at, b.end_at,
		b.start_offset, b.end_offset, b.total_price, b.status, b.created_at, b.updated_at
	FROM bookings b
	LEFT JOIN items i ON i.id = b.item_id`

// ListBookings returns all bookings ordered by start.
func (db *DB) ListBookings(ctx context.Context) ([]models.Booking, error) {
	return db.queryBookings(ctx, bookingSelect+` ORDER BY b.start_at, b.id`)
}

// ListItemBookings returns the bookings of one item ordered by start.
func (db *DB) ListItemBookings(ctx context.Context, itemID int64) ([]models.Booking, error) {
	return db.queryBookings(ctx, bookingSelect+` WHERE b.item_id = ? ORDER BY b.start_at, b.id`, itemID)
}

// GetBooking returns the booking or nil.
func (db *DB) GetBooking(ctx context.Context, id int64) (*models.Booking, error) {
	row := db.q.QueryRowContext(ctx, bookingSelect+` WHERE b.id = ?`, id)
	b, err := scanBooking(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return b, nil
}

// InsertBooking stores a new booking and returns its id.
func (db *DB) InsertBooking(ctx context.Context, fields models.BookingFields, status models.BookingStatus) (int64, error) {
	now := formatTime(time.Now())
	result, err := db.q.ExecContext(ctx, `
		INSERT INTO bookings (item_id, customer_name, start_at, end_at, start_offset, end_offset,
			total_price, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		nullableID(fields.ItemID), fields.CustomerName,
		formatTime(fields.Start), formatTime(fields.End),
		models.ZoneOffset(fields.Start), models.ZoneOffset(fields.End),
		fields.Price, status, now, now,
	)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

// UpdateBooking overwrites the mutable fields.
func (db *DB) UpdateBooking(ctx context.Context, id int64, fields models.BookingFields) error {
	result, err := db.q.ExecContext(ctx, `
		UPDATE bookings
		SET item_id = ?, customer_name = ?, start_at = ?, end_at = ?, start_offset = ?, end_offset = ?,
			total_price = ?, updated_at = ?
		WHERE id = ?`,
		nullableID(fields.ItemID), fields.CustomerName,
		formatTime(fields.Start), formatTime(fields.End),
		models.ZoneOffset(fields.Start), models.ZoneOffset(fields.End),
		fields.Price, formatTime(time.Now()), id,
	)
	if err != nil {
		return err
	}
	return requireAffected(result, id)
}

// UpdateBookingStatus sets the lifecycle status.
func (db *DB) UpdateBookingStatus(ctx context.Context, id int64, status models.BookingStatus) error {
	result, err := db.q.ExecContext(ctx,
		`UPDATE bookings SET status = ?, updated_at = ? WHERE id = ?`,
		status, formatTime(time.Now()), id,
	)
	if err != nil {
		return err
	}
	return requireAffected(result, id)
}

// DeleteBooking removes the booking.
func (db *DB) DeleteBooking(ctx context.Context, id int64) error {
	result, err := db.q.ExecContext(ctx, `DELETE FROM bookings WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireAffected(result, id)
}

func (db *DB) queryBookings(ctx context.Context, query string, args ...interface{}) ([]models.Booking, error) {
	rows, err := db.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bookings []models.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, *b)
	}
	return bookings, rows.Err()
}

func scanBooking(s scanner) (*models.Booking, error) {
	var (
		b                models.Booking
		itemID           sql.NullInt64
		itemName         sql.NullString
		start, end       string
		startOff, endOff int
		status           string
		created, updated string
	)
	err := s.Scan(&b.ID, &itemID, &itemName, &b.CustomerName, &start, &end,
		&startOff, &endOff, &b.Price, &status, &created, &updated)
	if err != nil {
		return nil, err
	}
	if itemID.Valid {
		b.ItemID = models.Int64Ptr(itemID.Int64)
	}
	if itemName.Valid {
		name := itemName.String
		b.ItemName = &name
	}
	b.Status = models.BookingStatus(status)

	for _, f := range []struct {
		dst *time.Time
		src string
		col string
	}{
		{&b.Start, start, "start_at"},
		{&b.End, end, "end_at"},
		{&b.CreatedAt, created, "created_at"},
		{&b.UpdatedAt, updated, "updated_at"},
	} {
		t, err := parseTime(f.src)
		if err != nil {
			return nil, fmt.Errorf("booking %d %s: %w", b.ID, f.col, err)
		}
		*f.dst = t
	}
	b.Start = models.AtOffset(b.Start, startOff)
	b.End = models.AtOffset(b.End, endOff)
	return &b, nil
}

func nullableID(id *int64) sql.NullInt64 {
	if id == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *id, Valid: true}
}

func requireAffected(result sql.Result, id int64) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return booking.BookingNotFound(id)
	}
	return nil
}
