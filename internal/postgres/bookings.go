package postgres

import (
	"context"
	"errors"

	"camrent/internal/booking"
	"camrent/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const bookingSelect = `
	SELECT b.id, b.item_id, i.name, b.customer_name, b.start_at, b.end_at,
		b.start_offset, b.end_offset, b.total_price, b.status, b.created_at, b.updated_at
	FROM bookings b
	LEFT JOIN items i ON i.id = b.item_id`

func (db *DB) ListBookings(ctx context.Context) ([]models.Booking, error) {
	return db.queryBookings(ctx, bookingSelect+` ORDER BY b.start_at, b.id`)
}

func (db *DB) ListItemBookings(ctx context.Context, itemID int64) ([]models.Booking, error) {
	return db.queryBookings(ctx, bookingSelect+` WHERE b.item_id = $1 ORDER BY b.start_at, b.id`, itemID)
}

func (db *DB) GetBooking(ctx context.Context, id int64) (*models.Booking, error) {
	b, err := scanBooking(db.q.QueryRow(ctx, bookingSelect+` WHERE b.id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return b, nil
}

func (db *DB) InsertBooking(ctx context.Context, fields models.BookingFields, status models.BookingStatus) (int64, error) {
	const q = `
		INSERT INTO bookings (item_id, customer_name, start_at, end_at, start_offset, end_offset, total_price, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`
	var id int64
	err := db.q.QueryRow(ctx, q,
		fields.ItemID, fields.CustomerName, fields.Start, fields.End,
		models.ZoneOffset(fields.Start), models.ZoneOffset(fields.End), fields.Price, string(status),
	).Scan(&id)
	if err != nil {
		return 0, translate(err, fields.ItemID)
	}
	return id, nil
}

func (db *DB) UpdateBooking(ctx context.Context, id int64, fields models.BookingFields) error {
	const q = `
		UPDATE bookings
		SET item_id = $2, customer_name = $3, start_at = $4, end_at = $5,
			start_offset = $6, end_offset = $7, total_price = $8, updated_at = now()
		WHERE id = $1`
	tag, err := db.q.Exec(ctx, q, id, fields.ItemID, fields.CustomerName, fields.Start, fields.End,
		models.ZoneOffset(fields.Start), models.ZoneOffset(fields.End), fields.Price)
	if err != nil {
		return translate(err, fields.ItemID)
	}
	return requireAffected(tag, id)
}

func (db *DB) UpdateBookingStatus(ctx context.Context, id int64, status models.BookingStatus) error {
	const q = `UPDATE bookings SET status = $2, updated_at = now() WHERE id = $1`
	tag, err := db.q.Exec(ctx, q, id, string(status))
	if err != nil {
		return err
	}
	return requireAffected(tag, id)
}

func (db *DB) DeleteBooking(ctx context.Context, id int64) error {
	tag, err := db.q.Exec(ctx, `DELETE FROM bookings WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return requireAffected(tag, id)
}

func (db *DB) queryBookings(ctx context.Context, q string, args ...any) ([]models.Booking, error) {
	rows, err := db.q.Query(ctx, q, args...)
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

func scanBooking(row pgx.Row) (*models.Booking, error) {
	var (
		b                models.Booking
		status           string
		startOff, endOff int32
	)
	err := row.Scan(&b.ID, &b.ItemID, &b.ItemName, &b.CustomerName, &b.Start, &b.End,
		&startOff, &endOff, &b.Price, &status, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, err
	}
	b.Start = models.AtOffset(b.Start, int(startOff))
	b.End = models.AtOffset(b.End, int(endOff))
	b.Status = models.BookingStatus(status)
	return &b, nil
}

func requireAffected(tag pgconn.CommandTag, id int64) error {
	if tag.RowsAffected() == 0 {
		return booking.BookingNotFound(id)
	}
	return nil
}
