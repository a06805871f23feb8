package models

import "time"

// BookingStatus is the lifecycle state of a booking.
type BookingStatus string

const (
	StatusBooked   BookingStatus = "booked"
	StatusReturned BookingStatus = "returned"
)

// Valid reports whether s is a known booking status.
func (s BookingStatus) Valid() bool {
	return s == StatusBooked || s == StatusReturned
}

// Booking represents a reservation of one item for a time interval.
type Booking struct {
	ID           int64         `json:"id"`
	// ItemID is nullable: a booking may exist without a resolvable item.
	ItemID       *int64        `json:"itemId"`
	// ItemName is joined on read and nil when the item is missing.
	ItemName     *string       `json:"cameraName"`
	CustomerName string        `json:"customerName"`
	Start        time.Time     `json:"start"`
	End          time.Time     `json:"end"`
	Price        int64         `json:"totalPrice"`
	Status       BookingStatus `json:"status"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

// BookingFields are the mutable fields of a booking, written on create and update.
type BookingFields struct {
	ItemID       *int64
	CustomerName string
	Start        time.Time
	End          time.Time
	Price        int64
}

// Fields returns the mutable part of the booking.
func (b *Booking) Fields() BookingFields {
	return BookingFields{
		ItemID:       b.ItemID,
		CustomerName: b.CustomerName,
		Start:        b.Start,
		End:          b.End,
		Price:        b.Price,
	}
}

// HasItem reports whether the booking references the given item.
func (b *Booking) HasItem(itemID int64) bool {
	return b.ItemID != nil && *b.ItemID == itemID
}

// OverlapsWith checks if this booking's interval overlaps another one's.
// Item references are not compared.
func (b *Booking) OverlapsWith(other *Booking) bool {
	return Overlaps(b.Start, b.End, other.Start, other.End)
}

// OverlapsRange checks if the booking overlaps [start, end).
func (b *Booking) OverlapsRange(start, end time.Time) bool {
	return Overlaps(b.Start, b.End, start, end)
}

// Overlaps reports whether [s1, e1) and [s2, e2) intersect.
// Uses half-open interval semantics: touching endpoints do not overlap.
func Overlaps(s1, e1, s2, e2 time.Time) bool {
	// Two intervals [A, B) and [C, D) overlap if A < D && C < B
	return s1.Before(e2) && s2.Before(e1)
}

// ZoneOffset returns the UTC offset of t in seconds east of UTC.
func ZoneOffset(t time.Time) int {
	_, offset := t.Zone()
	return offset
}

// AtOffset returns the instant t expressed in a fixed zone offset seconds
// east of UTC. A zero offset yields UTC.
func AtOffset(t time.Time, offset int) time.Time {
	if offset == 0 {
		return t.UTC()
	}
	return t.In(time.FixedZone("", offset))
}

// Int64Ptr is a small helper for optional item references.
func Int64Ptr(v int64) *int64 {
	return &v
}
