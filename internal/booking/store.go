package booking

import (
	"context"

	"camrent/internal/models"
)

// ItemRegistry provides access to equipment items.
type ItemRegistry interface {
	// ListItems returns all items ordered by id.
	ListItems(ctx context.Context) ([]models.Item, error)
	// GetItem returns the item or nil when it does not exist.
	GetItem(ctx context.Context, id int64) (*models.Item, error)
	// SetItemStatus fails with *NotFoundError if the item is absent.
	SetItemStatus(ctx context.Context, id int64, status models.ItemStatus) error
}

// BookingStore provides access to booking records.
type BookingStore interface {
	// ListBookings returns all bookings ordered by start.
	ListBookings(ctx context.Context) ([]models.Booking, error)
	// ListItemBookings returns the bookings that reference itemID.
	ListItemBookings(ctx context.Context, itemID int64) ([]models.Booking, error)
	// GetBooking returns the booking or nil when it does not exist.
	GetBooking(ctx context.Context, id int64) (*models.Booking, error)
	InsertBooking(ctx context.Context, fields models.BookingFields, status models.BookingStatus) (int64, error)
	// UpdateBooking, UpdateBookingStatus and DeleteBooking fail with *NotFoundError if the booking is absent.
	UpdateBooking(ctx context.Context, id int64, fields models.BookingFields) error
	UpdateBookingStatus(ctx context.Context, id int64, status models.BookingStatus) error
	DeleteBooking(ctx context.Context, id int64) error
}

// Store is the persistence collaborator of the lifecycle manager.
type Store interface {
	ItemRegistry
	BookingStore

	// WithItemLock runs fn so that it is serialized against every other
	// WithItemLock call for the same item. itemID may be nil. The Store passed
	// to fn must be used for all reads and writes inside the critical section.
	WithItemLock(ctx context.Context, itemID *int64, fn func(ctx context.Context, tx Store) error) error
}

// ItemSeeder is implemented by stores that can register items out-of-band.
type ItemSeeder interface {
	// UpsertItem creates the item with status available, or renames an existing one.
	UpsertItem(ctx context.Context, id int64, name string) error
}

// Pinger is implemented by stores with a health check.
type Pinger interface {
	PingContext(ctx context.Context) error
}
