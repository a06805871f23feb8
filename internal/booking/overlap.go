package booking

import (
	"context"
	"fmt"
	"time"

	"camrent/internal/models"
)

// HasConflict reports whether any booking for itemID overlaps [start, end).
// Bookings without an item reference are ignored, as is the booking whose id
// equals exclude. Lifecycle status is not considered: returned bookings still
// occupy their interval.
func HasConflict(bookings []models.Booking, itemID int64, start, end time.Time, exclude *int64) bool {
	for i := range bookings {
		b := &bookings[i]
		if !b.HasItem(itemID) {
			continue
		}
		if exclude != nil && b.ID == *exclude {
			continue
		}
		if b.OverlapsRange(start, end) {
			return true
		}
	}
	return false
}

// Checker runs the overlap check against a BookingStore.
type Checker struct {
	bookings BookingStore
}

// NewChecker creates a Checker over the given store.
func NewChecker(bookings BookingStore) *Checker {
	return &Checker{bookings: bookings}
}

// HasConflict loads the item's bookings and checks [start, end) against them.
func (c *Checker) HasConflict(ctx context.Context, itemID int64, start, end time.Time, exclude *int64) (bool, error) {
	bookings, err := c.bookings.ListItemBookings(ctx, itemID)
	if err != nil {
		return false, fmt.Errorf("list bookings for item %d: %w", itemID, err)
	}
	return HasConflict(bookings, itemID, start, end, exclude), nil
}
