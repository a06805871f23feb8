package booking

import (
	"context"
	"fmt"
	"sort"
	"time"

	"camrent/internal/models"
)

// AvailabilityFinder answers "which items are free between start and end".
type AvailabilityFinder interface {
	FindAvailable(ctx context.Context, start, end time.Time) ([]models.Item, error)
}

// Finder composes the item registry with the overlap check.
type Finder struct {
	items    ItemRegistry
	bookings BookingStore
}

// NewFinder creates a Finder.
func NewFinder(items ItemRegistry, bookings BookingStore) *Finder {
	return &Finder{items: items, bookings: bookings}
}

// FindAvailable returns items in status available that have no booking
// overlapping [start, end), ascending by id. Items in maintenance are
// excluded regardless of bookings.
func (f *Finder) FindAvailable(ctx context.Context, start, end time.Time) ([]models.Item, error) {
	if err := validateInterval(start, end); err != nil {
		return nil, err
	}

	items, err := f.items.ListItems(ctx)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	bookings, err := f.bookings.ListBookings(ctx)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}

	free := make([]models.Item, 0, len(items))
	for _, item := range items {
		if !item.IsAvailable() {
			continue
		}
		if HasConflict(bookings, item.ID, start, end, nil) {
			continue
		}
		free = append(free, item)
	}

	sort.Slice(free, func(i, j int) bool { return free[i].ID < free[j].ID })
	return free, nil
}
