// Package booking implements the availability and conflict-resolution engine:
// the overlap check, the availability query and the booking lifecycle.
package booking

import (
	"context"
	"fmt"
	"strings"

	"camrent/internal/events"
	"camrent/internal/models"
)

// EventPublisher receives lifecycle events after successful mutations.
type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

// Manager orchestrates create/update/complete/delete transitions and item
// maintenance toggles. Every mutation that can break the per-item
// no-overlap invariant runs its check and write under Store.WithItemLock.
type Manager struct {
	store  Store
	events EventPublisher
}

// NewManager creates a Manager. events may be nil.
func NewManager(store Store, events EventPublisher) *Manager {
	return &Manager{store: store, events: events}
}

// Get returns a booking or *NotFoundError.
func (m *Manager) Get(ctx context.Context, id int64) (*models.Booking, error) {
	b, err := m.store.GetBooking(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get booking %d: %w", id, err)
	}
	if b == nil {
		return nil, BookingNotFound(id)
	}
	return b, nil
}

// Create stores a new booking with status booked and returns its id.
// Fails with *ConflictError when the item is occupied during the interval.
func (m *Manager) Create(ctx context.Context, fields models.BookingFields) (int64, error) {
	fields.CustomerName = strings.TrimSpace(fields.CustomerName)
	if err := validateFields(fields); err != nil {
		return 0, err
	}

	var id int64
	err := m.store.WithItemLock(ctx, fields.ItemID, func(ctx context.Context, tx Store) error {
		if err := checkConflict(ctx, tx, fields, nil); err != nil {
			return err
		}
		var err error
		id, err = tx.InsertBooking(ctx, fields, models.StatusBooked)
		if err != nil {
			return fmt.Errorf("insert booking: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	m.publish(events.BookingCreated, events.BookingPayload{
		BookingID: id,
		ItemID:    fields.ItemID,
		Customer:  fields.CustomerName,
		Start:     fields.Start,
		End:       fields.End,
		Price:     fields.Price,
		Status:    models.StatusBooked,
	})
	return id, nil
}

// Update rewrites the mutable fields of booking id. The booking's own
// interval is excluded from the overlap check; its status is left unchanged.
func (m *Manager) Update(ctx context.Context, id int64, fields models.BookingFields) error {
	fields.CustomerName = strings.TrimSpace(fields.CustomerName)
	if err := validateFields(fields); err != nil {
		return err
	}

	var status models.BookingStatus
	err := m.store.WithItemLock(ctx, fields.ItemID, func(ctx context.Context, tx Store) error {
		existing, err := tx.GetBooking(ctx, id)
		if err != nil {
			return fmt.Errorf("get booking %d: %w", id, err)
		}
		if existing == nil {
			return BookingNotFound(id)
		}
		status = existing.Status

		if err := checkConflict(ctx, tx, fields, &id); err != nil {
			return err
		}
		return tx.UpdateBooking(ctx, id, fields)
	})
	if err != nil {
		return err
	}

	m.publish(events.BookingUpdated, events.BookingPayload{
		BookingID: id,
		ItemID:    fields.ItemID,
		Customer:  fields.CustomerName,
		Start:     fields.Start,
		End:       fields.End,
		Price:     fields.Price,
		Status:    status,
	})
	return nil
}

// Complete marks the booking returned. Completing an already returned
// booking succeeds without changing anything.
func (m *Manager) Complete(ctx context.Context, id int64) error {
	b, err := m.Get(ctx, id)
	if err != nil {
		return err
	}
	if b.Status == models.StatusReturned {
		return nil
	}

	if err := m.store.UpdateBookingStatus(ctx, id, models.StatusReturned); err != nil {
		return err
	}

	m.publish(events.BookingCompleted, events.BookingPayload{
		BookingID: id,
		ItemID:    b.ItemID,
		Customer:  b.CustomerName,
		Start:     b.Start,
		End:       b.End,
		Price:     b.Price,
		Status:    models.StatusReturned,
	})
	return nil
}

// Delete removes the booking regardless of its status.
func (m *Manager) Delete(ctx context.Context, id int64) error {
	b, err := m.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := m.store.DeleteBooking(ctx, id); err != nil {
		return err
	}

	m.publish(events.BookingDeleted, events.BookingPayload{
		BookingID: id,
		ItemID:    b.ItemID,
		Customer:  b.CustomerName,
		Start:     b.Start,
		End:       b.End,
		Price:     b.Price,
		Status:    b.Status,
	})
	return nil
}

// ToggleItemStatus flips an item between available and maintenance and
// returns the new status. Existing bookings are not touched.
func (m *Manager) ToggleItemStatus(ctx context.Context, itemID int64) (models.ItemStatus, error) {
	var next models.ItemStatus
	err := m.store.WithItemLock(ctx, &itemID, func(ctx context.Context, tx Store) error {
		item, err := tx.GetItem(ctx, itemID)
		if err != nil {
			return fmt.Errorf("get item %d: %w", itemID, err)
		}
		if item == nil {
			return ItemNotFound(itemID)
		}
		next = item.Status.Toggled()
		return tx.SetItemStatus(ctx, itemID, next)
	})
	if err != nil {
		return "", err
	}

	m.publish(events.ItemStatusChanged, events.ItemPayload{ItemID: itemID, Status: next})
	return next, nil
}

func (m *Manager) publish(eventType string, payload interface{}) {
	if m.events == nil {
		return
	}
	_ = m.events.PublishJSON(eventType, payload)
}

func checkConflict(ctx context.Context, tx Store, fields models.BookingFields, exclude *int64) error {
	if fields.ItemID == nil {
		return nil
	}
	conflict, err := NewChecker(tx).HasConflict(ctx, *fields.ItemID, fields.Start, fields.End, exclude)
	if err != nil {
		return err
	}
	if conflict {
		return &ConflictError{ItemID: *fields.ItemID}
	}
	return nil
}

func validateFields(fields models.BookingFields) error {
	if err := validateInterval(fields.Start, fields.End); err != nil {
		return err
	}
	if fields.CustomerName == "" {
		return fmt.Errorf("%w: customer name is required", ErrInvalidInput)
	}
	if fields.Price < 0 {
		return fmt.Errorf("%w: price must not be negative", ErrInvalidInput)
	}
	return nil
}
