// Package repository provides an in-memory implementation of the booking store.
package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"camrent/internal/booking"
	"camrent/internal/models"
)

// MemoryStore keeps items and bookings in process memory.
// Writers are serialized by a single lock held across WithItemLock.
type MemoryStore struct {
	mu       sync.RWMutex
	writeMu  sync.Mutex
	items    map[int64]models.Item
	bookings map[int64]models.Booking
	nextID   int64
	now      func() time.Time
}

var _ booking.Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty store seeded with items.
func NewMemoryStore(items ...models.Item) *MemoryStore {
	s := &MemoryStore{
		items:    make(map[int64]models.Item),
		bookings: make(map[int64]models.Booking),
		now:      time.Now,
	}
	for _, item := range items {
		if item.Status == "" {
			item.Status = models.ItemAvailable
		}
		s.items[item.ID] = item
	}
	return s
}

// PingContext always succeeds.
func (s *MemoryStore) PingContext(ctx context.Context) error {
	return ctx.Err()
}

// WithItemLock serializes fn against every other writer.
func (s *MemoryStore) WithItemLock(ctx context.Context, _ *int64, fn func(ctx context.Context, tx booking.Store) error) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	return fn(ctx, s)
}

// UpsertItem creates or renames an item.
func (s *MemoryStore) UpsertItem(_ context.Context, id int64, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	item, ok := s.items[id]
	if !ok {
		item = models.Item{ID: id, Status: models.ItemAvailable, CreatedAt: now}
	}
	item.Name = name
	item.UpdatedAt = now
	s.items[id] = item
	return nil
}

// ListItems returns all items ordered by id.
func (s *MemoryStore) ListItems(_ context.Context) ([]models.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]models.Item, 0, len(s.items))
	for _, item := range s.items {
		items = append(items, item)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return items, nil
}

// GetItem returns the item or nil.
func (s *MemoryStore) GetItem(_ context.Context, id int64) (*models.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	item, ok := s.items[id]
	if !ok {
		return nil, nil
	}
	return &item, nil
}

// SetItemStatus updates the item status.
func (s *MemoryStore) SetItemStatus(_ context.Context, id int64, status models.ItemStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.items[id]
	if !ok {
		return booking.ItemNotFound(id)
	}
	item.Status = status
	item.UpdatedAt = s.now()
	s.items[id] = item
	return nil
}

// ListBookings returns all bookings ordered by start.
func (s *MemoryStore) ListBookings(_ context.Context) ([]models.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sorted(func(models.Booking) bool { return true }), nil
}

// ListItemBookings returns bookings for one item ordered by start.
func (s *MemoryStore) ListItemBookings(_ context.Context, itemID int64) ([]models.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sorted(func(b models.Booking) bool { return b.HasItem(itemID) }), nil
}

// GetBooking returns the booking or nil.
func (s *MemoryStore) GetBooking(_ context.Context, id int64) (*models.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.bookings[id]
	if !ok {
		return nil, nil
	}
	s.joinItem(&b)
	return &b, nil
}

// InsertBooking stores a new booking and returns its id.
func (s *MemoryStore) InsertBooking(_ context.Context, fields models.BookingFields, status models.BookingStatus) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	now := s.now()
	b := models.Booking{ID: s.nextID, Status: status, CreatedAt: now, UpdatedAt: now}
	applyFields(&b, fields)
	s.bookings[b.ID] = b
	return b.ID, nil
}

// UpdateBooking overwrites the mutable fields.
func (s *MemoryStore) UpdateBooking(_ context.Context, id int64, fields models.BookingFields) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[id]
	if !ok {
		return booking.BookingNotFound(id)
	}
	applyFields(&b, fields)
	b.UpdatedAt = s.now()
	s.bookings[id] = b
	return nil
}

// UpdateBookingStatus sets the lifecycle status.
func (s *MemoryStore) UpdateBookingStatus(_ context.Context, id int64, status models.BookingStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[id]
	if !ok {
		return booking.BookingNotFound(id)
	}
	b.Status = status
	b.UpdatedAt = s.now()
	s.bookings[id] = b
	return nil
}

// DeleteBooking removes the booking.
func (s *MemoryStore) DeleteBooking(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.bookings[id]; !ok {
		return booking.BookingNotFound(id)
	}
	delete(s.bookings, id)
	return nil
}

func (s *MemoryStore) sorted(keep func(models.Booking) bool) []models.Booking {
	out := make([]models.Booking, 0, len(s.bookings))
	for _, b := range s.bookings {
		if !keep(b) {
			continue
		}
		s.joinItem(&b)
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Start.Equal(out[j].Start) {
			return out[i].ID < out[j].ID
		}
		return out[i].Start.Before(out[j].Start)
	})
	return out
}

func (s *MemoryStore) joinItem(b *models.Booking) {
	b.ItemName = nil
	if b.ItemID == nil {
		return
	}
	if item, ok := s.items[*b.ItemID]; ok {
		name := item.Name
		b.ItemName = &name
	}
}

func applyFields(b *models.Booking, fields models.BookingFields) {
	if fields.ItemID != nil {
		id := *fields.ItemID
		b.ItemID = &id
	} else {
		b.ItemID = nil
	}
	b.CustomerName = fields.CustomerName
	b.Start = fields.Start
	b.End = fields.End
	b.Price = fields.Price
}
