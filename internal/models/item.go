package models

import "time"

// ItemStatus is the availability state of a rentable item.
type ItemStatus string

const (
	ItemAvailable   ItemStatus = "available"
	ItemMaintenance ItemStatus = "maintenance"
)

// Valid reports whether s is a known item status.
func (s ItemStatus) Valid() bool {
	return s == ItemAvailable || s == ItemMaintenance
}

// Toggled returns the opposite status.
func (s ItemStatus) Toggled() ItemStatus {
	if s == ItemMaintenance {
		return ItemAvailable
	}
	return ItemMaintenance
}

// Item represents a unit of rentable equipment.
type Item struct {
	ID        int64      `json:"id"`
	Name      string     `json:"name"`
	Status    ItemStatus `json:"status"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// IsAvailable reports whether the item may be offered for new bookings.
func (i *Item) IsAvailable() bool {
	return i.Status == ItemAvailable
}
