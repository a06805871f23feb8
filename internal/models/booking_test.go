package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// Helper function to create an instant on a January day
func at(d, hour int) time.Time {
	return time.Date(2026, time.January, d, hour, 0, 0, 0, time.UTC)
}

func TestOverlaps(t *testing.T) {
	tests := []struct {
		name     string
		s1, e1   time.Time
		s2, e2   time.Time
		expected bool
	}{
		{"disjoint", at(1, 10), at(2, 10), at(3, 10), at(4, 10), false},
		{"touching end to start", at(1, 10), at(3, 10), at(3, 10), at(5, 10), false},
		{"partial overlap", at(1, 10), at(3, 10), at(2, 10), at(5, 10), true},
		{"contained", at(1, 10), at(5, 10), at(2, 0), at(2, 23), true},
		{"identical", at(1, 10), at(2, 10), at(1, 10), at(2, 10), true},
		{"empty interval inside", at(1, 10), at(5, 10), at(2, 10), at(2, 10), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Overlaps(tt.s1, tt.e1, tt.s2, tt.e2))
			// symmetric
			assert.Equal(t, tt.expected, Overlaps(tt.s2, tt.e2, tt.s1, tt.e1))
		})
	}
}

func TestAtOffset(t *testing.T) {
	instant := time.Date(2026, time.January, 1, 3, 0, 0, 0, time.UTC)

	local := AtOffset(instant, 7*3600)
	assert.True(t, local.Equal(instant))
	assert.Equal(t, 7*3600, ZoneOffset(local))
	assert.Equal(t, "2026-01-01T10:00:00+07:00", local.Format(time.RFC3339))

	assert.Equal(t, time.UTC, AtOffset(local, 0).Location())
	assert.Equal(t, -5*3600, ZoneOffset(AtOffset(instant, -5*3600)))
}

func TestBooking_OverlapsWith(t *testing.T) {
	a := &Booking{Start: at(1, 10), End: at(3, 10)}
	b := &Booking{Start: at(2, 0), End: at(2, 23)}
	c := &Booking{Start: at(3, 10), End: at(5, 10)}

	assert.True(t, a.OverlapsWith(b))
	assert.True(t, b.OverlapsWith(a))
	assert.False(t, a.OverlapsWith(c))
	assert.False(t, c.OverlapsWith(a))
}

func TestBooking_HasItem(t *testing.T) {
	b := &Booking{ItemID: Int64Ptr(7)}
	assert.True(t, b.HasItem(7))
	assert.False(t, b.HasItem(8))

	orphan := &Booking{}
	assert.False(t, orphan.HasItem(0))
}

func TestStatuses(t *testing.T) {
	assert.True(t, ItemAvailable.Valid())
	assert.True(t, ItemMaintenance.Valid())
	assert.False(t, ItemStatus("broken").Valid())
	assert.Equal(t, ItemMaintenance, ItemAvailable.Toggled())
	assert.Equal(t, ItemAvailable, ItemMaintenance.Toggled())

	assert.True(t, StatusBooked.Valid())
	assert.True(t, StatusReturned.Valid())
	assert.False(t, BookingStatus("cancelled").Valid())
}
