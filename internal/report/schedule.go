// Package report builds read-only projections over items and bookings:
// daily and monthly calendars, handovers, revenue, search and exports.
package report

import (
	"sort"
	"strings"
	"time"

	"camrent/internal/models"
)

// DayStatus classifies an item for one calendar day.
type DayStatus string

const (
	DayMaintenance DayStatus = "maintenance"
	DayFree        DayStatus = "free"
	DayFull        DayStatus = "full"
	DayPartial     DayStatus = "partial"
	DayBooked      DayStatus = "booked"
	DayReturned    DayStatus = "returned"
)

// ItemDay is one row of the daily schedule.
type ItemDay struct {
	Item     models.Item      `json:"item"`
	Status   DayStatus        `json:"status"`
	Bookings []models.Booking `json:"bookings"`
}

// GridCell is one day of an item's monthly grid.
type GridCell struct {
	Day       int       `json:"day"`
	Status    DayStatus `json:"status"`
	BookingID *int64    `json:"bookingId,omitempty"`
	Customer  string    `json:"customerName,omitempty"`
}

// ItemMonth is one row of the monthly grid.
type ItemMonth struct {
	Item models.Item `json:"item"`
	Days []GridCell  `json:"days"`
}

// Handovers lists the pickups and returns that fall on one day.
type Handovers struct {
	Pickups []models.Booking `json:"pickups"`
	Returns []models.Booking `json:"returns"`
}

// dayBounds returns local midnight of day and of the following day.
func dayBounds(day time.Time, loc *time.Location) (time.Time, time.Time) {
	d := day.In(loc)
	start := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, loc)
	return start, time.Date(d.Year(), d.Month(), d.Day()+1, 0, 0, 0, 0, loc)
}

// lastInstant is the final millisecond of the local day, the latest
// instant a pickup-and-return UI can express for that day.
func lastInstant(dayEnd time.Time) time.Time {
	return dayEnd.Add(-time.Millisecond)
}

// DailySchedule classifies every item for the local calendar day containing day.
// Items in maintenance are reported without bookings. An item is full when a
// single booking covers the whole day.
func DailySchedule(items []models.Item, bookings []models.Booking, day time.Time, loc *time.Location) []ItemDay {
	dayStart, dayEnd := dayBounds(day, loc)
	last := lastInstant(dayEnd)

	out := make([]ItemDay, 0, len(items))
	for _, item := range items {
		if !item.IsAvailable() {
			out = append(out, ItemDay{Item: item, Status: DayMaintenance, Bookings: []models.Booking{}})
			continue
		}

		row := ItemDay{Item: item, Status: DayFree, Bookings: []models.Booking{}}
		for _, b := range bookings {
			if b.HasItem(item.ID) && b.OverlapsRange(dayStart, dayEnd) {
				row.Bookings = append(row.Bookings, b)
			}
		}
		sortByStart(row.Bookings)

		for _, b := range row.Bookings {
			row.Status = DayPartial
			if !b.Start.After(dayStart) && !b.End.Before(last) {
				row.Status = DayFull
				break
			}
		}
		out = append(out, row)
	}
	return out
}

// MonthlyGrid reports each item's status on every day of the month. A day is
// booked when its local noon falls within a booking widened to whole local days.
// The first matching booking in start order decides between booked and returned.
func MonthlyGrid(items []models.Item, bookings []models.Booking, year int, month time.Month, loc *time.Location) []ItemMonth {
	days := time.Date(year, month+1, 0, 0, 0, 0, 0, loc).Day()
	sorted := append([]models.Booking(nil), bookings...)
	sortByStart(sorted)

	out := make([]ItemMonth, 0, len(items))
	for _, item := range items {
		row := ItemMonth{Item: item, Days: make([]GridCell, 0, days)}
		for d := 1; d <= days; d++ {
			cell := GridCell{Day: d, Status: DayFree}
			if !item.IsAvailable() {
				cell.Status = DayMaintenance
				row.Days = append(row.Days, cell)
				continue
			}

			noon := time.Date(year, month, d, 12, 0, 0, 0, loc)
			for _, b := range sorted {
				if !b.HasItem(item.ID) || !coversDay(b, noon, loc) {
					continue
				}
				id := b.ID
				cell.BookingID = &id
				cell.Customer = b.CustomerName
				cell.Status = DayBooked
				if b.Status == models.StatusReturned {
					cell.Status = DayReturned
				}
				break
			}
			row.Days = append(row.Days, cell)
		}
		out = append(out, row)
	}
	return out
}

func coversDay(b models.Booking, probe time.Time, loc *time.Location) bool {
	from, _ := dayBounds(b.Start, loc)
	_, to := dayBounds(b.End, loc)
	return !probe.Before(from) && !probe.After(lastInstant(to))
}

// DayHandovers returns bookings picked up and returned on the local day containing day.
func DayHandovers(bookings []models.Booking, day time.Time, loc *time.Location) Handovers {
	dayStart, dayEnd := dayBounds(day, loc)
	h := Handovers{Pickups: []models.Booking{}, Returns: []models.Booking{}}
	for _, b := range bookings {
		if within(b.Start, dayStart, dayEnd) {
			h.Pickups = append(h.Pickups, b)
		}
		if within(b.End, dayStart, dayEnd) {
			h.Returns = append(h.Returns, b)
		}
	}
	sortByStart(h.Pickups)
	sortByStart(h.Returns)
	return h
}

// SearchCustomers returns bookings whose customer name contains query,
// ignoring case. An empty query matches nothing.
func SearchCustomers(bookings []models.Booking, query string) []models.Booking {
	out := []models.Booking{}
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return out
	}
	for _, b := range bookings {
		if strings.Contains(strings.ToLower(b.CustomerName), query) {
			out = append(out, b)
		}
	}
	return out
}

func within(t, start, end time.Time) bool {
	return !t.Before(start) && t.Before(end)
}

func sortByStart(bookings []models.Booking) {
	sort.SliceStable(bookings, func(i, j int) bool {
		return bookings[i].Start.Before(bookings[j].Start)
	})
}
