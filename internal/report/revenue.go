package report

import (
	"sort"
	"time"

	"camrent/internal/models"
)

// MonthRevenue aggregates bookings that start in one calendar month.
type MonthRevenue struct {
	Month string `json:"month"`
	Total int64  `json:"total"`
	Count int    `json:"count"`
}

// Revenue is the total over all bookings plus a per-month breakdown, newest first.
type Revenue struct {
	Total  int64          `json:"totalRevenue"`
	Months []MonthRevenue `json:"months"`
}

// ComputeRevenue sums booking prices regardless of status. Bookings are
// attributed to the local month of their start.
func ComputeRevenue(bookings []models.Booking, loc *time.Location) Revenue {
	byMonth := make(map[string]*MonthRevenue)
	rev := Revenue{Months: []MonthRevenue{}}

	for _, b := range bookings {
		rev.Total += b.Price
		key := b.Start.In(loc).Format("2006-01")
		m, ok := byMonth[key]
		if !ok {
			m = &MonthRevenue{Month: key}
			byMonth[key] = m
		}
		m.Total += b.Price
		m.Count++
	}

	for _, m := range byMonth {
		rev.Months = append(rev.Months, *m)
	}
	sort.Slice(rev.Months, func(i, j int) bool { return rev.Months[i].Month > rev.Months[j].Month })
	return rev
}
