// Package pricing computes rental quotes from a booking duration and an optional promotion.
package pricing

import "time"

const day = 24 * time.Hour

// Tariff holds the base day-rate tiers.
type Tariff struct {
	OneDay    int64 `yaml:"one_day" json:"one_day"`
	TwoDays   int64 `yaml:"two_days" json:"two_days"`
	ThreeDays int64 `yaml:"three_days" json:"three_days"`
	ExtraDay  int64 `yaml:"extra_day" json:"extra_day"`
}

// DefaultTariff is the shop's standard price list.
var DefaultTariff = Tariff{
	OneDay:    160,
	TwoDays:   320,
	ThreeDays: 400,
	ExtraDay:  100,
}

// WithDefaults fills zero tiers from DefaultTariff.
func (t Tariff) WithDefaults() Tariff {
	if t.OneDay <= 0 {
		t.OneDay = DefaultTariff.OneDay
	}
	if t.TwoDays <= 0 {
		t.TwoDays = DefaultTariff.TwoDays
	}
	if t.ThreeDays <= 0 {
		t.ThreeDays = DefaultTariff.ThreeDays
	}
	if t.ExtraDay <= 0 {
		t.ExtraDay = DefaultTariff.ExtraDay
	}
	return t
}

// Days returns the rental duration in whole days, rounded up.
// Returns 0 when end is not after start.
func Days(start, end time.Time) int64 {
	d := end.Sub(start)
	if d <= 0 {
		return 0
	}
	return int64((d + day - 1) / day)
}

// Base returns the undiscounted price for a number of days.
func (t Tariff) Base(days int64) int64 {
	switch {
	case days <= 0:
		return 0
	case days == 1:
		return t.OneDay
	case days == 2:
		return t.TwoDays
	case days == 3:
		return t.ThreeDays
	default:
		return t.ThreeDays + (days-3)*t.ExtraDay
	}
}

// Apply returns base after the promotion, never below zero.
func (p Promotion) Apply(base int64) int64 {
	final := base
	switch p.Kind {
	case KindPercent:
		discount := (base*p.Value + 99) / 100 // ceil for non-negative values
		final = base - discount
	case KindAmount:
		final = base - p.Value
	}
	if final < 0 {
		return 0
	}
	return final
}

// Quote prices the interval [start, end) with the tariff and promotion.
// It never fails: a non-positive duration is priced at 0.
func (t Tariff) Quote(start, end time.Time, promo Promotion) int64 {
	days := Days(start, end)
	if days == 0 {
		return 0
	}
	return promo.Apply(t.Base(days))
}

// Quote prices the interval with DefaultTariff.
func Quote(start, end time.Time, promo Promotion) int64 {
	return DefaultTariff.Quote(start, end, promo)
}
