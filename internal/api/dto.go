package api

import (
	"time"

	"camrent/internal/booking"
	"camrent/internal/models"
)

// BookingReq is the body of POST /api/bookings and PUT /api/bookings/:id.
// TotalPrice is quoted from Promo when omitted.
type BookingReq struct {
	ItemID       *int64 `json:"itemId" validate:"omitempty,gt=0"`
	CustomerName string `json:"customerName" validate:"required,max=200"`
	Start        string `json:"start"`
	End          string `json:"end"`
	TotalPrice   *int64 `json:"totalPrice" validate:"omitempty,gte=0"`
	Promo        string `json:"promo" validate:"omitempty,max=64"`
}

// StatusReq is the body of PATCH /api/bookings/:id/status.
type StatusReq struct {
	Status string `json:"status" validate:"required"`
}

// QuoteResp is returned by GET /api/quote.
type QuoteResp struct {
	Days  int64  `json:"days"`
	Base  int64  `json:"base"`
	Total int64  `json:"total"`
	Promo string `json:"promo"`
}

func (r BookingReq) fields(start, end time.Time, price int64) models.BookingFields {
	return models.BookingFields{
		ItemID:       r.ItemID,
		CustomerName: r.CustomerName,
		Start:        start,
		End:          end,
		Price:        price,
	}
}

func (r BookingReq) interval() (time.Time, time.Time, error) {
	return booking.ParseRange(r.Start, r.End)
}
