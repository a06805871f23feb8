package api

import (
	"fmt"
	"net/http"

	"camrent/internal/metrics"
	"camrent/internal/models"
	"camrent/internal/report"
	"github.com/labstack/echo/v4"
)

// GET /api/bookings
func (h *Controller) ListBookings(c echo.Context) error {
	bookings, err := h.Store.ListBookings(c.Request().Context())
	if err != nil {
		return h.fail(c, "list bookings", err)
	}
	return c.JSON(http.StatusOK, nonNil(bookings))
}

// GET /api/bookings/search?q=
func (h *Controller) SearchBookings(c echo.Context) error {
	bookings, err := h.Reports.Search(c.Request().Context(), c.QueryParam("q"))
	if err != nil {
		return h.fail(c, "search bookings", err)
	}
	return c.JSON(http.StatusOK, nonNil(bookings))
}

// POST /api/bookings
func (h *Controller) CreateBooking(c echo.Context) error {
	var req BookingReq
	if err := bindValid(c, &req); err != nil {
		return err
	}

	fields, err := h.bookingFields(req)
	if err == nil {
		var id int64
		id, err = h.Bookings.Create(c.Request().Context(), fields)
		if err == nil {
			metrics.IncBookingOp("create", "ok")
			return c.JSON(http.StatusCreated, echo.Map{"message": "success", "id": id})
		}
	}
	metrics.IncBookingOp("create", outcome(err))
	return h.fail(c, "create booking", err)
}

// PUT /api/bookings/:id
func (h *Controller) UpdateBooking(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return badRequest(c, "invalid id")
	}
	var req BookingReq
	if err := bindValid(c, &req); err != nil {
		return err
	}

	fields, err := h.bookingFields(req)
	if err == nil {
		err = h.Bookings.Update(c.Request().Context(), id, fields)
	}
	metrics.IncBookingOp("update", outcome(err))
	if err != nil {
		return h.fail(c, "update booking", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "updated successfully"})
}

// PATCH /api/bookings/:id/status
func (h *Controller) SetBookingStatus(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return badRequest(c, "invalid id")
	}
	var req StatusReq
	if err := bindValid(c, &req); err != nil {
		return err
	}
	if models.BookingStatus(req.Status) != models.StatusReturned {
		return badRequest(c, fmt.Sprintf("unsupported status %q", req.Status))
	}

	err := h.Bookings.Complete(c.Request().Context(), id)
	metrics.IncBookingOp("complete", outcome(err))
	if err != nil {
		return h.fail(c, "complete booking", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Booking status updated"})
}

// DELETE /api/bookings/:id
func (h *Controller) DeleteBooking(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return badRequest(c, "invalid id")
	}

	err := h.Bookings.Delete(c.Request().Context(), id)
	metrics.IncBookingOp("delete", outcome(err))
	if err != nil {
		return h.fail(c, "delete booking", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "deleted successfully"})
}

// GET /api/bookings/:id/summary?promo=
func (h *Controller) Summary(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return badRequest(c, "invalid id")
	}
	b, err := h.Bookings.Get(c.Request().Context(), id)
	if err != nil {
		return h.fail(c, "summary", err)
	}
	promo, ok := h.Catalog.Lookup(c.QueryParam("promo"))
	if !ok {
		return badRequest(c, "unknown promotion")
	}
	return c.String(http.StatusOK, report.Summary(*b, promo, h.Footer, h.Reports.Location()))
}

// GET /api/bookings/:id/receipt.pdf?promo=
func (h *Controller) Receipt(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return badRequest(c, "invalid id")
	}
	b, err := h.Bookings.Get(c.Request().Context(), id)
	if err != nil {
		return h.fail(c, "receipt", err)
	}
	promo, ok := h.Catalog.Lookup(c.QueryParam("promo"))
	if !ok {
		return badRequest(c, "unknown promotion")
	}

	pdf, err := report.Receipt(*b, report.ReceiptOptions{
		Promotion: promo,
		Footer:    h.Footer,
		BaseURL:   h.BaseURL,
		Location:  h.Reports.Location(),
	})
	if err != nil {
		return h.fail(c, "receipt", err)
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("inline; filename=\"booking-%d.pdf\"", id))
	return c.Blob(http.StatusOK, "application/pdf", pdf)
}

// bookingFields parses the interval and quotes the price when the client left it out.
func (h *Controller) bookingFields(req BookingReq) (models.BookingFields, error) {
	start, end, err := req.interval()
	if err != nil {
		return models.BookingFields{}, err
	}
	if req.TotalPrice != nil {
		return req.fields(start, end, *req.TotalPrice), nil
	}
	price, err := h.Catalog.Quote(start, end, req.Promo)
	if err != nil {
		return models.BookingFields{}, err
	}
	return req.fields(start, end, price), nil
}

// bindValid decodes and validates the body.
func bindValid(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid JSON")
	}
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "validation error: "+err.Error())
	}
	return nil
}

func nonNil(bookings []models.Booking) []models.Booking {
	if bookings == nil {
		return []models.Booking{}
	}
	return bookings
}
