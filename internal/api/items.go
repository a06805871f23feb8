package api

import (
	"net/http"
	"strconv"

	"camrent/internal/booking"
	"camrent/internal/models"
	"camrent/internal/pricing"
	"github.com/labstack/echo/v4"
)

// GET /api/items
func (h *Controller) ListItems(c echo.Context) error {
	items, err := h.Store.ListItems(c.Request().Context())
	if err != nil {
		return h.fail(c, "list items", err)
	}
	if items == nil {
		items = []models.Item{}
	}
	return c.JSON(http.StatusOK, items)
}

// PATCH /api/items/:id/status
func (h *Controller) ToggleItem(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return badRequest(c, "invalid id")
	}
	status, err := h.Bookings.ToggleItemStatus(c.Request().Context(), id)
	if err != nil {
		return h.fail(c, "toggle item", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Status updated", "status": status})
}

// GET /api/available?start=&end=
func (h *Controller) Available(c echo.Context) error {
	start, end, err := booking.ParseRange(c.QueryParam("start"), c.QueryParam("end"))
	if err != nil {
		return h.fail(c, "available", err)
	}
	items, err := h.Finder.FindAvailable(c.Request().Context(), start, end)
	if err != nil {
		return h.fail(c, "available", err)
	}
	if items == nil {
		items = []models.Item{}
	}
	return c.JSON(http.StatusOK, items)
}

// GET /api/quote?start=&end=&promo=
func (h *Controller) Quote(c echo.Context) error {
	start, end, err := booking.ParseRange(c.QueryParam("start"), c.QueryParam("end"))
	if err != nil {
		return h.fail(c, "quote", err)
	}
	promo, ok := h.Catalog.Lookup(c.QueryParam("promo"))
	if !ok {
		return badRequest(c, "unknown promotion")
	}
	tariff := h.Catalog.Tariff()
	days := pricing.Days(start, end)
	return c.JSON(http.StatusOK, QuoteResp{
		Days:  days,
		Base:  tariff.Base(days),
		Total: tariff.Quote(start, end, promo),
		Promo: promo.ID,
	})
}

// GET /api/promotions
func (h *Controller) Promotions(c echo.Context) error {
	return c.JSON(http.StatusOK, h.Catalog.List())
}

func pathID(c echo.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
