package api

import (
	"bytes"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

const xlsxMIME = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// GET /api/reports/daily?date=YYYY-MM-DD
func (h *Controller) Daily(c echo.Context) error {
	day, err := h.parseDay(c.QueryParam("date"))
	if err != nil {
		return badRequest(c, "date must be YYYY-MM-DD")
	}
	rows, err := h.Reports.Daily(c.Request().Context(), day)
	if err != nil {
		return h.fail(c, "daily report", err)
	}
	return c.JSON(http.StatusOK, rows)
}

// GET /api/reports/monthly?month=YYYY-MM
func (h *Controller) Monthly(c echo.Context) error {
	loc := h.Reports.Location()
	month := time.Now().In(loc)
	if v := c.QueryParam("month"); v != "" {
		var err error
		month, err = time.ParseInLocation("2006-01", v, loc)
		if err != nil {
			return badRequest(c, "month must be YYYY-MM")
		}
	}
	rows, err := h.Reports.Monthly(c.Request().Context(), month.Year(), month.Month())
	if err != nil {
		return h.fail(c, "monthly report", err)
	}
	return c.JSON(http.StatusOK, rows)
}

// GET /api/reports/revenue
func (h *Controller) Revenue(c echo.Context) error {
	rev, err := h.Reports.Revenue(c.Request().Context())
	if err != nil {
		return h.fail(c, "revenue report", err)
	}
	return c.JSON(http.StatusOK, rev)
}

// GET /api/reports/handovers?date=YYYY-MM-DD
func (h *Controller) Handovers(c echo.Context) error {
	day, err := h.parseDay(c.QueryParam("date"))
	if err != nil {
		return badRequest(c, "date must be YYYY-MM-DD")
	}
	out, err := h.Reports.Handovers(c.Request().Context(), day)
	if err != nil {
		return h.fail(c, "handovers report", err)
	}
	return c.JSON(http.StatusOK, out)
}

// GET /api/reports/export.xlsx
func (h *Controller) Export(c echo.Context) error {
	var buf bytes.Buffer
	if err := h.Reports.Export(c.Request().Context(), &buf); err != nil {
		return h.fail(c, "export", err)
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, "attachment; filename=\"bookings.xlsx\"")
	return c.Blob(http.StatusOK, xlsxMIME, buf.Bytes())
}

// parseDay reads a calendar date in the report timezone; empty means today.
func (h *Controller) parseDay(v string) (time.Time, error) {
	loc := h.Reports.Location()
	if v == "" {
		return time.Now().In(loc), nil
	}
	return time.ParseInLocation("2006-01-02", v, loc)
}
