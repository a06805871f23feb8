package api

import (
	"errors"
	"net/http"

	"camrent/internal/booking"
	"camrent/internal/pricing"
	"github.com/labstack/echo/v4"
)

// outcome classifies an operation error for metrics and status mapping.
func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, booking.ErrConflict):
		return "conflict"
	case errors.Is(err, booking.ErrNotFound):
		return "not_found"
	case errors.Is(err, booking.ErrInvalidRange),
		errors.Is(err, booking.ErrInvalidInput),
		errors.Is(err, pricing.ErrUnknownPromotion):
		return "invalid"
	default:
		return "error"
	}
}

// fail writes the JSON error for err. Unclassified errors are logged and
// reported as 500 without detail.
func (h *Controller) fail(c echo.Context, op string, err error) error {
	switch outcome(err) {
	case "conflict":
		return c.JSON(http.StatusConflict, echo.Map{"error": booking.ErrConflict.Error()})
	case "not_found":
		return c.JSON(http.StatusNotFound, echo.Map{"error": booking.ErrNotFound.Error()})
	case "invalid":
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	default:
		h.Log.Error().Err(err).
			Str("op", op).
			Str("req_id", c.Response().Header().Get(echo.HeaderXRequestID)).
			Msg("request failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
}
