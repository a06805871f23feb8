// Package api exposes the rental calendar over HTTP.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"camrent/internal/booking"
	"camrent/internal/models"
	"camrent/internal/pricing"
	"camrent/internal/report"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// Reader is the read side of the store used for listings.
type Reader interface {
	ListItems(ctx context.Context) ([]models.Item, error)
	ListBookings(ctx context.Context) ([]models.Booking, error)
}

// Controller holds the HTTP handlers.
type Controller struct {
	Bookings *booking.Manager
	Store    Reader
	Finder   booking.AvailabilityFinder
	Catalog  *pricing.Catalog
	Reports  *report.Service
	// Footer and BaseURL decorate summaries and receipts.
	Footer  string
	BaseURL string
	Log     *zerolog.Logger
}

// NewServer builds the echo instance with middleware and routes.
// feed may be nil.
func NewServer(h *Controller, feed *Feed, opts Options) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = NewValidator()
	e.HTTPErrorHandler = errorHandler(h.Log)

	RegisterMiddlewares(e, opts, h.Log)
	Register(e, h, feed)
	return e
}

func Register(e *echo.Echo, h *Controller, feed *Feed) {
	g := e.Group("/api")

	g.GET("/items", h.ListItems)
	g.GET("/cameras", h.ListItems)
	g.PATCH("/items/:id/status", h.ToggleItem)
	g.PATCH("/cameras/:id/status", h.ToggleItem)

	g.GET("/bookings", h.ListBookings)
	g.GET("/bookings/search", h.SearchBookings)
	g.POST("/bookings", h.CreateBooking)
	g.PUT("/bookings/:id", h.UpdateBooking)
	g.PATCH("/bookings/:id/status", h.SetBookingStatus)
	g.DELETE("/bookings/:id", h.DeleteBooking)
	g.GET("/bookings/:id/summary", h.Summary)
	g.GET("/bookings/:id/receipt.pdf", h.Receipt)

	g.GET("/available", h.Available)
	g.GET("/quote", h.Quote)
	g.GET("/promotions", h.Promotions)

	r := g.Group("/reports")
	r.GET("/daily", h.Daily)
	r.GET("/monthly", h.Monthly)
	r.GET("/revenue", h.Revenue)
	r.GET("/handovers", h.Handovers)
	r.GET("/export.xlsx", h.Export)

	if feed != nil {
		g.GET("/feed", feed.Serve)
	}
}

// errorHandler renders echo errors in the {"error": msg} shape used by all handlers.
func errorHandler(logger *zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		code, msg := http.StatusInternalServerError, "internal error"
		var he *echo.HTTPError
		if errors.As(err, &he) {
			code, msg = he.Code, fmt.Sprint(he.Message)
		} else {
			logger.Error().Err(err).Str("path", c.Path()).Msg("unhandled error")
		}

		if c.Request().Method == http.MethodHead {
			err = c.NoContent(code)
		} else {
			err = c.JSON(code, echo.Map{"error": msg})
		}
		if err != nil {
			logger.Error().Err(err).Msg("write error response")
		}
	}
}
