package api

import (
	"net/http"
	"time"

	"camrent/internal/metrics"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// Options configures the cross-cutting middleware.
type Options struct {
	RateLimitRPS   float64
	RateLimitBurst int
	CORSOrigins    []string
}

func RegisterMiddlewares(e *echo.Echo, opts Options, logger *zerolog.Logger) {
	e.Use(middleware.Recover())

	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: func() string { return uuid.NewString() },
	}))

	e.Use(AccessLog(logger))

	origins := opts.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: origins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderContentType, echo.HeaderAuthorization},
	}))

	if opts.RateLimitRPS > 0 {
		e.Use(RateLimit(opts.RateLimitRPS, opts.RateLimitBurst))
	}
}

// AccessLog logs every request and records it in the HTTP metrics.
func AccessLog(logger *zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			if err := next(c); err != nil {
				c.Error(err)
			}
			lat := time.Since(start)

			req := c.Request()
			status := c.Response().Status
			route := c.Path()
			metrics.ObserveHTTP(req.Method, route, status, lat)

			ev := logger.Info()
			if status >= http.StatusInternalServerError {
				ev = logger.Error()
			}
			ev.Str("method", req.Method).
				Str("path", route).
				Int("status", status).
				Int64("latency_ms", lat.Milliseconds()).
				Str("req_id", c.Response().Header().Get(echo.HeaderXRequestID)).
				Str("ip", c.RealIP()).
				Str("ua", req.UserAgent()).
				Msg("http")
			return nil
		}
	}
}

// RateLimit applies a per-client token bucket and answers 429 when it runs dry.
func RateLimit(rps float64, burst int) echo.MiddlewareFunc {
	if burst <= 0 {
		burst = int(rps * 2)
	}
	store := middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
		Rate:      rate.Limit(rps),
		Burst:     burst,
		ExpiresIn: 3 * time.Minute,
	})
	return middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Store: store,
		DenyHandler: func(c echo.Context, _ string, _ error) error {
			return c.JSON(http.StatusTooManyRequests, echo.Map{"error": "too many requests"})
		},
		ErrorHandler: func(c echo.Context, _ error) error {
			return c.JSON(http.StatusForbidden, echo.Map{"error": "unidentified client"})
		},
	})
}
