package metrics

import (
	"strconv"
	"sync"
	"time"

	"camrent/internal/events"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	bookingOps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "camrent",
			Name:      "booking_operations_total",
			Help:      "Count of booking lifecycle operations by outcome.",
		},
		[]string{"op", "result"},
	)

	itemToggles = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "camrent",
			Name:      "item_status_changes_total",
			Help:      "Count of item status changes by new status.",
		},
		[]string{"status"},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "camrent",
			Name:      "http_requests_total",
			Help:      "Count of HTTP requests by route and status code.",
		},
		[]string{"method", "route", "code"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "camrent",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		},
		[]string{"method", "route"},
	)

	domainEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "camrent",
			Name:      "events_total",
			Help:      "Domain events published by type.",
		},
		[]string{"type"},
	)

	cacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "camrent",
			Name:      "availability_cache_lookups_total",
			Help:      "Availability cache lookups by result.",
		},
		[]string{"result"},
	)
)

// Register registers metrics (idempotent).
func Register() {
	once.Do(func() {
		prometheus.MustRegister(bookingOps, itemToggles, httpRequests, httpDuration, domainEvents, cacheLookups)
	})
}

func IncBookingOp(op, result string) {
	bookingOps.WithLabelValues(op, result).Inc()
}

func IncItemToggle(status string) {
	itemToggles.WithLabelValues(status).Inc()
}

func ObserveHTTP(method, route string, code int, d time.Duration) {
	httpRequests.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
	httpDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

func IncCacheHit() {
	cacheLookups.WithLabelValues("hit").Inc()
}

func IncCacheMiss() {
	cacheLookups.WithLabelValues("miss").Inc()
}

func IncCacheError() {
	cacheLookups.WithLabelValues("error").Inc()
}

// Subscribe counts every domain event and tracks item status changes.
func Subscribe(bus *events.EventBus) {
	bus.Subscribe(events.All, func(e events.Event) error {
		domainEvents.WithLabelValues(e.Type).Inc()
		if e.Type != events.ItemStatusChanged {
			return nil
		}
		var p events.ItemPayload
		if err := e.Decode(&p); err != nil {
			return err
		}
		IncItemToggle(string(p.Status))
		return nil
	})
}
