package events

import (
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"camrent/internal/models"
)

// Event types published by the booking lifecycle.
const (
	BookingCreated    = "booking.created"
	BookingUpdated    = "booking.updated"
	BookingCompleted  = "booking.completed"
	BookingDeleted    = "booking.deleted"
	ItemStatusChanged = "item.status_changed"

	// All subscribes a handler to every event type.
	All = "*"
)

// BookingPayload describes the booking affected by a booking.* event.
type BookingPayload struct {
	BookingID int64                `json:"booking_id"`
	ItemID    *int64               `json:"item_id"`
	Customer  string               `json:"customer"`
	Start     time.Time            `json:"start"`
	End       time.Time            `json:"end"`
	Price     int64                `json:"price"`
	Status    models.BookingStatus `json:"status"`
}

// ItemPayload describes an item.status_changed event.
type ItemPayload struct {
	ItemID int64             `json:"item_id"`
	Status models.ItemStatus `json:"status"`
}

// Event represents a lightweight domain event.
type Event struct {
	ID        int64           `json:"id"`
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"created_at"`
}

// Decode unmarshals the payload into v.
func (e Event) Decode(v interface{}) error {
	return json.Unmarshal(e.Payload, v)
}

// EventHandler reacts to an event.
type EventHandler func(event Event) error

// EventBus provides in-process pub/sub for events.
type EventBus struct {
	subscribers map[string][]EventHandler
	mu          sync.RWMutex
	seq         atomic.Int64
	onError     func(Event, error)
}

// NewEventBus constructs an empty bus.
func NewEventBus() *EventBus {
	return &EventBus{subscribers: make(map[string][]EventHandler)}
}

// OnError sets a callback for handler failures.
func (b *EventBus) OnError(fn func(Event, error)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.onError = fn
}

// Subscribe registers a handler for a given event type, or All.
func (b *EventBus) Subscribe(eventType string, handler EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[eventType] = append(b.subscribers[eventType], handler)
}

// Publish notifies subscribers of the event type and wildcard subscribers.
func (b *EventBus) Publish(event Event) {
	b.mu.RLock()
	handlers := append([]EventHandler(nil), b.subscribers[event.Type]...)
	handlers = append(handlers, b.subscribers[All]...)
	onError := b.onError
	b.mu.RUnlock()

	if event.ID == 0 {
		event.ID = b.seq.Add(1)
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	for _, handler := range handlers {
		// Handlers run synchronously; caller decides concurrency model.
		if err := handler(event); err != nil && onError != nil {
			onError(event, err)
		}
	}
}

// PublishJSON marshals payload and publishes it under eventType.
func (b *EventBus) PublishJSON(eventType string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", eventType, err)
	}
	b.Publish(Event{Type: eventType, Payload: data})
	return nil
}
