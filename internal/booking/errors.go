package booking

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidRange matches any *InvalidRangeError.
	ErrInvalidRange = errors.New("invalid range")
	// ErrConflict matches any *ConflictError.
	ErrConflict = errors.New("time slot unavailable")
	// ErrNotFound matches any *NotFoundError.
	ErrNotFound = errors.New("record missing")
	// ErrInvalidInput is returned for malformed booking fields other than the interval.
	ErrInvalidInput = errors.New("invalid input")
)

// InvalidRangeError reports a missing, unparseable or inverted interval bound.
type InvalidRangeError struct {
	Reason string
}

func (e *InvalidRangeError) Error() string {
	return fmt.Sprintf("invalid range: %s", e.Reason)
}

func (e *InvalidRangeError) Is(target error) bool {
	return target == ErrInvalidRange
}

// ConflictError reports that the item is already booked for part of the interval.
// The competing booking is deliberately not identified.
type ConflictError struct {
	ItemID int64
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("item %d: time slot unavailable", e.ItemID)
}

func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}

// NotFoundError reports a missing booking or item.
type NotFoundError struct {
	Entity string
	ID     int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Entity, e.ID)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// BookingNotFound builds a NotFoundError for a booking id.
func BookingNotFound(id int64) error {
	return &NotFoundError{Entity: "booking", ID: id}
}

// ItemNotFound builds a NotFoundError for an item id.
func ItemNotFound(id int64) error {
	return &NotFoundError{Entity: "item", ID: id}
}
