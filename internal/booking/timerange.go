package booking

import (
	"strings"
	"time"
)

// ParseInstant parses an RFC 3339 timestamp with offset. Bare dates and
// timestamps without an offset are rejected.
func ParseInstant(field, value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, &InvalidRangeError{Reason: field + " is required"}
	}
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}, &InvalidRangeError{Reason: field + " must be an RFC 3339 timestamp with offset"}
	}
	return t, nil
}

// ParseRange parses both bounds of a window.
func ParseRange(start, end string) (time.Time, time.Time, error) {
	s, err := ParseInstant("start", start)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	e, err := ParseInstant("end", end)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return s, e, nil
}

func requireBounds(start, end time.Time) error {
	if start.IsZero() {
		return &InvalidRangeError{Reason: "start is required"}
	}
	if end.IsZero() {
		return &InvalidRangeError{Reason: "end is required"}
	}
	return nil
}

func validateInterval(start, end time.Time) error {
	if err := requireBounds(start, end); err != nil {
		return err
	}
	if !end.After(start) {
		return &InvalidRangeError{Reason: "end must be after start"}
	}
	return nil
}
