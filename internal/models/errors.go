package models

import (
	"errors"
	"fmt"
)

var ErrNotFound = errors.New("requested resource not found")
var ErrForbidden = errors.New("user does not have permission to access this resource")

// ErrConflict indicates a low-level write conflict detected by the database
// (serialization failure or duplicate insert). It is retried internally before
// it ever reaches a caller.
var ErrConflict = errors.New("write conflict, request can be retried")

// ErrCapacityExceeded indicates that no vehicle has enough free capacity for
// the requested window at commit time.
var ErrCapacityExceeded = errors.New("no vehicle has sufficient capacity for the requested window")

// ErrScheduleClosed indicates the requested window falls outside operating
// hours or on a blackout date.
var ErrScheduleClosed = errors.New("requested window is outside operating hours")

// ErrBookingNotCancellable indicates the booking is already cancelled.
var ErrBookingNotCancellable = errors.New("booking cannot be cancelled")

// ErrUnavailable indicates the underlying storage could not be reached; the
// request may be retried.
var ErrUnavailable = errors.New("service temporarily unavailable")

// ValidationError reports which input constraint failed. It is always raised
// before any lock is taken.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// DistanceExceededError reports an address outside every active service area,
// including how far beyond the nearest radius it falls.
type DistanceExceededError struct {
	MilesOver float64
}

func (e *DistanceExceededError) Error() string {
	return fmt.Sprintf("address is %.1f miles outside the service area", e.MilesOver)
}

// ErrorResponse is the JSON body returned for every failed request.
type ErrorResponse struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}
