package models

import (
	"encoding/json"
	"time"
)

// Booking statuses. A booking is inserted as confirmed (the conflict check and
// the insert happen in one transaction); cancellation is the only permitted
// mutation afterwards.
const (
	BookingStatusConfirmed = "confirmed"
	BookingStatusCancelled = "cancelled"
)

// Service types.
const (
	ServiceTypeStandard = "standard"
	ServiceTypeExpress  = "express"
)

// Booking kinds.
const (
	BookingKindPickup  = "pickup"
	BookingKindDropoff = "dropoff"
)

// Address is a street address plus the geocoordinates resolved upstream.
// Latitude/Longitude are pointers so a failed geocode is distinguishable from
// coordinates at the origin; the geographic validator fails closed on nil.
type Address struct {
	Street     string   `json:"street" validate:"required"`
	City       string   `json:"city" validate:"required"`
	Region     string   `json:"region" validate:"required"`
	PostalCode string   `json:"postal_code" validate:"required"`
	Country    string   `json:"country" validate:"required"`
	Latitude   *float64 `json:"latitude"`
	Longitude  *float64 `json:"longitude"`
}

// Booking is a committed pickup or drop-off reservation against a vehicle's
// capacity for a time window.
type Booking struct {
	ID                 string     `json:"id"`
	RequesterID        string     `json:"requester_id"`
	Kind               string     `json:"kind"`
	ServiceType        string     `json:"service_type"`
	Window             TimeWindow `json:"window"`
	Address            Address    `json:"address"`
	EstimatedWeightLbs float64    `json:"estimated_weight_lbs"`
	Status             string     `json:"status"`
	Notes              string     `json:"notes,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// CreateBookingRequest is the client input for committing a booking.
type CreateBookingRequest struct {
	IdempotencyKey     string    `json:"idempotency_key" validate:"required,min=8,max=128"`
	Kind               string    `json:"kind" validate:"required,oneof=pickup dropoff"`
	ServiceType        string    `json:"service_type" validate:"required,oneof=standard express"`
	WindowStart        time.Time `json:"window_start" validate:"required"`
	WindowEnd          time.Time `json:"window_end" validate:"required"`
	EstimatedWeightLbs float64   `json:"estimated_weight_lbs" validate:"required,gt=0"`
	Address            Address   `json:"address" validate:"required"`
	Notes              string    `json:"notes,omitempty" validate:"max=2000"`
}

// BookingResponse is the committed-booking payload returned to the caller.
// A replayed idempotency key returns this struct byte-identical to the
// original response.
type BookingResponse struct {
	BookingID         string    `json:"booking_id"`
	Status            string    `json:"status"`
	AssignedVehicleID string    `json:"assigned_vehicle_id"`
	WindowStart       time.Time `json:"window_start"`
	WindowEnd         time.Time `json:"window_end"`
}

// Idempotency outcomes.
const (
	IdempotencyOutcomeCommitted = "committed"
	IdempotencyOutcomeRejected  = "rejected"
)

// IdempotencyRecord maps a client-supplied key to the outcome of the booking
// attempt that first carried it. Created once, immutable afterwards, purged
// after the retention window.
type IdempotencyRecord struct {
	Key       string          `json:"key"`
	BookingID *string         `json:"booking_id,omitempty"`
	Outcome   string          `json:"outcome"`
	Response  json.RawMessage `json:"response"`
	CreatedAt time.Time       `json:"created_at"`
}

// AvailabilityRequest is the read-side query for offerable slots.
type AvailabilityRequest struct {
	Date               time.Time
	ServiceType        string
	EstimatedWeightLbs float64
	Latitude           *float64
	Longitude          *float64
}

// SlotOption is one offerable window annotated with the best remaining
// capacity across vehicles. The hint is advisory; the authoritative check
// happens at commit time.
type SlotOption struct {
	WindowStart           time.Time `json:"window_start"`
	WindowEnd             time.Time `json:"window_end"`
	RemainingCapacityHint float64   `json:"remaining_capacity_hint"`
}
