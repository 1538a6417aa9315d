package models

import "time"

// Vehicle statuses are intentionally absent: a vehicle is either active
// (schedulable) or not. Per-window load is derived from the capacity ledger.
type Vehicle struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	MaxCapacityLbs float64   `json:"max_capacity_lbs"`
	VehicleClass   string    `json:"vehicle_class"`
	Active         bool      `json:"active"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// VehicleAssignment links one booking to the vehicle that serves it. It is
// created in the same transaction as its booking and removed on cancellation.
type VehicleAssignment struct {
	ID        string    `json:"id"`
	BookingID string    `json:"booking_id"`
	VehicleID string    `json:"vehicle_id"`
	CreatedAt time.Time `json:"created_at"`
}

// CapacityBlock reserves vehicle capacity independent of bookings, e.g. a
// maintenance window. It participates in the ledger's overlap sum exactly
// like a booking.
type CapacityBlock struct {
	ID          string    `json:"id"`
	VehicleID   string    `json:"vehicle_id"`
	Reason      string    `json:"reason"`
	WindowStart time.Time `json:"window_start"`
	WindowEnd   time.Time `json:"window_end"`
	WeightLbs   float64   `json:"weight_lbs"`
	CreatedAt   time.Time `json:"created_at"`
}

// CreateCapacityBlockRequest is the admin input for a new capacity block.
type CreateCapacityBlockRequest struct {
	VehicleID   string    `json:"vehicle_id" validate:"required,uuid"`
	Reason      string    `json:"reason" validate:"required"`
	WindowStart time.Time `json:"window_start" validate:"required"`
	WindowEnd   time.Time `json:"window_end" validate:"required"`
	WeightLbs   float64   `json:"weight_lbs" validate:"required,gt=0"`
}
