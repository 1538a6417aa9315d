package capacity

import (
	"context"
	"fmt"
	"time"

	"booking-and-scheduling/internal/models"
)

// ServiceInterface is the capacity ledger plus the fleet and capacity block
// administration surface.
type ServiceInterface interface {
	CommittedCapacity(ctx context.Context, vehicleID string, window models.TimeWindow) (float64, error)
	AvailableCapacity(ctx context.Context, vehicle models.Vehicle, window models.TimeWindow) (float64, error)
	ListActiveVehicles(ctx context.Context) ([]models.Vehicle, error)
	ListFleet(ctx context.Context) ([]models.Vehicle, error)
	CreateCapacityBlock(ctx context.Context, req models.CreateCapacityBlockRequest) (*models.CapacityBlock, error)
	ListCapacityBlocks(ctx context.Context, from, to time.Time) ([]models.CapacityBlock, error)
	DeleteCapacityBlock(ctx context.Context, id string) error
}

type service struct {
	repo RepositoryInterface
}

func NewService(repo RepositoryInterface) ServiceInterface {
	return &service{repo: repo}
}

// CommittedCapacity proxies the ledger query.
func (s *service) CommittedCapacity(ctx context.Context, vehicleID string, window models.TimeWindow) (float64, error) {
	return s.repo.CommittedCapacity(ctx, vehicleID, window)
}

// AvailableCapacity is max capacity minus whatever overlapping bookings and
// blocks have already committed. Never negative.
func (s *service) AvailableCapacity(ctx context.Context, vehicle models.Vehicle, window models.TimeWindow) (float64, error) {
	committed, err := s.repo.CommittedCapacity(ctx, vehicle.ID, window)
	if err != nil {
		return 0, fmt.Errorf("capacity.AvailableCapacity: %w", err)
	}
	available := vehicle.MaxCapacityLbs - committed
	if available < 0 {
		available = 0
	}
	return available, nil
}

// ListActiveVehicles returns vehicles eligible for assignment.
func (s *service) ListActiveVehicles(ctx context.Context) ([]models.Vehicle, error) {
	return s.repo.ListActiveVehicles(ctx)
}

// ListFleet returns every vehicle, for the admin fleet view.
func (s *service) ListFleet(ctx context.Context) ([]models.Vehicle, error) {
	return s.repo.ListVehicles(ctx)
}

// CreateCapacityBlock validates and stores a maintenance/exception block.
// The block's weight may not exceed the vehicle's capacity.
func (s *service) CreateCapacityBlock(ctx context.Context, req models.CreateCapacityBlockRequest) (*models.CapacityBlock, error) {
	if !req.WindowStart.Before(req.WindowEnd) {
		return nil, &models.ValidationError{Field: "window_end", Reason: "must be after window_start"}
	}
	vehicle, err := s.repo.FindVehicleByID(ctx, req.VehicleID)
	if err != nil {
		return nil, err
	}
	if req.WeightLbs > vehicle.MaxCapacityLbs {
		return nil, &models.ValidationError{Field: "weight_lbs", Reason: "exceeds the vehicle's maximum capacity"}
	}

	block := &models.CapacityBlock{
		VehicleID:   req.VehicleID,
		Reason:      req.Reason,
		WindowStart: req.WindowStart,
		WindowEnd:   req.WindowEnd,
		WeightLbs:   req.WeightLbs,
	}
	if err := s.repo.CreateCapacityBlock(ctx, block); err != nil {
		return nil, fmt.Errorf("capacity.CreateCapacityBlock: %w", err)
	}
	return block, nil
}

// ListCapacityBlocks returns blocks overlapping the range.
func (s *service) ListCapacityBlocks(ctx context.Context, from, to time.Time) ([]models.CapacityBlock, error) {
	return s.repo.ListCapacityBlocks(ctx, from, to)
}

// DeleteCapacityBlock removes a block, releasing its reserved capacity.
func (s *service) DeleteCapacityBlock(ctx context.Context, id string) error {
	return s.repo.DeleteCapacityBlock(ctx, id)
}
