package availability

import (
	"context"
	"fmt"
	"time"

	"booking-and-scheduling/internal/models"
	"booking-and-scheduling/internal/modules/capacity"
	"booking-and-scheduling/internal/modules/geography"
	"booking-and-scheduling/internal/modules/schedule"
)

// ServiceInterface computes the offerable time windows for a date, service
// type and estimated weight. Read-only and advisory: no locks are taken and
// results may be briefly stale; the booking commit re-validates everything.
type ServiceInterface interface {
	Slots(ctx context.Context, req models.AvailabilityRequest) ([]models.SlotOption, error)
}

// Policy carries the scheduling knobs injected from config.
type Policy struct {
	SlotDuration   time.Duration
	MinLeadTime    time.Duration
	MaxAdvanceDays int
}

type service struct {
	scheduleSvc schedule.ServiceInterface
	geoSvc      geography.ServiceInterface
	capacitySvc capacity.ServiceInterface
	cache       Cache
	policy      Policy
	now         func() time.Time
}

// NewService wires the calendar policy store, geographic validator and
// capacity ledger together. cache may be nil to disable caching.
func NewService(
	scheduleSvc schedule.ServiceInterface,
	geoSvc geography.ServiceInterface,
	capacitySvc capacity.ServiceInterface,
	cache Cache,
	policy Policy,
) ServiceInterface {
	return &service{
		scheduleSvc: scheduleSvc,
		geoSvc:      geoSvc,
		capacitySvc: capacitySvc,
		cache:       cache,
		policy:      policy,
		now:         time.Now,
	}
}

// Slots produces the ordered candidate windows for the request. A slot is
// offered only when the date is an operating day, the slot start clears the
// lead-time and horizon policies, and at least one active vehicle still has
// enough free capacity for the estimated weight.
func (s *service) Slots(ctx context.Context, req models.AvailabilityRequest) ([]models.SlotOption, error) {
	if req.EstimatedWeightLbs <= 0 {
		return nil, &models.ValidationError{Field: "estimated_weight_lbs", Reason: "must be greater than zero"}
	}
	if req.ServiceType != models.ServiceTypeStandard && req.ServiceType != models.ServiceTypeExpress {
		return nil, &models.ValidationError{Field: "service_type", Reason: "must be standard or express"}
	}

	// Fail closed on unresolvable addresses, same as the commit path.
	if err := s.geoSvc.Validate(ctx, req.Latitude, req.Longitude, req.ServiceType); err != nil {
		return nil, err
	}

	if s.cache != nil {
		if slots, ok := s.cache.Get(ctx, cacheKey(req)); ok {
			return slots, nil
		}
	}

	hours, err := s.scheduleSvc.OperatingHours(ctx, req.Date)
	if err != nil {
		return nil, fmt.Errorf("availability.Slots: %w", err)
	}
	if hours == nil {
		// Closed day: nothing to offer.
		return []models.SlotOption{}, nil
	}

	vehicles, err := s.capacitySvc.ListActiveVehicles(ctx)
	if err != nil {
		return nil, fmt.Errorf("availability.Slots: %w", err)
	}

	earliest := s.now().Add(s.policy.MinLeadTime)
	horizon := s.now().AddDate(0, 0, s.policy.MaxAdvanceDays)

	slots := []models.SlotOption{}
	for start := hours.Start; !start.Add(s.policy.SlotDuration).After(hours.End); start = start.Add(s.policy.SlotDuration) {
		window := models.TimeWindow{Start: start, End: start.Add(s.policy.SlotDuration)}
		if window.Start.Before(earliest) || window.Start.After(horizon) {
			continue
		}

		best := 0.0
		for _, v := range vehicles {
			available, err := s.capacitySvc.AvailableCapacity(ctx, v, window)
			if err != nil {
				return nil, fmt.Errorf("availability.Slots: %w", err)
			}
			if available > best {
				best = available
			}
		}
		if best >= req.EstimatedWeightLbs {
			slots = append(slots, models.SlotOption{
				WindowStart:           window.Start,
				WindowEnd:             window.End,
				RemainingCapacityHint: best,
			})
		}
	}

	if s.cache != nil {
		s.cache.Set(ctx, cacheKey(req), slots)
	}
	return slots, nil
}

// cacheKey folds the request into a stable string. Coordinates are rounded so
// jittery geocodes for the same address share an entry.
func cacheKey(req models.AvailabilityRequest) string {
	return fmt.Sprintf("availability:%s:%s:%.0f:%.3f:%.3f",
		req.Date.Format("2006-01-02"), req.ServiceType,
		req.EstimatedWeightLbs, *req.Latitude, *req.Longitude)
}
