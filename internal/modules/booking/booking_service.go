package booking

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sort"
	"time"

	"booking-and-scheduling/internal/models"
	"booking-and-scheduling/internal/modules/capacity"
	"booking-and-scheduling/internal/modules/geography"
	"booking-and-scheduling/internal/modules/schedule"

	"github.com/google/uuid"
)

// ServiceInterface is the booking transaction manager.
type ServiceInterface interface {
	Create(ctx context.Context, requesterID string, req models.CreateBookingRequest) (*models.BookingResponse, bool, error)
	Cancel(ctx context.Context, bookingID, requesterID, role string) error
	GetBooking(ctx context.Context, bookingID, requesterID, role string) (*models.Booking, string, error)
	ListMyBookings(ctx context.Context, requesterID string) ([]*models.Booking, error)
	PurgeExpiredIdempotency(ctx context.Context) (int64, error)
}

// EventPublisher is the downstream boundary: committed bookings are announced
// for the notification subsystem. Publishing is best effort and never fails a
// commit.
type EventPublisher interface {
	PublishJSON(ctx context.Context, key string, v any) error
}

// Candidate is a vehicle able to serve a window together with its free
// capacity there.
type Candidate struct {
	Vehicle   models.Vehicle
	Available float64
}

// RankFunc orders qualifying candidates by preference. Pluggable policy, not
// a correctness concern: any order yields a consistent ledger.
type RankFunc func([]Candidate, float64)

// BestFit prefers the vehicle with the smallest leftover capacity, keeping
// larger vehicles free for bigger shipments.
func BestFit(cands []Candidate, weight float64) {
	sort.SliceStable(cands, func(i, j int) bool {
		return cands[i].Available < cands[j].Available
	})
}

// Policy carries the commit knobs injected from config.
type Policy struct {
	MaxAdvanceDays       int
	CommitRetries        int
	CommitTimeout        time.Duration
	IdempotencyRetention time.Duration
}

type service struct {
	repo        RepositoryInterface
	idemRepo    IdempotencyRepositoryInterface
	scheduleSvc schedule.ServiceInterface
	geoSvc      geography.ServiceInterface
	capacitySvc capacity.ServiceInterface
	publisher   EventPublisher
	policy      Policy
	rank        RankFunc
	now         func() time.Time
}

// NewService wires the transaction manager. publisher may be nil when no
// broker is configured.
func NewService(
	repo RepositoryInterface,
	idemRepo IdempotencyRepositoryInterface,
	scheduleSvc schedule.ServiceInterface,
	geoSvc geography.ServiceInterface,
	capacitySvc capacity.ServiceInterface,
	publisher EventPublisher,
	policy Policy,
) ServiceInterface {
	return &service{
		repo:        repo,
		idemRepo:    idemRepo,
		scheduleSvc: scheduleSvc,
		geoSvc:      geoSvc,
		capacitySvc: capacitySvc,
		publisher:   publisher,
		policy:      policy,
		rank:        BestFit,
		now:         time.Now,
	}
}

// Create commits a booking. The sequence follows the commit protocol:
// idempotency fast path, re-validation, candidate selection, then the atomic
// reserve (which re-checks everything that matters under locks). A lost race
// is retried against fresh state up to the configured bound.
func (s *service) Create(ctx context.Context, requesterID string, req models.CreateBookingRequest) (*models.BookingResponse, bool, error) {
	// Fast path: a consumed key replays the stored outcome before anything
	// else runs, so a delayed retry still gets its confirmation even after
	// the window start has passed. The authoritative re-check happens again
	// under the per-key lock inside the transaction.
	if rec, err := s.idemRepo.Get(ctx, req.IdempotencyKey); err == nil {
		resp, err := decodeResponse(rec)
		return resp, true, err
	} else if !errors.Is(err, models.ErrNotFound) {
		return nil, false, fmt.Errorf("booking.Create idempotency: %w", err)
	}

	if err := s.validateWindow(req); err != nil {
		return nil, false, err
	}

	if err := s.geoSvc.Validate(ctx, req.Address.Latitude, req.Address.Longitude, req.ServiceType); err != nil {
		return nil, false, err
	}

	window := models.TimeWindow{Start: req.WindowStart, End: req.WindowEnd}
	if err := s.checkSchedule(ctx, window); err != nil {
		return nil, false, err
	}

	for attempt := 0; attempt <= s.policy.CommitRetries; attempt++ {
		candidates, err := s.rankedCandidates(ctx, window, req.EstimatedWeightLbs)
		if err != nil {
			return nil, false, err
		}
		if len(candidates) == 0 {
			return nil, false, models.ErrCapacityExceeded
		}

		resp, replayed, err := s.tryCandidates(ctx, requesterID, req, window, candidates)
		if err == nil {
			return resp, replayed, nil
		}
		if !errors.Is(err, models.ErrConflict) {
			return nil, false, err
		}
		// Lost the race; pick again from fresh state.
	}
	return nil, false, models.ErrConflict
}

// tryCandidates walks the ranked vehicles and attempts the atomic reserve on
// each. A vehicle whose capacity vanished is skipped; a write conflict aborts
// the pass so the caller can re-rank.
func (s *service) tryCandidates(ctx context.Context, requesterID string, req models.CreateBookingRequest, window models.TimeWindow, candidates []Candidate) (*models.BookingResponse, bool, error) {
	for _, cand := range candidates {
		b := &models.Booking{
			ID:                 uuid.NewString(),
			RequesterID:        requesterID,
			Kind:               req.Kind,
			ServiceType:        req.ServiceType,
			Window:             window,
			Address:            req.Address,
			EstimatedWeightLbs: req.EstimatedWeightLbs,
			Notes:              req.Notes,
		}
		resp := &models.BookingResponse{
			BookingID:         b.ID,
			Status:            models.BookingStatusConfirmed,
			AssignedVehicleID: cand.Vehicle.ID,
			WindowStart:       window.Start,
			WindowEnd:         window.End,
		}
		raw, err := json.Marshal(resp)
		if err != nil {
			return nil, false, fmt.Errorf("booking.tryCandidates marshal: %w", err)
		}
		rec := &models.IdempotencyRecord{
			Key:       req.IdempotencyKey,
			BookingID: &b.ID,
			Outcome:   models.IdempotencyOutcomeCommitted,
			Response:  raw,
		}

		attemptCtx, cancel := context.WithTimeout(ctx, s.policy.CommitTimeout)
		replay, err := s.repo.ReserveWithVehicle(attemptCtx, cand.Vehicle.ID, b, rec)
		cancel()

		switch {
		case err == nil && replay != nil:
			prior, err := decodeResponse(replay)
			return prior, true, err
		case err == nil:
			s.publishConfirmed(ctx, b, cand.Vehicle.ID)
			return resp, false, nil
		case errors.Is(err, models.ErrCapacityExceeded):
			continue
		case errors.Is(err, context.DeadlineExceeded) || errors.Is(attemptCtx.Err(), context.DeadlineExceeded):
			// Timed out waiting on a lock; the transaction rolled back cleanly.
			return nil, false, models.ErrConflict
		default:
			return nil, false, err
		}
	}
	return nil, false, models.ErrCapacityExceeded
}

// rankedCandidates lists active vehicles whose free capacity covers the
// weight, ordered by the configured policy. Reads are lock-free; the reserve
// re-checks under locks.
func (s *service) rankedCandidates(ctx context.Context, window models.TimeWindow, weight float64) ([]Candidate, error) {
	vehicles, err := s.capacitySvc.ListActiveVehicles(ctx)
	if err != nil {
		return nil, fmt.Errorf("booking.rankedCandidates: %w", err)
	}

	var candidates []Candidate
	for _, v := range vehicles {
		available, err := s.capacitySvc.AvailableCapacity(ctx, v, window)
		if err != nil {
			return nil, fmt.Errorf("booking.rankedCandidates: %w", err)
		}
		if available >= weight {
			candidates = append(candidates, Candidate{Vehicle: v, Available: available})
		}
	}
	s.rank(candidates, weight)
	return candidates, nil
}

// Cancel transitions confirmed -> cancelled for the owner or an admin,
// releasing the booking's reserved capacity.
func (s *service) Cancel(ctx context.Context, bookingID, requesterID, role string) error {
	b, _, err := s.repo.FindByID(ctx, bookingID)
	if err != nil {
		return err
	}
	if b.RequesterID != requesterID && role != "admin" {
		return models.ErrForbidden
	}
	if err := s.repo.Cancel(ctx, bookingID); err != nil {
		return err
	}

	if s.publisher != nil {
		go func(ctx context.Context) {
			if err := s.publisher.PublishJSON(ctx, "booking.cancelled", map[string]string{
				"booking_id": bookingID,
			}); err != nil {
				log.Printf("booking: publish cancel event: %v", err)
			}
		}(context.WithoutCancel(ctx))
	}
	return nil
}

// GetBooking returns a booking and its assigned vehicle to the owner or an
// admin. Non-owners get NotFound to avoid leaking existence.
func (s *service) GetBooking(ctx context.Context, bookingID, requesterID, role string) (*models.Booking, string, error) {
	b, vehicleID, err := s.repo.FindByID(ctx, bookingID)
	if err != nil {
		return nil, "", err
	}
	if b.RequesterID != requesterID && role != "admin" {
		return nil, "", models.ErrNotFound
	}
	return b, vehicleID, nil
}

// ListMyBookings returns the caller's bookings.
func (s *service) ListMyBookings(ctx context.Context, requesterID string) ([]*models.Booking, error) {
	return s.repo.ListByRequester(ctx, requesterID)
}

// PurgeExpiredIdempotency drops idempotency records past the retention
// window; run periodically from the composition root.
func (s *service) PurgeExpiredIdempotency(ctx context.Context) (int64, error) {
	return s.idemRepo.PurgeExpired(ctx, s.policy.IdempotencyRetention)
}

// validateWindow enforces the pre-lock input invariants: start < end, start
// strictly in the future, and within the advance-booking horizon.
func (s *service) validateWindow(req models.CreateBookingRequest) error {
	if req.EstimatedWeightLbs <= 0 {
		return &models.ValidationError{Field: "estimated_weight_lbs", Reason: "must be greater than zero"}
	}
	if !req.WindowStart.Before(req.WindowEnd) {
		return &models.ValidationError{Field: "window_end", Reason: "must be after window_start"}
	}
	if !req.WindowStart.After(s.now()) {
		return &models.ValidationError{Field: "window_start", Reason: "must be in the future"}
	}
	if req.WindowStart.After(s.now().AddDate(0, 0, s.policy.MaxAdvanceDays)) {
		return &models.ValidationError{Field: "window_start", Reason: fmt.Sprintf("beyond the %d-day booking horizon", s.policy.MaxAdvanceDays)}
	}
	return nil
}

// checkSchedule rejects windows on closed days or outside operating hours.
func (s *service) checkSchedule(ctx context.Context, window models.TimeWindow) error {
	hours, err := s.scheduleSvc.OperatingHours(ctx, window.Start)
	if err != nil {
		return fmt.Errorf("booking.checkSchedule: %w", err)
	}
	if hours == nil {
		return models.ErrScheduleClosed
	}
	if window.Start.Before(hours.Start) || window.End.After(hours.End) {
		return models.ErrScheduleClosed
	}
	return nil
}

func (s *service) publishConfirmed(ctx context.Context, b *models.Booking, vehicleID string) {
	if s.publisher == nil {
		return
	}
	go func(ctx context.Context) {
		if err := s.publisher.PublishJSON(ctx, "booking.confirmed", map[string]any{
			"booking_id":   b.ID,
			"requester_id": b.RequesterID,
			"vehicle_id":   vehicleID,
			"window_start": b.Window.Start,
			"window_end":   b.Window.End,
		}); err != nil {
			log.Printf("booking: publish confirm event: %v", err)
		}
	}(context.WithoutCancel(ctx))
}

func decodeResponse(rec *models.IdempotencyRecord) (*models.BookingResponse, error) {
	resp := &models.BookingResponse{}
	if err := json.Unmarshal(rec.Response, resp); err != nil {
		return nil, fmt.Errorf("booking.decodeResponse: %w", err)
	}
	return resp, nil
}
