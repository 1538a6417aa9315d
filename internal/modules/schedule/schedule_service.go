package schedule

import (
	"context"
	"fmt"
	"time"

	"booking-and-scheduling/internal/models"
)

// ServiceInterface is the calendar policy consumed by the availability
// calculator and the booking transaction manager. Holidays and overrides
// always win over standing weekly hours.
type ServiceInterface interface {
	IsOperatingDay(ctx context.Context, date time.Time) (bool, error)
	OperatingHours(ctx context.Context, date time.Time) (*models.TimeWindow, error)
	ActiveOverrides(ctx context.Context, from, to time.Time) ([]models.AvailabilityOverride, error)
	CreateOverride(ctx context.Context, req models.CreateOverrideRequest) (*models.AvailabilityOverride, error)
	DeleteOverride(ctx context.Context, id string) error
}

type service struct {
	repo RepositoryInterface
	loc  *time.Location
}

// NewService builds the calendar policy store. loc is the facility timezone
// in which wall-clock hours are interpreted.
func NewService(repo RepositoryInterface, loc *time.Location) ServiceInterface {
	return &service{repo: repo, loc: loc}
}

// IsOperatingDay reports whether any operating window exists on the date.
func (s *service) IsOperatingDay(ctx context.Context, date time.Time) (bool, error) {
	window, err := s.OperatingHours(ctx, date)
	if err != nil {
		return false, err
	}
	return window != nil, nil
}

// OperatingHours resolves the operating window for one calendar date.
// Resolution order: a closed override wins outright; an override with
// modified hours wins over weekly hours; otherwise the weekday's standing
// hours apply. A nil window means the facility is closed that day.
func (s *service) OperatingHours(ctx context.Context, date time.Time) (*models.TimeWindow, error) {
	day := date.In(s.loc)
	overrides, err := s.repo.ListOverrides(ctx, day, day)
	if err != nil {
		return nil, fmt.Errorf("schedule.OperatingHours: %w", err)
	}
	for _, o := range overrides {
		if !o.Covers(day) {
			continue
		}
		if o.Closed {
			return nil, nil
		}
		if o.OpenTime != "" && o.CloseTime != "" {
			return s.windowFor(day, o.OpenTime, o.CloseTime)
		}
	}

	wh, err := s.repo.GetWeeklyHours(ctx, int(day.Weekday()))
	if err != nil {
		if err == models.ErrNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("schedule.OperatingHours: %w", err)
	}
	if !wh.Active {
		return nil, nil
	}
	return s.windowFor(day, wh.OpenTime, wh.CloseTime)
}

// ActiveOverrides returns overrides intersecting the date range, for admin
// listing and for annotating availability responses.
func (s *service) ActiveOverrides(ctx context.Context, from, to time.Time) ([]models.AvailabilityOverride, error) {
	return s.repo.ListOverrides(ctx, from.In(s.loc), to.In(s.loc))
}

// CreateOverride validates and stores a new holiday/modified-hours override.
func (s *service) CreateOverride(ctx context.Context, req models.CreateOverrideRequest) (*models.AvailabilityOverride, error) {
	start, err := time.ParseInLocation("2006-01-02", req.StartDate, s.loc)
	if err != nil {
		return nil, &models.ValidationError{Field: "start_date", Reason: "must be YYYY-MM-DD"}
	}
	end, err := time.ParseInLocation("2006-01-02", req.EndDate, s.loc)
	if err != nil {
		return nil, &models.ValidationError{Field: "end_date", Reason: "must be YYYY-MM-DD"}
	}
	if end.Before(start) {
		return nil, &models.ValidationError{Field: "end_date", Reason: "must not precede start_date"}
	}
	if !req.Closed {
		if req.OpenTime == "" || req.CloseTime == "" {
			return nil, &models.ValidationError{Field: "open_time", Reason: "required when the override is not a closure"}
		}
		if req.CloseTime <= req.OpenTime {
			return nil, &models.ValidationError{Field: "close_time", Reason: "must be after open_time"}
		}
	}

	o := &models.AvailabilityOverride{
		StartDate: start,
		EndDate:   end,
		Closed:    req.Closed,
		OpenTime:  req.OpenTime,
		CloseTime: req.CloseTime,
		Reason:    req.Reason,
	}
	if err := s.repo.CreateOverride(ctx, o); err != nil {
		return nil, fmt.Errorf("schedule.CreateOverride: %w", err)
	}
	return o, nil
}

// DeleteOverride removes an override by id.
func (s *service) DeleteOverride(ctx context.Context, id string) error {
	return s.repo.DeleteOverride(ctx, id)
}

// windowFor anchors "HH:MM" wall-clock strings on the given date in the
// facility timezone.
func (s *service) windowFor(day time.Time, open, close string) (*models.TimeWindow, error) {
	openT, err := time.Parse("15:04", open)
	if err != nil {
		return nil, fmt.Errorf("schedule.windowFor: bad open_time %q: %w", open, err)
	}
	closeT, err := time.Parse("15:04", close)
	if err != nil {
		return nil, fmt.Errorf("schedule.windowFor: bad close_time %q: %w", close, err)
	}
	y, m, d := day.Date()
	return &models.TimeWindow{
		Start: time.Date(y, m, d, openT.Hour(), openT.Minute(), 0, 0, s.loc),
		End:   time.Date(y, m, d, closeT.Hour(), closeT.Minute(), 0, 0, s.loc),
	}, nil
}
