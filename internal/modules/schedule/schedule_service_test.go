package schedule

import (
	"context"
	"errors"
	"testing"
	"time"

	"booking-and-scheduling/internal/models"
)

type fakeScheduleRepo struct {
	weekly    map[int]*models.WeeklyHours
	overrides []models.AvailabilityOverride
	deleted   []string
}

func (f *fakeScheduleRepo) GetWeeklyHours(ctx context.Context, dayOfWeek int) (*models.WeeklyHours, error) {
	wh, ok := f.weekly[dayOfWeek]
	if !ok {
		return nil, models.ErrNotFound
	}
	return wh, nil
}

func (f *fakeScheduleRepo) ListOverrides(ctx context.Context, from, to time.Time) ([]models.AvailabilityOverride, error) {
	return f.overrides, nil
}

func (f *fakeScheduleRepo) CreateOverride(ctx context.Context, o *models.AvailabilityOverride) error {
	o.ID = "override-1"
	f.overrides = append(f.overrides, *o)
	return nil
}

func (f *fakeScheduleRepo) DeleteOverride(ctx context.Context, id string) error {
	f.deleted = append(f.deleted, id)
	return nil
}

func allWeekHours(open, close string) map[int]*models.WeeklyHours {
	weekly := make(map[int]*models.WeeklyHours)
	for d := 0; d < 7; d++ {
		weekly[d] = &models.WeeklyHours{DayOfWeek: d, OpenTime: open, CloseTime: close, Active: true}
	}
	return weekly
}

func TestOperatingHoursWeekly(t *testing.T) {
	repo := &fakeScheduleRepo{weekly: allWeekHours("08:00", "18:00")}
	svc := NewService(repo, time.UTC)

	date := time.Date(2026, 9, 14, 0, 0, 0, 0, time.UTC)
	hours, err := svc.OperatingHours(context.Background(), date)
	if err != nil {
		t.Fatalf("OperatingHours returned error: %v", err)
	}
	if hours == nil {
		t.Fatal("OperatingHours = nil; want a window")
	}
	wantStart := time.Date(2026, 9, 14, 8, 0, 0, 0, time.UTC)
	wantEnd := time.Date(2026, 9, 14, 18, 0, 0, 0, time.UTC)
	if !hours.Start.Equal(wantStart) || !hours.End.Equal(wantEnd) {
		t.Errorf("OperatingHours = [%v, %v); want [%v, %v)", hours.Start, hours.End, wantStart, wantEnd)
	}
}

func TestOperatingHoursInactiveWeekday(t *testing.T) {
	date := time.Date(2026, 9, 13, 0, 0, 0, 0, time.UTC)
	repo := &fakeScheduleRepo{weekly: map[int]*models.WeeklyHours{
		int(date.Weekday()): {DayOfWeek: int(date.Weekday()), OpenTime: "08:00", CloseTime: "18:00", Active: false},
	}}
	svc := NewService(repo, time.UTC)

	hours, err := svc.OperatingHours(context.Background(), date)
	if err != nil {
		t.Fatalf("OperatingHours returned error: %v", err)
	}
	if hours != nil {
		t.Errorf("OperatingHours on inactive weekday = %v; want nil", hours)
	}
}

func TestOperatingHoursClosedOverrideWins(t *testing.T) {
	date := time.Date(2026, 12, 25, 0, 0, 0, 0, time.UTC)
	repo := &fakeScheduleRepo{
		weekly: allWeekHours("08:00", "18:00"),
		overrides: []models.AvailabilityOverride{
			{StartDate: date, EndDate: date, Closed: true, Reason: "holiday"},
		},
	}
	svc := NewService(repo, time.UTC)

	hours, err := svc.OperatingHours(context.Background(), date)
	if err != nil {
		t.Fatalf("OperatingHours returned error: %v", err)
	}
	if hours != nil {
		t.Errorf("OperatingHours on holiday = %v; want nil", hours)
	}

	open, err := svc.IsOperatingDay(context.Background(), date)
	if err != nil {
		t.Fatalf("IsOperatingDay returned error: %v", err)
	}
	if open {
		t.Error("IsOperatingDay on holiday = true; want false")
	}
}

func TestOperatingHoursClosedOverrideNonUTCTimezone(t *testing.T) {
	// Late evening local time sits on the previous UTC date; the closure must
	// still cover the whole local day.
	loc := time.FixedZone("UTC+5", 5*3600)
	holiday := time.Date(2026, 12, 25, 0, 0, 0, 0, loc)
	repo := &fakeScheduleRepo{
		weekly: allWeekHours("08:00", "18:00"),
		overrides: []models.AvailabilityOverride{
			{StartDate: holiday, EndDate: holiday, Closed: true, Reason: "holiday"},
		},
	}
	svc := NewService(repo, loc)

	hours, err := svc.OperatingHours(context.Background(), time.Date(2026, 12, 25, 23, 0, 0, 0, loc))
	if err != nil {
		t.Fatalf("OperatingHours returned error: %v", err)
	}
	if hours != nil {
		t.Errorf("OperatingHours at 23:00 local on the holiday = %v; want nil (closed)", hours)
	}

	// The closure must not bleed into the next local day, whose early hours
	// share the holiday's UTC date.
	hours, err = svc.OperatingHours(context.Background(), time.Date(2026, 12, 26, 3, 0, 0, 0, loc))
	if err != nil {
		t.Fatalf("OperatingHours returned error: %v", err)
	}
	if hours == nil {
		t.Error("OperatingHours on the day after the holiday = nil; want the weekly window")
	}
}

func TestOperatingHoursModifiedOverride(t *testing.T) {
	date := time.Date(2026, 12, 24, 0, 0, 0, 0, time.UTC)
	repo := &fakeScheduleRepo{
		weekly: allWeekHours("08:00", "18:00"),
		overrides: []models.AvailabilityOverride{
			{StartDate: date, EndDate: date, Closed: false, OpenTime: "09:00", CloseTime: "13:00"},
		},
	}
	svc := NewService(repo, time.UTC)

	hours, err := svc.OperatingHours(context.Background(), date)
	if err != nil {
		t.Fatalf("OperatingHours returned error: %v", err)
	}
	if hours == nil {
		t.Fatal("OperatingHours = nil; want the modified window")
	}
	if hours.Start.Hour() != 9 || hours.End.Hour() != 13 {
		t.Errorf("OperatingHours = [%v, %v); want 09:00-13:00", hours.Start, hours.End)
	}
}

func TestOperatingHoursOverrideOutsideRangeIgnored(t *testing.T) {
	repo := &fakeScheduleRepo{
		weekly: allWeekHours("08:00", "18:00"),
		overrides: []models.AvailabilityOverride{
			{
				StartDate: time.Date(2026, 12, 25, 0, 0, 0, 0, time.UTC),
				EndDate:   time.Date(2026, 12, 25, 0, 0, 0, 0, time.UTC),
				Closed:    true,
			},
		},
	}
	svc := NewService(repo, time.UTC)

	hours, err := svc.OperatingHours(context.Background(), time.Date(2026, 12, 28, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("OperatingHours returned error: %v", err)
	}
	if hours == nil {
		t.Error("OperatingHours = nil; override for another date should not apply")
	}
}

func TestCreateOverrideValidation(t *testing.T) {
	repo := &fakeScheduleRepo{}
	svc := NewService(repo, time.UTC)
	ctx := context.Background()

	tests := []struct {
		name string
		req  models.CreateOverrideRequest
	}{
		{"bad start date", models.CreateOverrideRequest{StartDate: "25-12-2026", EndDate: "2026-12-25", Closed: true}},
		{"end before start", models.CreateOverrideRequest{StartDate: "2026-12-26", EndDate: "2026-12-25", Closed: true}},
		{"modified hours missing times", models.CreateOverrideRequest{StartDate: "2026-12-24", EndDate: "2026-12-24", Closed: false}},
		{"close before open", models.CreateOverrideRequest{StartDate: "2026-12-24", EndDate: "2026-12-24", Closed: false, OpenTime: "13:00", CloseTime: "09:00"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.CreateOverride(ctx, tc.req)
			var ve *models.ValidationError
			if !errors.As(err, &ve) {
				t.Errorf("CreateOverride = %v; want ValidationError", err)
			}
		})
	}
}

func TestCreateOverrideStoresClosure(t *testing.T) {
	repo := &fakeScheduleRepo{}
	svc := NewService(repo, time.UTC)

	o, err := svc.CreateOverride(context.Background(), models.CreateOverrideRequest{
		StartDate: "2026-12-24",
		EndDate:   "2026-12-26",
		Closed:    true,
		Reason:    "holiday closure",
	})
	if err != nil {
		t.Fatalf("CreateOverride returned error: %v", err)
	}
	if !o.Closed || o.Reason != "holiday closure" {
		t.Errorf("stored override = %+v; want a closed holiday override", o)
	}
	if len(repo.overrides) != 1 {
		t.Errorf("repo holds %d overrides; want 1", len(repo.overrides))
	}
}
