package geography

import (
	"context"
	"errors"
	"math"
	"testing"

	"booking-and-scheduling/internal/models"
)

// fakeAreaRepo serves a fixed set of service areas.
type fakeAreaRepo struct {
	areas []models.ServiceArea
}

func (f *fakeAreaRepo) ListActiveServiceAreas(ctx context.Context) ([]models.ServiceArea, error) {
	return f.areas, nil
}

func ptr(v float64) *float64 { return &v }

func TestHaversine(t *testing.T) {
	// One degree of longitude at the equator is about 69.1 miles.
	d := Haversine(0, 0, 0, 1)
	if math.Abs(d-69.09) > 0.5 {
		t.Errorf("Haversine(0,0 -> 0,1) = %.2f; want ~69.09", d)
	}
	// Zero distance for identical points.
	if d := Haversine(33.45, -112.07, 33.45, -112.07); d != 0 {
		t.Errorf("Haversine(same point) = %f; want 0", d)
	}
}

func TestValidateWithinRadius(t *testing.T) {
	repo := &fakeAreaRepo{areas: []models.ServiceArea{
		{ID: "hub", Latitude: 0, Longitude: 0, MaxRadiusMiles: 100, Active: true},
	}}
	svc := NewService(repo)

	// ~69 miles out: inside the 100 mile radius.
	if err := svc.Validate(context.Background(), ptr(0), ptr(1), models.ServiceTypeStandard); err != nil {
		t.Errorf("Validate inside radius returned error: %v", err)
	}
}

func TestValidateDistanceExceeded(t *testing.T) {
	repo := &fakeAreaRepo{areas: []models.ServiceArea{
		{ID: "hub", Latitude: 0, Longitude: 0, MaxRadiusMiles: 50, Active: true},
	}}
	svc := NewService(repo)

	err := svc.Validate(context.Background(), ptr(0), ptr(1), models.ServiceTypeStandard)
	var de *models.DistanceExceededError
	if !errors.As(err, &de) {
		t.Fatalf("Validate outside radius = %v; want DistanceExceededError", err)
	}
	// ~69.1 - 50 ≈ 19.1 miles over.
	if de.MilesOver < 18 || de.MilesOver > 20 {
		t.Errorf("MilesOver = %.1f; want ~19.1", de.MilesOver)
	}
}

func TestValidateFailsClosedOnMissingCoordinates(t *testing.T) {
	repo := &fakeAreaRepo{areas: []models.ServiceArea{
		{ID: "hub", Latitude: 0, Longitude: 0, MaxRadiusMiles: 100, Active: true},
	}}
	svc := NewService(repo)

	err := svc.Validate(context.Background(), nil, nil, models.ServiceTypeStandard)
	var ve *models.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("Validate with nil coordinates = %v; want ValidationError", err)
	}
}

func TestValidateExpressUsesTighterRadius(t *testing.T) {
	express := 50.0
	repo := &fakeAreaRepo{areas: []models.ServiceArea{
		{ID: "hub", Latitude: 0, Longitude: 0, MaxRadiusMiles: 100, ExpressRadiusMiles: &express, Active: true},
	}}
	svc := NewService(repo)

	// ~69 miles out: fine for standard, too far for express.
	if err := svc.Validate(context.Background(), ptr(0), ptr(1), models.ServiceTypeStandard); err != nil {
		t.Errorf("standard Validate returned error: %v", err)
	}
	err := svc.Validate(context.Background(), ptr(0), ptr(1), models.ServiceTypeExpress)
	var de *models.DistanceExceededError
	if !errors.As(err, &de) {
		t.Errorf("express Validate = %v; want DistanceExceededError", err)
	}
}

func TestValidateNoActiveAreas(t *testing.T) {
	svc := NewService(&fakeAreaRepo{})

	err := svc.Validate(context.Background(), ptr(0), ptr(0), models.ServiceTypeStandard)
	var de *models.DistanceExceededError
	if !errors.As(err, &de) {
		t.Errorf("Validate with no areas = %v; want DistanceExceededError", err)
	}
}
