package geography

import (
	"context"
	"fmt"
	"math"

	"booking-and-scheduling/internal/models"
)

// earthRadiusMiles is the mean Earth radius used by the haversine formula.
const earthRadiusMiles = 3958.8

// ServiceInterface is the geographic validator. The same implementation backs
// both the availability preview and the booking commit so the two paths can
// never disagree on distance.
type ServiceInterface interface {
	Validate(ctx context.Context, lat, lon *float64, serviceType string) error
}

type service struct {
	repo RepositoryInterface
}

func NewService(repo RepositoryInterface) ServiceInterface {
	return &service{repo: repo}
}

// Validate checks the coordinates against every active service area and
// returns nil when at least one facility can serve them. Missing coordinates
// (failed upstream geocode) are rejected, never skipped. When no area
// qualifies the error carries the shortfall past the nearest radius.
func (s *service) Validate(ctx context.Context, lat, lon *float64, serviceType string) error {
	if lat == nil || lon == nil {
		return &models.ValidationError{Field: "address", Reason: "coordinates could not be resolved"}
	}

	areas, err := s.repo.ListActiveServiceAreas(ctx)
	if err != nil {
		return fmt.Errorf("geography.Validate: %w", err)
	}
	if len(areas) == 0 {
		return &models.DistanceExceededError{MilesOver: 0}
	}

	bestOver := math.Inf(1)
	for _, a := range areas {
		radius := a.MaxRadiusMiles
		if serviceType == models.ServiceTypeExpress && a.ExpressRadiusMiles != nil && *a.ExpressRadiusMiles < radius {
			radius = *a.ExpressRadiusMiles
		}
		d := Haversine(*lat, *lon, a.Latitude, a.Longitude)
		if d <= radius {
			return nil
		}
		if over := d - radius; over < bestOver {
			bestOver = over
		}
	}
	return &models.DistanceExceededError{MilesOver: math.Round(bestOver*10) / 10}
}

// Haversine returns the great-circle distance in miles between two points.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	phi1 := lat1 * math.Pi / 180
	phi2 := lat2 * math.Pi / 180
	dPhi := (lat2 - lat1) * math.Pi / 180
	dLambda := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	return earthRadiusMiles * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}
