package geography

import (
	"context"
	"fmt"

	"booking-and-scheduling/internal/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

// RepositoryInterface loads the service areas consulted by the validator.
type RepositoryInterface interface {
	ListActiveServiceAreas(ctx context.Context) ([]models.ServiceArea, error)
}

// Repository implements RepositoryInterface against PostgreSQL.
type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) RepositoryInterface {
	return &Repository{db: db}
}

// ListActiveServiceAreas returns every active facility center with its radius.
func (r *Repository) ListActiveServiceAreas(ctx context.Context) ([]models.ServiceArea, error) {
	const query = `
		SELECT id, name, latitude, longitude, max_radius_miles, express_radius_miles, active
		FROM service_areas
		WHERE active
		ORDER BY name`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("ListActiveServiceAreas failed: %w", err)
	}
	defer rows.Close()

	var areas []models.ServiceArea
	for rows.Next() {
		var a models.ServiceArea
		if err := rows.Scan(
			&a.ID, &a.Name, &a.Latitude, &a.Longitude,
			&a.MaxRadiusMiles, &a.ExpressRadiusMiles, &a.Active,
		); err != nil {
			return nil, fmt.Errorf("ListActiveServiceAreas Scan failed: %w", err)
		}
		areas = append(areas, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListActiveServiceAreas rows failed: %w", err)
	}
	return areas, nil
}
