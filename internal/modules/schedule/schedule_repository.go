package schedule

import (
	"context"
	"errors"
	"fmt"
	"time"

	"booking-and-scheduling/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// RepositoryInterface defines the calendar policy reads plus the admin
// override writes. Callers re-read on every availability computation; the
// repository never caches.
type RepositoryInterface interface {
	GetWeeklyHours(ctx context.Context, dayOfWeek int) (*models.WeeklyHours, error)
	ListOverrides(ctx context.Context, from, to time.Time) ([]models.AvailabilityOverride, error)
	CreateOverride(ctx context.Context, o *models.AvailabilityOverride) error
	DeleteOverride(ctx context.Context, id string) error
}

// Repository implements RepositoryInterface against PostgreSQL.
type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) RepositoryInterface {
	return &Repository{db: db}
}

// GetWeeklyHours returns the standing hours for one weekday (0=Sunday).
// A missing or inactive row means the facility does not operate that day.
func (r *Repository) GetWeeklyHours(ctx context.Context, dayOfWeek int) (*models.WeeklyHours, error) {
	const query = `
		SELECT day_of_week, to_char(open_time, 'HH24:MI'), to_char(close_time, 'HH24:MI'), active
		FROM weekly_hours
		WHERE day_of_week = $1`
	wh := &models.WeeklyHours{}
	err := r.db.QueryRow(ctx, query, dayOfWeek).Scan(&wh.DayOfWeek, &wh.OpenTime, &wh.CloseTime, &wh.Active)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("GetWeeklyHours failed: %w", err)
	}
	return wh, nil
}

// ListOverrides returns every override whose date range intersects [from, to].
// The bounds are compared as calendar dates in their own location so a
// timestamptz cast can never shift them across a day boundary.
func (r *Repository) ListOverrides(ctx context.Context, from, to time.Time) ([]models.AvailabilityOverride, error) {
	const query = `
		SELECT id, start_date, end_date, closed,
		       COALESCE(to_char(open_time, 'HH24:MI'), ''),
		       COALESCE(to_char(close_time, 'HH24:MI'), ''),
		       COALESCE(reason, ''), created_at, updated_at
		FROM availability_overrides
		WHERE start_date <= $2::date AND end_date >= $1::date
		ORDER BY start_date`
	rows, err := r.db.Query(ctx, query, from.Format("2006-01-02"), to.Format("2006-01-02"))
	if err != nil {
		return nil, fmt.Errorf("ListOverrides failed: %w", err)
	}
	defer rows.Close()

	var overrides []models.AvailabilityOverride
	for rows.Next() {
		var o models.AvailabilityOverride
		if err := rows.Scan(
			&o.ID, &o.StartDate, &o.EndDate, &o.Closed,
			&o.OpenTime, &o.CloseTime, &o.Reason,
			&o.CreatedAt, &o.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("ListOverrides Scan failed: %w", err)
		}
		overrides = append(overrides, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListOverrides rows failed: %w", err)
	}
	return overrides, nil
}

// CreateOverride inserts a new override and fills in the generated fields.
func (r *Repository) CreateOverride(ctx context.Context, o *models.AvailabilityOverride) error {
	const query = `
		INSERT INTO availability_overrides (start_date, end_date, closed, open_time, close_time, reason)
		VALUES ($1, $2, $3, NULLIF($4, '')::time, NULLIF($5, '')::time, NULLIF($6, ''))
		RETURNING id, created_at, updated_at`
	err := r.db.QueryRow(ctx, query,
		o.StartDate, o.EndDate, o.Closed,
		o.OpenTime, o.CloseTime, o.Reason,
	).Scan(&o.ID, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return fmt.Errorf("CreateOverride failed: %w", err)
	}
	return nil
}

// DeleteOverride removes an override by id.
func (r *Repository) DeleteOverride(ctx context.Context, id string) error {
	const query = `DELETE FROM availability_overrides WHERE id = $1`
	cmd, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("DeleteOverride failed: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}
