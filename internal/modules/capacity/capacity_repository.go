package capacity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"booking-and-scheduling/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// CommittedCapacitySQL sums the estimated weight of all non-cancelled
// bookings plus all capacity blocks whose time range overlaps the half-open
// query window [$2, $3) for vehicle $1. Overlap test: s1 < e2 AND s2 < e1.
//
// The booking transaction manager runs this exact statement inside its commit
// transaction; keeping it in one place guarantees the preview and commit
// paths can never drift apart.
const CommittedCapacitySQL = `
	SELECT COALESCE((
		SELECT SUM(b.estimated_weight_lbs)
		FROM bookings b
		JOIN vehicle_assignments va ON va.booking_id = b.id
		WHERE va.vehicle_id = $1
		  AND b.status <> 'cancelled'
		  AND b.window_start < $3 AND $2 < b.window_end
	), 0) + COALESCE((
		SELECT SUM(cb.weight_lbs)
		FROM capacity_blocks cb
		WHERE cb.vehicle_id = $1
		  AND cb.window_start < $3 AND $2 < cb.window_end
	), 0)`

// RepositoryInterface defines the ledger reads plus the vehicle and capacity
// block storage operations.
type RepositoryInterface interface {
	CommittedCapacity(ctx context.Context, vehicleID string, window models.TimeWindow) (float64, error)
	ListActiveVehicles(ctx context.Context) ([]models.Vehicle, error)
	ListVehicles(ctx context.Context) ([]models.Vehicle, error)
	FindVehicleByID(ctx context.Context, id string) (*models.Vehicle, error)
	CreateCapacityBlock(ctx context.Context, block *models.CapacityBlock) error
	ListCapacityBlocks(ctx context.Context, from, to time.Time) ([]models.CapacityBlock, error)
	DeleteCapacityBlock(ctx context.Context, id string) error
}

// Repository implements RepositoryInterface against PostgreSQL.
type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) RepositoryInterface {
	return &Repository{db: db}
}

// CommittedCapacity answers "how much weight is already reserved for this
// vehicle in this window". Pure query, no locks; the authoritative re-check
// happens inside the booking commit transaction.
func (r *Repository) CommittedCapacity(ctx context.Context, vehicleID string, window models.TimeWindow) (float64, error) {
	var committed float64
	err := r.db.QueryRow(ctx, CommittedCapacitySQL, vehicleID, window.Start, window.End).Scan(&committed)
	if err != nil {
		return 0, fmt.Errorf("CommittedCapacity failed: %w", err)
	}
	return committed, nil
}

// ListActiveVehicles returns every vehicle currently eligible for assignment.
func (r *Repository) ListActiveVehicles(ctx context.Context) ([]models.Vehicle, error) {
	const query = `
		SELECT id, name, max_capacity_lbs, vehicle_class, active, created_at, updated_at
		FROM vehicles
		WHERE active
		ORDER BY created_at`
	return r.queryVehicles(ctx, query)
}

// ListVehicles returns the whole fleet including inactive vehicles.
func (r *Repository) ListVehicles(ctx context.Context) ([]models.Vehicle, error) {
	const query = `
		SELECT id, name, max_capacity_lbs, vehicle_class, active, created_at, updated_at
		FROM vehicles
		ORDER BY created_at`
	return r.queryVehicles(ctx, query)
}

func (r *Repository) queryVehicles(ctx context.Context, query string) ([]models.Vehicle, error) {
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("queryVehicles failed: %w", err)
	}
	defer rows.Close()

	var vehicles []models.Vehicle
	for rows.Next() {
		var v models.Vehicle
		if err := rows.Scan(
			&v.ID, &v.Name, &v.MaxCapacityLbs, &v.VehicleClass,
			&v.Active, &v.CreatedAt, &v.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("queryVehicles Scan failed: %w", err)
		}
		vehicles = append(vehicles, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("queryVehicles rows failed: %w", err)
	}
	return vehicles, nil
}

// FindVehicleByID fetches one vehicle.
func (r *Repository) FindVehicleByID(ctx context.Context, id string) (*models.Vehicle, error) {
	const query = `
		SELECT id, name, max_capacity_lbs, vehicle_class, active, created_at, updated_at
		FROM vehicles
		WHERE id = $1`
	v := &models.Vehicle{}
	err := r.db.QueryRow(ctx, query, id).Scan(
		&v.ID, &v.Name, &v.MaxCapacityLbs, &v.VehicleClass,
		&v.Active, &v.CreatedAt, &v.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("FindVehicleByID failed: %w", err)
	}
	return v, nil
}

// CreateCapacityBlock reserves vehicle capacity for a maintenance window or
// other non-booking exception.
func (r *Repository) CreateCapacityBlock(ctx context.Context, block *models.CapacityBlock) error {
	const query = `
		INSERT INTO capacity_blocks (vehicle_id, reason, window_start, window_end, weight_lbs)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`
	err := r.db.QueryRow(ctx, query,
		block.VehicleID, block.Reason,
		block.WindowStart, block.WindowEnd, block.WeightLbs,
	).Scan(&block.ID, &block.CreatedAt)
	if err != nil {
		return fmt.Errorf("CreateCapacityBlock failed: %w", err)
	}
	return nil
}

// ListCapacityBlocks returns blocks overlapping [from, to).
func (r *Repository) ListCapacityBlocks(ctx context.Context, from, to time.Time) ([]models.CapacityBlock, error) {
	const query = `
		SELECT id, vehicle_id, reason, window_start, window_end, weight_lbs, created_at
		FROM capacity_blocks
		WHERE window_start < $2 AND $1 < window_end
		ORDER BY window_start`
	rows, err := r.db.Query(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("ListCapacityBlocks failed: %w", err)
	}
	defer rows.Close()

	var blocks []models.CapacityBlock
	for rows.Next() {
		var b models.CapacityBlock
		if err := rows.Scan(
			&b.ID, &b.VehicleID, &b.Reason,
			&b.WindowStart, &b.WindowEnd, &b.WeightLbs, &b.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("ListCapacityBlocks Scan failed: %w", err)
		}
		blocks = append(blocks, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListCapacityBlocks rows failed: %w", err)
	}
	return blocks, nil
}

// DeleteCapacityBlock removes a block by id.
func (r *Repository) DeleteCapacityBlock(ctx context.Context, id string) error {
	const query = `DELETE FROM capacity_blocks WHERE id = $1`
	cmd, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("DeleteCapacityBlock failed: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}
