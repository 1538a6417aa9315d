package booking

import (
	"context"
	"errors"
	"fmt"

	"booking-and-scheduling/internal/models"
	"booking-and-scheduling/internal/modules/capacity"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// RepositoryInterface defines the booking write path and reads.
//
// ReserveWithVehicle is the atomic commit unit: idempotency check,
// capacity re-check and the booking/assignment/idempotency inserts all happen
// in one transaction. It returns a non-nil IdempotencyRecord when the key was
// already consumed (replay); the caller must return that record's stored
// response verbatim.
type RepositoryInterface interface {
	ReserveWithVehicle(ctx context.Context, vehicleID string, b *models.Booking, rec *models.IdempotencyRecord) (*models.IdempotencyRecord, error)
	FindByID(ctx context.Context, bookingID string) (*models.Booking, string, error)
	ListByRequester(ctx context.Context, requesterID string) ([]*models.Booking, error)
	Cancel(ctx context.Context, bookingID string) error
}

// Repository implements RepositoryInterface against PostgreSQL.
type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) RepositoryInterface {
	return &Repository{db: db}
}

const bookingColumns = `
	id, requester_id, kind, service_type, window_start, window_end,
	street, city, region, postal_code, country, latitude, longitude,
	estimated_weight_lbs, status, COALESCE(notes, ''), created_at, updated_at`

// ReserveWithVehicle executes the commit protocol for one candidate vehicle:
//
//  1. take the per-key advisory lock, so a concurrent retry with the same key
//     blocks here until this transaction's idempotency record is visible;
//  2. re-read the idempotency store and short-circuit on a hit;
//  3. take the per-(vehicle, window date) advisory lock, closing the
//     read-then-insert race between two commits on the same contended window;
//  4. re-run the capacity ledger sum inside the transaction and abort with
//     ErrCapacityExceeded if the booking no longer fits;
//  5. insert the booking, its vehicle assignment and the idempotency record.
//
// Serialization failures and duplicate-key violations surface as ErrConflict
// so the service can retry against fresh state.
func (r *Repository) ReserveWithVehicle(ctx context.Context, vehicleID string, b *models.Booking, rec *models.IdempotencyRecord) (*models.IdempotencyRecord, error) {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return nil, fmt.Errorf("ReserveWithVehicle begin: %w: %v", models.ErrUnavailable, err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`, "idem:"+rec.Key); err != nil {
		return nil, fmt.Errorf("ReserveWithVehicle key lock: %w", translatePgError(err))
	}

	existing, err := getIdempotencyRecord(ctx, tx, rec.Key)
	if err != nil && !errors.Is(err, models.ErrNotFound) {
		return nil, fmt.Errorf("ReserveWithVehicle idempotency check: %w", err)
	}
	if existing != nil {
		return existing, nil
	}

	lockKey := fmt.Sprintf("vehicle:%s:%s", vehicleID, b.Window.Start.UTC().Format("2006-01-02"))
	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`, lockKey); err != nil {
		return nil, fmt.Errorf("ReserveWithVehicle vehicle lock: %w", translatePgError(err))
	}

	var maxCapacity float64
	err = tx.QueryRow(ctx, `SELECT max_capacity_lbs FROM vehicles WHERE id = $1 AND active`, vehicleID).Scan(&maxCapacity)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Vehicle deactivated between selection and commit.
			return nil, models.ErrCapacityExceeded
		}
		return nil, fmt.Errorf("ReserveWithVehicle vehicle read: %w", translatePgError(err))
	}

	var committed float64
	if err := tx.QueryRow(ctx, capacity.CommittedCapacitySQL, vehicleID, b.Window.Start, b.Window.End).Scan(&committed); err != nil {
		return nil, fmt.Errorf("ReserveWithVehicle ledger: %w", translatePgError(err))
	}
	if committed+b.EstimatedWeightLbs > maxCapacity {
		return nil, models.ErrCapacityExceeded
	}

	const insertBooking = `
		INSERT INTO bookings (id, requester_id, kind, service_type, window_start, window_end,
		                      street, city, region, postal_code, country, latitude, longitude,
		                      estimated_weight_lbs, status, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, NULLIF($16, ''))
		RETURNING created_at, updated_at`
	err = tx.QueryRow(ctx, insertBooking,
		b.ID, b.RequesterID, b.Kind, b.ServiceType, b.Window.Start, b.Window.End,
		b.Address.Street, b.Address.City, b.Address.Region, b.Address.PostalCode, b.Address.Country,
		b.Address.Latitude, b.Address.Longitude,
		b.EstimatedWeightLbs, models.BookingStatusConfirmed, b.Notes,
	).Scan(&b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("ReserveWithVehicle insert booking: %w", translatePgError(err))
	}
	b.Status = models.BookingStatusConfirmed

	const insertAssignment = `
		INSERT INTO vehicle_assignments (booking_id, vehicle_id)
		VALUES ($1, $2)`
	if _, err := tx.Exec(ctx, insertAssignment, b.ID, vehicleID); err != nil {
		return nil, fmt.Errorf("ReserveWithVehicle insert assignment: %w", translatePgError(err))
	}

	const insertRecord = `
		INSERT INTO idempotency_records (key, booking_id, outcome, response)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at`
	if err := tx.QueryRow(ctx, insertRecord, rec.Key, rec.BookingID, rec.Outcome, rec.Response).Scan(&rec.CreatedAt); err != nil {
		return nil, fmt.Errorf("ReserveWithVehicle insert idempotency: %w", translatePgError(err))
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("ReserveWithVehicle commit: %w", translatePgError(err))
	}
	return nil, nil
}

// FindByID returns the booking and its assigned vehicle id (empty when the
// booking is cancelled).
func (r *Repository) FindByID(ctx context.Context, bookingID string) (*models.Booking, string, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`
	b, err := scanBooking(r.db.QueryRow(ctx, query, bookingID))
	if err != nil {
		return nil, "", err
	}

	var vehicleID string
	err = r.db.QueryRow(ctx, `SELECT vehicle_id FROM vehicle_assignments WHERE booking_id = $1`, bookingID).Scan(&vehicleID)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, "", fmt.Errorf("FindByID assignment: %w", err)
	}
	return b, vehicleID, nil
}

// ListByRequester returns the caller's bookings, newest first.
func (r *Repository) ListByRequester(ctx context.Context, requesterID string) ([]*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE requester_id = $1 ORDER BY created_at DESC`
	rows, err := r.db.Query(ctx, query, requesterID)
	if err != nil {
		return nil, fmt.Errorf("ListByRequester failed: %w", err)
	}
	defer rows.Close()

	var bookings []*models.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("ListByRequester: %w", err)
		}
		bookings = append(bookings, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListByRequester rows failed: %w", err)
	}
	return bookings, nil
}

// Cancel flips a confirmed booking to cancelled and removes its vehicle
// assignment in the same transaction, releasing the reserved capacity.
func (r *Repository) Cancel(ctx context.Context, bookingID string) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("Cancel begin: %w: %v", models.ErrUnavailable, err)
	}
	defer tx.Rollback(ctx)

	const update = `
		UPDATE bookings
		SET status = $2, updated_at = now()
		WHERE id = $1 AND status = $3`
	cmd, err := tx.Exec(ctx, update, bookingID, models.BookingStatusCancelled, models.BookingStatusConfirmed)
	if err != nil {
		return fmt.Errorf("Cancel update: %w", translatePgError(err))
	}
	if cmd.RowsAffected() == 0 {
		var status string
		if err := tx.QueryRow(ctx, `SELECT status FROM bookings WHERE id = $1`, bookingID).Scan(&status); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return models.ErrNotFound
			}
			return fmt.Errorf("Cancel status check: %w", err)
		}
		return models.ErrBookingNotCancellable
	}

	if _, err := tx.Exec(ctx, `DELETE FROM vehicle_assignments WHERE booking_id = $1`, bookingID); err != nil {
		return fmt.Errorf("Cancel delete assignment: %w", translatePgError(err))
	}

	return tx.Commit(ctx)
}

func scanBooking(row pgx.Row) (*models.Booking, error) {
	b := &models.Booking{}
	err := row.Scan(
		&b.ID, &b.RequesterID, &b.Kind, &b.ServiceType,
		&b.Window.Start, &b.Window.End,
		&b.Address.Street, &b.Address.City, &b.Address.Region,
		&b.Address.PostalCode, &b.Address.Country,
		&b.Address.Latitude, &b.Address.Longitude,
		&b.EstimatedWeightLbs, &b.Status, &b.Notes,
		&b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("scanBooking: %w", err)
	}
	return b, nil
}

// translatePgError maps serialization failures, deadlocks and duplicate keys
// to ErrConflict so the service layer retries them against fresh state.
func translatePgError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "40001", "40P01", "23505":
			return models.ErrConflict
		}
	}
	return err
}
