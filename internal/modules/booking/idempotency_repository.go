package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"booking-and-scheduling/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// IdempotencyRepositoryInterface is the read/maintenance side of the
// idempotency store. The create side is embedded in ReserveWithVehicle so the
// record commits atomically with the booking it describes.
type IdempotencyRepositoryInterface interface {
	Get(ctx context.Context, key string) (*models.IdempotencyRecord, error)
	PurgeExpired(ctx context.Context, retention time.Duration) (int64, error)
}

// IdempotencyRepository implements the store against PostgreSQL.
type IdempotencyRepository struct {
	db *pgxpool.Pool
}

func NewIdempotencyRepository(db *pgxpool.Pool) IdempotencyRepositoryInterface {
	return &IdempotencyRepository{db: db}
}

// Get returns the record for a key, or models.ErrNotFound.
func (r *IdempotencyRepository) Get(ctx context.Context, key string) (*models.IdempotencyRecord, error) {
	return getIdempotencyRecord(ctx, r.db, key)
}

// PurgeExpired deletes records older than the retention window. Purging a key
// whose booking still exists is safe; it only disables retry deduplication.
func (r *IdempotencyRepository) PurgeExpired(ctx context.Context, retention time.Duration) (int64, error) {
	const query = `DELETE FROM idempotency_records WHERE created_at < $1`
	cmd, err := r.db.Exec(ctx, query, time.Now().Add(-retention))
	if err != nil {
		return 0, fmt.Errorf("PurgeExpired failed: %w", err)
	}
	return cmd.RowsAffected(), nil
}

// querier lets the same lookup run on the pool and inside a transaction.
type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func getIdempotencyRecord(ctx context.Context, q querier, key string) (*models.IdempotencyRecord, error) {
	const query = `
		SELECT key, booking_id, outcome, response, created_at
		FROM idempotency_records
		WHERE key = $1`
	rec := &models.IdempotencyRecord{}
	err := q.QueryRow(ctx, query, key).Scan(&rec.Key, &rec.BookingID, &rec.Outcome, &rec.Response, &rec.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("getIdempotencyRecord failed: %w", err)
	}
	return rec, nil
}
