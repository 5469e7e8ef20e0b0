package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"paygateway/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// IdempotencyRepo implements ports.IdempotencyRepository. It is the
// authoritative backing store consulted on a redis.IdempotencyCache miss.
type IdempotencyRepo struct {
	pool Pool
}

// NewIdempotencyRepo creates a new IdempotencyRepo.
func NewIdempotencyRepo(pool Pool) *IdempotencyRepo {
	return &IdempotencyRepo{pool: pool}
}

// Get fetches a non-expired record by its (key, merchant_id) composite
// identity. An expired row is deleted and treated as absent.
func (r *IdempotencyRepo) Get(ctx context.Context, key string, merchantID uuid.UUID) (*domain.IdempotencyRecord, error) {
	query := `SELECT key, merchant_id, response_status, response_body, expires_at, created_at
		FROM idempotency_records WHERE key = $1 AND merchant_id = $2`

	rec := &domain.IdempotencyRecord{}
	err := r.pool.QueryRow(ctx, query, key, merchantID).Scan(
		&rec.Key, &rec.MerchantID, &rec.ResponseStatus, &rec.ResponseBody, &rec.ExpiresAt, &rec.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get idempotency record: %w", err)
	}

	if rec.Expired(time.Now()) {
		_ = r.Delete(ctx, key, merchantID)
		return nil, nil
	}
	return rec, nil
}

// Put inserts a record. A conflicting concurrent insert on the
// (key, merchant_id) primary key means the other request won the race; the
// caller should re-read rather than treat this as an error.
func (r *IdempotencyRepo) Put(ctx context.Context, record *domain.IdempotencyRecord) error {
	query := `INSERT INTO idempotency_records (key, merchant_id, response_status, response_body, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (key, merchant_id) DO NOTHING`

	_, err := r.pool.Exec(ctx, query,
		record.Key, record.MerchantID, record.ResponseStatus, record.ResponseBody, record.ExpiresAt, record.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert idempotency record: %w", err)
	}
	return nil
}

// Delete removes a record, used on expired-read-miss.
func (r *IdempotencyRepo) Delete(ctx context.Context, key string, merchantID uuid.UUID) error {
	query := `DELETE FROM idempotency_records WHERE key = $1 AND merchant_id = $2`
	_, err := r.pool.Exec(ctx, query, key, merchantID)
	if err != nil {
		return fmt.Errorf("delete idempotency record: %w", err)
	}
	return nil
}
