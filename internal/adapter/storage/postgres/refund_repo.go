package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"paygateway/internal/core/domain"
	"paygateway/internal/core/ports"

	"github.com/jackc/pgx/v5"
)

// RefundRepo implements ports.RefundRepository.
type RefundRepo struct {
	pool Pool
}

// NewRefundRepo creates a new RefundRepo.
func NewRefundRepo(pool Pool) *RefundRepo {
	return &RefundRepo{pool: pool}
}

func scanRefund(row pgx.Row) (*domain.Refund, error) {
	r := &domain.Refund{}
	var status string
	if err := row.Scan(&r.ID, &r.PaymentID, &r.MerchantID, &r.Amount, &r.Reason, &status, &r.ProcessedAt, &r.CreatedAt); err != nil {
		return nil, err
	}
	r.Status = domain.RefundStatus(status)
	return r, nil
}

const refundColumns = `id, payment_id, merchant_id, amount, reason, status, processed_at, created_at`

// Create inserts a refund row within tx. Callers must have already locked
// the parent payment row via PaymentRepository.GetForUpdate in the same tx.
func (r *RefundRepo) Create(ctx context.Context, tx pgx.Tx, refund *domain.Refund) error {
	query := `INSERT INTO refunds (` + refundColumns + `) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`
	_, err := tx.Exec(ctx, query,
		refund.ID, refund.PaymentID, refund.MerchantID, refund.Amount,
		refund.Reason, string(refund.Status), refund.ProcessedAt, refund.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert refund: %w", err)
	}
	return nil
}

// GetByID fetches a refund by id.
func (r *RefundRepo) GetByID(ctx context.Context, id string) (*domain.Refund, error) {
	query := `SELECT ` + refundColumns + ` FROM refunds WHERE id = $1`
	refund, err := scanRefund(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get refund: %w", err)
	}
	return refund, nil
}

// List returns a merchant-scoped page of refunds ordered by created_at DESC.
func (r *RefundRepo) List(ctx context.Context, params ports.ListParams) ([]domain.Refund, int64, error) {
	query := `SELECT ` + refundColumns + ` FROM refunds WHERE merchant_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`
	rows, err := r.pool.Query(ctx, query, params.MerchantID, params.Limit, params.Offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list refunds: %w", err)
	}
	defer rows.Close()

	var refunds []domain.Refund
	for rows.Next() {
		refund, err := scanRefund(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan refund: %w", err)
		}
		refunds = append(refunds, *refund)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	var total int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM refunds WHERE merchant_id = $1`, params.MerchantID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count refunds: %w", err)
	}
	return refunds, total, nil
}

// SumByPaymentID returns the sum of all refund amounts for a payment,
// read inside tx so it observes the row lock taken on the parent payment.
func (r *RefundRepo) SumByPaymentID(ctx context.Context, tx pgx.Tx, paymentID string) (int64, error) {
	var sum int64
	query := `SELECT COALESCE(SUM(amount), 0) FROM refunds WHERE payment_id = $1`
	if err := tx.QueryRow(ctx, query, paymentID).Scan(&sum); err != nil {
		return 0, fmt.Errorf("sum refunds by payment: %w", err)
	}
	return sum, nil
}

// MarkProcessed sets status=processed and processed_at=now.
func (r *RefundRepo) MarkProcessed(ctx context.Context, id string) error {
	query := `UPDATE refunds SET status = $1, processed_at = NOW() WHERE id = $2 AND status = $3`
	_, err := r.pool.Exec(ctx, query, string(domain.RefundStatusProcessed), id, string(domain.RefundStatusPending))
	if err != nil {
		return fmt.Errorf("mark refund processed: %w", err)
	}
	return nil
}

// ListStalePending returns pending refunds created before olderThan,
// ordered oldest-first so the sweeper drains the longest-stuck rows first.
func (r *RefundRepo) ListStalePending(ctx context.Context, olderThan time.Time, limit int) ([]domain.Refund, error) {
	query := `SELECT ` + refundColumns + ` FROM refunds WHERE status = $1 AND created_at < $2 ORDER BY created_at ASC LIMIT $3`
	rows, err := r.pool.Query(ctx, query, string(domain.RefundStatusPending), olderThan, limit)
	if err != nil {
		return nil, fmt.Errorf("list stale pending refunds: %w", err)
	}
	defer rows.Close()

	var refunds []domain.Refund
	for rows.Next() {
		refund, err := scanRefund(rows)
		if err != nil {
			return nil, fmt.Errorf("scan refund: %w", err)
		}
		refunds = append(refunds, *refund)
	}
	return refunds, rows.Err()
}
