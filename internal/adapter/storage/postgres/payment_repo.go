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

// PaymentRepo implements ports.PaymentRepository.
type PaymentRepo struct {
	pool Pool
}

// NewPaymentRepo creates a new PaymentRepo.
func NewPaymentRepo(pool Pool) *PaymentRepo {
	return &PaymentRepo{pool: pool}
}

func scanPayment(row pgx.Row) (*domain.Payment, error) {
	p := &domain.Payment{}
	var method, status string
	if err := row.Scan(
		&p.ID, &p.MerchantID, &p.OrderID, &p.Amount, &p.Currency, &method,
		&p.VPA, &p.CardLast4, &p.CardNetwork, &status, &p.Captured,
		&p.ErrorCode, &p.ErrorDescription, &p.CreatedAt, &p.UpdatedAt,
	); err != nil {
		return nil, err
	}
	p.Method = domain.PaymentMethod(method)
	p.Status = domain.PaymentStatus(status)
	return p, nil
}

const paymentColumns = `id, merchant_id, order_id, amount, currency, method,
	vpa, card_last4, card_network, status, captured, error_code, error_description, created_at, updated_at`

// Create inserts a new payment row within tx.
func (r *PaymentRepo) Create(ctx context.Context, tx pgx.Tx, p *domain.Payment) error {
	query := `INSERT INTO payments (` + paymentColumns + `)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)`
	_, err := tx.Exec(ctx, query,
		p.ID, p.MerchantID, p.OrderID, p.Amount, p.Currency, string(p.Method),
		p.VPA, p.CardLast4, p.CardNetwork, string(p.Status), p.Captured,
		p.ErrorCode, p.ErrorDescription, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert payment: %w", err)
	}
	return nil
}

// GetByID fetches a payment by id.
func (r *PaymentRepo) GetByID(ctx context.Context, id string) (*domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE id = $1`
	p, err := scanPayment(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get payment: %w", err)
	}
	return p, nil
}

// GetForUpdate locks the payment row for the duration of tx — used by
// refund creation to compute the available amount consistently.
func (r *PaymentRepo) GetForUpdate(ctx context.Context, tx pgx.Tx, id string) (*domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE id = $1 FOR UPDATE`
	p, err := scanPayment(tx.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get payment for update: %w", err)
	}
	return p, nil
}

// List returns a merchant-scoped page of payments ordered by created_at DESC.
func (r *PaymentRepo) List(ctx context.Context, params ports.ListParams) ([]domain.Payment, int64, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE merchant_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`
	rows, err := r.pool.Query(ctx, query, params.MerchantID, params.Limit, params.Offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list payments: %w", err)
	}
	defer rows.Close()

	var payments []domain.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan payment: %w", err)
		}
		payments = append(payments, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	var total int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM payments WHERE merchant_id = $1`, params.MerchantID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count payments: %w", err)
	}
	return payments, total, nil
}

// MarkTerminal sets status/error fields only if the row is still pending;
// duplicate terminal writes from queue retries are no-ops.
func (r *PaymentRepo) MarkTerminal(ctx context.Context, id string, status domain.PaymentStatus, errorCode, errorDescription *string) error {
	query := `UPDATE payments SET status = $1, error_code = $2, error_description = $3, updated_at = NOW()
		WHERE id = $4 AND status = $5`
	_, err := r.pool.Exec(ctx, query, string(status), errorCode, errorDescription, id, string(domain.PaymentStatusPending))
	if err != nil {
		return fmt.Errorf("mark payment terminal: %w", err)
	}
	return nil
}

// SetCaptured sets captured=true unconditionally; the caller has already
// checked status=success and captured=false.
func (r *PaymentRepo) SetCaptured(ctx context.Context, id string) error {
	query := `UPDATE payments SET captured = true, updated_at = NOW() WHERE id = $1`
	_, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("set payment captured: %w", err)
	}
	return nil
}

// ListStalePending returns pending payments created before olderThan,
// ordered oldest-first so the sweeper drains the longest-stuck rows first.
func (r *PaymentRepo) ListStalePending(ctx context.Context, olderThan time.Time, limit int) ([]domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE status = $1 AND created_at < $2 ORDER BY created_at ASC LIMIT $3`
	rows, err := r.pool.Query(ctx, query, string(domain.PaymentStatusPending), olderThan, limit)
	if err != nil {
		return nil, fmt.Errorf("list stale pending payments: %w", err)
	}
	defer rows.Close()

	var payments []domain.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan payment: %w", err)
		}
		payments = append(payments, *p)
	}
	return payments, rows.Err()
}
