package postgres

import (
	"context"
	"errors"
	"fmt"

	"paygateway/internal/core/domain"
	"paygateway/internal/core/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// WebhookRepo implements ports.WebhookLogRepository.
type WebhookRepo struct {
	pool Pool
}

// NewWebhookRepo creates a new WebhookRepo.
func NewWebhookRepo(pool Pool) *WebhookRepo {
	return &WebhookRepo{pool: pool}
}

func (r *WebhookRepo) Create(ctx context.Context, log *domain.WebhookLog) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO webhook_logs
		 (id, merchant_id, event, payload, status, attempts, last_attempt_at, next_retry_at, response_code, response_body, created_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		log.ID, log.MerchantID, log.Event, []byte(log.Payload), string(log.Status),
		log.Attempts, log.LastAttemptAt, log.NextRetryAt, log.ResponseCode, log.ResponseBody, log.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert webhook log: %w", err)
	}
	return nil
}

func (r *WebhookRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.WebhookLog, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT id, merchant_id, event, payload, status, attempts, last_attempt_at, next_retry_at, response_code, response_body, created_at
		 FROM webhook_logs WHERE id = $1`, id)

	log, err := scanWebhookLog(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get webhook log: %w", err)
	}
	return log, nil
}

func (r *WebhookRepo) Update(ctx context.Context, log *domain.WebhookLog) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE webhook_logs
		 SET status=$1, attempts=$2, last_attempt_at=$3, next_retry_at=$4, response_code=$5, response_body=$6
		 WHERE id=$7`,
		string(log.Status), log.Attempts, log.LastAttemptAt, log.NextRetryAt, log.ResponseCode, log.ResponseBody, log.ID,
	)
	if err != nil {
		return fmt.Errorf("update webhook log: %w", err)
	}
	return nil
}

func (r *WebhookRepo) List(ctx context.Context, params ports.ListParams) ([]domain.WebhookLog, int64, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, merchant_id, event, payload, status, attempts, last_attempt_at, next_retry_at, response_code, response_body, created_at
		 FROM webhook_logs WHERE merchant_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		params.MerchantID, params.Limit, params.Offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list webhook logs: %w", err)
	}
	defer rows.Close()

	var logs []domain.WebhookLog
	for rows.Next() {
		l, err := scanWebhookLog(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan webhook log: %w", err)
		}
		logs = append(logs, *l)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	var total int64
	err = r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM webhook_logs WHERE merchant_id = $1`, params.MerchantID).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("count webhook logs: %w", err)
	}
	return logs, total, nil
}

func (r *WebhookRepo) ListPendingForRecovery(ctx context.Context, limit int) ([]domain.WebhookLog, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, merchant_id, event, payload, status, attempts, last_attempt_at, next_retry_at, response_code, response_body, created_at
		 FROM webhook_logs WHERE status = $1 ORDER BY next_retry_at NULLS FIRST LIMIT $2`,
		string(domain.WebhookStatusPending), limit)
	if err != nil {
		return nil, fmt.Errorf("list pending webhook logs: %w", err)
	}
	defer rows.Close()

	var logs []domain.WebhookLog
	for rows.Next() {
		l, err := scanWebhookLog(rows)
		if err != nil {
			return nil, fmt.Errorf("scan webhook log: %w", err)
		}
		logs = append(logs, *l)
	}
	return logs, rows.Err()
}

func scanWebhookLog(row pgx.Row) (*domain.WebhookLog, error) {
	l := &domain.WebhookLog{}
	var status string
	var payload []byte
	if err := row.Scan(
		&l.ID, &l.MerchantID, &l.Event, &payload, &status, &l.Attempts,
		&l.LastAttemptAt, &l.NextRetryAt, &l.ResponseCode, &l.ResponseBody, &l.CreatedAt,
	); err != nil {
		return nil, err
	}
	l.Status = domain.WebhookStatus(status)
	l.Payload = payload
	return l, nil
}
