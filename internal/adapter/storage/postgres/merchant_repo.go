package postgres

import (
	"context"
	"errors"
	"fmt"

	"paygateway/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// MerchantRepo implements ports.MerchantRepository.
type MerchantRepo struct {
	pool Pool
}

// NewMerchantRepo creates a new MerchantRepo.
func NewMerchantRepo(pool Pool) *MerchantRepo {
	return &MerchantRepo{pool: pool}
}

func scanMerchant(row pgx.Row) (*domain.Merchant, error) {
	m := &domain.Merchant{}
	err := row.Scan(
		&m.ID, &m.Name, &m.Email, &m.APIKey, &m.APISecretEnc,
		&m.WebhookURL, &m.WebhookSecretEnc, &m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return m, nil
}

// Create inserts a new merchant into the database.
func (r *MerchantRepo) Create(ctx context.Context, m *domain.Merchant) error {
	query := `INSERT INTO merchants (id, name, email, api_key, api_secret_enc, webhook_url, webhook_secret_enc, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.pool.Exec(ctx, query,
		m.ID, m.Name, m.Email, m.APIKey, m.APISecretEnc,
		m.WebhookURL, m.WebhookSecretEnc, m.CreatedAt, m.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert merchant: %w", err)
	}
	return nil
}

// GetByID fetches a merchant by its UUID.
func (r *MerchantRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Merchant, error) {
	query := `SELECT id, name, email, api_key, api_secret_enc, webhook_url, webhook_secret_enc, created_at, updated_at
		FROM merchants WHERE id = $1`

	m, err := scanMerchant(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("get merchant by id: %w", err)
	}
	return m, nil
}

// GetByAPIKey fetches a merchant by its API key.
func (r *MerchantRepo) GetByAPIKey(ctx context.Context, apiKey string) (*domain.Merchant, error) {
	query := `SELECT id, name, email, api_key, api_secret_enc, webhook_url, webhook_secret_enc, created_at, updated_at
		FROM merchants WHERE api_key = $1`

	m, err := scanMerchant(r.pool.QueryRow(ctx, query, apiKey))
	if err != nil {
		return nil, fmt.Errorf("get merchant by api_key: %w", err)
	}
	return m, nil
}

// UpdateWebhookURL updates a merchant's configured webhook endpoint.
func (r *MerchantRepo) UpdateWebhookURL(ctx context.Context, id uuid.UUID, webhookURL *string) error {
	query := `UPDATE merchants SET webhook_url = $1, updated_at = NOW() WHERE id = $2`
	_, err := r.pool.Exec(ctx, query, webhookURL, id)
	if err != nil {
		return fmt.Errorf("update merchant webhook url: %w", err)
	}
	return nil
}

// UpdateWebhookSecret rotates a merchant's encrypted webhook signing secret.
func (r *MerchantRepo) UpdateWebhookSecret(ctx context.Context, id uuid.UUID, webhookSecretEnc string) error {
	query := `UPDATE merchants SET webhook_secret_enc = $1, updated_at = NOW() WHERE id = $2`
	_, err := r.pool.Exec(ctx, query, webhookSecretEnc, id)
	if err != nil {
		return fmt.Errorf("update merchant webhook secret: %w", err)
	}
	return nil
}
