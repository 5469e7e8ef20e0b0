package ports

import (
	"context"
	"time"

	"paygateway/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ListParams holds merchant-scoped pagination, shared across list operations.
type ListParams struct {
	MerchantID uuid.UUID
	Limit      int
	Offset     int
}

// MerchantRepository defines persistence operations for merchants.
type MerchantRepository interface {
	Create(ctx context.Context, merchant *domain.Merchant) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Merchant, error)
	GetByAPIKey(ctx context.Context, apiKey string) (*domain.Merchant, error)
	UpdateWebhookURL(ctx context.Context, id uuid.UUID, webhookURL *string) error
	UpdateWebhookSecret(ctx context.Context, id uuid.UUID, webhookSecretEnc string) error
}

// OrderRepository defines persistence operations for orders.
type OrderRepository interface {
	Create(ctx context.Context, order *domain.Order) error
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	// GetForUpdate locks the order row for the duration of tx, used while
	// creating a payment against it.
	GetForUpdate(ctx context.Context, tx pgx.Tx, id string) (*domain.Order, error)
	List(ctx context.Context, params ListParams) ([]domain.Order, int64, error)
}

// PaymentRepository defines persistence operations for payments.
type PaymentRepository interface {
	Create(ctx context.Context, tx pgx.Tx, payment *domain.Payment) error
	GetByID(ctx context.Context, id string) (*domain.Payment, error)
	GetForUpdate(ctx context.Context, tx pgx.Tx, id string) (*domain.Payment, error)
	List(ctx context.Context, params ListParams) ([]domain.Payment, int64, error)
	// MarkTerminal sets status/error fields only if the row is still
	// pending; it is a no-op on an already-terminal row.
	MarkTerminal(ctx context.Context, id string, status domain.PaymentStatus, errorCode, errorDescription *string) error
	SetCaptured(ctx context.Context, id string) error
	// ListStalePending returns pending payments created before olderThan, for
	// the reconciliation sweeper to re-enqueue after a lost job.
	ListStalePending(ctx context.Context, olderThan time.Time, limit int) ([]domain.Payment, error)
}

// RefundRepository defines persistence operations for refunds.
type RefundRepository interface {
	// Create runs inside tx after the caller has locked the parent payment
	// row via PaymentRepository.GetForUpdate.
	Create(ctx context.Context, tx pgx.Tx, refund *domain.Refund) error
	GetByID(ctx context.Context, id string) (*domain.Refund, error)
	List(ctx context.Context, params ListParams) ([]domain.Refund, int64, error)
	// SumByPaymentID returns the sum of all refund amounts for a payment,
	// read inside tx so it observes the locked row set consistently.
	SumByPaymentID(ctx context.Context, tx pgx.Tx, paymentID string) (int64, error)
	MarkProcessed(ctx context.Context, id string) error
	// ListStalePending returns pending refunds created before olderThan, for
	// the reconciliation sweeper to re-enqueue after a lost job.
	ListStalePending(ctx context.Context, olderThan time.Time, limit int) ([]domain.Refund, error)
}

// WebhookLogRepository defines persistence operations for webhook logs.
type WebhookLogRepository interface {
	Create(ctx context.Context, log *domain.WebhookLog) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.WebhookLog, error)
	Update(ctx context.Context, log *domain.WebhookLog) error
	List(ctx context.Context, params ListParams) ([]domain.WebhookLog, int64, error)
	// ListPendingForRecovery returns pending logs ordered by next_retry_at,
	// used by the reconciliation sweeper after a crash.
	ListPendingForRecovery(ctx context.Context, limit int) ([]domain.WebhookLog, error)
}

// IdempotencyRepository is the Postgres-backed authoritative idempotency
// store, consulted on a Redis cache miss.
type IdempotencyRepository interface {
	Get(ctx context.Context, key string, merchantID uuid.UUID) (*domain.IdempotencyRecord, error)
	// Put writes the record outside of any payment-creation transaction,
	// per the store's documented create_payment sequencing.
	Put(ctx context.Context, record *domain.IdempotencyRecord) error
	Delete(ctx context.Context, key string, merchantID uuid.UUID) error
}

// AuditRepository defines persistence for audit log entries.
type AuditRepository interface {
	Create(ctx context.Context, entry *domain.AuditLog) error
}

// DBTransactor provides database transaction management.
type DBTransactor interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}
