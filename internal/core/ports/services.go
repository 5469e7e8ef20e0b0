package ports

import (
	"context"
	"time"

	"paygateway/internal/core/domain"

	"github.com/google/uuid"
)

// EncryptionService handles AES-256-GCM encryption/decryption of merchant
// secrets at rest.
type EncryptionService interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(ciphertext string) (string, error)
}

// SignatureService handles HMAC-SHA256 signing and verification of webhook
// payloads.
type SignatureService interface {
	Sign(secretKey string, payload string) string
	Verify(secretKey string, payload string, signature string) bool
}

// IdempotencyCache is the Redis-layer idempotency fast path, consulted
// before the authoritative Postgres IdempotencyRepository.
type IdempotencyCache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// AuditService records audited mutations, fire-and-forget.
type AuditService interface {
	Log(ctx context.Context, entry *domain.AuditLog)
}

// --- Business service ports ---

// OrderService creates and looks up orders.
type OrderService interface {
	CreateOrder(ctx context.Context, merchantID uuid.UUID, req CreateOrderRequest) (*domain.Order, error)
	GetOrder(ctx context.Context, merchantID uuid.UUID, id string) (*domain.Order, error)
	ListOrders(ctx context.Context, merchantID uuid.UUID, limit, offset int) ([]domain.Order, int64, error)
}

// CreateOrderRequest holds validated input for order creation.
type CreateOrderRequest struct {
	Amount   int64
	Currency string
	Receipt  *string
}

// PaymentService runs the idempotent payment-creation transaction and
// merchant-scoped payment lookups/mutations.
type PaymentService interface {
	CreatePayment(ctx context.Context, merchantID uuid.UUID, idempotencyKey string, req CreatePaymentRequest) (*domain.Payment, int, error)
	GetPayment(ctx context.Context, merchantID uuid.UUID, id string) (*domain.Payment, error)
	ListPayments(ctx context.Context, merchantID uuid.UUID, limit, offset int) ([]domain.Payment, int64, error)
	CapturePayment(ctx context.Context, merchantID uuid.UUID, id string) (*domain.Payment, error)
}

// CreatePaymentRequest holds validated input for payment creation.
type CreatePaymentRequest struct {
	OrderID     string
	Method      domain.PaymentMethod
	VPA         *string
	CardNumber  *string
	CardExpiry  *string
	CardCVV     *string
}

// RefundService runs the row-locked refund-amount check and refund lookups.
type RefundService interface {
	CreateRefund(ctx context.Context, merchantID uuid.UUID, paymentID string, amount int64, reason *string) (*domain.Refund, error)
	GetRefund(ctx context.Context, merchantID uuid.UUID, id string) (*domain.Refund, error)
	ListRefunds(ctx context.Context, merchantID uuid.UUID, limit, offset int) ([]domain.Refund, int64, error)
}

// WebhookService enqueues delivery jobs and serves merchant-scoped webhook
// log lookups/retries.
type WebhookService interface {
	ListWebhookLogs(ctx context.Context, merchantID uuid.UUID, limit, offset int) ([]domain.WebhookLog, int64, error)
	RetryWebhook(ctx context.Context, merchantID uuid.UUID, id uuid.UUID) (*domain.WebhookLog, error)
	EnqueueEvent(ctx context.Context, merchantID uuid.UUID, event string, data any) error
}

// MerchantService serves merchant profile reads and webhook configuration
// mutations.
type MerchantService interface {
	GetProfile(ctx context.Context, merchantID uuid.UUID) (*domain.Merchant, error)
	UpdateWebhookURL(ctx context.Context, merchantID uuid.UUID, webhookURL string) (*domain.Merchant, error)
	RegenerateWebhookSecret(ctx context.Context, merchantID uuid.UUID) (*domain.Merchant, error)
	SendTestWebhook(ctx context.Context, merchantID uuid.UUID) error
}
