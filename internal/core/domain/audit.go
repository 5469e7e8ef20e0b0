package domain

import (
	"time"

	"github.com/google/uuid"
)

// AuditAction represents the type of audited mutation.
type AuditAction string

const (
	AuditActionOrderCreated    AuditAction = "ORDER_CREATED"
	AuditActionPaymentCreated  AuditAction = "PAYMENT_CREATED"
	AuditActionPaymentUpdated  AuditAction = "PAYMENT_UPDATED"
	AuditActionRefundCreated   AuditAction = "REFUND_CREATED"
	AuditActionRefundUpdated   AuditAction = "REFUND_UPDATED"
	AuditActionWebhookRetried  AuditAction = "WEBHOOK_RETRIED"
	AuditActionMerchantUpdated AuditAction = "MERCHANT_UPDATED"
)

// AuditLog records a single audited mutation in the system.
type AuditLog struct {
	ID           uuid.UUID   `json:"id"`
	MerchantID   *uuid.UUID  `json:"merchant_id,omitempty"`
	Action       AuditAction `json:"action"`
	ResourceType string      `json:"resource_type"`
	ResourceID   string      `json:"resource_id,omitempty"`
	Details      string      `json:"details,omitempty"` // JSON string
	IPAddress    string      `json:"ip_address"`
	CreatedAt    time.Time   `json:"created_at"`
}
