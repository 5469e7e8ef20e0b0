package domain

import (
	"time"

	"github.com/google/uuid"
)

// RefundStatus represents the lifecycle state of a refund. Transitions only
// ever go pending -> processed.
type RefundStatus string

const (
	RefundStatusPending   RefundStatus = "pending"
	RefundStatusProcessed RefundStatus = "processed"
)

// RefundJobPayload is the wire format enqueued onto the refund-processing
// queue.
type RefundJobPayload struct {
	RefundID string `json:"refund_id"`
}

// Refund represents a (possibly partial) return of funds against a
// successful payment. The sum of all refund amounts for a payment never
// exceeds the payment amount.
type Refund struct {
	ID          string       `json:"id"`
	PaymentID   string       `json:"payment_id"`
	MerchantID  uuid.UUID    `json:"merchant_id"`
	Amount      int64        `json:"amount"`
	Reason      *string      `json:"reason,omitempty"`
	Status      RefundStatus `json:"status"`
	ProcessedAt *time.Time   `json:"processed_at,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
}
