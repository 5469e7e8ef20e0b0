package domain

import (
	"time"

	"github.com/google/uuid"
)

// PaymentMethod tags the method-specific variant carried by a Payment.
type PaymentMethod string

const (
	PaymentMethodUPI  PaymentMethod = "upi"
	PaymentMethodCard PaymentMethod = "card"
)

// PaymentStatus represents the lifecycle state of a payment. Transitions
// only ever go pending -> success or pending -> failed, never backwards.
type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "pending"
	PaymentStatusSuccess PaymentStatus = "success"
	PaymentStatusFailed  PaymentStatus = "failed"
)

// CardNetwork is the network tag inferred from a card number prefix.
// Only this tag and the last 4 digits are ever persisted.
type CardNetwork string

const (
	CardNetworkVisa       CardNetwork = "visa"
	CardNetworkMastercard CardNetwork = "mastercard"
	CardNetworkUnknown    CardNetwork = "unknown"
)

// PaymentJobPayload is the wire format enqueued onto the payment-processing
// queue.
type PaymentJobPayload struct {
	PaymentID string `json:"payment_id"`
}

// Payment represents a single attempt to collect an order's amount via a
// specific method. The amount is copied from the order at creation time —
// the payment amount *is* the order amount.
type Payment struct {
	ID               string        `json:"id"`
	MerchantID       uuid.UUID     `json:"merchant_id"`
	OrderID          string        `json:"order_id"`
	Amount           int64         `json:"amount"`
	Currency         string        `json:"currency"`
	Method           PaymentMethod `json:"method"`
	VPA              *string       `json:"vpa,omitempty"`
	CardLast4        *string       `json:"card_last4,omitempty"`
	CardNetwork      *string       `json:"card_network,omitempty"`
	Status           PaymentStatus `json:"status"`
	Captured         bool          `json:"captured"`
	ErrorCode        *string       `json:"error_code,omitempty"`
	ErrorDescription *string       `json:"error_description,omitempty"`
	CreatedAt        time.Time     `json:"created_at"`
	UpdatedAt        time.Time     `json:"updated_at"`
}

// IsTerminal reports whether the payment has reached success or failed.
func (p *Payment) IsTerminal() bool {
	return p.Status == PaymentStatusSuccess || p.Status == PaymentStatusFailed
}

// IsRefundable reports whether refunds may be created against this payment.
func (p *Payment) IsRefundable() bool {
	return p.Status == PaymentStatusSuccess
}

// InferCardNetwork derives the network tag from a PAN using only its first
// digit: "4" -> visa, "5" -> mastercard, anything else -> unknown.
func InferCardNetwork(cardNumber string) CardNetwork {
	if len(cardNumber) == 0 {
		return CardNetworkUnknown
	}
	switch cardNumber[0] {
	case '4':
		return CardNetworkVisa
	case '5':
		return CardNetworkMastercard
	default:
		return CardNetworkUnknown
	}
}

// Last4 returns the last 4 characters of a card number, or the whole string
// if shorter (callers are expected to validate length beforehand).
func Last4(cardNumber string) string {
	if len(cardNumber) <= 4 {
		return cardNumber
	}
	return cardNumber[len(cardNumber)-4:]
}
