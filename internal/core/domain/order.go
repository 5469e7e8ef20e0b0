package domain

import (
	"time"

	"github.com/google/uuid"
)

// OrderStatus represents the lifecycle state of an order. "created" is
// terminal in this core — orders are never mutated by workers.
type OrderStatus string

const (
	OrderStatusCreated OrderStatus = "created"
)

// Order is the merchant-scoped intent to collect a payment for an amount.
type Order struct {
	ID         string      `json:"id"`
	MerchantID uuid.UUID   `json:"merchant_id"`
	Amount     int64       `json:"amount"`
	Currency   string      `json:"currency"`
	Receipt    *string     `json:"receipt,omitempty"`
	Status     OrderStatus `json:"status"`
	CreatedAt  time.Time   `json:"created_at"`
}
