package domain

import (
	"time"

	"github.com/google/uuid"
)

// IdempotencyRecord caches the response of a prior mutating request so a
// retried request with the same key observes exactly the same outcome.
// Identity is the composite (Key, MerchantID); it self-expires at TTL.
type IdempotencyRecord struct {
	Key            string    `json:"key"`
	MerchantID     uuid.UUID `json:"merchant_id"`
	ResponseStatus int       `json:"response_status"`
	ResponseBody   []byte    `json:"response_body"`
	ExpiresAt      time.Time `json:"expires_at"`
	CreatedAt      time.Time `json:"created_at"`
}

// Expired reports whether the record is past its TTL as of now.
func (r *IdempotencyRecord) Expired(now time.Time) bool {
	return now.After(r.ExpiresAt)
}
