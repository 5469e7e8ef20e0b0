package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// WebhookStatus represents the delivery state of a webhook log entry.
type WebhookStatus string

const (
	WebhookStatusPending WebhookStatus = "pending"
	WebhookStatusSuccess WebhookStatus = "success"
	WebhookStatusFailed  WebhookStatus = "failed"
)

// MaxWebhookAttempts bounds the number of delivery attempts before a webhook
// log is marked failed for good.
const MaxWebhookAttempts = 5

// WebhookResponseBodyLimit truncates stored response bodies to this many
// bytes; delivery targets are not trusted to return small payloads.
const WebhookResponseBodyLimit = 1000

// WebhookLog records one event destined for a merchant's configured endpoint,
// along with its cumulative delivery history.
type WebhookLog struct {
	ID            uuid.UUID       `json:"id"`
	MerchantID    uuid.UUID       `json:"merchant_id"`
	Event         string          `json:"event"`
	Payload       json.RawMessage `json:"payload"`
	Status        WebhookStatus   `json:"status"`
	Attempts      int             `json:"attempts"`
	LastAttemptAt *time.Time      `json:"last_attempt_at,omitempty"`
	NextRetryAt   *time.Time      `json:"next_retry_at,omitempty"`
	ResponseCode  *int            `json:"response_code,omitempty"`
	ResponseBody  *string         `json:"response_body,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

// Exhausted reports whether the log has used up its delivery attempts.
func (w *WebhookLog) Exhausted() bool {
	return w.Attempts >= MaxWebhookAttempts
}

// TruncateResponseBody trims body to WebhookResponseBodyLimit bytes.
func TruncateResponseBody(body string) string {
	if len(body) <= WebhookResponseBodyLimit {
		return body
	}
	return body[:WebhookResponseBodyLimit]
}

// WebhookJobPayload is the wire format enqueued onto the webhook-delivery
// queue. LogID is nil on first fan-out (the deliverer creates the log);
// set on every re-enqueue (retry or manual) so attempts accumulate on the
// same log row.
type WebhookJobPayload struct {
	LogID      *uuid.UUID      `json:"log_id,omitempty"`
	MerchantID uuid.UUID       `json:"merchant_id"`
	Event      string          `json:"event"`
	Data       json.RawMessage `json:"data"`
}

// WebhookEventPayload is the exact byte-for-byte canonical body signed and
// transmitted to the merchant's endpoint.
type WebhookEventPayload struct {
	Event     string          `json:"event"`
	Timestamp int64           `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

// ProductionBackoff and TestBackoff are indexed by the attempt number about
// to be tried (index 0 = attempt 1, tried immediately on fan-out).
var (
	ProductionBackoff = []time.Duration{
		0,
		60 * time.Second,
		300 * time.Second,
		1800 * time.Second,
		7200 * time.Second,
	}
	TestBackoff = []time.Duration{
		0,
		5 * time.Second,
		10 * time.Second,
		15 * time.Second,
		20 * time.Second,
	}
)
