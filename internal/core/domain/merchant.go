package domain

import (
	"time"

	"github.com/google/uuid"
)

// Merchant represents a registered merchant account. Merchants are created
// administratively; there is no self-service signup in this core.
type Merchant struct {
	ID               uuid.UUID `json:"id"`
	Name             string    `json:"name"`
	Email            string    `json:"email"`
	APIKey           string    `json:"api_key"`
	APISecretEnc     string    `json:"-"` // AES-256-GCM encrypted, never exposed
	WebhookURL       *string   `json:"webhook_url,omitempty"`
	WebhookSecretEnc *string   `json:"-"` // AES-256-GCM encrypted, never exposed
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// HasWebhook reports whether the merchant has a configured delivery endpoint.
func (m *Merchant) HasWebhook() bool {
	return m.WebhookURL != nil && *m.WebhookURL != ""
}
