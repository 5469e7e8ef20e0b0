package idgen

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOrder_HasPrefixAndLength(t *testing.T) {
	id := Order()
	assert.True(t, strings.HasPrefix(id, OrderPrefix))
	assert.Len(t, strings.TrimPrefix(id, OrderPrefix), 16)
}

func TestPayment_HasPrefixAndLength(t *testing.T) {
	id := Payment()
	assert.True(t, strings.HasPrefix(id, PaymentPrefix))
	assert.Len(t, strings.TrimPrefix(id, PaymentPrefix), 16)
}

func TestRefund_HasPrefixAndLength(t *testing.T) {
	id := Refund()
	assert.True(t, strings.HasPrefix(id, RefundPrefix))
	assert.Len(t, strings.TrimPrefix(id, RefundPrefix), 16)
}

func TestWebhookSecret_HasPrefixAndLength(t *testing.T) {
	secret := WebhookSecret()
	assert.True(t, strings.HasPrefix(secret, SecretPrefix))
	assert.Len(t, strings.TrimPrefix(secret, SecretPrefix), 24)
}

func TestOrder_Unique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id := Order()
		assert.False(t, seen[id], "unexpected collision")
		seen[id] = true
	}
}

func TestRandom_OnlyAlphanumeric(t *testing.T) {
	id := Order()
	body := strings.TrimPrefix(id, OrderPrefix)
	for _, c := range body {
		assert.True(t, strings.ContainsRune(alphanumeric, c))
	}
}
