// Package idgen mints prefixed opaque identifiers for orders, payments,
// refunds, and webhook secrets.
package idgen

import (
	"crypto/rand"
)

const alphanumeric = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

const (
	OrderPrefix   = "order_"
	PaymentPrefix = "pay_"
	RefundPrefix  = "rfnd_"
	SecretPrefix  = "whsec_"
)

// Order mints a new order ID: order_<16 alphanumeric chars>.
func Order() string {
	return OrderPrefix + random(16)
}

// Payment mints a new payment ID: pay_<16 alphanumeric chars>.
func Payment() string {
	return PaymentPrefix + random(16)
}

// Refund mints a new refund ID: rfnd_<16 alphanumeric chars>.
func Refund() string {
	return RefundPrefix + random(16)
}

// WebhookSecret mints a new webhook signing secret: whsec_<24 alphanumeric chars>.
func WebhookSecret() string {
	return SecretPrefix + random(24)
}

func random(n int) string {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		panic("idgen: failed to read random bytes: " + err.Error())
	}
	out := make([]byte, n)
	for i, b := range buf {
		out[i] = alphanumeric[int(b)%len(alphanumeric)]
	}
	return string(out)
}
