package postgres

import (
	"context"
	"testing"
	"time"

	"paygateway/internal/core/domain"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPayment(merchantID uuid.UUID) *domain.Payment {
	return &domain.Payment{
		ID: "pay_test123456789", MerchantID: merchantID, OrderID: "order_test1234567",
		Amount: 1000, Currency: "INR", Method: domain.PaymentMethodUPI,
		Status: domain.PaymentStatusPending, CreatedAt: time.Now().UTC().Truncate(time.Microsecond),
		UpdatedAt: time.Now().UTC().Truncate(time.Microsecond),
	}
}

func paymentRow(p *domain.Payment) *pgxmock.Rows {
	return pgxmock.NewRows([]string{
		"id", "merchant_id", "order_id", "amount", "currency", "method",
		"vpa", "card_last4", "card_network", "status", "captured",
		"error_code", "error_description", "created_at", "updated_at",
	}).AddRow(
		p.ID, p.MerchantID, p.OrderID, p.Amount, p.Currency, string(p.Method),
		p.VPA, p.CardLast4, p.CardNetwork, string(p.Status), p.Captured,
		p.ErrorCode, p.ErrorDescription, p.CreatedAt, p.UpdatedAt,
	)
}

func TestPaymentRepo_GetForUpdate_LocksRowInTx(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewPaymentRepo(mock)
	p := newTestPayment(uuid.New())

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT .+ FROM payments WHERE id = .+ FOR UPDATE").
		WithArgs(p.ID).
		WillReturnRows(paymentRow(p))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	result, err := repo.GetForUpdate(context.Background(), tx, p.ID)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, p.ID, result.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPaymentRepo_MarkTerminal_OnlyUpdatesPendingRows(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewPaymentRepo(mock)
	code := "PAYMENT_FAILED"
	desc := "Payment processing failed"

	mock.ExpectExec("UPDATE payments SET status").
		WithArgs(string(domain.PaymentStatusFailed), &code, &desc, "pay_1", string(domain.PaymentStatusPending)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err = repo.MarkTerminal(context.Background(), "pay_1", domain.PaymentStatusFailed, &code, &desc)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPaymentRepo_ListStalePending_FiltersByStatusAndAge(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewPaymentRepo(mock)
	p := newTestPayment(uuid.New())
	cutoff := time.Now().UTC()

	mock.ExpectQuery("SELECT .+ FROM payments WHERE status = .+ AND created_at < .+ ORDER BY created_at ASC LIMIT").
		WithArgs(string(domain.PaymentStatusPending), cutoff, 100).
		WillReturnRows(paymentRow(p))

	results, err := repo.ListStalePending(context.Background(), cutoff, 100)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, p.ID, results[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
