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

func TestRefundRepo_SumByPaymentID_ReadsInsideLockingTx(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewRefundRepo(mock)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT COALESCE\\(SUM\\(amount\\), 0\\) FROM refunds WHERE payment_id").
		WithArgs("pay_1").
		WillReturnRows(pgxmock.NewRows([]string{"sum"}).AddRow(int64(400)))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	sum, err := repo.SumByPaymentID(context.Background(), tx, "pay_1")
	require.NoError(t, err)
	assert.Equal(t, int64(400), sum)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRefundRepo_MarkProcessed_OnlyUpdatesPendingRows(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewRefundRepo(mock)

	mock.ExpectExec("UPDATE refunds SET status").
		WithArgs(string(domain.RefundStatusProcessed), "rfnd_1", string(domain.RefundStatusPending)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err = repo.MarkProcessed(context.Background(), "rfnd_1")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRefundRepo_ListStalePending_FiltersByStatusAndAge(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewRefundRepo(mock)
	cutoff := time.Now().UTC()
	refund := &domain.Refund{
		ID: "rfnd_1", PaymentID: "pay_1", MerchantID: uuid.New(), Amount: 300,
		Status: domain.RefundStatusPending, CreatedAt: cutoff.Add(-time.Hour),
	}

	mock.ExpectQuery("SELECT .+ FROM refunds WHERE status = .+ AND created_at < .+ ORDER BY created_at ASC LIMIT").
		WithArgs(string(domain.RefundStatusPending), cutoff, 100).
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "payment_id", "merchant_id", "amount", "reason", "status", "processed_at", "created_at",
		}).AddRow(
			refund.ID, refund.PaymentID, refund.MerchantID, refund.Amount,
			refund.Reason, string(refund.Status), refund.ProcessedAt, refund.CreatedAt,
		))

	results, err := repo.ListStalePending(context.Background(), cutoff, 100)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, refund.ID, results[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
