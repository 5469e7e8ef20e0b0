package service

import (
	"context"
	"testing"

	"paygateway/internal/core/domain"
	"paygateway/internal/core/ports"
	"paygateway/pkg/apperror"
	"paygateway/tests/integration"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type paymentServiceFixture struct {
	svc       *PaymentServiceImpl
	orderRepo *integration.InMemoryOrderRepo
	payRepo   *integration.InMemoryPaymentRepo
	queue     *integration.InMemoryQueue
	idempRepo *integration.InMemoryIdempotencyRepo
}

func newPaymentService() paymentServiceFixture {
	orderRepo := integration.NewInMemoryOrderRepo()
	payRepo := integration.NewInMemoryPaymentRepo()
	idempRepo := integration.NewInMemoryIdempotencyRepo()
	idempCache := integration.NewInMemoryIdempotencyCache()
	transactor := integration.NewInMemoryTransactor()
	queue := integration.NewInMemoryQueue()
	audit := NewAuditService(integration.NewInMemoryAuditRepo(), zerolog.Nop())

	svc := NewPaymentService(orderRepo, payRepo, idempRepo, idempCache, transactor, queue, audit, zerolog.Nop())
	return paymentServiceFixture{svc: svc, orderRepo: orderRepo, payRepo: payRepo, queue: queue, idempRepo: idempRepo}
}

func mustCreateOrder(t *testing.T, repo *integration.InMemoryOrderRepo, merchantID uuid.UUID, amount int64) *domain.Order {
	t.Helper()
	order := &domain.Order{
		ID: "order_" + uuid.NewString(), MerchantID: merchantID, Amount: amount, Currency: "INR",
		Status: domain.OrderStatusCreated,
	}
	require.NoError(t, repo.Create(context.Background(), order))
	return order
}

func TestCreatePayment_UPI_Success(t *testing.T) {
	f := newPaymentService()
	merchantID := uuid.New()
	order := mustCreateOrder(t, f.orderRepo, merchantID, 1000)
	vpa := "user@bank"

	payment, status, err := f.svc.CreatePayment(context.Background(), merchantID, "", ports.CreatePaymentRequest{
		OrderID: order.ID, Method: domain.PaymentMethodUPI, VPA: &vpa,
	})

	require.NoError(t, err)
	assert.Equal(t, 201, status)
	assert.Equal(t, domain.PaymentStatusPending, payment.Status)
	assert.Equal(t, order.Amount, payment.Amount)

	jobs := f.queue.Jobs()
	require.Len(t, jobs, 1)
	assert.Equal(t, ports.QueuePaymentProcessing, jobs[0].Queue)
}

func TestCreatePayment_UPI_RequiresVPA(t *testing.T) {
	f := newPaymentService()
	merchantID := uuid.New()
	order := mustCreateOrder(t, f.orderRepo, merchantID, 1000)

	_, _, err := f.svc.CreatePayment(context.Background(), merchantID, "", ports.CreatePaymentRequest{
		OrderID: order.ID, Method: domain.PaymentMethodUPI,
	})

	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperror.CodeBadRequest, appErr.Code)
}

func TestCreatePayment_Card_InfersNetworkAndLast4(t *testing.T) {
	f := newPaymentService()
	merchantID := uuid.New()
	order := mustCreateOrder(t, f.orderRepo, merchantID, 2500)
	cardNumber, expiry, cvv := "4111111111111234", "12/30", "123"

	payment, _, err := f.svc.CreatePayment(context.Background(), merchantID, "", ports.CreatePaymentRequest{
		OrderID: order.ID, Method: domain.PaymentMethodCard,
		CardNumber: &cardNumber, CardExpiry: &expiry, CardCVV: &cvv,
	})

	require.NoError(t, err)
	require.NotNil(t, payment.CardLast4)
	require.NotNil(t, payment.CardNetwork)
	assert.Equal(t, "1234", *payment.CardLast4)
	assert.Equal(t, string(domain.CardNetworkVisa), *payment.CardNetwork)
}

func TestCreatePayment_OrderNotFoundOrWrongMerchant(t *testing.T) {
	f := newPaymentService()
	merchantID := uuid.New()
	order := mustCreateOrder(t, f.orderRepo, uuid.New(), 1000)
	vpa := "user@bank"

	_, _, err := f.svc.CreatePayment(context.Background(), merchantID, "", ports.CreatePaymentRequest{
		OrderID: order.ID, Method: domain.PaymentMethodUPI, VPA: &vpa,
	})

	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperror.CodeNotFound, appErr.Code)
}

func TestCreatePayment_IdempotentReplay(t *testing.T) {
	f := newPaymentService()
	merchantID := uuid.New()
	order := mustCreateOrder(t, f.orderRepo, merchantID, 1000)
	vpa := "user@bank"
	req := ports.CreatePaymentRequest{OrderID: order.ID, Method: domain.PaymentMethodUPI, VPA: &vpa}

	first, firstStatus, err := f.svc.CreatePayment(context.Background(), merchantID, "idem-key-1", req)
	require.NoError(t, err)

	second, secondStatus, err := f.svc.CreatePayment(context.Background(), merchantID, "idem-key-1", req)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, firstStatus, secondStatus)
	assert.Len(t, f.queue.Jobs(), 1, "replay must not enqueue a second processing job")
}

func TestCapturePayment_RequiresSuccessfulUncaptured(t *testing.T) {
	f := newPaymentService()
	merchantID := uuid.New()
	order := mustCreateOrder(t, f.orderRepo, merchantID, 1000)
	vpa := "user@bank"

	payment, _, err := f.svc.CreatePayment(context.Background(), merchantID, "", ports.CreatePaymentRequest{
		OrderID: order.ID, Method: domain.PaymentMethodUPI, VPA: &vpa,
	})
	require.NoError(t, err)

	_, err = f.svc.CapturePayment(context.Background(), merchantID, payment.ID)
	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperror.CodeBadRequest, appErr.Code)

	require.NoError(t, f.payRepo.MarkTerminal(context.Background(), payment.ID, domain.PaymentStatusSuccess, nil, nil))

	captured, err := f.svc.CapturePayment(context.Background(), merchantID, payment.ID)
	require.NoError(t, err)
	assert.True(t, captured.Captured)

	_, err = f.svc.CapturePayment(context.Background(), merchantID, payment.ID)
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperror.CodeBadRequest, appErr.Code)
}
