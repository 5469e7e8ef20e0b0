package worker

import (
	"context"
	"encoding/json"
	"testing"

	"paygateway/config"
	"paygateway/internal/core/domain"
	"paygateway/internal/service"
	"paygateway/tests/integration"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRefundWorker(testCfg config.TestConfig) (*RefundWorker, *integration.InMemoryRefundRepo, *integration.InMemoryPaymentRepo, *integration.InMemoryMerchantRepo, *integration.InMemoryQueue) {
	refundRepo := integration.NewInMemoryRefundRepo()
	payRepo := integration.NewInMemoryPaymentRepo()
	merchantRepo := integration.NewInMemoryMerchantRepo()
	webhookRepo := integration.NewInMemoryWebhookLogRepo()
	queue := integration.NewInMemoryQueue()
	audit := service.NewAuditService(integration.NewInMemoryAuditRepo(), zerolog.Nop())
	webhookSvc := service.NewWebhookService(webhookRepo, queue, audit, zerolog.Nop())

	return NewRefundWorker(refundRepo, payRepo, merchantRepo, webhookSvc, testCfg, zerolog.Nop()), refundRepo, payRepo, merchantRepo, queue
}

func TestRefundWorker_Handle_MarksProcessedAndEnqueuesWebhook(t *testing.T) {
	testCfg := config.TestConfig{Mode: true, ProcessingDelayMS: 1}
	w, refundRepo, payRepo, merchantRepo, queue := newRefundWorker(testCfg)

	merchant := &domain.Merchant{ID: uuid.New(), Name: "Acme"}
	webhookURL := "https://acme.test/hook"
	merchant.WebhookURL = &webhookURL
	merchantRepo.Put(merchant)

	payment := &domain.Payment{ID: "pay_1", MerchantID: merchant.ID, Amount: 1000, Status: domain.PaymentStatusSuccess}
	require.NoError(t, payRepo.Create(context.Background(), nil, payment))

	refund := &domain.Refund{ID: "rfnd_1", PaymentID: payment.ID, MerchantID: merchant.ID, Amount: 500, Status: domain.RefundStatusPending}
	require.NoError(t, refundRepo.Create(context.Background(), nil, refund))

	payload, err := json.Marshal(domain.RefundJobPayload{RefundID: refund.ID})
	require.NoError(t, err)

	require.NoError(t, w.Handle(context.Background(), payload))

	updated, err := refundRepo.GetByID(context.Background(), refund.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RefundStatusProcessed, updated.Status)
	require.NotNil(t, updated.ProcessedAt)

	assert.Len(t, queue.Jobs(), 1)
}

func TestRefundWorker_Handle_NoopIfAlreadyProcessed(t *testing.T) {
	testCfg := config.TestConfig{Mode: true, ProcessingDelayMS: 1}
	w, refundRepo, payRepo, merchantRepo, queue := newRefundWorker(testCfg)

	merchant := &domain.Merchant{ID: uuid.New(), Name: "Acme"}
	merchantRepo.Put(merchant)
	payment := &domain.Payment{ID: "pay_1", MerchantID: merchant.ID, Amount: 1000, Status: domain.PaymentStatusSuccess}
	require.NoError(t, payRepo.Create(context.Background(), nil, payment))

	refund := &domain.Refund{ID: "rfnd_done", PaymentID: payment.ID, MerchantID: merchant.ID, Amount: 500, Status: domain.RefundStatusProcessed}
	require.NoError(t, refundRepo.Create(context.Background(), nil, refund))

	payload, err := json.Marshal(domain.RefundJobPayload{RefundID: refund.ID})
	require.NoError(t, err)

	require.NoError(t, w.Handle(context.Background(), payload))
	assert.Empty(t, queue.Jobs())
}

func TestRefundWorker_Handle_AbortsIfParentPaymentNotSuccessful(t *testing.T) {
	testCfg := config.TestConfig{Mode: true, ProcessingDelayMS: 1}
	w, refundRepo, payRepo, merchantRepo, queue := newRefundWorker(testCfg)

	merchant := &domain.Merchant{ID: uuid.New(), Name: "Acme"}
	merchantRepo.Put(merchant)
	payment := &domain.Payment{ID: "pay_pending", MerchantID: merchant.ID, Amount: 1000, Status: domain.PaymentStatusPending}
	require.NoError(t, payRepo.Create(context.Background(), nil, payment))

	refund := &domain.Refund{ID: "rfnd_2", PaymentID: payment.ID, MerchantID: merchant.ID, Amount: 500, Status: domain.RefundStatusPending}
	require.NoError(t, refundRepo.Create(context.Background(), nil, refund))

	payload, err := json.Marshal(domain.RefundJobPayload{RefundID: refund.ID})
	require.NoError(t, err)

	require.NoError(t, w.Handle(context.Background(), payload))

	updated, err := refundRepo.GetByID(context.Background(), refund.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RefundStatusPending, updated.Status, "refund must not advance while parent payment isn't successful")
	assert.Empty(t, queue.Jobs())
}
