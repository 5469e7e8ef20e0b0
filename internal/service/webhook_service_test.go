package service

import (
	"context"
	"encoding/json"
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

func newWebhookService() (*WebhookServiceImpl, *integration.InMemoryWebhookLogRepo, *integration.InMemoryQueue) {
	webhookRepo := integration.NewInMemoryWebhookLogRepo()
	queue := integration.NewInMemoryQueue()
	audit := NewAuditService(integration.NewInMemoryAuditRepo(), zerolog.Nop())
	return NewWebhookService(webhookRepo, queue, audit, zerolog.Nop()), webhookRepo, queue
}

func TestEnqueueEvent_MarshalsDataAndEnqueues(t *testing.T) {
	svc, _, queue := newWebhookService()
	merchantID := uuid.New()

	err := svc.EnqueueEvent(context.Background(), merchantID, "payment.success", map[string]string{"id": "pay_1"})
	require.NoError(t, err)

	jobs := queue.Jobs()
	require.Len(t, jobs, 1)
	assert.Equal(t, ports.QueueWebhookDelivery, jobs[0].Queue)

	var job domain.WebhookJobPayload
	require.NoError(t, json.Unmarshal(jobs[0].Payload, &job))
	assert.Equal(t, merchantID, job.MerchantID)
	assert.Equal(t, "payment.success", job.Event)
	assert.Nil(t, job.LogID)
}

func TestRetryWebhook_ResetsAttemptsAndReenqueues(t *testing.T) {
	svc, webhookRepo, queue := newWebhookService()
	merchantID := uuid.New()
	logEntry := &domain.WebhookLog{
		ID: uuid.New(), MerchantID: merchantID, Event: "payment.failed",
		Payload: json.RawMessage(`{}`), Status: domain.WebhookStatusFailed, Attempts: 5,
	}
	require.NoError(t, webhookRepo.Create(context.Background(), logEntry))

	result, err := svc.RetryWebhook(context.Background(), merchantID, logEntry.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Attempts)
	assert.Equal(t, domain.WebhookStatusPending, result.Status)

	jobs := queue.Jobs()
	require.Len(t, jobs, 1)
	var job domain.WebhookJobPayload
	require.NoError(t, json.Unmarshal(jobs[0].Payload, &job))
	require.NotNil(t, job.LogID)
	assert.Equal(t, logEntry.ID, *job.LogID)
}

func TestRetryWebhook_NotFoundWrongMerchant(t *testing.T) {
	svc, webhookRepo, _ := newWebhookService()
	logEntry := &domain.WebhookLog{ID: uuid.New(), MerchantID: uuid.New(), Event: "e", Payload: json.RawMessage(`{}`)}
	require.NoError(t, webhookRepo.Create(context.Background(), logEntry))

	_, err := svc.RetryWebhook(context.Background(), uuid.New(), logEntry.ID)
	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperror.CodeNotFound, appErr.Code)
}

func TestListWebhookLogs_MerchantScoped(t *testing.T) {
	svc, webhookRepo, _ := newWebhookService()
	merchantA := uuid.New()
	require.NoError(t, webhookRepo.Create(context.Background(), &domain.WebhookLog{ID: uuid.New(), MerchantID: merchantA, Event: "a", Payload: json.RawMessage(`{}`)}))
	require.NoError(t, webhookRepo.Create(context.Background(), &domain.WebhookLog{ID: uuid.New(), MerchantID: uuid.New(), Event: "b", Payload: json.RawMessage(`{}`)}))

	logs, total, err := svc.ListWebhookLogs(context.Background(), merchantA, 10, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Len(t, logs, 1)
}
