package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"paygateway/internal/core/domain"
	"paygateway/internal/core/ports"
	"paygateway/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// WebhookServiceImpl implements ports.WebhookService.
type WebhookServiceImpl struct {
	webhookRepo ports.WebhookLogRepository
	queue       ports.Queue
	audit       ports.AuditService
	log         zerolog.Logger
}

// NewWebhookService creates a new WebhookServiceImpl.
func NewWebhookService(webhookRepo ports.WebhookLogRepository, queue ports.Queue, audit ports.AuditService, log zerolog.Logger) *WebhookServiceImpl {
	return &WebhookServiceImpl{webhookRepo: webhookRepo, queue: queue, audit: audit, log: log}
}

// EnqueueEvent fans an event out to the webhook-delivery queue without
// creating a log row up front; the deliverer creates it on first attempt.
func (s *WebhookServiceImpl) EnqueueEvent(ctx context.Context, merchantID uuid.UUID, event string, data any) error {
	dataJSON, err := json.Marshal(data)
	if err != nil {
		return apperror.Internal(fmt.Errorf("marshal webhook event data: %w", err))
	}

	payload, err := json.Marshal(domain.WebhookJobPayload{
		MerchantID: merchantID,
		Event:      event,
		Data:       dataJSON,
	})
	if err != nil {
		return apperror.Internal(fmt.Errorf("marshal webhook job: %w", err))
	}

	if err := s.queue.Enqueue(ctx, ports.QueueWebhookDelivery, payload, 0); err != nil {
		return apperror.Internal(fmt.Errorf("enqueue webhook job: %w", err))
	}
	return nil
}

// ListWebhookLogs returns a merchant-scoped page of webhook logs.
func (s *WebhookServiceImpl) ListWebhookLogs(ctx context.Context, merchantID uuid.UUID, limit, offset int) ([]domain.WebhookLog, int64, error) {
	logs, total, err := s.webhookRepo.List(ctx, ports.ListParams{MerchantID: merchantID, Limit: limit, Offset: offset})
	if err != nil {
		return nil, 0, apperror.Internal(fmt.Errorf("list webhook logs: %w", err))
	}
	return logs, total, nil
}

// RetryWebhook resets a log's attempt counter and re-enqueues a delivery
// job carrying its id, as a fresh schedule rather than a continuation.
func (s *WebhookServiceImpl) RetryWebhook(ctx context.Context, merchantID uuid.UUID, id uuid.UUID) (*domain.WebhookLog, error) {
	logEntry, err := s.webhookRepo.GetByID(ctx, id)
	if err != nil {
		return nil, apperror.Internal(fmt.Errorf("get webhook log: %w", err))
	}
	if logEntry == nil || logEntry.MerchantID != merchantID {
		return nil, apperror.NotFound("webhook log")
	}

	logEntry.Attempts = 0
	logEntry.Status = domain.WebhookStatusPending
	logEntry.NextRetryAt = nil
	if err := s.webhookRepo.Update(ctx, logEntry); err != nil {
		return nil, apperror.Internal(fmt.Errorf("reset webhook log: %w", err))
	}

	jobPayload, err := json.Marshal(domain.WebhookJobPayload{
		LogID:      &logEntry.ID,
		MerchantID: logEntry.MerchantID,
		Event:      logEntry.Event,
		Data:       logEntry.Payload,
	})
	if err != nil {
		return nil, apperror.Internal(fmt.Errorf("marshal retry job: %w", err))
	}
	if err := s.queue.Enqueue(ctx, ports.QueueWebhookDelivery, jobPayload, 0); err != nil {
		return nil, apperror.Internal(fmt.Errorf("enqueue retry job: %w", err))
	}

	s.audit.Log(ctx, &domain.AuditLog{
		ID:           uuid.New(),
		MerchantID:   &merchantID,
		Action:       domain.AuditActionWebhookRetried,
		ResourceType: "webhook_log",
		ResourceID:   logEntry.ID.String(),
		CreatedAt:    time.Now().UTC(),
	})

	return logEntry, nil
}
