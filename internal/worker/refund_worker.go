package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"time"

	"paygateway/config"
	"paygateway/internal/core/domain"
	"paygateway/internal/core/ports"

	"github.com/rs/zerolog"
)

const (
	minRefundDelay = 3 * time.Second
	maxRefundDelay = 5 * time.Second
)

// refundEventPayload is the data.refund shape delivered to merchant
// webhooks on refund.processed.
type refundEventPayload struct {
	ID          string     `json:"id"`
	PaymentID   string     `json:"payment_id"`
	Amount      int64      `json:"amount"`
	Reason      *string    `json:"reason,omitempty"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	ProcessedAt *time.Time `json:"processed_at,omitempty"`
}

// RefundWorker processes refund-processing jobs: it simulates the
// settlement delay, marks the refund processed, and fans out a webhook
// event when the merchant has one configured.
type RefundWorker struct {
	refundRepo   ports.RefundRepository
	payRepo      ports.PaymentRepository
	merchantRepo ports.MerchantRepository
	webhookSvc   ports.WebhookService
	testCfg      config.TestConfig
	log          zerolog.Logger
}

// NewRefundWorker creates a new RefundWorker.
func NewRefundWorker(
	refundRepo ports.RefundRepository,
	payRepo ports.PaymentRepository,
	merchantRepo ports.MerchantRepository,
	webhookSvc ports.WebhookService,
	testCfg config.TestConfig,
	log zerolog.Logger,
) *RefundWorker {
	return &RefundWorker{
		refundRepo:   refundRepo,
		payRepo:      payRepo,
		merchantRepo: merchantRepo,
		webhookSvc:   webhookSvc,
		testCfg:      testCfg,
		log:          log,
	}
}

// Handle implements worker.Handler for the refund-processing queue.
func (w *RefundWorker) Handle(ctx context.Context, payload []byte) error {
	var job domain.RefundJobPayload
	if err := json.Unmarshal(payload, &job); err != nil {
		return fmt.Errorf("unmarshal refund job: %w", err)
	}

	refund, err := w.refundRepo.GetByID(ctx, job.RefundID)
	if err != nil {
		return fmt.Errorf("get refund %s: %w", job.RefundID, err)
	}
	if refund == nil {
		return fmt.Errorf("refund %s not found", job.RefundID)
	}
	if refund.Status == domain.RefundStatusProcessed {
		// A redelivered job from a prior lease that already completed.
		return nil
	}

	payment, err := w.payRepo.GetByID(ctx, refund.PaymentID)
	if err != nil {
		return fmt.Errorf("get payment %s: %w", refund.PaymentID, err)
	}
	if payment == nil {
		return fmt.Errorf("payment %s not found", refund.PaymentID)
	}
	if payment.Status != domain.PaymentStatusSuccess {
		// The parent payment is no longer in a refundable state; benign
		// no-op, nothing more this job can do.
		w.log.Warn().Str("refund_id", refund.ID).Str("payment_id", payment.ID).Msg("refund job skipped: payment not successful")
		return nil
	}

	merchant, err := w.merchantRepo.GetByID(ctx, refund.MerchantID)
	if err != nil {
		return fmt.Errorf("get merchant %s: %w", refund.MerchantID, err)
	}
	if merchant == nil {
		return fmt.Errorf("merchant %s not found", refund.MerchantID)
	}

	sleep(ctx, w.processingDelay())

	if err := w.refundRepo.MarkProcessed(ctx, refund.ID); err != nil {
		return fmt.Errorf("mark refund processed: %w", err)
	}
	now := time.Now().UTC()
	refund.Status = domain.RefundStatusProcessed
	refund.ProcessedAt = &now

	if !merchant.HasWebhook() {
		return nil
	}

	data := refundEventPayload{
		ID:          refund.ID,
		PaymentID:   refund.PaymentID,
		Amount:      refund.Amount,
		Reason:      refund.Reason,
		Status:      string(refund.Status),
		CreatedAt:   refund.CreatedAt,
		ProcessedAt: refund.ProcessedAt,
	}
	if err := w.webhookSvc.EnqueueEvent(ctx, refund.MerchantID, "refund.processed", data); err != nil {
		w.log.Error().Err(err).Str("refund_id", refund.ID).Msg("failed to enqueue refund webhook event")
	}

	return nil
}

// processingDelay returns the bounded settlement delay to sleep before
// marking the refund processed.
func (w *RefundWorker) processingDelay() time.Duration {
	if w.testCfg.Mode {
		return time.Duration(w.testCfg.ProcessingDelayMS) * time.Millisecond
	}
	span := maxRefundDelay - minRefundDelay
	return minRefundDelay + time.Duration(rand.Int63n(int64(span)))
}
