package worker

import (
	"context"
	"encoding/json"
	"time"

	"paygateway/internal/core/domain"
	"paygateway/internal/core/ports"

	"github.com/rs/zerolog"
)

// staleThreshold bounds how long a payment/refund may sit pending before the
// sweeper assumes its processing job was lost and re-enqueues it.
const staleThreshold = 15 * time.Minute

const sweepBatchSize = 100

// Reconciler periodically re-enqueues pending payments and refunds whose
// processing job never ran — the producer crashed after commit but before
// enqueue, or a queued job was dropped. An outbox table would remove this
// class of gap entirely, but duplicates it across every write path; a single
// low-frequency sweep was judged the better tradeoff for this system's scale.
type Reconciler struct {
	payRepo     ports.PaymentRepository
	refundRepo  ports.RefundRepository
	webhookRepo ports.WebhookLogRepository
	queue       ports.Queue
	interval    time.Duration
	log         zerolog.Logger
}

// NewReconciler creates a new Reconciler.
func NewReconciler(
	payRepo ports.PaymentRepository,
	refundRepo ports.RefundRepository,
	webhookRepo ports.WebhookLogRepository,
	queue ports.Queue,
	interval time.Duration,
	log zerolog.Logger,
) *Reconciler {
	return &Reconciler{
		payRepo:     payRepo,
		refundRepo:  refundRepo,
		webhookRepo: webhookRepo,
		queue:       queue,
		interval:    interval,
		log:         log,
	}
}

// Start runs the sweep on a ticker until ctx is cancelled.
func (r *Reconciler) Start(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.sweepPayments(ctx)
			r.sweepRefunds(ctx)
			r.sweepWebhooks(ctx)
		}
	}
}

func (r *Reconciler) sweepPayments(ctx context.Context) {
	cutoff := time.Now().UTC().Add(-staleThreshold)
	stale, err := r.payRepo.ListStalePending(ctx, cutoff, sweepBatchSize)
	if err != nil {
		r.log.Error().Err(err).Msg("reconciler: list stale pending payments failed")
		return
	}

	for _, payment := range stale {
		payload, err := json.Marshal(domain.PaymentJobPayload{PaymentID: payment.ID})
		if err != nil {
			r.log.Error().Err(err).Str("payment_id", payment.ID).Msg("reconciler: marshal payment job failed")
			continue
		}
		if err := r.queue.Enqueue(ctx, ports.QueuePaymentProcessing, payload, 0); err != nil {
			r.log.Error().Err(err).Str("payment_id", payment.ID).Msg("reconciler: re-enqueue payment failed")
			continue
		}
		r.log.Warn().Str("payment_id", payment.ID).Msg("reconciler: re-enqueued stale pending payment")
	}
}

func (r *Reconciler) sweepRefunds(ctx context.Context) {
	cutoff := time.Now().UTC().Add(-staleThreshold)
	stale, err := r.refundRepo.ListStalePending(ctx, cutoff, sweepBatchSize)
	if err != nil {
		r.log.Error().Err(err).Msg("reconciler: list stale pending refunds failed")
		return
	}

	for _, refund := range stale {
		payload, err := json.Marshal(domain.RefundJobPayload{RefundID: refund.ID})
		if err != nil {
			r.log.Error().Err(err).Str("refund_id", refund.ID).Msg("reconciler: marshal refund job failed")
			continue
		}
		if err := r.queue.Enqueue(ctx, ports.QueueRefundProcessing, payload, 0); err != nil {
			r.log.Error().Err(err).Str("refund_id", refund.ID).Msg("reconciler: re-enqueue refund failed")
			continue
		}
		r.log.Warn().Str("refund_id", refund.ID).Msg("reconciler: re-enqueued stale pending refund")
	}
}

// sweepWebhooks re-enqueues pending webhook logs whose scheduled retry is
// due but were never requeued, e.g. after a worker crash between the
// Update(next_retry_at) and Enqueue(delay) calls.
func (r *Reconciler) sweepWebhooks(ctx context.Context) {
	pending, err := r.webhookRepo.ListPendingForRecovery(ctx, sweepBatchSize)
	if err != nil {
		r.log.Error().Err(err).Msg("reconciler: list pending webhook logs failed")
		return
	}

	now := time.Now().UTC()
	for _, logEntry := range pending {
		if logEntry.NextRetryAt != nil && logEntry.NextRetryAt.After(now) {
			continue
		}
		payload, err := json.Marshal(domain.WebhookJobPayload{
			LogID:      &logEntry.ID,
			MerchantID: logEntry.MerchantID,
			Event:      logEntry.Event,
			Data:       logEntry.Payload,
		})
		if err != nil {
			r.log.Error().Err(err).Str("webhook_log_id", logEntry.ID.String()).Msg("reconciler: marshal webhook job failed")
			continue
		}
		if err := r.queue.Enqueue(ctx, ports.QueueWebhookDelivery, payload, 0); err != nil {
			r.log.Error().Err(err).Str("webhook_log_id", logEntry.ID.String()).Msg("reconciler: re-enqueue webhook failed")
			continue
		}
		r.log.Warn().Str("webhook_log_id", logEntry.ID.String()).Msg("reconciler: re-enqueued stale pending webhook")
	}
}
