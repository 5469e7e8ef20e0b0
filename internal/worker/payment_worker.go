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

// upiSuccessProbability and cardSuccessProbability are the Bernoulli
// parameters used to simulate gateway outcomes outside test mode.
const (
	upiSuccessProbability  = 0.90
	cardSuccessProbability = 0.95
)

const (
	minProcessingDelay = 5 * time.Second
	maxProcessingDelay = 10 * time.Second
)

// paymentEventPayload is the data.payment shape delivered to merchant
// webhooks on payment.success/payment.failed.
type paymentEventPayload struct {
	ID               string    `json:"id"`
	OrderID          string    `json:"order_id"`
	Amount           int64     `json:"amount"`
	Currency         string    `json:"currency"`
	Method           string    `json:"method"`
	VPA              *string   `json:"vpa,omitempty"`
	Status           string    `json:"status"`
	ErrorCode        *string   `json:"error_code,omitempty"`
	ErrorDescription *string   `json:"error_description,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

// PaymentWorker processes payment-processing jobs: it simulates the
// gateway's settlement delay and outcome, terminalizes the payment row, and
// fans out a webhook event when the merchant has one configured.
type PaymentWorker struct {
	payRepo      ports.PaymentRepository
	merchantRepo ports.MerchantRepository
	webhookSvc   ports.WebhookService
	testCfg      config.TestConfig
	log          zerolog.Logger
}

// NewPaymentWorker creates a new PaymentWorker.
func NewPaymentWorker(
	payRepo ports.PaymentRepository,
	merchantRepo ports.MerchantRepository,
	webhookSvc ports.WebhookService,
	testCfg config.TestConfig,
	log zerolog.Logger,
) *PaymentWorker {
	return &PaymentWorker{
		payRepo:      payRepo,
		merchantRepo: merchantRepo,
		webhookSvc:   webhookSvc,
		testCfg:      testCfg,
		log:          log,
	}
}

// Handle implements worker.Handler for the payment-processing queue.
func (w *PaymentWorker) Handle(ctx context.Context, payload []byte) error {
	var job domain.PaymentJobPayload
	if err := json.Unmarshal(payload, &job); err != nil {
		return fmt.Errorf("unmarshal payment job: %w", err)
	}

	payment, err := w.payRepo.GetByID(ctx, job.PaymentID)
	if err != nil {
		return fmt.Errorf("get payment %s: %w", job.PaymentID, err)
	}
	if payment == nil {
		return fmt.Errorf("payment %s not found", job.PaymentID)
	}
	if payment.IsTerminal() {
		// A redelivered job from a prior lease that already completed.
		return nil
	}

	merchant, err := w.merchantRepo.GetByID(ctx, payment.MerchantID)
	if err != nil {
		return fmt.Errorf("get merchant %s: %w", payment.MerchantID, err)
	}
	if merchant == nil {
		return fmt.Errorf("merchant %s not found", payment.MerchantID)
	}

	sleep(ctx, w.processingDelay())

	var (
		status           domain.PaymentStatus
		errorCode        *string
		errorDescription *string
	)
	if w.outcome(payment.Method) {
		status = domain.PaymentStatusSuccess
	} else {
		status = domain.PaymentStatusFailed
		code := "PAYMENT_FAILED"
		desc := "Payment processing failed"
		errorCode = &code
		errorDescription = &desc
	}

	if err := w.payRepo.MarkTerminal(ctx, payment.ID, status, errorCode, errorDescription); err != nil {
		return fmt.Errorf("mark payment terminal: %w", err)
	}
	payment.Status = status
	payment.ErrorCode = errorCode
	payment.ErrorDescription = errorDescription

	if !merchant.HasWebhook() {
		return nil
	}

	event := "payment.success"
	if status == domain.PaymentStatusFailed {
		event = "payment.failed"
	}
	data := paymentEventPayload{
		ID:               payment.ID,
		OrderID:          payment.OrderID,
		Amount:           payment.Amount,
		Currency:         payment.Currency,
		Method:           string(payment.Method),
		VPA:              payment.VPA,
		Status:           string(payment.Status),
		ErrorCode:        payment.ErrorCode,
		ErrorDescription: payment.ErrorDescription,
		CreatedAt:        payment.CreatedAt,
	}
	if err := w.webhookSvc.EnqueueEvent(ctx, payment.MerchantID, event, data); err != nil {
		w.log.Error().Err(err).Str("payment_id", payment.ID).Msg("failed to enqueue payment webhook event")
	}

	return nil
}

// processingDelay returns the bounded settlement delay to sleep before
// deciding the payment's outcome.
func (w *PaymentWorker) processingDelay() time.Duration {
	if w.testCfg.Mode {
		return time.Duration(w.testCfg.ProcessingDelayMS) * time.Millisecond
	}
	span := maxProcessingDelay - minProcessingDelay
	return minProcessingDelay + time.Duration(rand.Int63n(int64(span)))
}

// outcome decides success/failure for method, forced in test mode.
func (w *PaymentWorker) outcome(method domain.PaymentMethod) bool {
	if w.testCfg.Mode {
		return w.testCfg.PaymentSuccess
	}
	probability := cardSuccessProbability
	if method == domain.PaymentMethodUPI {
		probability = upiSuccessProbability
	}
	return rand.Float64() < probability
}

// sleep blocks for d, or until ctx is cancelled, whichever comes first.
func sleep(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
