package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"paygateway/config"
	"paygateway/internal/core/domain"
	"paygateway/internal/core/ports"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// HTTPClient is the subset of *http.Client the deliverer depends on, kept
// narrow for testability.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

const deliveryTimeout = 5 * time.Second

// WebhookDeliverer processes webhook-delivery jobs: it resolves or creates
// the delivery log, signs and POSTs the event payload to the merchant's
// endpoint, and re-enqueues with backoff on failure until attempts are
// exhausted.
type WebhookDeliverer struct {
	webhookRepo  ports.WebhookLogRepository
	merchantRepo ports.MerchantRepository
	encSvc       ports.EncryptionService
	sigSvc       ports.SignatureService
	queue        ports.Queue
	httpClient   HTTPClient
	testCfg      config.TestConfig
	log          zerolog.Logger
}

// NewWebhookDeliverer creates a new WebhookDeliverer.
func NewWebhookDeliverer(
	webhookRepo ports.WebhookLogRepository,
	merchantRepo ports.MerchantRepository,
	encSvc ports.EncryptionService,
	sigSvc ports.SignatureService,
	queue ports.Queue,
	httpClient HTTPClient,
	testCfg config.TestConfig,
	log zerolog.Logger,
) *WebhookDeliverer {
	return &WebhookDeliverer{
		webhookRepo:  webhookRepo,
		merchantRepo: merchantRepo,
		encSvc:       encSvc,
		sigSvc:       sigSvc,
		queue:        queue,
		httpClient:   httpClient,
		testCfg:      testCfg,
		log:          log,
	}
}

// Handle implements worker.Handler for the webhook-delivery queue.
func (d *WebhookDeliverer) Handle(ctx context.Context, payload []byte) error {
	var job domain.WebhookJobPayload
	if err := json.Unmarshal(payload, &job); err != nil {
		return fmt.Errorf("unmarshal webhook job: %w", err)
	}

	merchant, err := d.merchantRepo.GetByID(ctx, job.MerchantID)
	if err != nil {
		return fmt.Errorf("get merchant %s: %w", job.MerchantID, err)
	}
	if merchant == nil {
		return fmt.Errorf("merchant %s not found", job.MerchantID)
	}
	if !merchant.HasWebhook() {
		// Configuration changed between fan-out and delivery; drop it.
		return nil
	}
	if merchant.WebhookSecretEnc == nil {
		d.log.Error().Str("merchant_id", merchant.ID.String()).Msg("webhook delivery dropped: no signing secret configured")
		return nil
	}

	logEntry, err := d.resolveLog(ctx, job)
	if err != nil {
		return err
	}

	event := domain.WebhookEventPayload{
		Event:     job.Event,
		Timestamp: time.Now().Unix(),
		Data:      job.Data,
	}
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal webhook event: %w", err)
	}

	secretKey, err := d.encSvc.Decrypt(*merchant.WebhookSecretEnc)
	if err != nil {
		return fmt.Errorf("decrypt webhook secret: %w", err)
	}
	signature := d.sigSvc.Sign(secretKey, string(body))

	logEntry.Status = domain.WebhookStatusPending
	logEntry.Attempts++
	now := time.Now().UTC()
	logEntry.LastAttemptAt = &now

	code, respBody, sendErr := d.send(ctx, *merchant.WebhookURL, body, signature)
	if sendErr == nil && code >= 200 && code < 300 {
		logEntry.Status = domain.WebhookStatusSuccess
		logEntry.ResponseCode = &code
		truncated := domain.TruncateResponseBody(respBody)
		logEntry.ResponseBody = &truncated
		logEntry.NextRetryAt = nil
		return d.webhookRepo.Update(ctx, logEntry)
	}

	if code != 0 {
		logEntry.ResponseCode = &code
		truncated := domain.TruncateResponseBody(respBody)
		logEntry.ResponseBody = &truncated
	}

	if logEntry.Exhausted() {
		logEntry.Status = domain.WebhookStatusFailed
		logEntry.NextRetryAt = nil
		return d.webhookRepo.Update(ctx, logEntry)
	}

	delay := d.backoff()[logEntry.Attempts]
	next := time.Now().UTC().Add(delay)
	logEntry.NextRetryAt = &next
	if err := d.webhookRepo.Update(ctx, logEntry); err != nil {
		return fmt.Errorf("persist webhook log: %w", err)
	}

	retryJob, err := json.Marshal(domain.WebhookJobPayload{
		LogID:      &logEntry.ID,
		MerchantID: logEntry.MerchantID,
		Event:      logEntry.Event,
		Data:       job.Data,
	})
	if err != nil {
		return fmt.Errorf("marshal retry job: %w", err)
	}
	// A scheduled re-enqueue, not a queue-level retry: the queue must
	// Complete this lease regardless of delivery outcome, or the retry
	// policy's own backoff would compound with this one.
	if err := d.queue.Enqueue(ctx, ports.QueueWebhookDelivery, retryJob, delay); err != nil {
		return fmt.Errorf("re-enqueue webhook delivery: %w", err)
	}
	return nil
}

// resolveLog loads the log row for a retry/redelivery, or creates one on
// first fan-out.
func (d *WebhookDeliverer) resolveLog(ctx context.Context, job domain.WebhookJobPayload) (*domain.WebhookLog, error) {
	if job.LogID != nil {
		logEntry, err := d.webhookRepo.GetByID(ctx, *job.LogID)
		if err != nil {
			return nil, fmt.Errorf("get webhook log %s: %w", job.LogID, err)
		}
		if logEntry != nil {
			return logEntry, nil
		}
	}

	logEntry := &domain.WebhookLog{
		ID:         uuid.New(),
		MerchantID: job.MerchantID,
		Event:      job.Event,
		Payload:    job.Data,
		Status:     domain.WebhookStatusPending,
		CreatedAt:  time.Now().UTC(),
	}
	if err := d.webhookRepo.Create(ctx, logEntry); err != nil {
		return nil, fmt.Errorf("create webhook log: %w", err)
	}
	return logEntry, nil
}

// backoff selects the production or test retry interval table.
func (d *WebhookDeliverer) backoff() []time.Duration {
	if d.testCfg.WebhookRetryIntervalsTest {
		return domain.TestBackoff
	}
	return domain.ProductionBackoff
}

// send POSTs body to url with the signature header, returning the response
// status code and a size-bounded body for storage. A zero code means the
// request itself failed (network error, timeout).
func (d *WebhookDeliverer) send(ctx context.Context, url string, body []byte, signature string) (int, string, error) {
	reqCtx, cancel := context.WithTimeout(ctx, deliveryTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return 0, "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Webhook-Signature", signature)

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return 0, "", fmt.Errorf("deliver webhook: %w", err)
	}
	defer resp.Body.Close()

	buf := make([]byte, domain.WebhookResponseBodyLimit)
	n, _ := resp.Body.Read(buf)
	return resp.StatusCode, string(buf[:n]), nil
}
