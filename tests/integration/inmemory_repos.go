// Package integration holds in-memory fakes of the storage ports, used by
// service- and worker-level tests in place of a live Postgres/Redis.
package integration

import (
	"context"
	"fmt"
	"sync"
	"time"

	"paygateway/internal/core/domain"
	"paygateway/internal/core/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// --- In-Memory Merchant Repo ---

type InMemoryMerchantRepo struct {
	mu        sync.RWMutex
	merchants map[uuid.UUID]*domain.Merchant
}

func NewInMemoryMerchantRepo() *InMemoryMerchantRepo {
	return &InMemoryMerchantRepo{merchants: make(map[uuid.UUID]*domain.Merchant)}
}

func (r *InMemoryMerchantRepo) Put(m *domain.Merchant) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.merchants[m.ID] = m
}

func (r *InMemoryMerchantRepo) Create(ctx context.Context, m *domain.Merchant) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.merchants[m.ID] = m
	return nil
}

func (r *InMemoryMerchantRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Merchant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.merchants[id]
	if !ok {
		return nil, nil
	}
	return m, nil
}

func (r *InMemoryMerchantRepo) GetByAPIKey(ctx context.Context, apiKey string) (*domain.Merchant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, m := range r.merchants {
		if m.APIKey == apiKey {
			return m, nil
		}
	}
	return nil, nil
}

func (r *InMemoryMerchantRepo) UpdateWebhookURL(ctx context.Context, id uuid.UUID, webhookURL *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.merchants[id]
	if !ok {
		return fmt.Errorf("merchant not found")
	}
	m.WebhookURL = webhookURL
	return nil
}

func (r *InMemoryMerchantRepo) UpdateWebhookSecret(ctx context.Context, id uuid.UUID, webhookSecretEnc string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.merchants[id]
	if !ok {
		return fmt.Errorf("merchant not found")
	}
	m.WebhookSecretEnc = &webhookSecretEnc
	return nil
}

// --- In-Memory Order Repo ---

type InMemoryOrderRepo struct {
	mu     sync.RWMutex
	orders map[string]*domain.Order
}

func NewInMemoryOrderRepo() *InMemoryOrderRepo {
	return &InMemoryOrderRepo{orders: make(map[string]*domain.Order)}
}

func (r *InMemoryOrderRepo) Create(ctx context.Context, o *domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.orders[o.ID] = o
	return nil
}

func (r *InMemoryOrderRepo) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	o, ok := r.orders[id]
	if !ok {
		return nil, nil
	}
	return o, nil
}

func (r *InMemoryOrderRepo) GetForUpdate(ctx context.Context, tx pgx.Tx, id string) (*domain.Order, error) {
	return r.GetByID(ctx, id)
}

func (r *InMemoryOrderRepo) List(ctx context.Context, params ports.ListParams) ([]domain.Order, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []domain.Order
	for _, o := range r.orders {
		if o.MerchantID == params.MerchantID {
			result = append(result, *o)
		}
	}
	return paginate(result, params.Limit, params.Offset), int64(len(result)), nil
}

// --- In-Memory Payment Repo ---

type InMemoryPaymentRepo struct {
	mu       sync.RWMutex
	payments map[string]*domain.Payment
}

func NewInMemoryPaymentRepo() *InMemoryPaymentRepo {
	return &InMemoryPaymentRepo{payments: make(map[string]*domain.Payment)}
}

func (r *InMemoryPaymentRepo) Create(ctx context.Context, tx pgx.Tx, p *domain.Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.payments[p.ID] = p
	return nil
}

func (r *InMemoryPaymentRepo) GetByID(ctx context.Context, id string) (*domain.Payment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.payments[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (r *InMemoryPaymentRepo) GetForUpdate(ctx context.Context, tx pgx.Tx, id string) (*domain.Payment, error) {
	return r.GetByID(ctx, id)
}

func (r *InMemoryPaymentRepo) List(ctx context.Context, params ports.ListParams) ([]domain.Payment, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []domain.Payment
	for _, p := range r.payments {
		if p.MerchantID == params.MerchantID {
			result = append(result, *p)
		}
	}
	return paginate(result, params.Limit, params.Offset), int64(len(result)), nil
}

func (r *InMemoryPaymentRepo) MarkTerminal(ctx context.Context, id string, status domain.PaymentStatus, errorCode, errorDescription *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.payments[id]
	if !ok {
		return fmt.Errorf("payment not found")
	}
	if p.Status != domain.PaymentStatusPending {
		return nil
	}
	p.Status = status
	p.ErrorCode = errorCode
	p.ErrorDescription = errorDescription
	p.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *InMemoryPaymentRepo) SetCaptured(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.payments[id]
	if !ok {
		return fmt.Errorf("payment not found")
	}
	p.Captured = true
	return nil
}

func (r *InMemoryPaymentRepo) ListStalePending(ctx context.Context, olderThan time.Time, limit int) ([]domain.Payment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []domain.Payment
	for _, p := range r.payments {
		if p.Status == domain.PaymentStatusPending && p.CreatedAt.Before(olderThan) {
			result = append(result, *p)
		}
	}
	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// --- In-Memory Refund Repo ---

type InMemoryRefundRepo struct {
	mu      sync.RWMutex
	refunds map[string]*domain.Refund
}

func NewInMemoryRefundRepo() *InMemoryRefundRepo {
	return &InMemoryRefundRepo{refunds: make(map[string]*domain.Refund)}
}

func (r *InMemoryRefundRepo) Create(ctx context.Context, tx pgx.Tx, refund *domain.Refund) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.refunds[refund.ID] = refund
	return nil
}

func (r *InMemoryRefundRepo) GetByID(ctx context.Context, id string) (*domain.Refund, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	refund, ok := r.refunds[id]
	if !ok {
		return nil, nil
	}
	cp := *refund
	return &cp, nil
}

func (r *InMemoryRefundRepo) List(ctx context.Context, params ports.ListParams) ([]domain.Refund, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []domain.Refund
	for _, refund := range r.refunds {
		if refund.MerchantID == params.MerchantID {
			result = append(result, *refund)
		}
	}
	return paginate(result, params.Limit, params.Offset), int64(len(result)), nil
}

func (r *InMemoryRefundRepo) SumByPaymentID(ctx context.Context, tx pgx.Tx, paymentID string) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var sum int64
	for _, refund := range r.refunds {
		if refund.PaymentID == paymentID {
			sum += refund.Amount
		}
	}
	return sum, nil
}

func (r *InMemoryRefundRepo) MarkProcessed(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	refund, ok := r.refunds[id]
	if !ok {
		return fmt.Errorf("refund not found")
	}
	if refund.Status != domain.RefundStatusPending {
		return nil
	}
	now := time.Now().UTC()
	refund.Status = domain.RefundStatusProcessed
	refund.ProcessedAt = &now
	return nil
}

func (r *InMemoryRefundRepo) ListStalePending(ctx context.Context, olderThan time.Time, limit int) ([]domain.Refund, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []domain.Refund
	for _, refund := range r.refunds {
		if refund.Status == domain.RefundStatusPending && refund.CreatedAt.Before(olderThan) {
			result = append(result, *refund)
		}
	}
	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// --- In-Memory Webhook Log Repo ---

type InMemoryWebhookLogRepo struct {
	mu   sync.RWMutex
	logs map[uuid.UUID]*domain.WebhookLog
}

func NewInMemoryWebhookLogRepo() *InMemoryWebhookLogRepo {
	return &InMemoryWebhookLogRepo{logs: make(map[uuid.UUID]*domain.WebhookLog)}
}

func (r *InMemoryWebhookLogRepo) Create(ctx context.Context, log *domain.WebhookLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logs[log.ID] = log
	return nil
}

func (r *InMemoryWebhookLogRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.WebhookLog, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	log, ok := r.logs[id]
	if !ok {
		return nil, nil
	}
	cp := *log
	return &cp, nil
}

func (r *InMemoryWebhookLogRepo) Update(ctx context.Context, log *domain.WebhookLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.logs[log.ID]; !ok {
		return fmt.Errorf("webhook log not found")
	}
	r.logs[log.ID] = log
	return nil
}

func (r *InMemoryWebhookLogRepo) List(ctx context.Context, params ports.ListParams) ([]domain.WebhookLog, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []domain.WebhookLog
	for _, log := range r.logs {
		if log.MerchantID == params.MerchantID {
			result = append(result, *log)
		}
	}
	return paginate(result, params.Limit, params.Offset), int64(len(result)), nil
}

func (r *InMemoryWebhookLogRepo) ListPendingForRecovery(ctx context.Context, limit int) ([]domain.WebhookLog, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []domain.WebhookLog
	for _, log := range r.logs {
		if log.Status == domain.WebhookStatusPending {
			result = append(result, *log)
		}
	}
	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// --- In-Memory Idempotency Repo ---

type InMemoryIdempotencyRepo struct {
	mu      sync.RWMutex
	records map[string]*domain.IdempotencyRecord
}

func NewInMemoryIdempotencyRepo() *InMemoryIdempotencyRepo {
	return &InMemoryIdempotencyRepo{records: make(map[string]*domain.IdempotencyRecord)}
}

func (r *InMemoryIdempotencyRepo) Get(ctx context.Context, key string, merchantID uuid.UUID) (*domain.IdempotencyRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.records[key]
	if !ok || rec.MerchantID != merchantID {
		return nil, nil
	}
	return rec, nil
}

func (r *InMemoryIdempotencyRepo) Put(ctx context.Context, record *domain.IdempotencyRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records[record.Key] = record
	return nil
}

func (r *InMemoryIdempotencyRepo) Delete(ctx context.Context, key string, merchantID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.records, key)
	return nil
}

// --- In-Memory Idempotency Cache (Redis fast path) ---

type InMemoryIdempotencyCache struct {
	mu    sync.RWMutex
	items map[string][]byte
}

func NewInMemoryIdempotencyCache() *InMemoryIdempotencyCache {
	return &InMemoryIdempotencyCache{items: make(map[string][]byte)}
}

func (c *InMemoryIdempotencyCache) Get(ctx context.Context, key string) ([]byte, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.items[key], nil
}

func (c *InMemoryIdempotencyCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = value
	return nil
}

// --- In-Memory Audit Repo ---

type InMemoryAuditRepo struct {
	mu      sync.Mutex
	entries []*domain.AuditLog
}

func NewInMemoryAuditRepo() *InMemoryAuditRepo {
	return &InMemoryAuditRepo{}
}

func (r *InMemoryAuditRepo) Create(ctx context.Context, entry *domain.AuditLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, entry)
	return nil
}

func (r *InMemoryAuditRepo) Entries() []*domain.AuditLog {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*domain.AuditLog, len(r.entries))
	copy(out, r.entries)
	return out
}

// --- In-Memory Queue (fan-out recorder, no real delivery semantics) ---

type EnqueuedJob struct {
	Queue   string
	Payload []byte
	Delay   time.Duration
}

type InMemoryQueue struct {
	mu   sync.Mutex
	jobs []EnqueuedJob
}

func NewInMemoryQueue() *InMemoryQueue {
	return &InMemoryQueue{}
}

func (q *InMemoryQueue) Enqueue(ctx context.Context, queue string, payload []byte, delay time.Duration) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.jobs = append(q.jobs, EnqueuedJob{Queue: queue, Payload: append([]byte(nil), payload...), Delay: delay})
	return nil
}

func (q *InMemoryQueue) PullAndLease(ctx context.Context, queue string, timeout time.Duration) (*ports.Job, ports.LeaseToken, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for i, j := range q.jobs {
		if j.Queue == queue {
			q.jobs = append(q.jobs[:i], q.jobs[i+1:]...)
			return &ports.Job{ID: uuid.NewString(), Queue: queue, Payload: j.Payload, Attempt: 1}, ports.LeaseToken("lease"), nil
		}
	}
	return nil, "", nil
}

func (q *InMemoryQueue) Complete(ctx context.Context, queue string, lease ports.LeaseToken) error { return nil }
func (q *InMemoryQueue) Fail(ctx context.Context, queue string, lease ports.LeaseToken) error     { return nil }

func (q *InMemoryQueue) Counts(ctx context.Context, queue string) (ports.QueueCounts, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	var waiting int64
	for _, j := range q.jobs {
		if j.Queue == queue {
			waiting++
		}
	}
	return ports.QueueCounts{Waiting: waiting}, nil
}

func (q *InMemoryQueue) Jobs() []EnqueuedJob {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]EnqueuedJob, len(q.jobs))
	copy(out, q.jobs)
	return out
}

// --- In-Memory Transactor (no-op tx) ---

type InMemoryTransactor struct{}

func NewInMemoryTransactor() *InMemoryTransactor {
	return &InMemoryTransactor{}
}

func (t *InMemoryTransactor) Begin(ctx context.Context) (pgx.Tx, error) {
	return &noopTx{}, nil
}

// noopTx is a no-op pgx.Tx implementation for in-memory testing.
type noopTx struct{}

func (t *noopTx) Begin(ctx context.Context) (pgx.Tx, error) { return t, nil }
func (t *noopTx) Commit(ctx context.Context) error           { return nil }
func (t *noopTx) Rollback(ctx context.Context) error         { return nil }
func (t *noopTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	return 0, nil
}
func (t *noopTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults { return nil }
func (t *noopTx) LargeObjects() pgx.LargeObjects                              { return pgx.LargeObjects{} }
func (t *noopTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	return nil, nil
}
func (t *noopTx) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	return pgconn.NewCommandTag(""), nil
}
func (t *noopTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}
func (t *noopTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return nil
}
func (t *noopTx) Conn() *pgx.Conn { return nil }

// --- Passthrough Encryption Service ---

type NoopEncryptionService struct{}

func (NoopEncryptionService) Encrypt(plaintext string) (string, error) { return plaintext, nil }
func (NoopEncryptionService) Decrypt(ciphertext string) (string, error) { return ciphertext, nil }

func paginate[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return []T{}
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}
