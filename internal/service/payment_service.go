package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"paygateway/internal/core/domain"
	"paygateway/internal/core/ports"
	"paygateway/internal/idgen"
	"paygateway/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const idempotencyTTL = 24 * time.Hour

type idempotentResponse struct {
	Status int             `json:"status"`
	Body   json.RawMessage `json:"body"`
}

// PaymentServiceImpl implements ports.PaymentService.
type PaymentServiceImpl struct {
	orderRepo  ports.OrderRepository
	payRepo    ports.PaymentRepository
	idempRepo  ports.IdempotencyRepository
	idempCache ports.IdempotencyCache
	transactor ports.DBTransactor
	queue      ports.Queue
	audit      ports.AuditService
	log        zerolog.Logger
}

// NewPaymentService creates a new PaymentServiceImpl.
func NewPaymentService(
	orderRepo ports.OrderRepository,
	payRepo ports.PaymentRepository,
	idempRepo ports.IdempotencyRepository,
	idempCache ports.IdempotencyCache,
	transactor ports.DBTransactor,
	queue ports.Queue,
	audit ports.AuditService,
	log zerolog.Logger,
) *PaymentServiceImpl {
	return &PaymentServiceImpl{
		orderRepo:  orderRepo,
		payRepo:    payRepo,
		idempRepo:  idempRepo,
		idempCache: idempCache,
		transactor: transactor,
		queue:      queue,
		audit:      audit,
		log:        log,
	}
}

// CreatePayment implements the idempotent create-payment algorithm: a
// non-expired idempotency record short-circuits with the cached response;
// otherwise the order is locked, the payment inserted as pending in one
// transaction, the processing job enqueued after commit, and finally the
// idempotency record persisted with its 24h TTL.
func (s *PaymentServiceImpl) CreatePayment(ctx context.Context, merchantID uuid.UUID, idempotencyKey string, req ports.CreatePaymentRequest) (*domain.Payment, int, error) {
	if idempotencyKey != "" {
		if cached, status, ok, err := s.lookupIdempotent(ctx, idempotencyKey, merchantID); err != nil {
			return nil, 0, apperror.Internal(fmt.Errorf("idempotency lookup: %w", err))
		} else if ok {
			return cached, status, nil
		}
	}

	if err := validatePaymentMethod(req); err != nil {
		return nil, 0, err
	}

	order, err := s.orderRepo.GetByID(ctx, req.OrderID)
	if err != nil {
		return nil, 0, apperror.Internal(fmt.Errorf("get order: %w", err))
	}
	if order == nil || order.MerchantID != merchantID {
		return nil, 0, apperror.NotFound("order")
	}

	payment := &domain.Payment{
		ID:         idgen.Payment(),
		MerchantID: merchantID,
		OrderID:    order.ID,
		Amount:     order.Amount,
		Currency:   order.Currency,
		Method:     req.Method,
		VPA:        req.VPA,
		Status:     domain.PaymentStatusPending,
		Captured:   false,
		CreatedAt:  time.Now().UTC(),
		UpdatedAt:  time.Now().UTC(),
	}
	if req.CardNumber != nil {
		last4 := domain.Last4(*req.CardNumber)
		network := string(domain.InferCardNetwork(*req.CardNumber))
		payment.CardLast4 = &last4
		payment.CardNetwork = &network
	}

	tx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, 0, apperror.Internal(fmt.Errorf("begin tx: %w", err))
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := s.orderRepo.GetForUpdate(ctx, tx, order.ID); err != nil {
		return nil, 0, apperror.Internal(fmt.Errorf("lock order: %w", err))
	}
	if err := s.payRepo.Create(ctx, tx, payment); err != nil {
		return nil, 0, apperror.Internal(fmt.Errorf("insert payment: %w", err))
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, 0, apperror.Internal(fmt.Errorf("commit tx: %w", err))
	}

	jobPayload, err := json.Marshal(domain.PaymentJobPayload{PaymentID: payment.ID})
	if err != nil {
		return nil, 0, apperror.Internal(fmt.Errorf("marshal job payload: %w", err))
	}
	if err := s.queue.Enqueue(ctx, ports.QueuePaymentProcessing, jobPayload, 0); err != nil {
		// The payment row is already committed as pending and recoverable by
		// the reconciliation sweeper; surface the failure but do not retry here.
		s.log.Error().Err(err).Str("payment_id", payment.ID).Msg("failed to enqueue payment processing job")
		return nil, 0, apperror.Internal(fmt.Errorf("enqueue processing job: %w", err))
	}

	if idempotencyKey != "" {
		s.storeIdempotent(ctx, idempotencyKey, merchantID, http.StatusCreated, payment)
	}

	s.audit.Log(ctx, &domain.AuditLog{
		ID:           uuid.New(),
		MerchantID:   &merchantID,
		Action:       domain.AuditActionPaymentCreated,
		ResourceType: "payment",
		ResourceID:   payment.ID,
		CreatedAt:    time.Now().UTC(),
	})

	return payment, http.StatusCreated, nil
}

func validatePaymentMethod(req ports.CreatePaymentRequest) *apperror.AppError {
	switch req.Method {
	case domain.PaymentMethodUPI:
		if req.VPA == nil || *req.VPA == "" {
			return apperror.BadRequest("vpa is required for upi payments")
		}
	case domain.PaymentMethodCard:
		if req.CardNumber == nil || *req.CardNumber == "" ||
			req.CardExpiry == nil || *req.CardExpiry == "" ||
			req.CardCVV == nil || *req.CardCVV == "" {
			return apperror.BadRequest("card_number, card_expiry and card_cvv are required for card payments")
		}
	default:
		return apperror.BadRequest("unsupported payment method")
	}
	return nil
}

// lookupIdempotent checks the redis fast path then the Postgres record,
// deleting an expired DB record as it goes.
func (s *PaymentServiceImpl) lookupIdempotent(ctx context.Context, key string, merchantID uuid.UUID) (*domain.Payment, int, bool, error) {
	if cached, err := s.idempCache.Get(ctx, merchantID.String()+":"+key); err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("redis idempotency check failed, falling through to db")
	} else if cached != nil {
		payment, status, err := decodeIdempotentPayment(cached)
		if err != nil {
			return nil, 0, false, err
		}
		return payment, status, true, nil
	}

	record, err := s.idempRepo.Get(ctx, key, merchantID)
	if err != nil {
		return nil, 0, false, err
	}
	if record == nil {
		return nil, 0, false, nil
	}
	payment, status, err := decodeIdempotentPayment(record.ResponseBody)
	if err != nil {
		return nil, 0, false, err
	}
	return payment, status, true, nil
}

func decodeIdempotentPayment(raw []byte) (*domain.Payment, int, error) {
	var wrapped idempotentResponse
	if err := json.Unmarshal(raw, &wrapped); err != nil {
		return nil, 0, fmt.Errorf("unmarshal idempotent response: %w", err)
	}
	var payment domain.Payment
	if err := json.Unmarshal(wrapped.Body, &payment); err != nil {
		return nil, 0, fmt.Errorf("unmarshal cached payment: %w", err)
	}
	return &payment, wrapped.Status, nil
}

func (s *PaymentServiceImpl) storeIdempotent(ctx context.Context, key string, merchantID uuid.UUID, status int, payment *domain.Payment) {
	body, err := json.Marshal(payment)
	if err != nil {
		s.log.Warn().Err(err).Msg("failed to marshal payment for idempotency record")
		return
	}
	wrapped, err := json.Marshal(idempotentResponse{Status: status, Body: body})
	if err != nil {
		s.log.Warn().Err(err).Msg("failed to marshal idempotent response envelope")
		return
	}

	now := time.Now().UTC()
	record := &domain.IdempotencyRecord{
		Key:            key,
		MerchantID:     merchantID,
		ResponseStatus: status,
		ResponseBody:   wrapped,
		ExpiresAt:      now.Add(idempotencyTTL),
		CreatedAt:      now,
	}
	if err := s.idempRepo.Put(ctx, record); err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("failed to persist idempotency record")
		return
	}
	if err := s.idempCache.Set(ctx, merchantID.String()+":"+key, wrapped, idempotencyTTL); err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("failed to cache idempotency record")
	}
}

// GetPayment fetches a payment, scoped to merchantID.
func (s *PaymentServiceImpl) GetPayment(ctx context.Context, merchantID uuid.UUID, id string) (*domain.Payment, error) {
	payment, err := s.payRepo.GetByID(ctx, id)
	if err != nil {
		return nil, apperror.Internal(fmt.Errorf("get payment: %w", err))
	}
	if payment == nil || payment.MerchantID != merchantID {
		return nil, apperror.NotFound("payment")
	}
	return payment, nil
}

// ListPayments returns a merchant-scoped page of payments.
func (s *PaymentServiceImpl) ListPayments(ctx context.Context, merchantID uuid.UUID, limit, offset int) ([]domain.Payment, int64, error) {
	payments, total, err := s.payRepo.List(ctx, ports.ListParams{MerchantID: merchantID, Limit: limit, Offset: offset})
	if err != nil {
		return nil, 0, apperror.Internal(fmt.Errorf("list payments: %w", err))
	}
	return payments, total, nil
}

// CapturePayment marks a successful, uncaptured payment as captured.
func (s *PaymentServiceImpl) CapturePayment(ctx context.Context, merchantID uuid.UUID, id string) (*domain.Payment, error) {
	payment, err := s.GetPayment(ctx, merchantID, id)
	if err != nil {
		return nil, err
	}
	if payment.Status != domain.PaymentStatusSuccess || payment.Captured {
		return nil, apperror.BadRequest("payment must be successful and not already captured")
	}
	if err := s.payRepo.SetCaptured(ctx, id); err != nil {
		return nil, apperror.Internal(fmt.Errorf("set captured: %w", err))
	}
	payment.Captured = true

	s.audit.Log(ctx, &domain.AuditLog{
		ID:           uuid.New(),
		MerchantID:   &merchantID,
		Action:       domain.AuditActionPaymentUpdated,
		ResourceType: "payment",
		ResourceID:   payment.ID,
		Details:      `{"captured":true}`,
		CreatedAt:    time.Now().UTC(),
	})

	return payment, nil
}
