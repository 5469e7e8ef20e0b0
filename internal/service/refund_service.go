package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"paygateway/internal/core/domain"
	"paygateway/internal/core/ports"
	"paygateway/internal/idgen"
	"paygateway/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// RefundServiceImpl implements ports.RefundService.
type RefundServiceImpl struct {
	payRepo    ports.PaymentRepository
	refundRepo ports.RefundRepository
	transactor ports.DBTransactor
	queue      ports.Queue
	audit      ports.AuditService
	log        zerolog.Logger
}

// NewRefundService creates a new RefundServiceImpl.
func NewRefundService(
	payRepo ports.PaymentRepository,
	refundRepo ports.RefundRepository,
	transactor ports.DBTransactor,
	queue ports.Queue,
	audit ports.AuditService,
	log zerolog.Logger,
) *RefundServiceImpl {
	return &RefundServiceImpl{
		payRepo:    payRepo,
		refundRepo: refundRepo,
		transactor: transactor,
		queue:      queue,
		audit:      audit,
		log:        log,
	}
}

// CreateRefund locks the parent payment row, checks the available amount
// under that lock, and inserts the refund in the same transaction.
func (s *RefundServiceImpl) CreateRefund(ctx context.Context, merchantID uuid.UUID, paymentID string, amount int64, reason *string) (*domain.Refund, error) {
	if amount <= 0 {
		return nil, apperror.BadRequest("amount must be greater than zero")
	}

	payment, err := s.payRepo.GetByID(ctx, paymentID)
	if err != nil {
		return nil, apperror.Internal(fmt.Errorf("get payment: %w", err))
	}
	if payment == nil || payment.MerchantID != merchantID {
		return nil, apperror.NotFound("payment")
	}
	if !payment.IsRefundable() {
		return nil, apperror.BadRequest("payment is not refundable")
	}

	tx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.Internal(fmt.Errorf("begin tx: %w", err))
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	locked, err := s.payRepo.GetForUpdate(ctx, tx, paymentID)
	if err != nil {
		return nil, apperror.Internal(fmt.Errorf("lock payment: %w", err))
	}
	if locked == nil {
		return nil, apperror.NotFound("payment")
	}

	refunded, err := s.refundRepo.SumByPaymentID(ctx, tx, paymentID)
	if err != nil {
		return nil, apperror.Internal(fmt.Errorf("sum refunds: %w", err))
	}
	available := locked.Amount - refunded
	if amount > available {
		return nil, apperror.BadRequest("refund amount exceeds available balance")
	}

	refund := &domain.Refund{
		ID:         idgen.Refund(),
		PaymentID:  paymentID,
		MerchantID: merchantID,
		Amount:     amount,
		Reason:     reason,
		Status:     domain.RefundStatusPending,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.refundRepo.Create(ctx, tx, refund); err != nil {
		return nil, apperror.Internal(fmt.Errorf("insert refund: %w", err))
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, apperror.Internal(fmt.Errorf("commit tx: %w", err))
	}

	jobPayload, err := json.Marshal(domain.RefundJobPayload{RefundID: refund.ID})
	if err != nil {
		return nil, apperror.Internal(fmt.Errorf("marshal job payload: %w", err))
	}
	if err := s.queue.Enqueue(ctx, ports.QueueRefundProcessing, jobPayload, 0); err != nil {
		s.log.Error().Err(err).Str("refund_id", refund.ID).Msg("failed to enqueue refund processing job")
		return nil, apperror.Internal(fmt.Errorf("enqueue processing job: %w", err))
	}

	s.audit.Log(ctx, &domain.AuditLog{
		ID:           uuid.New(),
		MerchantID:   &merchantID,
		Action:       domain.AuditActionRefundCreated,
		ResourceType: "refund",
		ResourceID:   refund.ID,
		CreatedAt:    time.Now().UTC(),
	})

	return refund, nil
}

// GetRefund fetches a refund, scoped to merchantID.
func (s *RefundServiceImpl) GetRefund(ctx context.Context, merchantID uuid.UUID, id string) (*domain.Refund, error) {
	refund, err := s.refundRepo.GetByID(ctx, id)
	if err != nil {
		return nil, apperror.Internal(fmt.Errorf("get refund: %w", err))
	}
	if refund == nil || refund.MerchantID != merchantID {
		return nil, apperror.NotFound("refund")
	}
	return refund, nil
}

// ListRefunds returns a merchant-scoped page of refunds.
func (s *RefundServiceImpl) ListRefunds(ctx context.Context, merchantID uuid.UUID, limit, offset int) ([]domain.Refund, int64, error) {
	refunds, total, err := s.refundRepo.List(ctx, ports.ListParams{MerchantID: merchantID, Limit: limit, Offset: offset})
	if err != nil {
		return nil, 0, apperror.Internal(fmt.Errorf("list refunds: %w", err))
	}
	return refunds, total, nil
}
