package service

import (
	"context"
	"fmt"
	"time"

	"paygateway/internal/core/domain"
	"paygateway/internal/core/ports"
	"paygateway/internal/idgen"
	"paygateway/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// OrderServiceImpl implements ports.OrderService.
type OrderServiceImpl struct {
	orderRepo ports.OrderRepository
	audit     ports.AuditService
	log       zerolog.Logger
}

// NewOrderService creates a new OrderServiceImpl.
func NewOrderService(orderRepo ports.OrderRepository, audit ports.AuditService, log zerolog.Logger) *OrderServiceImpl {
	return &OrderServiceImpl{orderRepo: orderRepo, audit: audit, log: log}
}

// CreateOrder validates and inserts a new order for merchantID.
func (s *OrderServiceImpl) CreateOrder(ctx context.Context, merchantID uuid.UUID, req ports.CreateOrderRequest) (*domain.Order, error) {
	if req.Amount <= 0 {
		return nil, apperror.BadRequest("amount must be greater than zero")
	}
	currency := req.Currency
	if currency == "" {
		currency = "INR"
	}

	order := &domain.Order{
		ID:         idgen.Order(),
		MerchantID: merchantID,
		Amount:     req.Amount,
		Currency:   currency,
		Receipt:    req.Receipt,
		Status:     domain.OrderStatusCreated,
		CreatedAt:  time.Now().UTC(),
	}

	if err := s.orderRepo.Create(ctx, order); err != nil {
		return nil, apperror.Internal(fmt.Errorf("create order: %w", err))
	}

	s.audit.Log(ctx, &domain.AuditLog{
		ID:           uuid.New(),
		MerchantID:   &merchantID,
		Action:       domain.AuditActionOrderCreated,
		ResourceType: "order",
		ResourceID:   order.ID,
		CreatedAt:    time.Now().UTC(),
	})

	return order, nil
}

// GetOrder fetches an order, scoped to merchantID.
func (s *OrderServiceImpl) GetOrder(ctx context.Context, merchantID uuid.UUID, id string) (*domain.Order, error) {
	order, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		return nil, apperror.Internal(fmt.Errorf("get order: %w", err))
	}
	if order == nil || order.MerchantID != merchantID {
		return nil, apperror.NotFound("order")
	}
	return order, nil
}

// ListOrders returns a merchant-scoped page of orders.
func (s *OrderServiceImpl) ListOrders(ctx context.Context, merchantID uuid.UUID, limit, offset int) ([]domain.Order, int64, error) {
	orders, total, err := s.orderRepo.List(ctx, ports.ListParams{MerchantID: merchantID, Limit: limit, Offset: offset})
	if err != nil {
		return nil, 0, apperror.Internal(fmt.Errorf("list orders: %w", err))
	}
	return orders, total, nil
}
