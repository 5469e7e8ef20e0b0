package service

import (
	"context"
	"testing"

	"paygateway/internal/core/ports"
	"paygateway/pkg/apperror"
	"paygateway/tests/integration"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newOrderService() (*OrderServiceImpl, *integration.InMemoryOrderRepo) {
	orderRepo := integration.NewInMemoryOrderRepo()
	audit := NewAuditService(integration.NewInMemoryAuditRepo(), zerolog.Nop())
	return NewOrderService(orderRepo, audit, zerolog.Nop()), orderRepo
}

func TestCreateOrder_Success(t *testing.T) {
	svc, _ := newOrderService()
	merchantID := uuid.New()
	receipt := "receipt-1"

	order, err := svc.CreateOrder(context.Background(), merchantID, ports.CreateOrderRequest{
		Amount: 1000, Currency: "INR", Receipt: &receipt,
	})

	require.NoError(t, err)
	assert.Equal(t, merchantID, order.MerchantID)
	assert.Equal(t, int64(1000), order.Amount)
	assert.Equal(t, "INR", order.Currency)
	assert.True(t, len(order.ID) > 0)
}

func TestCreateOrder_DefaultsCurrency(t *testing.T) {
	svc, _ := newOrderService()
	order, err := svc.CreateOrder(context.Background(), uuid.New(), ports.CreateOrderRequest{Amount: 500})
	require.NoError(t, err)
	assert.Equal(t, "INR", order.Currency)
}

func TestCreateOrder_RejectsNonPositiveAmount(t *testing.T) {
	svc, _ := newOrderService()
	_, err := svc.CreateOrder(context.Background(), uuid.New(), ports.CreateOrderRequest{Amount: 0})
	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperror.CodeBadRequest, appErr.Code)
}

func TestGetOrder_ScopedToMerchant(t *testing.T) {
	svc, _ := newOrderService()
	merchantID := uuid.New()
	order, err := svc.CreateOrder(context.Background(), merchantID, ports.CreateOrderRequest{Amount: 100})
	require.NoError(t, err)

	_, err = svc.GetOrder(context.Background(), uuid.New(), order.ID)
	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperror.CodeNotFound, appErr.Code)

	found, err := svc.GetOrder(context.Background(), merchantID, order.ID)
	require.NoError(t, err)
	assert.Equal(t, order.ID, found.ID)
}

func TestListOrders_MerchantScoped(t *testing.T) {
	svc, _ := newOrderService()
	merchantA := uuid.New()
	merchantB := uuid.New()

	_, err := svc.CreateOrder(context.Background(), merchantA, ports.CreateOrderRequest{Amount: 100})
	require.NoError(t, err)
	_, err = svc.CreateOrder(context.Background(), merchantB, ports.CreateOrderRequest{Amount: 200})
	require.NoError(t, err)

	orders, total, err := svc.ListOrders(context.Background(), merchantA, 10, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Len(t, orders, 1)
}
