package handler

import (
	"paygateway/internal/adapter/http/dto"
	"paygateway/internal/adapter/http/middleware"
	"paygateway/internal/core/ports"
	"paygateway/pkg/apperror"
	"paygateway/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// OrderHandler handles order endpoints.
type OrderHandler struct {
	orderSvc ports.OrderService
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(orderSvc ports.OrderService) *OrderHandler {
	return &OrderHandler{orderSvc: orderSvc}
}

// CreateOrder handles POST /api/v1/orders.
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	merchantID, ok := c.Get(middleware.CtxMerchantID)
	if !ok {
		response.Error(c, apperror.Unauthorized("missing merchant context"))
		return
	}

	var req dto.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.BadRequest(err.Error()))
		return
	}

	order, err := h.orderSvc.CreateOrder(c.Request.Context(), merchantID.(uuid.UUID), ports.CreateOrderRequest{
		Amount:   req.Amount,
		Currency: req.Currency,
		Receipt:  req.Receipt,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, order)
}

// GetOrder handles GET /api/v1/orders/:id.
func (h *OrderHandler) GetOrder(c *gin.Context) {
	merchantID, ok := c.Get(middleware.CtxMerchantID)
	if !ok {
		response.Error(c, apperror.Unauthorized("missing merchant context"))
		return
	}

	order, err := h.orderSvc.GetOrder(c.Request.Context(), merchantID.(uuid.UUID), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, order)
}

// ListOrders handles GET /api/v1/orders.
func (h *OrderHandler) ListOrders(c *gin.Context) {
	merchantID, ok := c.Get(middleware.CtxMerchantID)
	if !ok {
		response.Error(c, apperror.Unauthorized("missing merchant context"))
		return
	}

	var q dto.PaginationQuery
	_ = c.ShouldBindQuery(&q)
	q.Normalize()

	orders, total, err := h.orderSvc.ListOrders(c.Request.Context(), merchantID.(uuid.UUID), q.Limit, q.Offset)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.List(c, orders, total, q.Limit, q.Offset)
}
