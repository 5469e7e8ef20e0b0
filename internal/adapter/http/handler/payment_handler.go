package handler

import (
	"paygateway/internal/adapter/http/dto"
	"paygateway/internal/adapter/http/middleware"
	"paygateway/internal/core/domain"
	"paygateway/internal/core/ports"
	"paygateway/pkg/apperror"
	"paygateway/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// IdempotencyKeyHeader carries the client-supplied idempotency key for
// payment creation.
const IdempotencyKeyHeader = "Idempotency-Key"

// PaymentHandler handles payment endpoints.
type PaymentHandler struct {
	paymentSvc ports.PaymentService
}

// NewPaymentHandler creates a new PaymentHandler.
func NewPaymentHandler(paymentSvc ports.PaymentService) *PaymentHandler {
	return &PaymentHandler{paymentSvc: paymentSvc}
}

// CreatePayment handles POST /api/v1/payments.
func (h *PaymentHandler) CreatePayment(c *gin.Context) {
	merchantID, ok := c.Get(middleware.CtxMerchantID)
	if !ok {
		response.Error(c, apperror.Unauthorized("missing merchant context"))
		return
	}

	var req dto.CreatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.BadRequest(err.Error()))
		return
	}

	idempotencyKey := c.GetHeader(IdempotencyKeyHeader)

	payment, status, err := h.paymentSvc.CreatePayment(c.Request.Context(), merchantID.(uuid.UUID), idempotencyKey, ports.CreatePaymentRequest{
		OrderID:    req.OrderID,
		Method:     domain.PaymentMethod(req.Method),
		VPA:        req.VPA,
		CardNumber: req.CardNumber,
		CardExpiry: req.CardExpiry,
		CardCVV:    req.CardCVV,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(status, payment)
}

// GetPayment handles GET /api/v1/payments/:id.
func (h *PaymentHandler) GetPayment(c *gin.Context) {
	merchantID, ok := c.Get(middleware.CtxMerchantID)
	if !ok {
		response.Error(c, apperror.Unauthorized("missing merchant context"))
		return
	}

	payment, err := h.paymentSvc.GetPayment(c.Request.Context(), merchantID.(uuid.UUID), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, payment)
}

// ListPayments handles GET /api/v1/payments.
func (h *PaymentHandler) ListPayments(c *gin.Context) {
	merchantID, ok := c.Get(middleware.CtxMerchantID)
	if !ok {
		response.Error(c, apperror.Unauthorized("missing merchant context"))
		return
	}

	var q dto.PaginationQuery
	_ = c.ShouldBindQuery(&q)
	q.Normalize()

	payments, total, err := h.paymentSvc.ListPayments(c.Request.Context(), merchantID.(uuid.UUID), q.Limit, q.Offset)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.List(c, payments, total, q.Limit, q.Offset)
}

// CapturePayment handles POST /api/v1/payments/:id/capture.
func (h *PaymentHandler) CapturePayment(c *gin.Context) {
	merchantID, ok := c.Get(middleware.CtxMerchantID)
	if !ok {
		response.Error(c, apperror.Unauthorized("missing merchant context"))
		return
	}

	payment, err := h.paymentSvc.CapturePayment(c.Request.Context(), merchantID.(uuid.UUID), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, payment)
}
