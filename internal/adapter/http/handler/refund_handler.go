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

// RefundHandler handles refund endpoints.
type RefundHandler struct {
	refundSvc ports.RefundService
}

// NewRefundHandler creates a new RefundHandler.
func NewRefundHandler(refundSvc ports.RefundService) *RefundHandler {
	return &RefundHandler{refundSvc: refundSvc}
}

// CreateRefund handles POST /api/v1/payments/:id/refunds.
func (h *RefundHandler) CreateRefund(c *gin.Context) {
	merchantID, ok := c.Get(middleware.CtxMerchantID)
	if !ok {
		response.Error(c, apperror.Unauthorized("missing merchant context"))
		return
	}

	var req dto.CreateRefundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.BadRequest(err.Error()))
		return
	}

	refund, err := h.refundSvc.CreateRefund(c.Request.Context(), merchantID.(uuid.UUID), c.Param("id"), req.Amount, req.Reason)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, refund)
}

// GetRefund handles GET /api/v1/refunds/:id.
func (h *RefundHandler) GetRefund(c *gin.Context) {
	merchantID, ok := c.Get(middleware.CtxMerchantID)
	if !ok {
		response.Error(c, apperror.Unauthorized("missing merchant context"))
		return
	}

	refund, err := h.refundSvc.GetRefund(c.Request.Context(), merchantID.(uuid.UUID), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, refund)
}

// ListRefunds handles GET /api/v1/refunds.
func (h *RefundHandler) ListRefunds(c *gin.Context) {
	merchantID, ok := c.Get(middleware.CtxMerchantID)
	if !ok {
		response.Error(c, apperror.Unauthorized("missing merchant context"))
		return
	}

	var q dto.PaginationQuery
	_ = c.ShouldBindQuery(&q)
	q.Normalize()

	refunds, total, err := h.refundSvc.ListRefunds(c.Request.Context(), merchantID.(uuid.UUID), q.Limit, q.Offset)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.List(c, refunds, total, q.Limit, q.Offset)
}
