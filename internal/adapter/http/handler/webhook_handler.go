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

// WebhookHandler handles webhook-log endpoints.
type WebhookHandler struct {
	webhookSvc ports.WebhookService
}

// NewWebhookHandler creates a new WebhookHandler.
func NewWebhookHandler(webhookSvc ports.WebhookService) *WebhookHandler {
	return &WebhookHandler{webhookSvc: webhookSvc}
}

// ListWebhookLogs handles GET /api/v1/webhooks.
func (h *WebhookHandler) ListWebhookLogs(c *gin.Context) {
	merchantID, ok := c.Get(middleware.CtxMerchantID)
	if !ok {
		response.Error(c, apperror.Unauthorized("missing merchant context"))
		return
	}

	var q dto.PaginationQuery
	_ = c.ShouldBindQuery(&q)
	q.Normalize()

	logs, total, err := h.webhookSvc.ListWebhookLogs(c.Request.Context(), merchantID.(uuid.UUID), q.Limit, q.Offset)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.List(c, logs, total, q.Limit, q.Offset)
}

// RetryWebhook handles POST /api/v1/webhooks/:id/retry.
func (h *WebhookHandler) RetryWebhook(c *gin.Context) {
	merchantID, ok := c.Get(middleware.CtxMerchantID)
	if !ok {
		response.Error(c, apperror.Unauthorized("missing merchant context"))
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.BadRequest("invalid webhook log id"))
		return
	}

	log, err := h.webhookSvc.RetryWebhook(c.Request.Context(), merchantID.(uuid.UUID), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, log)
}
