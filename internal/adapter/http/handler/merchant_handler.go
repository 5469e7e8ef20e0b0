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

// MerchantHandler handles merchant self-service endpoints.
type MerchantHandler struct {
	merchantSvc ports.MerchantService
}

// NewMerchantHandler creates a new MerchantHandler.
func NewMerchantHandler(merchantSvc ports.MerchantService) *MerchantHandler {
	return &MerchantHandler{merchantSvc: merchantSvc}
}

// GetProfile handles GET /api/v1/merchants/profile.
func (h *MerchantHandler) GetProfile(c *gin.Context) {
	merchantID, ok := c.Get(middleware.CtxMerchantID)
	if !ok {
		response.Error(c, apperror.Unauthorized("missing merchant context"))
		return
	}

	merchant, err := h.merchantSvc.GetProfile(c.Request.Context(), merchantID.(uuid.UUID))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, merchant)
}

// UpdateWebhookURL handles PUT /api/v1/merchants/webhook.
func (h *MerchantHandler) UpdateWebhookURL(c *gin.Context) {
	merchantID, ok := c.Get(middleware.CtxMerchantID)
	if !ok {
		response.Error(c, apperror.Unauthorized("missing merchant context"))
		return
	}

	var req dto.UpdateWebhookURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.BadRequest(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	merchant, err := h.merchantSvc.UpdateWebhookURL(c.Request.Context(), merchantID.(uuid.UUID), req.WebhookURL)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, merchant)
}

// RegenerateWebhookSecret handles POST /api/v1/merchants/webhook/regenerate-secret.
func (h *MerchantHandler) RegenerateWebhookSecret(c *gin.Context) {
	merchantID, ok := c.Get(middleware.CtxMerchantID)
	if !ok {
		response.Error(c, apperror.Unauthorized("missing merchant context"))
		return
	}

	merchant, err := h.merchantSvc.RegenerateWebhookSecret(c.Request.Context(), merchantID.(uuid.UUID))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, merchant)
}

// SendTestWebhook handles POST /api/v1/merchants/webhook/test.
func (h *MerchantHandler) SendTestWebhook(c *gin.Context) {
	merchantID, ok := c.Get(middleware.CtxMerchantID)
	if !ok {
		response.Error(c, apperror.Unauthorized("missing merchant context"))
		return
	}

	if err := h.merchantSvc.SendTestWebhook(c.Request.Context(), merchantID.(uuid.UUID)); err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, gin.H{"message": "test webhook queued"})
}
