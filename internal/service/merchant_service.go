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
)

// MerchantServiceImpl implements ports.MerchantService.
type MerchantServiceImpl struct {
	merchantRepo ports.MerchantRepository
	encSvc       ports.EncryptionService
	webhookSvc   ports.WebhookService
	audit        ports.AuditService
}

// NewMerchantService creates a new MerchantServiceImpl.
func NewMerchantService(merchantRepo ports.MerchantRepository, encSvc ports.EncryptionService, webhookSvc ports.WebhookService, audit ports.AuditService) *MerchantServiceImpl {
	return &MerchantServiceImpl{merchantRepo: merchantRepo, encSvc: encSvc, webhookSvc: webhookSvc, audit: audit}
}

// GetProfile returns a merchant's profile.
func (s *MerchantServiceImpl) GetProfile(ctx context.Context, merchantID uuid.UUID) (*domain.Merchant, error) {
	merchant, err := s.merchantRepo.GetByID(ctx, merchantID)
	if err != nil {
		return nil, apperror.Internal(fmt.Errorf("get merchant: %w", err))
	}
	if merchant == nil {
		return nil, apperror.NotFound("merchant")
	}
	return merchant, nil
}

// UpdateWebhookURL sets a merchant's configured delivery endpoint.
func (s *MerchantServiceImpl) UpdateWebhookURL(ctx context.Context, merchantID uuid.UUID, webhookURL string) (*domain.Merchant, error) {
	merchant, err := s.GetProfile(ctx, merchantID)
	if err != nil {
		return nil, err
	}
	if err := s.merchantRepo.UpdateWebhookURL(ctx, merchantID, &webhookURL); err != nil {
		return nil, apperror.Internal(fmt.Errorf("update webhook url: %w", err))
	}
	merchant.WebhookURL = &webhookURL

	s.audit.Log(ctx, &domain.AuditLog{
		ID:           uuid.New(),
		MerchantID:   &merchantID,
		Action:       domain.AuditActionMerchantUpdated,
		ResourceType: "merchant",
		ResourceID:   merchantID.String(),
		Details:      `{"field":"webhook_url"}`,
		CreatedAt:    time.Now().UTC(),
	})

	return merchant, nil
}

// RegenerateWebhookSecret mints a new signing secret and persists it
// AES-256-GCM encrypted, never returning the plaintext in subsequent reads.
func (s *MerchantServiceImpl) RegenerateWebhookSecret(ctx context.Context, merchantID uuid.UUID) (*domain.Merchant, error) {
	merchant, err := s.GetProfile(ctx, merchantID)
	if err != nil {
		return nil, err
	}

	secret := idgen.WebhookSecret()
	secretEnc, err := s.encSvc.Encrypt(secret)
	if err != nil {
		return nil, apperror.Internal(fmt.Errorf("encrypt webhook secret: %w", err))
	}
	if err := s.merchantRepo.UpdateWebhookSecret(ctx, merchantID, secretEnc); err != nil {
		return nil, apperror.Internal(fmt.Errorf("update webhook secret: %w", err))
	}
	merchant.WebhookSecretEnc = &secretEnc

	s.audit.Log(ctx, &domain.AuditLog{
		ID:           uuid.New(),
		MerchantID:   &merchantID,
		Action:       domain.AuditActionMerchantUpdated,
		ResourceType: "merchant",
		ResourceID:   merchantID.String(),
		Details:      `{"field":"webhook_secret"}`,
		CreatedAt:    time.Now().UTC(),
	})

	return merchant, nil
}

// SendTestWebhook fans out a synthetic test.webhook event to the
// merchant's configured endpoint.
func (s *MerchantServiceImpl) SendTestWebhook(ctx context.Context, merchantID uuid.UUID) error {
	data := map[string]string{"message": "This is a test webhook"}
	return s.webhookSvc.EnqueueEvent(ctx, merchantID, "test.webhook", data)
}
