package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"paygateway/internal/core/domain"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeMerchantRepo struct {
	byAPIKey map[string]*domain.Merchant
}

func (r *fakeMerchantRepo) Create(ctx context.Context, m *domain.Merchant) error { return nil }
func (r *fakeMerchantRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Merchant, error) {
	return nil, nil
}
func (r *fakeMerchantRepo) GetByAPIKey(ctx context.Context, apiKey string) (*domain.Merchant, error) {
	return r.byAPIKey[apiKey], nil
}
func (r *fakeMerchantRepo) UpdateWebhookURL(ctx context.Context, id uuid.UUID, webhookURL *string) error {
	return nil
}
func (r *fakeMerchantRepo) UpdateWebhookSecret(ctx context.Context, id uuid.UUID, webhookSecretEnc string) error {
	return nil
}

type fakeEncryptionService struct{}

func (fakeEncryptionService) Encrypt(plaintext string) (string, error) { return plaintext, nil }
func (fakeEncryptionService) Decrypt(ciphertext string) (string, error) { return ciphertext, nil }

func newTestRouter(repo *fakeMerchantRepo) *gin.Engine {
	router := gin.New()
	router.GET("/test", APIKeyAuth(repo, fakeEncryptionService{}, zerolog.Nop()), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	return router
}

func TestAPIKeyAuth_MissingHeaders(t *testing.T) {
	router := newTestRouter(&fakeMerchantRepo{byAPIKey: map[string]*domain.Merchant{}})

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAPIKeyAuth_UnknownKey(t *testing.T) {
	router := newTestRouter(&fakeMerchantRepo{byAPIKey: map[string]*domain.Merchant{}})

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set(HeaderAPIKey, "key_unknown")
	req.Header.Set(HeaderAPISecret, "secret")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAPIKeyAuth_WrongSecret(t *testing.T) {
	merchantID := uuid.New()
	repo := &fakeMerchantRepo{byAPIKey: map[string]*domain.Merchant{
		"key_abc": {ID: merchantID, APIKey: "key_abc", APISecretEnc: "correct-secret"},
	}}
	router := newTestRouter(repo)

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set(HeaderAPIKey, "key_abc")
	req.Header.Set(HeaderAPISecret, "wrong-secret")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAPIKeyAuth_Success(t *testing.T) {
	merchantID := uuid.New()
	repo := &fakeMerchantRepo{byAPIKey: map[string]*domain.Merchant{
		"key_abc": {ID: merchantID, APIKey: "key_abc", APISecretEnc: "correct-secret"},
	}}
	router := newTestRouter(repo)

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set(HeaderAPIKey, "key_abc")
	req.Header.Set(HeaderAPISecret, "correct-secret")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
}
