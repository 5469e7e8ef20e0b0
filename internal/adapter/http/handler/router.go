package handler

import (
	"paygateway/internal/adapter/http/middleware"
	redisStore "paygateway/internal/adapter/storage/redis"
	"paygateway/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// RouterDeps holds all dependencies needed to set up routes.
type RouterDeps struct {
	OrderSvc       ports.OrderService
	PaymentSvc     ports.PaymentService
	RefundSvc      ports.RefundService
	WebhookSvc     ports.WebhookService
	MerchantSvc    ports.MerchantService
	MerchantRepo   ports.MerchantRepository
	EncSvc         ports.EncryptionService
	Queue          ports.Queue
	RateLimitStore *redisStore.RateLimitStore // nil = rate limiting disabled
	HealthCheckers []ports.HealthChecker
	Logger         zerolog.Logger
}

// SetupRouter initialises the Gin engine with all routes and middleware.
func SetupRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(middleware.MaxBodySize(1 << 20)) // 1 MB request body limit

	r.GET("/health", HealthCheck(deps.HealthCheckers...))

	rules := middleware.DefaultRateLimitRules()
	rl := func(group string) gin.HandlerFunc {
		if deps.RateLimitStore == nil {
			return func(c *gin.Context) { c.Next() }
		}
		rule, ok := rules[group]
		if !ok {
			return func(c *gin.Context) { c.Next() }
		}
		return middleware.RateLimiter(deps.RateLimitStore, group, rule, deps.Logger)
	}

	v1 := r.Group("/api/v1")

	// Unauthenticated operational endpoint.
	v1.GET("/test/jobs/status", JobsStatus(deps.Queue))

	apiKeyAuth := middleware.APIKeyAuth(deps.MerchantRepo, deps.EncSvc, deps.Logger)

	orderHandler := NewOrderHandler(deps.OrderSvc)
	orders := v1.Group("/orders", apiKeyAuth)
	{
		orders.POST("", rl("orders_create"), orderHandler.CreateOrder)
		orders.GET("", orderHandler.ListOrders)
		orders.GET("/:id", orderHandler.GetOrder)
	}

	paymentHandler := NewPaymentHandler(deps.PaymentSvc)
	refundHandler := NewRefundHandler(deps.RefundSvc)
	payments := v1.Group("/payments", apiKeyAuth)
	{
		payments.POST("", rl("payments_create"), paymentHandler.CreatePayment)
		payments.GET("", paymentHandler.ListPayments)
		payments.GET("/:id", paymentHandler.GetPayment)
		payments.POST("/:id/capture", paymentHandler.CapturePayment)
		payments.POST("/:id/refunds", rl("refunds_create"), refundHandler.CreateRefund)
	}

	refunds := v1.Group("/refunds", apiKeyAuth)
	{
		refunds.GET("", refundHandler.ListRefunds)
		refunds.GET("/:id", refundHandler.GetRefund)
	}

	webhookHandler := NewWebhookHandler(deps.WebhookSvc)
	webhooks := v1.Group("/webhooks", apiKeyAuth)
	{
		webhooks.GET("", webhookHandler.ListWebhookLogs)
		webhooks.POST("/:id/retry", webhookHandler.RetryWebhook)
	}

	merchantHandler := NewMerchantHandler(deps.MerchantSvc)
	merchants := v1.Group("/merchants", apiKeyAuth)
	{
		merchants.GET("/profile", merchantHandler.GetProfile)
		merchants.PUT("/webhook", merchantHandler.UpdateWebhookURL)
		merchants.POST("/webhook/regenerate-secret", merchantHandler.RegenerateWebhookSecret)
		merchants.POST("/webhook/test", merchantHandler.SendTestWebhook)
	}

	return r
}
