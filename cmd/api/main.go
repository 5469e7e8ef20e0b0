package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"paygateway/config"
	httpHandler "paygateway/internal/adapter/http/handler"
	"paygateway/internal/adapter/queue"
	pgStorage "paygateway/internal/adapter/storage/postgres"
	redisStorage "paygateway/internal/adapter/storage/redis"
	"paygateway/internal/core/ports"
	"paygateway/internal/service"
	"paygateway/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New(cfg.Log.Level, cfg.Log.Pretty)

	log.Info().Int("port", cfg.Server.Port).Msg("starting payment gateway api")

	ctx := context.Background()

	// Initialize PostgreSQL pool
	pool, err := pgStorage.NewPool(ctx, cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgresql")
	}
	defer pool.Close()

	// Initialize Redis client
	rdb, err := redisStorage.NewClient(ctx, cfg.Redis, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer rdb.Close()

	// Initialize repositories
	merchantRepo := pgStorage.NewMerchantRepo(pool)
	orderRepo := pgStorage.NewOrderRepo(pool)
	paymentRepo := pgStorage.NewPaymentRepo(pool)
	refundRepo := pgStorage.NewRefundRepo(pool)
	webhookRepo := pgStorage.NewWebhookRepo(pool)
	idempotencyRepo := pgStorage.NewIdempotencyRepo(pool)
	auditRepo := pgStorage.NewAuditRepo(pool)
	transactor := pgStorage.NewTransactor(pool)

	// Initialize Redis stores
	idempotencyCache := redisStorage.NewIdempotencyCache(rdb)
	rateLimitStore := redisStorage.NewRateLimitStore(rdb)

	jobQueue := queue.NewRedisQueue(rdb, queue.DefaultRetryPolicy)

	// Initialize core services
	encSvc, err := service.NewAESEncryptionService(cfg.AES.Key)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize encryption service")
	}

	// Initialize business services
	auditSvc := service.NewAuditService(auditRepo, log)
	orderSvc := service.NewOrderService(orderRepo, auditSvc, log)
	paymentSvc := service.NewPaymentService(orderRepo, paymentRepo, idempotencyRepo, idempotencyCache, transactor, jobQueue, auditSvc, log)
	refundSvc := service.NewRefundService(paymentRepo, refundRepo, transactor, jobQueue, auditSvc, log)
	webhookSvc := service.NewWebhookService(webhookRepo, jobQueue, auditSvc, log)
	merchantSvc := service.NewMerchantService(merchantRepo, encSvc, webhookSvc, auditSvc)

	// Initialize health checkers
	pgHealth := pgStorage.NewHealthCheck(pool)
	redisHealth := redisStorage.NewHealthCheck(rdb)

	// Setup Gin router with all routes
	router := httpHandler.SetupRouter(httpHandler.RouterDeps{
		OrderSvc:       orderSvc,
		PaymentSvc:     paymentSvc,
		RefundSvc:      refundSvc,
		WebhookSvc:     webhookSvc,
		MerchantSvc:    merchantSvc,
		MerchantRepo:   merchantRepo,
		EncSvc:         encSvc,
		Queue:          jobQueue,
		RateLimitStore: rateLimitStore,
		HealthCheckers: []ports.HealthChecker{pgHealth, redisHealth},
		Logger:         log,
	})

	// HTTP Server with graceful shutdown
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("addr", addr).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("http server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server exited")
}
