package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"paygateway/config"
	"paygateway/internal/adapter/queue"
	pgStorage "paygateway/internal/adapter/storage/postgres"
	redisStorage "paygateway/internal/adapter/storage/redis"
	"paygateway/internal/core/ports"
	"paygateway/internal/service"
	"paygateway/internal/worker"
	"paygateway/pkg/logger"

	"github.com/rs/zerolog"
)

const reconcileInterval = 1 * time.Minute

func main() {
	cfg, err := config.Load("")
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	log := logger.New(cfg.Log.Level, cfg.Log.Pretty)
	log.Info().Msg("starting payment gateway worker")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := pgStorage.NewPool(ctx, cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgresql")
	}
	defer pool.Close()

	rdb, err := redisStorage.NewClient(ctx, cfg.Redis, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer rdb.Close()

	merchantRepo := pgStorage.NewMerchantRepo(pool)
	paymentRepo := pgStorage.NewPaymentRepo(pool)
	refundRepo := pgStorage.NewRefundRepo(pool)
	webhookRepo := pgStorage.NewWebhookRepo(pool)
	auditRepo := pgStorage.NewAuditRepo(pool)

	jobQueue := queue.NewRedisQueue(rdb, queue.DefaultRetryPolicy)

	encSvc, err := service.NewAESEncryptionService(cfg.AES.Key)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize encryption service")
	}
	sigSvc := service.NewHMACSignatureService()
	auditSvc := service.NewAuditService(auditRepo, log)
	webhookSvc := service.NewWebhookService(webhookRepo, jobQueue, auditSvc, log)

	paymentWorker := worker.NewPaymentWorker(paymentRepo, merchantRepo, webhookSvc, cfg.Test, log)
	refundWorker := worker.NewRefundWorker(refundRepo, paymentRepo, merchantRepo, webhookSvc, cfg.Test, log)
	httpClient := &http.Client{Timeout: 10 * time.Second}
	deliverer := worker.NewWebhookDeliverer(webhookRepo, merchantRepo, encSvc, sigSvc, jobQueue, httpClient, cfg.Test, log)
	reconciler := worker.NewReconciler(paymentRepo, refundRepo, webhookRepo, jobQueue, reconcileInterval, log)

	var wg sync.WaitGroup
	runConsumer := func(queueName string, handle worker.Handler) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			worker.Consume(ctx, jobQueue, queueName, handle, log)
		}()
	}

	runConsumer(ports.QueuePaymentProcessing, paymentWorker.Handle)
	runConsumer(ports.QueueRefundProcessing, refundWorker.Handle)
	runConsumer(ports.QueueWebhookDelivery, deliverer.Handle)

	wg.Add(1)
	go func() {
		defer wg.Done()
		reconciler.Start(ctx)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		jobQueue.StartPromoter(ctx, 1*time.Second, log,
			ports.QueuePaymentProcessing, ports.QueueRefundProcessing, ports.QueueWebhookDelivery)
	}()

	log.Info().Msg("worker consumers started")
	waitForShutdown(log)

	cancel()
	wg.Wait()
	log.Info().Msg("worker exited")
}

func waitForShutdown(log zerolog.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down worker")
}
