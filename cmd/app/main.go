package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/DummAir/DummAirApp-sub001/api"
	"github.com/DummAir/DummAirApp-sub001/config"
	"github.com/DummAir/DummAirApp-sub001/internal/bootstrap"
	"github.com/DummAir/DummAirApp-sub001/internal/cache"
	"github.com/DummAir/DummAirApp-sub001/internal/gateway"
	"github.com/DummAir/DummAirApp-sub001/internal/kafka"
	"github.com/DummAir/DummAirApp-sub001/internal/repository"
	"github.com/DummAir/DummAirApp-sub001/internal/service/auth"
	"github.com/DummAir/DummAirApp-sub001/internal/service/notify"
	"github.com/DummAir/DummAirApp-sub001/internal/service/order"
	"github.com/DummAir/DummAirApp-sub001/internal/storage"
	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	redisCache := cache.NewRedisCache(cfg.Redis)
	producer := kafka.NewProducer(cfg.Kafka.Brokers)
	defer producer.Close()

	orderRepo := repository.NewOrderRepository(pool)
	paymentRepo := repository.NewPaymentRepository(pool)
	userRepo := repository.NewUserRepository(pool)
	tokenRepo := repository.NewTokenRepository(pool)
	notificationRepo := repository.NewNotificationRepository(pool)

	dispatcher := notify.NewDispatcher(notificationRepo, redisCache, producer, cfg.Kafka.NotificationsTopic)

	gateways := gateway.NewRegistry(
		gateway.NewStripeGateway(cfg.Secrets.StripeSecretKey, cfg.Secrets.AppBaseURL, cfg.Payments.StripeBaseURL),
		gateway.NewFlutterwaveGateway(cfg.Secrets.FlutterwaveSecretKey, cfg.Secrets.AppBaseURL, cfg.Payments.FlutterwaveBaseURL),
	)
	blobs := storage.NewHTTPBlobStore(cfg.Storage.BaseURL, cfg.Storage.Bucket, cfg.Secrets.StorageServiceKey)

	orderService := order.NewOrderService(
		orderRepo,
		paymentRepo,
		gateways,
		blobs,
		dispatcher,
		time.Duration(cfg.Orders.RetentionHours)*time.Hour,
		order.WithCleanupBatchSize(cfg.Orders.CleanupBatchSize),
	)
	authService := auth.NewAuthService(userRepo, tokenRepo, dispatcher, cfg.Secrets.JWTSecret, cfg.Secrets.AppBaseURL)

	handlers := bootstrap.Handlers{
		Orders:        api.NewOrderHandler(orderService),
		Admin:         api.NewAdminHandler(orderService),
		Auth:          api.NewAuthHandler(authService, cfg.Secrets.AppBaseURL),
		Notifications: api.NewNotificationHandler(notificationRepo),
		Webhooks:      api.NewWebhookHandler(orderService, cfg.Secrets.StripeWebhookSecret),
		Cron:          api.NewCronHandler(orderService, cfg.Secrets.CronSecret),
	}

	if err := bootstrap.Run(ctx, cfg, handlers); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
