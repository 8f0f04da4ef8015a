package main

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/DummAir/DummAirApp-sub001/config"
	"github.com/DummAir/DummAirApp-sub001/internal/email"
	"github.com/DummAir/DummAirApp-sub001/internal/kafka"
	"github.com/DummAir/DummAirApp-sub001/internal/repository"
	"github.com/DummAir/DummAirApp-sub001/internal/service/order"
	"github.com/jackc/pgx/v5/pgxpool"
	kafkaGo "github.com/segmentio/kafka-go"
)

// The worker owns the two asynchronous halves of the system: draining the
// notifications topic into outbound email, and sweeping stale pending
// orders on a timer.
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

	orderRepo := repository.NewOrderRepository(pool)
	paymentRepo := repository.NewPaymentRepository(pool)
	orderService := order.NewOrderService(
		orderRepo,
		paymentRepo,
		nil,
		nil,
		nil,
		time.Duration(cfg.Orders.RetentionHours)*time.Hour,
		order.WithCleanupBatchSize(cfg.Orders.CleanupBatchSize),
	)

	consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID, cfg.Kafka.NotificationsTopic)
	defer consumer.Close()

	sender := email.NewSender(cfg.Secrets.ResendAPIKey, cfg.Email.FromEmail, cfg.Email.AdminTo, cfg.Email.BaseURL)

	go func() {
		if err := consumer.Consume(ctx, func(ctx context.Context, msg kafkaGo.Message) error {
			var event kafka.NotificationEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				log.Printf("decode event error: %v", err)
				return nil
			}
			return sender.Send(ctx, event)
		}); err != nil {
			log.Printf("consumer stopped: %v", err)
		}
	}()

	sweepEvery := time.Duration(cfg.Worker.CleanupSweepMinutes) * time.Minute
	if sweepEvery <= 0 {
		sweepEvery = time.Hour
	}
	ticker := time.NewTicker(sweepEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			result, err := orderService.CleanupStalePendingOrders(ctx)
			if err != nil {
				log.Printf("cleanup stale orders error: %v", err)
				continue
			}
			if result.Deleted > 0 {
				log.Printf("cleanup removed %d of %d stale pending orders", result.Deleted, result.Checked)
			}
		case <-ctx.Done():
			log.Printf("shutting down worker")
			return
		}
	}
}
