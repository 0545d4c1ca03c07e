package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/localink/localink/config"
	"github.com/localink/localink/internal/kafka"
	"github.com/localink/localink/internal/logger"
	"github.com/localink/localink/internal/notify"
	"go.uber.org/zap"
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
	if len(cfg.Kafka.Brokers) == 0 || cfg.Kafka.NotificationsTopic == "" {
		log.Fatal("worker requires kafka.brokers and kafka.notifications_topic")
	}

	zlog, err := logger.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID, cfg.Kafka.NotificationsTopic, zlog)
	defer consumer.Close()

	notifier := notify.NewNotifier(zlog.Named("notify"))

	zlog.Info("worker started",
		zap.String("topic", cfg.Kafka.NotificationsTopic),
		zap.String("group_id", cfg.Kafka.GroupID))

	if err := consumer.Consume(ctx, kafka.BookingEventHandler(zlog, notifier.Notify)); err != nil {
		zlog.Error("consumer stopped", zap.Error(err))
		os.Exit(1)
	}
	zlog.Info("worker stopped")
}
