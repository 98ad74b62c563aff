package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"servicely/internal/stats/repository"
	"servicely/internal/stats/service"
	"servicely/pkg/config"
	"servicely/pkg/kafka"
	kafka_config "servicely/pkg/kafka/config"
	kafka_middleware "servicely/pkg/kafka/middleware"
)

const ServiceName = "stats-projector"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()
	defer cfg.GracefulShutdown()

	kcfg, err := kafka_config.Load()
	if err != nil {
		cfg.Log.Fatal("Invalid Kafka configuration", "error", err)
	}
	kcfg.LogConfiguration(cfg.Log.Info)

	projector := service.NewProjector(repository.NewMongoStatsRepository(cfg), cfg.Log)
	consumer, err := kafka.NewConsumer(kcfg, cfg.EventsTopic, cfg.StatsConsumerGroup, projector.Handle, cfg.Log)
	if err != nil {
		cfg.Log.Fatal("Failed to create Kafka consumer", "error", err)
	}

	metrics := kafka_middleware.NewMetrics()
	if kcfg.EnableMiddleware {
		consumer.Use(kafka_middleware.LoggingConsumerMiddleware(cfg.Log))
		consumer.Use(metrics.ConsumerMiddleware())
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg.Log.Info("Starting stats projector", "topic", cfg.EventsTopic, "group", cfg.StatsConsumerGroup)
	if err := consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		cfg.Log.Error("Stats projector stopped", "error", err)
	}

	if err := consumer.Close(); err != nil {
		cfg.Log.Error("Failed to close Kafka consumer", "error", err)
	}
	cfg.Log.Info("Stats projector stopped", "metrics", metrics.Snapshot())
}
