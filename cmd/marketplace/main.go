package main

import (
	bookingshandler "servicely/internal/bookings/handler"
	bookingsrepo "servicely/internal/bookings/repository"
	bookingsservice "servicely/internal/bookings/service"
	"servicely/internal/bookings/validator"
	chathandler "servicely/internal/chat/handler"
	chatrepo "servicely/internal/chat/repository"
	chatservice "servicely/internal/chat/service"
	"servicely/internal/events"
	notificationshandler "servicely/internal/notifications/handler"
	notificationsrepo "servicely/internal/notifications/repository"
	notificationsservice "servicely/internal/notifications/service"
	"servicely/internal/realtime"
	reviewshandler "servicely/internal/reviews/handler"
	reviewsrepo "servicely/internal/reviews/repository"
	reviewsservice "servicely/internal/reviews/service"
	statshandler "servicely/internal/stats/handler"
	statsrepo "servicely/internal/stats/repository"
	statsservice "servicely/internal/stats/service"
	"servicely/pkg/app"
	"servicely/pkg/auth"
	"servicely/pkg/config"
	"servicely/pkg/contracts"
	kafka_middleware "servicely/pkg/kafka/middleware"
)

const ServiceName = "marketplace"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()

	cfg.Log.Info("Starting marketplace service")
	serverApp := app.NewApplication(cfg)

	metrics := kafka_middleware.NewMetrics()
	publisher := initEvents(cfg, serverApp, metrics)

	var verifier *auth.Verifier
	if cfg.JWTSecret != "" {
		verifier = auth.NewVerifier(cfg.JWTSecret)
	}

	registry := realtime.NewRegistry(cfg.Log)

	bookingRepo := bookingsrepo.NewMongoBookingRepository(cfg)
	dispatcher := notificationsservice.NewDispatcher(notificationsrepo.NewMongoNotificationRepository(cfg), registry, cfg)
	bookingService := bookingsservice.NewBookingService(
		bookingRepo,
		validator.NewBookingValidator(cfg.Log),
		bookingsservice.DefaultHooks(dispatcher, registry, publisher),
		cfg,
	)
	chatService := chatservice.NewChatService(chatrepo.NewMongoMessageRepository(cfg), bookingRepo, registry, publisher, cfg)
	reviewService := reviewsservice.NewReviewService(reviewsrepo.NewMongoReviewRepository(cfg), bookingRepo, publisher, cfg)
	statsService := statsservice.NewStatsService(statsrepo.NewMongoStatsRepository(cfg), registry, cfg)
	cfg.Log.Info("Marketplace services initialized", "database", cfg.MongoDatabaseName)

	handlers := contracts.Handlers{
		bookingshandler.NewBookingHandler(bookingService, cfg.Log),
		chathandler.NewChatHandler(chatService, cfg.Log),
		notificationshandler.NewNotificationHandler(dispatcher, cfg.Log),
		reviewshandler.NewReviewHandler(reviewService, cfg.Log),
		statshandler.NewStatsHandler(statsService, cfg.Log),
	}
	wsServer := realtime.NewServer(registry, chatService, verifier, realtime.Config{
		SendBuffer:    cfg.WSSendBuffer,
		MaxFrameBytes: cfg.WSMaxFrameBytes,
	}, cfg.Log)
	health := app.NewHealthHandler(cfg.Client.Mongo, registry, metrics, cfg.Log)

	serverApp.OnShutdown("mongo", func() error {
		cfg.GracefulShutdown()
		return nil
	})
	serverApp.SetApp(health, handlers, wsServer)
	serverApp.Run()
}

func initEvents(cfg *config.Config, serverApp *app.Application, metrics *kafka_middleware.Metrics) events.Publisher {
	if !cfg.EventsEnabled {
		cfg.Log.Info("Event publishing disabled")
		return events.Noop()
	}

	publisher, closeFn, err := events.Setup(cfg.EventsTopic, metrics, cfg.Log)
	if err != nil {
		cfg.Log.Fatal("Failed to set up event publisher", "error", err)
	}
	serverApp.OnShutdown("events", closeFn)
	cfg.Log.Info("Event publishing enabled", "topic", cfg.EventsTopic)
	return publisher
}
