package main

import (
	"context"
	"errors"
	_ "time/tzdata"

	"clubschedule/internal/access"
	"clubschedule/internal/bookings/handler"
	"clubschedule/internal/bookings/repository"
	"clubschedule/internal/bookings/service"
	"clubschedule/internal/bookings/validator"
	"clubschedule/internal/events"
	slotsrepo "clubschedule/internal/slots/repository"
	"clubschedule/pkg/app"
	"clubschedule/pkg/config"
	"clubschedule/pkg/kafka"
	kafka_config "clubschedule/pkg/kafka/config"
	kafka_middleware "clubschedule/pkg/kafka/middleware"
)

const ServiceName = "bookings"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()

	cfg.Log.Info("Starting Bookings service")
	manager := initServices(cfg)
	serverApp := app.NewApplication(cfg)
	startConsumer(cfg, serverApp, manager)

	guard := access.NewGuard(access.NewRoleChecker(cfg.AdminRoles), cfg.Log)
	serverApp.SetApp(handler.NewEventHandler(manager, guard, cfg.WebhookSecret, cfg.Log))
	serverApp.Run()
}

func initServices(cfg *config.Config) service.ConsistencyManager {
	manager := service.NewConsistencyManager(
		repository.NewMongoBookingRepository(cfg),
		slotsrepo.NewMongoSlotRepository(cfg),
		validator.NewEventValidator(cfg.Log),
		cfg,
	)

	cfg.Log.Info("Booking consistency manager initialized", "database", cfg.MongoDatabaseName)
	return manager
}

// startConsumer feeds booking events from Kafka into the manager. The webhook
// endpoint stays available either way.
func startConsumer(cfg *config.Config, serverApp *app.Application, manager service.ConsistencyManager) {
	kcfg, err := kafka_config.Load()
	if err != nil {
		cfg.Log.Fatal("Invalid Kafka configuration", "error", err)
	}
	kcfg.LogConfiguration(cfg.Log.Info)
	if !kcfg.Enabled {
		cfg.Log.Info("Kafka disabled, booking events are accepted over HTTP only")
		return
	}

	consumer, err := kafka.NewConsumer(kcfg, kcfg.BookingEventsTopic, events.NewBookingEventsHandler(manager, cfg.Log), cfg.Log)
	if err != nil {
		cfg.Log.Fatal("Failed to create Kafka consumer", "error", err)
	}
	if kcfg.EnableMiddleware {
		metrics := kafka_middleware.NewMetrics()
		consumer.Use(metrics.ConsumerMiddleware())
		consumer.Use(kafka_middleware.LoggingConsumerMiddleware(cfg.Log))
		serverApp.Health().AddStats("kafka", func() any { return metrics.Snapshot() })
	}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		if err := consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, kafka.ErrConsumerClosed) {
			cfg.Log.Error("Kafka consumer stopped", "error", err)
		}
	}()

	serverApp.OnShutdown(func() {
		cancel()
		if err := consumer.Close(); err != nil {
			cfg.Log.Error("Failed to close Kafka consumer", "error", err)
		}
	})
}
