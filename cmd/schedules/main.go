package main

import (
	_ "time/tzdata"

	"clubschedule/internal/access"
	bookingsrepo "clubschedule/internal/bookings/repository"
	bookingsservice "clubschedule/internal/bookings/service"
	bookingsvalidator "clubschedule/internal/bookings/validator"
	"clubschedule/internal/events"
	ruleshandler "clubschedule/internal/rules/handler"
	rulesrepo "clubschedule/internal/rules/repository"
	rulesservice "clubschedule/internal/rules/service"
	rulesvalidator "clubschedule/internal/rules/validator"
	"clubschedule/internal/schedules/handler"
	"clubschedule/internal/schedules/repository"
	"clubschedule/internal/schedules/service"
	"clubschedule/internal/schedules/validator"
	slotshandler "clubschedule/internal/slots/handler"
	slotsrepo "clubschedule/internal/slots/repository"
	slotsservice "clubschedule/internal/slots/service"
	"clubschedule/pkg/app"
	"clubschedule/pkg/config"
	"clubschedule/pkg/contracts"
	"clubschedule/pkg/kafka"
	kafka_config "clubschedule/pkg/kafka/config"
	kafka_middleware "clubschedule/pkg/kafka/middleware"
)

const ServiceName = "schedules"

// @title Club Schedule API
// @version 1.0
// @description Recurring lesson schedules, availability rules and slots.
// @BasePath /
func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()

	cfg.Log.Info("Starting Schedules service")
	serverApp := app.NewApplication(cfg)
	publisher := initPublisher(cfg, serverApp)
	serverApp.SetApp(initHandlers(cfg, publisher)...)
	serverApp.Run()
}

// initPublisher returns a Kafka publisher when Kafka is enabled and a no-op
// publisher otherwise.
func initPublisher(cfg *config.Config, serverApp *app.Application) events.SchedulePublisher {
	kcfg, err := kafka_config.Load()
	if err != nil {
		cfg.Log.Fatal("Invalid Kafka configuration", "error", err)
	}
	kcfg.LogConfiguration(cfg.Log.Info)
	if !kcfg.Enabled {
		return events.NewNoopSchedulePublisher()
	}

	producer, err := kafka.NewProducer(kcfg, kcfg.ScheduleEventsTopic, true, cfg.Log)
	if err != nil {
		cfg.Log.Fatal("Failed to create Kafka producer", "error", err)
	}
	if kcfg.EnableMiddleware {
		metrics := kafka_middleware.NewMetrics()
		producer.Use(metrics.ProducerMiddleware())
		producer.Use(kafka_middleware.LoggingProducerMiddleware(cfg.Log))
		serverApp.Health().AddStats("kafka", func() any { return metrics.Snapshot() })
	}
	serverApp.OnShutdown(func() {
		if err := producer.Close(); err != nil {
			cfg.Log.Error("Failed to close Kafka producer", "error", err)
		}
	})
	return events.NewKafkaSchedulePublisher(producer, cfg.Log)
}

func initHandlers(cfg *config.Config, publisher events.SchedulePublisher) []contracts.Handler {
	guard := access.NewGuard(access.NewRoleChecker(cfg.AdminRoles), cfg.Log)

	slotRepo := slotsrepo.NewMongoSlotRepository(cfg)
	bookingRepo := bookingsrepo.NewMongoBookingRepository(cfg)
	overrideRepo := repository.NewMongoOverrideRepository(cfg)

	manager := bookingsservice.NewConsistencyManager(
		bookingRepo,
		slotRepo,
		bookingsvalidator.NewEventValidator(cfg.Log),
		cfg,
	)
	pipeline := service.NewPipeline(slotRepo, bookingRepo, overrideRepo, cfg)

	scheduleValidator := validator.NewScheduleValidator(cfg.MaxBatchRangeDays, cfg.Log)
	scheduleService := service.NewScheduleService(
		pipeline,
		repository.NewMongoBatchRepository(cfg),
		publisher,
		scheduleValidator,
		cfg,
	)
	overrideService := service.NewOverrideService(overrideRepo, scheduleValidator, cfg)

	ruleService := rulesservice.NewRuleService(
		rulesrepo.NewMongoRuleRepository(cfg),
		pipeline,
		rulesvalidator.NewRuleValidator(cfg.MaxBatchRangeDays, cfg.Log),
		cfg,
	)

	slotService := slotsservice.NewSlotService(slotRepo, manager, cfg)

	cfg.Log.Info("Schedules service initialized", "database", cfg.MongoDatabaseName)
	return []contracts.Handler{
		handler.NewScheduleHandler(scheduleService, overrideService, guard, cfg.Log),
		ruleshandler.NewRuleHandler(ruleService, guard, cfg.Log),
		slotshandler.NewSlotHandler(slotService, guard, cfg.Log),
	}
}
