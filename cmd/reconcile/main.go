package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	_ "time/tzdata"

	"clubschedule/internal/bookings/repository"
	"clubschedule/internal/bookings/service"
	"clubschedule/internal/bookings/validator"
	slotsrepo "clubschedule/internal/slots/repository"
	"clubschedule/pkg/config"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
)

const ServiceName = "reconcile"

func main() {
	once := flag.Bool("once", false, "run a single reconcile pass and exit")
	flag.Parse()

	cfg := config.Load(ServiceName)
	cfg.SetMongo()
	defer cfg.GracefulShutdown()

	manager := service.NewConsistencyManager(
		repository.NewMongoBookingRepository(cfg),
		slotsrepo.NewMongoSlotRepository(cfg),
		validator.NewEventValidator(cfg.Log),
		cfg,
	)
	job := service.NewReconcileJob(manager, repository.NewMongoLeaseRepository(cfg), owner(), cfg)

	if *once {
		if _, err := job.RunOnce(context.Background()); err != nil {
			cfg.Log.Error("Reconcile failed", "error", err)
			cfg.GracefulShutdown()
			os.Exit(1)
		}
		return
	}

	c := cron.New()
	if _, err := job.Schedule(c, cfg.ReconcileCron); err != nil {
		cfg.Log.Fatal("Invalid reconcile schedule", "cron", cfg.ReconcileCron, "error", err)
	}
	c.Start()
	cfg.Log.Info("Reconcile scheduler started", "cron", cfg.ReconcileCron)

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
	sig := <-shutdown
	cfg.Log.Info("Shutdown signal received", "signal", sig)

	<-c.Stop().Done()
	cfg.Log.Info("Reconcile scheduler stopped")
}

// owner identifies this replica in the reconcile lease.
func owner() string {
	host, err := os.Hostname()
	if err != nil {
		host = "unknown"
	}
	return fmt.Sprintf("%s-%s", host, uuid.NewString())
}
