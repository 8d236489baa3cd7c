package events

import (
	"context"
	"fmt"

	"clubschedule/pkg/kafka"
	"clubschedule/pkg/logger"
	"clubschedule/pkg/model"
)

const (
	scheduleEventSchemaVersion = "1"
	scheduleEventSource        = "scheduler"
)

// SchedulePublisher announces applied schedule batches.
type SchedulePublisher interface {
	PublishApplied(ctx context.Context, event *model.ScheduleAppliedEvent) error
}

// Publisher is the part of *kafka.Producer the schedule publisher needs.
type Publisher interface {
	Publish(ctx context.Context, msg kafka.Message) error
}

type kafkaSchedulePublisher struct {
	producer Publisher
	log      *logger.Logger
}

func NewKafkaSchedulePublisher(producer Publisher, log *logger.Logger) SchedulePublisher {
	return &kafkaSchedulePublisher{producer: producer, log: log}
}

// PublishApplied keys the event by location so consumers see one location's
// batches in order.
func (p *kafkaSchedulePublisher) PublishApplied(ctx context.Context, event *model.ScheduleAppliedEvent) error {
	msg, err := kafka.NewMessage().
		WithKey(event.Location).
		WithValue(event).
		WithEventType(model.ScheduleApplied).
		WithCorrelationID(event.BatchID).
		WithSchemaVersion(scheduleEventSchemaVersion).
		WithSource(scheduleEventSource).
		Build()
	if err != nil {
		return fmt.Errorf("build schedule event: %w", err)
	}
	return p.producer.Publish(ctx, msg)
}

type noopSchedulePublisher struct{}

// NewNoopSchedulePublisher is used when Kafka is disabled.
func NewNoopSchedulePublisher() SchedulePublisher {
	return noopSchedulePublisher{}
}

func (noopSchedulePublisher) PublishApplied(context.Context, *model.ScheduleAppliedEvent) error {
	return nil
}
