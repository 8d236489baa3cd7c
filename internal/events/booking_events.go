package events

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	mongotx "clubschedule/pkg/db/mongo"
	apperrors "clubschedule/pkg/errors"
	"clubschedule/pkg/kafka"
	"clubschedule/pkg/logger"
	"clubschedule/pkg/model"
)

// BookingEventHandler is satisfied by the bookings consistency manager.
type BookingEventHandler interface {
	HandleEvent(ctx context.Context, event *model.BookingEvent) (*model.Slot, error)
}

// NewBookingEventsHandler decodes booking events and hands them to the
// manager. Errors are classified for the consumer: anything a later attempt
// could fix is transient, everything else goes to the dead letter topic.
func NewBookingEventsHandler(manager BookingEventHandler, log *logger.Logger) kafka.MessageHandler {
	return func(ctx context.Context, msg kafka.Message) error {
		var event model.BookingEvent
		if err := msg.DecodeValue(&event); err != nil {
			return kafka.NewPermanentError(fmt.Sprintf("deserialization failed for event %q", msg.GetEventID()), err)
		}
		if event.EventType == "" {
			event.EventType = model.BookingEventType(msg.GetEventType())
		}

		slot, err := manager.HandleEvent(ctx, &event)
		if err != nil {
			return classify(err)
		}

		log.Debug("Booking event applied",
			"event_id", msg.GetEventID(),
			"event_type", event.EventType,
			"slot_id", slot.ID,
			"status", slot.Status,
		)
		return nil
	}
}

func classify(err error) error {
	if mongotx.IsTransient(err) || errors.Is(err, context.DeadlineExceeded) {
		return kafka.NewTransientError("booking event failed", err)
	}
	if appErr := apperrors.AsAppError(err); appErr != nil {
		status := appErr.StatusCode()
		if status >= http.StatusInternalServerError || status == http.StatusConflict {
			return kafka.NewTransientError("booking event failed", err)
		}
		return kafka.NewPermanentError("booking event rejected", err)
	}
	return kafka.NewTransientError("booking event failed", err)
}
