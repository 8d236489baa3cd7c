package validator

import (
	"clubschedule/pkg/logger"
	"clubschedule/pkg/model"
	"clubschedule/pkg/validation"

	"github.com/go-playground/validator/v10"
)

type EventValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewEventValidator(log *logger.Logger) *EventValidator {
	return &EventValidator{
		validate: validation.New(log),
		logger:   log,
	}
}

// Validate checks the event shape and that a created booking is not already
// cancelled.
func (v *EventValidator) Validate(event *model.BookingEvent) error {
	if err := validation.Struct(v.validate, event); err != nil {
		return err
	}
	if event.EventType == model.EventBookingCreated && !event.Booking.IsActive() {
		return validation.Field("booking.status", "created booking cannot be cancelled")
	}
	return nil
}
