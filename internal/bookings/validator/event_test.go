package validator

import (
	"errors"
	"testing"

	"clubschedule/pkg/logger"
	"clubschedule/pkg/model"
	"clubschedule/pkg/validation"
)

func validBooking() *model.Booking {
	return &model.Booking{
		ID:        "665f1c2e8b3e4a0012345678",
		SlotID:    "665f1c2e8b3e4a0012345679",
		UserID:    "user-1",
		GroupSize: 2,
		Status:    model.BookingConfirmed,
	}
}

func TestEventValidator_Validate(t *testing.T) {
	v := NewEventValidator(logger.Discard())

	tests := []struct {
		name      string
		event     *model.BookingEvent
		wantField string
	}{
		{
			name:  "valid created",
			event: &model.BookingEvent{EventType: model.EventBookingCreated, Booking: validBooking()},
		},
		{
			name: "valid cancelled",
			event: func() *model.BookingEvent {
				b := validBooking()
				b.Status = model.BookingCancelled
				return &model.BookingEvent{EventType: model.EventBookingCancelled, Booking: b}
			}(),
		},
		{
			name:      "unknown event type",
			event:     &model.BookingEvent{EventType: "booking.moved", Booking: validBooking()},
			wantField: "event_type",
		},
		{
			name:      "missing booking",
			event:     &model.BookingEvent{EventType: model.EventBookingCreated},
			wantField: "booking",
		},
		{
			name: "slot id not an object id",
			event: func() *model.BookingEvent {
				b := validBooking()
				b.SlotID = "slot-1"
				return &model.BookingEvent{EventType: model.EventBookingCreated, Booking: b}
			}(),
			wantField: "booking.slot_id",
		},
		{
			name: "zero group size",
			event: func() *model.BookingEvent {
				b := validBooking()
				b.GroupSize = 0
				return &model.BookingEvent{EventType: model.EventBookingCreated, Booking: b}
			}(),
			wantField: "booking.group_size",
		},
		{
			name: "created but cancelled",
			event: func() *model.BookingEvent {
				b := validBooking()
				b.Status = model.BookingCancelled
				return &model.BookingEvent{EventType: model.EventBookingCreated, Booking: b}
			}(),
			wantField: "booking.status",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(tt.event)
			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("Validate() unexpected error: %v", err)
				}
				return
			}
			var verrs validation.ValidationErrors
			if !errors.As(err, &verrs) {
				t.Fatalf("Validate() error = %v, want ValidationErrors", err)
			}
			found := false
			for _, e := range verrs {
				if e.Field == tt.wantField {
					found = true
				}
			}
			if !found {
				t.Errorf("Validate() errors = %v, want field %q", verrs, tt.wantField)
			}
		})
	}
}
