package model

import "time"

type BookingEventType string

const (
	EventBookingCreated   BookingEventType = "booking.created"
	EventBookingCancelled BookingEventType = "booking.cancelled"
)

const ScheduleApplied = "schedule.applied"

// BookingEvent is emitted by the booking procedure after it commits.
type BookingEvent struct {
	EventType BookingEventType `json:"event_type" validate:"required,oneof=booking.created booking.cancelled"`
	Booking   *Booking         `json:"booking" validate:"required"`
}

// ScheduleAppliedEvent is published once per applied batch.
type ScheduleAppliedEvent struct {
	BatchID       string      `json:"batch_id"`
	Location      string      `json:"location"`
	ValidFrom     string      `json:"valid_from"`
	ValidTo       string      `json:"valid_to"`
	Status        BatchStatus `json:"status"`
	CreatedCount  int         `json:"created_count"`
	SkippedCount  int         `json:"skipped_count"`
	ReplacedCount int         `json:"replaced_count"`
	FailedCount   int         `json:"failed_count"`
	AppliedAt     time.Time   `json:"applied_at"`
}

// ReconcileResult counts the slots visited by one reconciliation run.
type ReconcileResult struct {
	From     time.Time `json:"from"`
	To       time.Time `json:"to"`
	Scanned  int       `json:"scanned"`
	Repaired int       `json:"repaired"`
	Failed   int       `json:"failed"`
}
