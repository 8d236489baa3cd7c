package model

import (
	"time"
)

type SlotStatus string

const (
	SlotOpen      SlotStatus = "open"
	SlotFull      SlotStatus = "full"
	SlotCancelled SlotStatus = "cancelled"
	SlotClosed    SlotStatus = "closed"
)

// IsCapacityDriven reports whether the status is derived from bookings.
// Cancelled and closed are administrative and never reopened by booking events.
func (s SlotStatus) IsCapacityDriven() bool {
	return s == SlotOpen || s == SlotFull
}

// Slot is a concrete bookable interval [StartAt, EndAt) at a location.
type Slot struct {
	ID                 string     `json:"id,omitempty" bson:"_id,omitempty"`
	StartAt            time.Time  `json:"start_at" bson:"start_at"`
	EndAt              time.Time  `json:"end_at" bson:"end_at"`
	MaxCapacity        int        `json:"max_capacity" bson:"max_capacity"`
	Location           string     `json:"location" bson:"location"`
	Status             SlotStatus `json:"status" bson:"status"`
	Joinable           bool       `json:"joinable" bson:"joinable"`
	LockedByBookingID  *string    `json:"locked_by_booking_id" bson:"locked_by_booking_id"`
	CreatedFromRuleID  *string    `json:"created_from_rule_id,omitempty" bson:"created_from_rule_id,omitempty"`
	CreatedFromBatchID *string    `json:"created_from_batch_id,omitempty" bson:"created_from_batch_id,omitempty"`
	Version            int64      `json:"version" bson:"version"`
	CreatedAt          time.Time  `json:"created_at" bson:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at" bson:"updated_at"`
}

// SlotStatusUpdate is the body of an administrative status override.
type SlotStatusUpdate struct {
	Status SlotStatus `json:"status" validate:"required,oneof=open cancelled closed"`
}

// LockedBy returns the locking booking id or "" when unlocked.
func (s *Slot) LockedBy() string {
	if s.LockedByBookingID == nil {
		return ""
	}
	return *s.LockedByBookingID
}
