package model

import (
	"time"
)

type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingConfirmed BookingStatus = "confirmed"
	BookingCancelled BookingStatus = "cancelled"
)

// Booking is written by the external booking procedure; this service only reads it.
type Booking struct {
	ID           string               `json:"id" bson:"_id" validate:"required,mongodb"`
	SlotID       string               `json:"slot_id" bson:"slot_id" validate:"required,mongodb"`
	UserID       string               `json:"user_id" bson:"user_id" validate:"required"`
	GroupSize    int                  `json:"group_size" bson:"group_size" validate:"required,min=1"`
	AllowFill    bool                 `json:"allow_fill" bson:"allow_fill"`
	Status       BookingStatus        `json:"status" bson:"status" validate:"required,oneof=pending confirmed cancelled"`
	Participants []BookingParticipant `json:"participants,omitempty" bson:"participants,omitempty" validate:"omitempty,dive"`
	CreatedAt    time.Time            `json:"created_at" bson:"created_at"`
}

type BookingParticipant struct {
	Name      string `json:"name" bson:"name" validate:"required,min=1,max=100"`
	IsPrimary bool   `json:"is_primary" bson:"is_primary"`
}

// IsActive reports whether the booking still occupies its slot.
func (b *Booking) IsActive() bool {
	return b.Status != BookingCancelled
}
