package model

import "time"

type OverrideKind string

const (
	OverrideClosed OverrideKind = "closed"
)

// AvailabilityOverride closes a location for one calendar date.
type AvailabilityOverride struct {
	ID        string       `json:"id,omitempty" bson:"_id,omitempty"`
	Location  string       `json:"location" bson:"location" validate:"required,min=1,max=100"`
	Date      string       `json:"date" bson:"date" validate:"required,datetime=2006-01-02"`
	Kind      OverrideKind `json:"kind" bson:"kind" validate:"required,oneof=closed"`
	Reason    string       `json:"reason,omitempty" bson:"reason,omitempty" validate:"omitempty,max=200"`
	CreatedAt time.Time    `json:"created_at" bson:"created_at"`
}
