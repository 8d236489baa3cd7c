package model

import (
	"time"
)

type ConflictPolicy string

const (
	PolicySkip    ConflictPolicy = "skip"
	PolicyProtect ConflictPolicy = "protect"
	PolicyReplace ConflictPolicy = "replace"
)

type ApplyOptions struct {
	Policy ConflictPolicy `json:"policy" bson:"policy" validate:"omitempty,oneof=skip protect replace"`
	Force  bool           `json:"force" bson:"force"`
}

// BatchSpec is the request to expand a template over a date range.
// Dates are YYYY-MM-DD in the batch timezone, BaseTimeStart is HH:MM.
type BatchSpec struct {
	Title         string           `json:"title,omitempty" validate:"omitempty,max=200"`
	ValidFrom     string           `json:"valid_from" validate:"required,datetime=2006-01-02"`
	ValidTo       string           `json:"valid_to" validate:"required,datetime=2006-01-02"`
	DaysOfWeek    []int            `json:"days_of_week" validate:"required,min=1,max=7,unique,dive,min=0,max=6"`
	BaseTimeStart string           `json:"base_time_start" validate:"required,time_of_day"`
	Location      string           `json:"location" validate:"required,min=1,max=100"`
	Timezone      string           `json:"timezone,omitempty" validate:"omitempty,timezone"`
	Template      ScheduleTemplate `json:"template" validate:"required"`
	Options       ApplyOptions     `json:"options"`
}

type BatchStatus string

const (
	BatchApplying  BatchStatus = "applying"
	BatchCompleted BatchStatus = "completed"
	BatchPartial   BatchStatus = "partial"
)

// ScheduleBatch is the immutable provenance record of one applied schedule.
type ScheduleBatch struct {
	ID            string           `json:"id,omitempty" bson:"_id,omitempty"`
	Title         string           `json:"title,omitempty" bson:"title,omitempty"`
	ValidFrom     string           `json:"valid_from" bson:"valid_from"`
	ValidTo       string           `json:"valid_to" bson:"valid_to"`
	DaysOfWeek    []int            `json:"days_of_week" bson:"days_of_week"`
	BaseTimeStart string           `json:"base_time_start" bson:"base_time_start"`
	Location      string           `json:"location" bson:"location"`
	Timezone      string           `json:"timezone" bson:"timezone"`
	Template      ScheduleTemplate `json:"template" bson:"template"`
	Options       ApplyOptions     `json:"options" bson:"options"`
	Status        BatchStatus      `json:"status" bson:"status"`
	CreatedCount  int              `json:"created_count" bson:"created_count"`
	SkippedCount  int              `json:"skipped_count" bson:"skipped_count"`
	ReplacedCount int              `json:"replaced_count" bson:"replaced_count"`
	FailedCount   int              `json:"failed_count" bson:"failed_count"`
	CreatedBy     string           `json:"created_by,omitempty" bson:"created_by,omitempty"`
	CreatedAt     time.Time        `json:"created_at" bson:"created_at"`
}
