package model

import (
	"time"
)

// AvailabilityRule is the single-rule form of a schedule: one lesson length and
// one break length repeated between StartOfDay and EndOfDay.
type AvailabilityRule struct {
	ID                string    `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	Name              string    `json:"name" bson:"name" validate:"required,min=2,max=100"`
	Location          string    `json:"location" bson:"location" validate:"required,min=1,max=100"`
	StartOfDay        string    `json:"start_of_day" bson:"start_of_day" validate:"required,time_of_day"`
	EndOfDay          string    `json:"end_of_day" bson:"end_of_day" validate:"required,time_of_day"`
	DaysOfWeek        []int     `json:"days_of_week" bson:"days_of_week" validate:"required,min=1,max=7,unique,dive,min=0,max=6"`
	LessonDurationMin int       `json:"lesson_duration_min" bson:"lesson_duration_min" validate:"required,min=5,max=480"`
	BreakDurationMin  int       `json:"break_duration_min" bson:"break_duration_min" validate:"min=0,max=480"`
	MaxCapacity       int       `json:"max_capacity" bson:"max_capacity" validate:"required,min=1,max=200"`
	Joinable          bool      `json:"joinable" bson:"joinable"`
	Exceptions        []string  `json:"exceptions,omitempty" bson:"exceptions" validate:"omitempty,dive,datetime=2006-01-02"`
	Timezone          string    `json:"timezone,omitempty" bson:"timezone" validate:"omitempty,timezone"`
	CreatedAt         time.Time `json:"created_at" bson:"created_at"`
}

type AvailabilityRuleUpdate struct {
	Name              string    `json:"name,omitempty" validate:"omitempty,min=2,max=100"`
	StartOfDay        string    `json:"start_of_day,omitempty" validate:"omitempty,time_of_day"`
	EndOfDay          string    `json:"end_of_day,omitempty" validate:"omitempty,time_of_day"`
	DaysOfWeek        []int     `json:"days_of_week,omitempty" validate:"omitempty,min=1,max=7,unique,dive,min=0,max=6"`
	LessonDurationMin *int      `json:"lesson_duration_min,omitempty" validate:"omitempty,min=5,max=480"`
	BreakDurationMin  *int      `json:"break_duration_min,omitempty" validate:"omitempty,min=0,max=480"`
	MaxCapacity       *int      `json:"max_capacity,omitempty" validate:"omitempty,min=1,max=200"`
	Joinable          *bool     `json:"joinable,omitempty"`
	Exceptions        *[]string `json:"exceptions,omitempty" validate:"omitempty,dive,datetime=2006-01-02"`
	Timezone          string    `json:"timezone,omitempty" validate:"omitempty,timezone"`
}

// GenerateRequest expands a stored rule over a date range.
type GenerateRequest struct {
	ValidFrom string       `json:"valid_from" validate:"required,datetime=2006-01-02"`
	ValidTo   string       `json:"valid_to" validate:"required,datetime=2006-01-02"`
	Options   ApplyOptions `json:"options"`
}

// Template returns the implicit [lesson, break] template of the rule.
func (r *AvailabilityRule) Template() ScheduleTemplate {
	blocks := []Block{{Kind: BlockLesson, DurationMinutes: r.LessonDurationMin}}
	if r.BreakDurationMin > 0 {
		blocks = append(blocks, Block{Kind: BlockBreak, DurationMinutes: r.BreakDurationMin})
	}
	return ScheduleTemplate{
		Blocks:   blocks,
		Defaults: TemplateDefaults{MaxCapacity: r.MaxCapacity, Joinable: r.Joinable},
	}
}
