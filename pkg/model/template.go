package model

type BlockKind string

const (
	BlockLesson BlockKind = "lesson"
	BlockBreak  BlockKind = "break"
)

// Block is one step of a recurrence template. Capacity and joinable fall back
// to the template defaults when unset.
type Block struct {
	Kind            BlockKind `json:"kind" bson:"kind" validate:"required,oneof=lesson break"`
	DurationMinutes int       `json:"duration_minutes" bson:"duration_minutes" validate:"required,min=1,max=1440"`
	MaxCapacity     *int      `json:"max_capacity,omitempty" bson:"max_capacity,omitempty" validate:"omitempty,min=1,max=200"`
	Joinable        *bool     `json:"joinable,omitempty" bson:"joinable,omitempty"`
}

type TemplateDefaults struct {
	MaxCapacity int  `json:"max_capacity" bson:"max_capacity" validate:"omitempty,min=1,max=200"`
	Joinable    bool `json:"joinable" bson:"joinable"`
}

// ScheduleTemplate is the ordered list of lesson and break blocks walked once per matching day.
type ScheduleTemplate struct {
	Blocks   []Block          `json:"blocks" bson:"blocks" validate:"required,min=1,max=96,dive"`
	Defaults TemplateDefaults `json:"defaults" bson:"defaults"`
}

// LessonCount returns the number of lesson blocks in one pass of the template.
func (t *ScheduleTemplate) LessonCount() int {
	n := 0
	for _, b := range t.Blocks {
		if b.Kind == BlockLesson {
			n++
		}
	}
	return n
}

func (b Block) CapacityOr(def int) int {
	if b.MaxCapacity != nil {
		return *b.MaxCapacity
	}
	return def
}

func (b Block) JoinableOr(def bool) bool {
	if b.Joinable != nil {
		return *b.Joinable
	}
	return def
}
