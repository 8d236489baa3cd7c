package scheduling

import (
	"errors"
	"time"

	"clubschedule/pkg/model"
)

var (
	ErrEmptyTemplate    = errors.New("template must contain at least one lesson block")
	ErrInvalidDuration  = errors.New("block durations must be positive")
	ErrInvalidCapacity  = errors.New("lesson capacity must be positive")
	ErrDayEndBeforeBase = errors.New("end of day must be after the base start time")
)

// Candidate is one lesson interval proposed by an expansion.
type Candidate struct {
	Date        string    `json:"date"`
	StartAt     time.Time `json:"start_at"`
	EndAt       time.Time `json:"end_at"`
	MaxCapacity int       `json:"max_capacity"`
	Joinable    bool      `json:"joinable"`
}

func (c Candidate) Interval() Interval {
	return Interval{Start: c.StartAt, End: c.EndAt}
}

// ClosedDates is the set of YYYY-MM-DD dates on which nothing is generated.
type ClosedDates map[string]struct{}

func NewClosedDates(dates ...string) ClosedDates {
	c := make(ClosedDates, len(dates))
	for _, d := range dates {
		c[d] = struct{}{}
	}
	return c
}

func (c ClosedDates) Add(date string) {
	c[date] = struct{}{}
}

func (c ClosedDates) Has(date string) bool {
	_, ok := c[date]
	return ok
}

type ExpandInput struct {
	Template  model.ScheduleTemplate
	Range     DateRange
	Days      Weekdays
	BaseStart TimeOfDay
	Location  *time.Location
	Closed    ClosedDates

	// DayEnd switches to the single-rule form: the template repeats from
	// BaseStart and the day stops at the first block that would cross DayEnd.
	DayEnd *TimeOfDay
}

type Expansion struct {
	Candidates        []Candidate
	TotalDays         int
	ClosedDays        int
	TotalLessonBlocks int
}

// ValidateTemplate checks the invariants every expansion relies on.
func ValidateTemplate(t model.ScheduleTemplate) error {
	lessons := 0
	for _, b := range t.Blocks {
		if b.DurationMinutes <= 0 {
			return ErrInvalidDuration
		}
		if b.Kind == model.BlockLesson {
			lessons++
			if b.CapacityOr(t.Defaults.MaxCapacity) <= 0 {
				return ErrInvalidCapacity
			}
		}
	}
	if lessons == 0 {
		return ErrEmptyTemplate
	}
	return nil
}

// Expand turns a template into dated candidate intervals. It is a pure function
// of its input: the same input always yields the same candidates in the same order.
func Expand(in ExpandInput) (*Expansion, error) {
	if err := ValidateTemplate(in.Template); err != nil {
		return nil, err
	}
	if in.Days.Empty() {
		return nil, ErrInvalidWeekday
	}
	if in.DayEnd != nil && in.DayEnd.Minutes() <= in.BaseStart.Minutes() {
		return nil, ErrDayEndBeforeBase
	}
	loc := in.Location
	if loc == nil {
		loc = time.UTC
	}

	out := &Expansion{}
	in.Range.Each(func(d time.Time) {
		if !in.Days.Has(d.Weekday()) {
			return
		}
		date := d.Format(DateLayout)
		if in.Closed.Has(date) {
			out.ClosedDays++
			return
		}
		out.TotalDays++

		day := expandDay(in, d, date, loc)
		if len(day) > out.TotalLessonBlocks {
			out.TotalLessonBlocks = len(day)
		}
		out.Candidates = append(out.Candidates, day...)
	})
	return out, nil
}

func expandDay(in ExpandInput, d time.Time, date string, loc *time.Location) []Candidate {
	cursor := in.BaseStart.On(d, loc)
	blocks := in.Template.Blocks
	defaults := in.Template.Defaults

	if in.DayEnd == nil {
		var day []Candidate
		for _, b := range blocks {
			next := cursor.Add(time.Duration(b.DurationMinutes) * time.Minute)
			if b.Kind == model.BlockLesson {
				day = append(day, newCandidate(date, cursor, next, b, defaults))
			}
			cursor = next
		}
		return day
	}

	limit := in.DayEnd.On(d, loc)
	var day []Candidate
	for i := 0; ; i = (i + 1) % len(blocks) {
		b := blocks[i]
		next := cursor.Add(time.Duration(b.DurationMinutes) * time.Minute)
		if next.After(limit) {
			return day
		}
		if b.Kind == model.BlockLesson {
			day = append(day, newCandidate(date, cursor, next, b, defaults))
		}
		cursor = next
	}
}

func newCandidate(date string, start, end time.Time, b model.Block, defaults model.TemplateDefaults) Candidate {
	return Candidate{
		Date:        date,
		StartAt:     start.UTC(),
		EndAt:       end.UTC(),
		MaxCapacity: b.CapacityOr(defaults.MaxCapacity),
		Joinable:    b.JoinableOr(defaults.Joinable),
	}
}
