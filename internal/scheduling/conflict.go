package scheduling

import (
	"sort"

	"clubschedule/pkg/model"
)

// Conflict pairs a candidate with the stored slots it overlaps.
// Existing is the earliest overlapping slot and is nil when there is no conflict.
type Conflict struct {
	Candidate   Candidate
	Existing    *model.Slot
	Overlapping []*model.Slot
}

func (c Conflict) HasConflict() bool {
	return c.Existing != nil
}

// OverlappingIDs returns the ids of every stored slot the candidate overlaps.
func (c Conflict) OverlappingIDs() []string {
	ids := make([]string, 0, len(c.Overlapping))
	for _, s := range c.Overlapping {
		ids = append(ids, s.ID)
	}
	return ids
}

// Detect compares every candidate against the slots already stored at the
// location. existing should be fetched once for the whole window.
func Detect(candidates []Candidate, existing []*model.Slot) []Conflict {
	sorted := make([]*model.Slot, 0, len(existing))
	for _, s := range existing {
		if s != nil {
			sorted = append(sorted, s)
		}
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].StartAt.Equal(sorted[j].StartAt) {
			return sorted[i].ID < sorted[j].ID
		}
		return sorted[i].StartAt.Before(sorted[j].StartAt)
	})

	out := make([]Conflict, 0, len(candidates))
	for _, c := range candidates {
		ci := c.Interval()
		conflict := Conflict{Candidate: c}
		for _, s := range sorted {
			if !s.StartAt.Before(ci.End) {
				break
			}
			if ci.Overlaps(Interval{Start: s.StartAt, End: s.EndAt}) {
				if conflict.Existing == nil {
					conflict.Existing = s
				}
				conflict.Overlapping = append(conflict.Overlapping, s)
			}
		}
		out = append(out, conflict)
	}
	return out
}

// NewPreview summarises an expansion for a dry run.
func NewPreview(exp *Expansion, conflicts []Conflict) model.SchedulePreview {
	p := model.SchedulePreview{
		TotalDays:         exp.TotalDays,
		ClosedDays:        exp.ClosedDays,
		TotalLessonBlocks: exp.TotalLessonBlocks,
		TotalSlots:        len(exp.Candidates),
	}
	for _, c := range conflicts {
		if c.HasConflict() {
			p.ConflictCount++
		}
	}
	return p
}
