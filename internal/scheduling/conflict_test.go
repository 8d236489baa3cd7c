package scheduling

import (
	"testing"
	"time"

	"clubschedule/pkg/model"
)

func slotAt(id string, start, end time.Time) *model.Slot {
	return &model.Slot{ID: id, StartAt: start, EndAt: end, MaxCapacity: 4, Location: "Soses", Status: model.SlotOpen}
}

func candidateAt(start, end time.Time) Candidate {
	return Candidate{Date: start.Format(DateLayout), StartAt: start, EndAt: end, MaxCapacity: 4}
}

func TestDetect_ReportsFirstOverlap(t *testing.T) {
	candidates := []Candidate{
		candidateAt(at(17, 0), at(18, 0)),
		candidateAt(at(19, 0), at(20, 0)),
	}
	existing := []*model.Slot{
		slotAt("late", at(17, 45), at(18, 15)),
		slotAt("early", at(17, 30), at(18, 30)),
		slotAt("after", at(18, 0), at(19, 0)),
	}

	conflicts := Detect(candidates, existing)
	if len(conflicts) != 2 {
		t.Fatalf("expected one entry per candidate, got %d", len(conflicts))
	}

	first := conflicts[0]
	if !first.HasConflict() {
		t.Fatal("expected first candidate to conflict")
	}
	if first.Existing.ID != "early" {
		t.Errorf("first conflicting slot = %s, want early", first.Existing.ID)
	}
	if len(first.Overlapping) != 2 {
		t.Errorf("expected 2 overlapping slots, got %d", len(first.Overlapping))
	}

	if conflicts[1].HasConflict() {
		t.Errorf("touching slot must not conflict, got %s", conflicts[1].Existing.ID)
	}
}

func TestDetect_NoExistingSlots(t *testing.T) {
	conflicts := Detect([]Candidate{candidateAt(at(17, 0), at(18, 0))}, nil)
	if len(conflicts) != 1 || conflicts[0].HasConflict() {
		t.Fatalf("expected a single conflict-free entry, got %+v", conflicts)
	}
}

func TestNewPreview(t *testing.T) {
	exp := &Expansion{
		Candidates: []Candidate{
			candidateAt(at(17, 0), at(18, 0)),
			candidateAt(at(18, 0), at(19, 0)),
		},
		TotalDays:         1,
		TotalLessonBlocks: 2,
	}
	conflicts := Detect(exp.Candidates, []*model.Slot{slotAt("s1", at(17, 30), at(18, 30))})

	p := NewPreview(exp, conflicts)
	if p.TotalSlots != 2 || p.TotalDays != 1 || p.TotalLessonBlocks != 2 {
		t.Errorf("unexpected preview totals: %+v", p)
	}
	if p.ConflictCount != 2 {
		t.Errorf("ConflictCount = %d, want 2", p.ConflictCount)
	}
}
