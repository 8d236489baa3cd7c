package scheduling

import (
	"errors"
	"testing"
	"time"
)

func at(hour, minute int) time.Time {
	return time.Date(2025, 6, 2, hour, minute, 0, 0, time.UTC)
}

func TestInterval_Overlaps(t *testing.T) {
	tests := []struct {
		name string
		a, b Interval
		want bool
	}{
		{"partial overlap", Interval{at(17, 0), at(18, 0)}, Interval{at(17, 30), at(18, 30)}, true},
		{"contained", Interval{at(17, 0), at(19, 0)}, Interval{at(17, 30), at(18, 0)}, true},
		{"identical", Interval{at(17, 0), at(18, 0)}, Interval{at(17, 0), at(18, 0)}, true},
		{"touching end to start", Interval{at(17, 0), at(18, 0)}, Interval{at(18, 0), at(19, 0)}, false},
		{"touching start to end", Interval{at(18, 0), at(19, 0)}, Interval{at(17, 0), at(18, 0)}, false},
		{"disjoint", Interval{at(9, 0), at(10, 0)}, Interval{at(17, 0), at(18, 0)}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Overlaps(tt.b); got != tt.want {
				t.Errorf("Overlaps() = %v, want %v", got, tt.want)
			}
			if got := tt.b.Overlaps(tt.a); got != tt.want {
				t.Errorf("Overlaps() is not symmetric: got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseTimeOfDay(t *testing.T) {
	tests := []struct {
		in      string
		want    TimeOfDay
		wantErr bool
	}{
		{"17:00", TimeOfDay{17, 0}, false},
		{"07:30", TimeOfDay{7, 30}, false},
		{"23:59:59", TimeOfDay{23, 59}, false},
		{"24:00", TimeOfDay{}, true},
		{"7pm", TimeOfDay{}, true},
		{"", TimeOfDay{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseTimeOfDay(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidTimeOfDay) {
					t.Fatalf("expected ErrInvalidTimeOfDay, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("ParseTimeOfDay(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestNewDateRange(t *testing.T) {
	r, err := NewDateRange("2025-06-02", "2025-06-13")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Days() != 12 {
		t.Errorf("Days() = %d, want 12", r.Days())
	}

	single, err := NewDateRange("2025-06-02", "2025-06-02")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if single.Days() != 1 {
		t.Errorf("Days() = %d, want 1", single.Days())
	}

	if _, err := NewDateRange("2025-06-13", "2025-06-02"); !errors.Is(err, ErrInvalidRange) {
		t.Errorf("expected ErrInvalidRange, got %v", err)
	}
	if _, err := NewDateRange("2025-13-01", "2025-06-02"); !errors.Is(err, ErrInvalidDate) {
		t.Errorf("expected ErrInvalidDate, got %v", err)
	}
}

func TestDateRange_Window(t *testing.T) {
	r, _ := NewDateRange("2025-06-02", "2025-06-03")
	w := r.Window(time.UTC)

	if !w.Start.Equal(time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("window start = %v", w.Start)
	}
	if !w.End.Equal(time.Date(2025, 6, 4, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("window end = %v", w.End)
	}
}

func TestWeekdays(t *testing.T) {
	w, err := NewWeekdays([]int{1, 3})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !w.Has(time.Monday) || !w.Has(time.Wednesday) {
		t.Error("expected Monday and Wednesday")
	}
	if w.Has(time.Sunday) || w.Has(time.Friday) {
		t.Error("unexpected weekday in set")
	}

	if _, err := NewWeekdays([]int{7}); !errors.Is(err, ErrInvalidWeekday) {
		t.Errorf("expected ErrInvalidWeekday, got %v", err)
	}
	if _, err := NewWeekdays([]int{-1}); !errors.Is(err, ErrInvalidWeekday) {
		t.Errorf("expected ErrInvalidWeekday, got %v", err)
	}
}
