package model

import "time"

// SchedulePreview summarises an expansion without touching storage.
type SchedulePreview struct {
	TotalDays         int `json:"total_days"`
	ClosedDays        int `json:"closed_days"`
	TotalLessonBlocks int `json:"total_lesson_blocks"`
	TotalSlots        int `json:"total_slots"`
	ConflictCount     int `json:"conflict_count"`
}

// SlotConflict reports one candidate that overlaps stored slots and what the
// policy would do about it.
type SlotConflict struct {
	Date             string     `json:"date"`
	CandidateStartAt time.Time  `json:"candidate_start_at"`
	CandidateEndAt   time.Time  `json:"candidate_end_at"`
	ExistingSlotID   string     `json:"existing_slot_id"`
	ExistingStartAt  time.Time  `json:"existing_start_at"`
	ExistingEndAt    time.Time  `json:"existing_end_at"`
	ExistingStatus   SlotStatus `json:"existing_status"`
	OverlapCount     int        `json:"overlap_count"`
	HasBookings      bool       `json:"has_bookings"`
	Resolution       string     `json:"resolution"`
	Reason           string     `json:"reason"`
}

type ConflictCheck struct {
	Preview       SchedulePreview `json:"preview"`
	SlotConflicts []SlotConflict  `json:"slot_conflicts"`
	CanProceed    bool            `json:"can_proceed"`
}

// ApplyResult is returned by every apply, whether from a batch or a rule.
// FailedCount counts candidates lost to storage errors; they are not rolled back.
type ApplyResult struct {
	BatchID       string         `json:"batch_id,omitempty"`
	RuleID        string         `json:"rule_id,omitempty"`
	Status        BatchStatus    `json:"status"`
	CreatedCount  int            `json:"created_count"`
	SkippedCount  int            `json:"skipped_count"`
	ReplacedCount int            `json:"replaced_count"`
	FailedCount   int            `json:"failed_count"`
	Conflicts     []SlotConflict `json:"conflicts,omitempty"`
}

// ProtectionFilter selects the slots whose bookings are analysed.
type ProtectionFilter struct {
	Location string `json:"location" validate:"required,min=1,max=100"`
	From     string `json:"from" validate:"required,datetime=2006-01-02"`
	To       string `json:"to" validate:"required,datetime=2006-01-02"`
	Timezone string `json:"timezone,omitempty" validate:"omitempty,timezone"`
}

type ProtectedBooking struct {
	BookingID string        `json:"booking_id"`
	SlotID    string        `json:"slot_id"`
	UserID    string        `json:"user_id"`
	GroupSize int           `json:"group_size"`
	Status    BookingStatus `json:"status"`
	StartAt   time.Time     `json:"start_at"`
	EndAt     time.Time     `json:"end_at"`
}

type ProtectionReport struct {
	ProtectedBookings  []ProtectedBooking `json:"protected_bookings"`
	ModifiableBookings []ProtectedBooking `json:"modifiable_bookings"`
	ProtectedSlots     int                `json:"protected_slots"`
	FreeSlots          int                `json:"free_slots"`
	Recommendations    []string           `json:"recommendations"`
}
