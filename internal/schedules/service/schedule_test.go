package service

import (
	"context"
	"errors"
	"testing"
	"time"

	bookingsrepo "clubschedule/internal/bookings/repository"
	"clubschedule/internal/schedules/repository"
	"clubschedule/internal/schedules/validator"
	"clubschedule/internal/scheduling"
	slotsrepo "clubschedule/internal/slots/repository"
	"clubschedule/pkg/config"
	apperrors "clubschedule/pkg/errors"
	"clubschedule/pkg/logger"
	"clubschedule/pkg/model"
)

const (
	existingID = "665f00000000000000000010"
	bookingID  = "665f000000000000000000a1"
)

type mockPublisher struct {
	events []*model.ScheduleAppliedEvent
	err    error
}

func (p *mockPublisher) PublishApplied(ctx context.Context, event *model.ScheduleAppliedEvent) error {
	p.events = append(p.events, event)
	return p.err
}

// lateBooking hides bookings from the first lookup, as if they were admitted
// after the plan was built.
type lateBooking struct {
	*bookingsrepo.MemoryBookingRepository
	calls int
}

func (l *lateBooking) ActiveSlotIDs(ctx context.Context, ids []string) (map[string]bool, error) {
	l.calls++
	if l.calls == 1 {
		return map[string]bool{}, nil
	}
	return l.MemoryBookingRepository.ActiveSlotIDs(ctx, ids)
}

type fixture struct {
	slots     *slotsrepo.MemorySlotRepository
	bookings  *bookingsrepo.MemoryBookingRepository
	overrides *repository.MemoryOverrideRepository
	batches   *repository.MemoryBatchRepository
	publisher *mockPublisher
	svc       ScheduleService
}

func testConfig() *config.Config {
	return &config.Config{
		Log:                 logger.Discard(),
		ReadTimeout:         5 * time.Second,
		WriteTimeout:        5 * time.Second,
		DefaultTimezone:     "UTC",
		DefaultPolicy:       "skip",
		DefaultSlotCapacity: 4,
		MaxBatchRangeDays:   366,
		InsertChunkSize:     200,
	}
}

func newFixture(slots ...*model.Slot) *fixture {
	f := &fixture{
		slots:     slotsrepo.NewMemorySlotRepository(slots...),
		bookings:  bookingsrepo.NewMemoryBookingRepository(),
		overrides: repository.NewMemoryOverrideRepository(),
		batches:   repository.NewMemoryBatchRepository(),
		publisher: &mockPublisher{},
	}
	f.svc = f.build(f.bookings)
	return f
}

func (f *fixture) build(bookings BookingReader) ScheduleService {
	cfg := testConfig()
	pipeline := NewPipeline(f.slots, bookings, f.overrides, cfg)
	return NewScheduleService(pipeline, f.batches, f.publisher, validator.NewScheduleValidator(cfg.MaxBatchRangeDays, cfg.Log), cfg)
}

// soses is the Mon/Wed 17:00 one-hour lesson schedule for 2025-06-02..13.
func soses(policy model.ConflictPolicy, force bool) *model.BatchSpec {
	return &model.BatchSpec{
		ValidFrom:     "2025-06-02",
		ValidTo:       "2025-06-13",
		DaysOfWeek:    []int{1, 3},
		BaseTimeStart: "17:00",
		Location:      "Soses",
		Timezone:      "UTC",
		Template: model.ScheduleTemplate{
			Blocks: []model.Block{{Kind: model.BlockLesson, DurationMinutes: 60}},
		},
		Options: model.ApplyOptions{Policy: policy, Force: force},
	}
}

func at(day, hour, minute int) time.Time {
	return time.Date(2025, 6, day, hour, minute, 0, 0, time.UTC)
}

// overlapping is stored 17:30-18:30 on 2025-06-02.
func overlapping() *model.Slot {
	return &model.Slot{
		ID:          existingID,
		StartAt:     at(2, 17, 30),
		EndAt:       at(2, 18, 30),
		MaxCapacity: 4,
		Location:    "Soses",
		Status:      model.SlotOpen,
	}
}

func TestApplySchedule_CreatesSlots(t *testing.T) {
	f := newFixture()

	result, err := f.svc.ApplySchedule(context.Background(), soses("", false))
	if err != nil {
		t.Fatalf("ApplySchedule() error = %v", err)
	}
	if result.CreatedCount != 4 || result.SkippedCount != 0 || result.Status != model.BatchCompleted {
		t.Fatalf("ApplySchedule() = %+v, want 4 created, completed", result)
	}

	wantStarts := []time.Time{at(2, 17, 0), at(4, 17, 0), at(9, 17, 0), at(11, 17, 0)}
	stored := f.slots.All()
	if len(stored) != len(wantStarts) {
		t.Fatalf("stored %d slots, want %d", len(stored), len(wantStarts))
	}
	for i, s := range stored {
		if !s.StartAt.Equal(wantStarts[i]) || s.EndAt.Sub(s.StartAt) != time.Hour {
			t.Errorf("slot %d = %v..%v, want %v for one hour", i, s.StartAt, s.EndAt, wantStarts[i])
		}
		if s.CreatedFromBatchID == nil || *s.CreatedFromBatchID != result.BatchID {
			t.Errorf("slot %d not linked to batch %s", i, result.BatchID)
		}
		if s.MaxCapacity != 4 || s.Status != model.SlotOpen {
			t.Errorf("slot %d = capacity %d status %s", i, s.MaxCapacity, s.Status)
		}
	}

	batch, err := f.svc.GetBatch(context.Background(), result.BatchID)
	if err != nil {
		t.Fatalf("GetBatch() error = %v", err)
	}
	if batch.Status != model.BatchCompleted || batch.CreatedCount != 4 || batch.Options.Policy != model.PolicySkip {
		t.Errorf("batch = %+v", batch)
	}
	if len(f.publisher.events) != 1 || f.publisher.events[0].BatchID != result.BatchID {
		t.Errorf("published events = %+v", f.publisher.events)
	}
}

func TestApplySchedule_SkipsClosedDates(t *testing.T) {
	f := newFixture()
	if err := f.overrides.Create(context.Background(), &model.AvailabilityOverride{
		Location: "Soses", Date: "2025-06-04", Kind: model.OverrideClosed,
	}); err != nil {
		t.Fatal(err)
	}

	check, err := f.svc.CheckScheduleConflicts(context.Background(), soses("", false))
	if err != nil {
		t.Fatalf("CheckScheduleConflicts() error = %v", err)
	}
	if check.Preview.ClosedDays != 1 || check.Preview.TotalSlots != 3 {
		t.Errorf("preview = %+v, want 1 closed day and 3 slots", check.Preview)
	}

	result, err := f.svc.ApplySchedule(context.Background(), soses("", false))
	if err != nil {
		t.Fatalf("ApplySchedule() error = %v", err)
	}
	if result.CreatedCount != 3 {
		t.Errorf("created = %d, want 3", result.CreatedCount)
	}
}

func TestApplySchedule_Policies(t *testing.T) {
	tests := []struct {
		name         string
		policy       model.ConflictPolicy
		force        bool
		booking      *model.BookingStatus
		wantCreated  int
		wantSkipped  int
		wantReplaced int
		wantReason   scheduling.Reason
		wantExisting bool
	}{
		{"skip", model.PolicySkip, false, nil, 3, 1, 0, scheduling.ReasonPolicySkip, true},
		{"protect", model.PolicyProtect, true, nil, 3, 1, 0, scheduling.ReasonPolicyProtect, true},
		{"replace without force", model.PolicyReplace, false, nil, 3, 1, 0, scheduling.ReasonReplaceNotForced, true},
		{"replace free slot", model.PolicyReplace, true, nil, 3, 0, 1, scheduling.ReasonReplaced, false},
		{"replace confirmed booking", model.PolicyReplace, true, ptr(model.BookingConfirmed), 3, 1, 0, scheduling.ReasonProtectedBooking, true},
		{"replace pending booking", model.PolicyReplace, true, ptr(model.BookingPending), 3, 1, 0, scheduling.ReasonProtectedBooking, true},
		{"replace cancelled booking", model.PolicyReplace, true, ptr(model.BookingCancelled), 3, 0, 1, scheduling.ReasonReplaced, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(overlapping())
			if tt.booking != nil {
				f.bookings.Put(&model.Booking{ID: bookingID, SlotID: existingID, UserID: "u1", GroupSize: 1, Status: *tt.booking})
			}

			result, err := f.svc.ApplySchedule(context.Background(), soses(tt.policy, tt.force))
			if err != nil {
				t.Fatalf("ApplySchedule() error = %v", err)
			}
			if result.CreatedCount != tt.wantCreated || result.SkippedCount != tt.wantSkipped || result.ReplacedCount != tt.wantReplaced {
				t.Errorf("counts = created %d skipped %d replaced %d, want %d %d %d",
					result.CreatedCount, result.SkippedCount, result.ReplacedCount,
					tt.wantCreated, tt.wantSkipped, tt.wantReplaced)
			}
			if len(result.Conflicts) != 1 || result.Conflicts[0].Reason != string(tt.wantReason) {
				t.Fatalf("conflicts = %+v, want one with reason %s", result.Conflicts, tt.wantReason)
			}
			if result.Conflicts[0].ExistingSlotID != existingID {
				t.Errorf("existing slot = %s, want %s", result.Conflicts[0].ExistingSlotID, existingID)
			}

			_, err = f.slots.FindByID(context.Background(), existingID)
			if exists := err == nil; exists != tt.wantExisting {
				t.Errorf("existing slot present = %v, want %v", exists, tt.wantExisting)
			}
		})
	}
}

func TestApplySchedule_BookingAdmittedDuringApply(t *testing.T) {
	f := newFixture(overlapping())
	f.bookings.Put(&model.Booking{ID: bookingID, SlotID: existingID, UserID: "u1", GroupSize: 1, Status: model.BookingConfirmed})
	svc := f.build(&lateBooking{MemoryBookingRepository: f.bookings})

	result, err := svc.ApplySchedule(context.Background(), soses(model.PolicyReplace, true))
	if err != nil {
		t.Fatalf("ApplySchedule() error = %v", err)
	}
	if result.ReplacedCount != 0 || result.SkippedCount != 1 {
		t.Errorf("counts = replaced %d skipped %d, want 0 and 1", result.ReplacedCount, result.SkippedCount)
	}
	if c := result.Conflicts[0]; c.Reason != string(scheduling.ReasonProtectedBooking) || !c.HasBookings {
		t.Errorf("conflict = %+v, want protected with bookings", c)
	}
	if _, err := f.slots.FindByID(context.Background(), existingID); err != nil {
		t.Errorf("booked slot was deleted: %v", err)
	}
}

func TestApplySchedule_PartialFailure(t *testing.T) {
	f := newFixture()
	f.slots.FailInsert = func(s *model.Slot) error {
		if s.StartAt.Day() == 9 {
			return errors.New("write failed")
		}
		return nil
	}
	f.publisher.err = errors.New("broker down")

	result, err := f.svc.ApplySchedule(context.Background(), soses("", false))
	if err != nil {
		t.Fatalf("ApplySchedule() error = %v", err)
	}
	if result.CreatedCount != 3 || result.FailedCount != 1 || result.Status != model.BatchPartial {
		t.Errorf("result = %+v, want 3 created 1 failed partial", result)
	}

	batch, err := f.batches.FindByID(context.Background(), result.BatchID)
	if err != nil {
		t.Fatal(err)
	}
	if batch.Status != model.BatchPartial || batch.FailedCount != 1 {
		t.Errorf("batch = %s failed %d, want partial 1", batch.Status, batch.FailedCount)
	}
}

func TestApplySchedule_InvalidSpec(t *testing.T) {
	f := newFixture()
	spec := soses("", false)
	spec.ValidTo = "2025-05-01"

	_, err := f.svc.ApplySchedule(context.Background(), spec)
	if appErr := apperrors.AsAppError(err); appErr == nil || appErr.Code != apperrors.CodeValidation {
		t.Fatalf("ApplySchedule() error = %v, want %s", err, apperrors.CodeValidation)
	}
	if n, _ := f.batches.Count(context.Background(), ""); n != 0 {
		t.Errorf("batch recorded for invalid spec")
	}
}

func TestCheckScheduleConflicts(t *testing.T) {
	t.Run("no conflicts", func(t *testing.T) {
		f := newFixture()
		check, err := f.svc.CheckScheduleConflicts(context.Background(), soses("", false))
		if err != nil {
			t.Fatalf("CheckScheduleConflicts() error = %v", err)
		}
		want := model.SchedulePreview{TotalDays: 4, TotalLessonBlocks: 1, TotalSlots: 4}
		if check.Preview != want || !check.CanProceed || len(check.SlotConflicts) != 0 {
			t.Errorf("check = %+v, want preview %+v and can proceed", check, want)
		}
	})

	t.Run("conflict is reported without writing", func(t *testing.T) {
		f := newFixture(overlapping())
		check, err := f.svc.CheckScheduleConflicts(context.Background(), soses(model.PolicyReplace, true))
		if err != nil {
			t.Fatalf("CheckScheduleConflicts() error = %v", err)
		}
		if check.CanProceed || check.Preview.ConflictCount != 1 {
			t.Errorf("check = %+v, want one conflict", check)
		}
		if c := check.SlotConflicts[0]; c.Resolution != string(scheduling.ActionReplace) || c.Date != "2025-06-02" {
			t.Errorf("conflict = %+v", c)
		}
		if n := len(f.slots.All()); n != 1 {
			t.Errorf("dry run wrote slots, have %d", n)
		}
		if n, _ := f.batches.Count(context.Background(), ""); n != 0 {
			t.Errorf("dry run recorded a batch")
		}
	})
}

func TestCheckBookingProtection(t *testing.T) {
	slot := func(id string, day int) *model.Slot {
		return &model.Slot{ID: id, StartAt: at(day, 17, 0), EndAt: at(day, 18, 0), MaxCapacity: 4, Location: "Soses", Status: model.SlotOpen}
	}
	f := newFixture(
		slot("665f00000000000000000001", 2),
		slot("665f00000000000000000002", 4),
		slot("665f00000000000000000003", 9),
		slot("665f00000000000000000004", 11),
	)
	f.bookings.Put(&model.Booking{ID: "665f000000000000000000b1", SlotID: "665f00000000000000000001", UserID: "ana", GroupSize: 2, Status: model.BookingConfirmed})
	f.bookings.Put(&model.Booking{ID: "665f000000000000000000b2", SlotID: "665f00000000000000000002", UserID: "ben", GroupSize: 1, Status: model.BookingPending})
	f.bookings.Put(&model.Booking{ID: "665f000000000000000000b3", SlotID: "665f00000000000000000003", UserID: "cai", GroupSize: 1, Status: model.BookingCancelled})

	report, err := f.svc.CheckBookingProtection(context.Background(), &model.ProtectionFilter{
		Location: "Soses", From: "2025-06-01", To: "2025-06-30",
	})
	if err != nil {
		t.Fatalf("CheckBookingProtection() error = %v", err)
	}
	if len(report.ProtectedBookings) != 2 || len(report.ModifiableBookings) != 1 {
		t.Errorf("protected %d modifiable %d, want 2 and 1", len(report.ProtectedBookings), len(report.ModifiableBookings))
	}
	if report.ProtectedSlots != 2 || report.FreeSlots != 2 {
		t.Errorf("slots protected %d free %d, want 2 and 2", report.ProtectedSlots, report.FreeSlots)
	}
	if report.ProtectedBookings[0].UserID != "ana" || !report.ProtectedBookings[0].StartAt.Equal(at(2, 17, 0)) {
		t.Errorf("first protected booking = %+v", report.ProtectedBookings[0])
	}
	if len(report.Recommendations) == 0 {
		t.Error("expected recommendations")
	}

	_, err = f.svc.CheckBookingProtection(context.Background(), &model.ProtectionFilter{Location: "Soses", From: "2025-06-30", To: "2025-06-01"})
	if appErr := apperrors.AsAppError(err); appErr == nil || appErr.Code != apperrors.CodeValidation {
		t.Errorf("inverted filter error = %v, want %s", err, apperrors.CodeValidation)
	}
}

func TestGetBatchAndList(t *testing.T) {
	f := newFixture()
	if _, err := f.svc.ApplySchedule(context.Background(), soses("", false)); err != nil {
		t.Fatal(err)
	}

	batches, total, err := f.svc.ListBatches(context.Background(), " Soses ", 10, 0)
	if err != nil {
		t.Fatalf("ListBatches() error = %v", err)
	}
	if total != 1 || len(batches) != 1 {
		t.Errorf("ListBatches() = %d of %d, want 1 of 1", len(batches), total)
	}

	tests := []struct {
		name     string
		id       string
		wantCode string
	}{
		{"empty", "", apperrors.CodeInvalidInput},
		{"malformed", "batch-1", apperrors.CodeInvalidInput},
		{"missing", "665f00000000000000000099", apperrors.CodeNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.GetBatch(context.Background(), tt.id)
			if appErr := apperrors.AsAppError(err); appErr == nil || appErr.Code != tt.wantCode {
				t.Errorf("GetBatch() error = %v, want %s", err, tt.wantCode)
			}
		})
	}
}

func ptr[T any](v T) *T {
	return &v
}
