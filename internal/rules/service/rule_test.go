package service

import (
	"context"
	"testing"
	"time"

	bookingsrepo "clubschedule/internal/bookings/repository"
	"clubschedule/internal/rules/repository"
	"clubschedule/internal/rules/validator"
	schedulesrepo "clubschedule/internal/schedules/repository"
	schedules "clubschedule/internal/schedules/service"
	slotsrepo "clubschedule/internal/slots/repository"
	"clubschedule/pkg/config"
	apperrors "clubschedule/pkg/errors"
	"clubschedule/pkg/logger"
	"clubschedule/pkg/model"
)

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

func newService(slots *slotsrepo.MemorySlotRepository) RuleService {
	cfg := testConfig()
	pipeline := schedules.NewPipeline(slots, bookingsrepo.NewMemoryBookingRepository(), schedulesrepo.NewMemoryOverrideRepository(), cfg)
	return NewRuleService(repository.NewMemoryRuleRepository(), pipeline, validator.NewRuleValidator(cfg.MaxBatchRangeDays, cfg.Log), cfg)
}

func eveningRule() *model.AvailabilityRule {
	return &model.AvailabilityRule{
		Name:              " Weekday evenings ",
		Location:          "Soses",
		StartOfDay:        "17:00",
		EndOfDay:          "20:00",
		DaysOfWeek:        []int{3, 1},
		LessonDurationMin: 60,
		BreakDurationMin:  15,
		MaxCapacity:       6,
		Exceptions:        []string{"2025-06-04"},
	}
}

func TestGenerate_RepeatsLessonsUntilDayEnd(t *testing.T) {
	slots := slotsrepo.NewMemorySlotRepository()
	svc := newService(slots)
	ctx := context.Background()

	rule := eveningRule()
	if err := svc.Create(ctx, rule); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if rule.Name != "Weekday evenings" || rule.Timezone != "UTC" {
		t.Errorf("rule not normalised: %+v", rule)
	}

	result, err := svc.Generate(ctx, rule.ID, &model.GenerateRequest{ValidFrom: "2025-06-02", ValidTo: "2025-06-13"})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	// Mon 2, Mon 9, Wed 11 with two lessons each; Wed 4 is an exception.
	if result.CreatedCount != 6 || result.RuleID != rule.ID || result.BatchID != "" {
		t.Fatalf("Generate() = %+v", result)
	}

	stored := slots.All()
	wantFirstDay := [][2]int{{17 * 60, 18 * 60}, {18*60 + 15, 19*60 + 15}}
	for i, want := range wantFirstDay {
		s := stored[i]
		start := s.StartAt.Hour()*60 + s.StartAt.Minute()
		end := s.EndAt.Hour()*60 + s.EndAt.Minute()
		if s.StartAt.Day() != 2 || start != want[0] || end != want[1] {
			t.Errorf("slot %d = %v..%v", i, s.StartAt, s.EndAt)
		}
	}
	for _, s := range stored {
		if s.StartAt.Day() == 4 {
			t.Errorf("slot generated on exception date: %v", s.StartAt)
		}
		if s.CreatedFromRuleID == nil || *s.CreatedFromRuleID != rule.ID || s.CreatedFromBatchID != nil {
			t.Errorf("slot provenance = batch %v rule %v", s.CreatedFromBatchID, s.CreatedFromRuleID)
		}
		if s.MaxCapacity != 6 {
			t.Errorf("capacity = %d, want 6", s.MaxCapacity)
		}
	}

	again, err := svc.Generate(ctx, rule.ID, &model.GenerateRequest{ValidFrom: "2025-06-02", ValidTo: "2025-06-13"})
	if err != nil {
		t.Fatalf("second Generate() error = %v", err)
	}
	if again.CreatedCount != 0 || again.SkippedCount != 6 {
		t.Errorf("second Generate() = created %d skipped %d, want 0 and 6", again.CreatedCount, again.SkippedCount)
	}
}

func TestGenerate_Errors(t *testing.T) {
	svc := newService(slotsrepo.NewMemorySlotRepository())
	rule := eveningRule()
	if err := svc.Create(context.Background(), rule); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name     string
		id       string
		req      *model.GenerateRequest
		wantCode string
	}{
		{"unknown rule", "665f00000000000000000099", &model.GenerateRequest{ValidFrom: "2025-06-02", ValidTo: "2025-06-13"}, apperrors.CodeNotFound},
		{"malformed id", "rule-1", &model.GenerateRequest{ValidFrom: "2025-06-02", ValidTo: "2025-06-13"}, apperrors.CodeInvalidInput},
		{"inverted range", rule.ID, &model.GenerateRequest{ValidFrom: "2025-06-13", ValidTo: "2025-06-02"}, apperrors.CodeValidation},
		{"nil request", rule.ID, nil, apperrors.CodeInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Generate(context.Background(), tt.id, tt.req)
			if appErr := apperrors.AsAppError(err); appErr == nil || appErr.Code != tt.wantCode {
				t.Errorf("Generate() error = %v, want %s", err, tt.wantCode)
			}
		})
	}
}

func TestRuleCRUD(t *testing.T) {
	svc := newService(slotsrepo.NewMemorySlotRepository())
	ctx := context.Background()

	rule := eveningRule()
	if err := svc.Create(ctx, rule); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	err := svc.Create(ctx, eveningRule())
	if appErr := apperrors.AsAppError(err); appErr == nil || appErr.Code != apperrors.CodeConflict {
		t.Errorf("duplicate Create() error = %v, want %s", err, apperrors.CodeConflict)
	}

	capacity := 8
	updated, err := svc.Update(ctx, rule.ID, &model.AvailabilityRuleUpdate{MaxCapacity: &capacity, EndOfDay: "21:00"})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if updated.MaxCapacity != 8 || updated.EndOfDay != "21:00" || updated.StartOfDay != "17:00" {
		t.Errorf("Update() = %+v", updated)
	}

	_, err = svc.Update(ctx, rule.ID, &model.AvailabilityRuleUpdate{EndOfDay: "16:00"})
	if appErr := apperrors.AsAppError(err); appErr == nil || appErr.Code != apperrors.CodeValidation {
		t.Errorf("invalid Update() error = %v, want %s", err, apperrors.CodeValidation)
	}

	got, err := svc.GetByID(ctx, rule.ID)
	if err != nil || got.MaxCapacity != 8 {
		t.Fatalf("GetByID() = %+v, %v", got, err)
	}

	rules, total, err := svc.List(ctx, "Soses", 10, 0)
	if err != nil || total != 1 || len(rules) != 1 {
		t.Errorf("List() = %d of %d, %v", len(rules), total, err)
	}

	if err := svc.Delete(ctx, rule.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	_, err = svc.GetByID(ctx, rule.ID)
	if appErr := apperrors.AsAppError(err); appErr == nil || appErr.Code != apperrors.CodeNotFound {
		t.Errorf("GetByID() after delete error = %v, want %s", err, apperrors.CodeNotFound)
	}
}
