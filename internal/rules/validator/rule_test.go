package validator

import (
	"errors"
	"testing"

	"clubschedule/pkg/logger"
	"clubschedule/pkg/model"
	"clubschedule/pkg/validation"
)

func validRule() *model.AvailabilityRule {
	return &model.AvailabilityRule{
		Name:              "Weekday evenings",
		Location:          "Soses",
		StartOfDay:        "17:00",
		EndOfDay:          "20:00",
		DaysOfWeek:        []int{1, 3},
		LessonDurationMin: 60,
		BreakDurationMin:  15,
		MaxCapacity:       4,
	}
}

func fieldOf(err error) string {
	var verrs validation.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return ""
	}
	return verrs[0].Field
}

func TestValidate(t *testing.T) {
	v := NewRuleValidator(366, logger.Discard())

	tests := []struct {
		name      string
		mutate    func(r *model.AvailabilityRule)
		wantField string
	}{
		{"valid", func(r *model.AvailabilityRule) {}, ""},
		{"no break", func(r *model.AvailabilityRule) { r.BreakDurationMin = 0 }, ""},
		{"short name", func(r *model.AvailabilityRule) { r.Name = "x" }, "name"},
		{"missing capacity", func(r *model.AvailabilityRule) { r.MaxCapacity = 0 }, "max_capacity"},
		{"bad exception", func(r *model.AvailabilityRule) { r.Exceptions = []string{"June 4"} }, "exceptions[0]"},
		{"end before start", func(r *model.AvailabilityRule) { r.EndOfDay = "16:00" }, "end_of_day"},
		{"end equals start", func(r *model.AvailabilityRule) { r.EndOfDay = "17:00" }, "end_of_day"},
		{"lesson does not fit", func(r *model.AvailabilityRule) { r.LessonDurationMin = 240 }, "lesson_duration_min"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rule := validRule()
			tt.mutate(rule)
			err := v.Validate(rule)
			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("Validate() error = %v", err)
				}
				return
			}
			if got := fieldOf(err); got != tt.wantField {
				t.Errorf("field = %q, want %q (err %v)", got, tt.wantField, err)
			}
		})
	}
}

func TestValidateGenerate(t *testing.T) {
	v := NewRuleValidator(31, logger.Discard())

	tests := []struct {
		name      string
		req       model.GenerateRequest
		wantField string
	}{
		{"valid", model.GenerateRequest{ValidFrom: "2025-06-02", ValidTo: "2025-06-13"}, ""},
		{"missing from", model.GenerateRequest{ValidTo: "2025-06-13"}, "valid_from"},
		{"inverted", model.GenerateRequest{ValidFrom: "2025-06-13", ValidTo: "2025-06-02"}, "valid_to"},
		{"too long", model.GenerateRequest{ValidFrom: "2025-06-01", ValidTo: "2025-08-01"}, "valid_to"},
		{"bad policy", model.GenerateRequest{ValidFrom: "2025-06-02", ValidTo: "2025-06-13", Options: model.ApplyOptions{Policy: "merge"}}, "options.policy"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidateGenerate(&tt.req)
			if got := fieldOf(err); got != tt.wantField {
				t.Errorf("field = %q, want %q (err %v)", got, tt.wantField, err)
			}
		})
	}
}
