package validator

import (
	"fmt"

	"clubschedule/internal/scheduling"
	"clubschedule/pkg/logger"
	"clubschedule/pkg/model"
	"clubschedule/pkg/validation"

	"github.com/go-playground/validator/v10"
)

type RuleValidator struct {
	validate     *validator.Validate
	maxRangeDays int
	logger       *logger.Logger
}

func NewRuleValidator(maxRangeDays int, log *logger.Logger) *RuleValidator {
	return &RuleValidator{
		validate:     validation.New(log),
		maxRangeDays: maxRangeDays,
		logger:       log,
	}
}

// Validate checks the tags and that at least one lesson fits in the day.
func (v *RuleValidator) Validate(rule *model.AvailabilityRule) error {
	if err := validation.Struct(v.validate, rule); err != nil {
		return err
	}

	start, err := scheduling.ParseTimeOfDay(rule.StartOfDay)
	if err != nil {
		return validation.Field("start_of_day", err.Error())
	}
	end, err := scheduling.ParseTimeOfDay(rule.EndOfDay)
	if err != nil {
		return validation.Field("end_of_day", err.Error())
	}
	if end.Minutes() <= start.Minutes() {
		return validation.Field("end_of_day", "must be after start_of_day")
	}
	if start.Minutes()+rule.LessonDurationMin > end.Minutes() {
		return validation.Field("lesson_duration_min", "no lesson fits between start_of_day and end_of_day")
	}
	return nil
}

func (v *RuleValidator) ValidateGenerate(req *model.GenerateRequest) error {
	if err := validation.Struct(v.validate, req); err != nil {
		return err
	}
	r, err := scheduling.NewDateRange(req.ValidFrom, req.ValidTo)
	if err != nil {
		return validation.Field("valid_to", "must not be before the start date")
	}
	if v.maxRangeDays > 0 && r.Days() > v.maxRangeDays {
		return validation.Field("valid_to", fmt.Sprintf("range must not exceed %d days", v.maxRangeDays))
	}
	return nil
}
