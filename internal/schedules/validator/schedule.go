package validator

import (
	"fmt"
	"time"

	"clubschedule/internal/scheduling"
	"clubschedule/pkg/logger"
	"clubschedule/pkg/model"
	"clubschedule/pkg/validation"

	"github.com/go-playground/validator/v10"
)

// ScheduleValidator checks the struct tags of schedule requests and the
// cross-field rules tags cannot express.
type ScheduleValidator struct {
	validate     *validator.Validate
	maxRangeDays int
	logger       *logger.Logger
}

func NewScheduleValidator(maxRangeDays int, log *logger.Logger) *ScheduleValidator {
	return &ScheduleValidator{
		validate:     validation.New(log),
		maxRangeDays: maxRangeDays,
		logger:       log,
	}
}

func (v *ScheduleValidator) ValidateSpec(spec *model.BatchSpec) error {
	if err := validation.Struct(v.validate, spec); err != nil {
		return err
	}

	var errs validation.ValidationErrors
	errs = append(errs, v.checkRange(spec.ValidFrom, spec.ValidTo, "valid_to")...)
	if spec.Template.LessonCount() == 0 {
		errs = append(errs, validation.ValidationError{
			Field:   "template.blocks",
			Message: "template must contain at least one lesson block",
		})
	}
	for i, b := range spec.Template.Blocks {
		if b.Kind == model.BlockLesson && b.CapacityOr(spec.Template.Defaults.MaxCapacity) <= 0 {
			errs = append(errs, validation.ValidationError{
				Field:   fmt.Sprintf("template.blocks[%d].max_capacity", i),
				Message: "lesson needs a capacity, set it on the block or in template defaults",
			})
		}
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

func (v *ScheduleValidator) ValidateProtection(filter *model.ProtectionFilter) error {
	if err := validation.Struct(v.validate, filter); err != nil {
		return err
	}
	if errs := v.checkRange(filter.From, filter.To, "to"); len(errs) > 0 {
		return errs
	}
	return nil
}

func (v *ScheduleValidator) ValidateOverride(override *model.AvailabilityOverride) error {
	return validation.Struct(v.validate, override)
}

// checkRange runs after tag validation, so both dates parse.
func (v *ScheduleValidator) checkRange(from, to, field string) validation.ValidationErrors {
	r, err := scheduling.NewDateRange(from, to)
	if err != nil {
		return validation.Field(field, "must not be before the start date")
	}
	if v.maxRangeDays > 0 && r.Days() > v.maxRangeDays {
		return validation.Field(field, fmt.Sprintf("range must not exceed %d days", v.maxRangeDays))
	}
	return nil
}

// Location resolves a validated IANA name.
func Location(tz string) *time.Location {
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return time.UTC
	}
	return loc
}
