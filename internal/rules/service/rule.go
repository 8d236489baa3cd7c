package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	ruleserrors "clubschedule/internal/rules/errors"
	"clubschedule/internal/rules/repository"
	"clubschedule/internal/rules/validator"
	schedules "clubschedule/internal/schedules/service"
	schedulesvalidator "clubschedule/internal/schedules/validator"
	"clubschedule/internal/scheduling"
	"clubschedule/pkg/config"
	apperrors "clubschedule/pkg/errors"
	"clubschedule/pkg/model"
	"clubschedule/pkg/sanitizer"
	"clubschedule/pkg/validation"
)

type RuleService interface {
	Create(ctx context.Context, rule *model.AvailabilityRule) error
	GetByID(ctx context.Context, id string) (*model.AvailabilityRule, error)
	List(ctx context.Context, location string, limit int, offset int64) ([]*model.AvailabilityRule, int64, error)
	Update(ctx context.Context, id string, updates *model.AvailabilityRuleUpdate) (*model.AvailabilityRule, error)
	Delete(ctx context.Context, id string) error
	Generate(ctx context.Context, id string, req *model.GenerateRequest) (*model.ApplyResult, error)
}

type ruleService struct {
	repo      repository.RuleRepository
	pipeline  *schedules.Pipeline
	validator *validator.RuleValidator
	cfg       *config.Config
}

func NewRuleService(repo repository.RuleRepository, pipeline *schedules.Pipeline, validator *validator.RuleValidator, cfg *config.Config) RuleService {
	return &ruleService{
		repo:      repo,
		pipeline:  pipeline,
		validator: validator,
		cfg:       cfg,
	}
}

func (s *ruleService) Create(ctx context.Context, rule *model.AvailabilityRule) error {
	s.sanitize(rule)
	if err := s.validator.Validate(rule); err != nil {
		s.cfg.Log.Warn("Availability rule validation failed", "name", rule.Name, "location", rule.Location, "error", err)
		return validation.ToAppError(err, "Invalid availability rule")
	}

	if err := s.repo.Create(ctx, rule); err != nil {
		return s.mapError(err, rule.Name, "Failed to create availability rule")
	}

	s.cfg.Log.Info("Availability rule created",
		"id", rule.ID,
		"name", rule.Name,
		"location", rule.Location,
	)
	return nil
}

func (s *ruleService) GetByID(ctx context.Context, id string) (*model.AvailabilityRule, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Rule ID cannot be empty")
	}
	rule, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.mapError(err, id, "Failed to retrieve availability rule")
	}
	return rule, nil
}

func (s *ruleService) List(ctx context.Context, location string, limit int, offset int64) ([]*model.AvailabilityRule, int64, error) {
	location = sanitizer.NormalizeLocation(location)
	limit = config.NormalizePaginationLimit(limit)
	offset = config.NormalizeOffset(offset)

	var count int64
	var rules []*model.AvailabilityRule
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		count, errCount = s.repo.Count(ctx, location)
	}()

	go func() {
		defer wg.Done()
		rules, errFind = s.repo.List(ctx, location, limit, offset)
	}()

	wg.Wait()
	if errCount != nil {
		s.cfg.Log.Error("Failed to count availability rules", "location", location, "error", errCount)
		return nil, 0, apperrors.Internal("Failed to count availability rules", errCount)
	}
	if errFind != nil {
		s.cfg.Log.Error("Failed to list availability rules", "location", location, "error", errFind)
		return nil, 0, apperrors.Internal("Failed to retrieve availability rules", errFind)
	}
	return rules, count, nil
}

func (s *ruleService) Update(ctx context.Context, id string, updates *model.AvailabilityRuleUpdate) (*model.AvailabilityRule, error) {
	existing, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	merged := merge(existing, updates)
	s.sanitize(merged)
	if err := s.validator.Validate(merged); err != nil {
		s.cfg.Log.Warn("Availability rule validation failed", "id", id, "error", err)
		return nil, validation.ToAppError(err, "Invalid availability rule")
	}

	if err := s.repo.Update(ctx, id, merged); err != nil {
		return nil, s.mapError(err, id, "Failed to update availability rule")
	}

	s.cfg.Log.Info("Availability rule updated", "id", id, "name", merged.Name)
	return merged, nil
}

func (s *ruleService) Delete(ctx context.Context, id string) error {
	if id == "" {
		return apperrors.InvalidInput("Rule ID cannot be empty")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return s.mapError(err, id, "Failed to delete availability rule")
	}
	s.cfg.Log.Info("Availability rule deleted", "id", id)
	return nil
}

// Generate expands a stored rule over a date range through the same pipeline
// as schedule batches. Slots it creates point at the rule, not at a batch.
func (s *ruleService) Generate(ctx context.Context, id string, req *model.GenerateRequest) (*model.ApplyResult, error) {
	if req == nil {
		return nil, apperrors.InvalidInput("Generate request cannot be empty")
	}
	rule, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Options.Policy == "" {
		req.Options.Policy = model.ConflictPolicy(s.cfg.DefaultPolicy)
	}
	if req.Options.Policy == "" {
		req.Options.Policy = model.PolicySkip
	}
	if err := s.validator.ValidateGenerate(req); err != nil {
		return nil, validation.ToAppError(err, "Invalid generate request")
	}

	in, err := planInput(rule, req, s.cfg.DefaultTimezone)
	if err != nil {
		return nil, err
	}

	plan, err := s.pipeline.Plan(ctx, in)
	if err != nil {
		return nil, err
	}

	result := s.pipeline.Execute(ctx, plan, req.Options, schedules.Provenance{RuleID: &rule.ID})
	result.RuleID = rule.ID

	s.cfg.Log.Info("Availability rule generated",
		"rule_id", rule.ID,
		"location", rule.Location,
		"valid_from", req.ValidFrom,
		"valid_to", req.ValidTo,
		"policy", req.Options.Policy,
		"status", result.Status,
		"created", result.CreatedCount,
		"skipped", result.SkippedCount,
		"replaced", result.ReplacedCount,
		"failed", result.FailedCount,
	)
	return result, nil
}

func planInput(rule *model.AvailabilityRule, req *model.GenerateRequest, defaultTZ string) (schedules.PlanInput, error) {
	r, err := scheduling.NewDateRange(req.ValidFrom, req.ValidTo)
	if err != nil {
		return schedules.PlanInput{}, apperrors.ValidationField("valid_to", err.Error())
	}
	days, err := scheduling.NewWeekdays(rule.DaysOfWeek)
	if err != nil {
		return schedules.PlanInput{}, apperrors.ValidationField("days_of_week", err.Error())
	}
	start, err := scheduling.ParseTimeOfDay(rule.StartOfDay)
	if err != nil {
		return schedules.PlanInput{}, apperrors.ValidationField("start_of_day", err.Error())
	}
	end, err := scheduling.ParseTimeOfDay(rule.EndOfDay)
	if err != nil {
		return schedules.PlanInput{}, apperrors.ValidationField("end_of_day", err.Error())
	}

	return schedules.PlanInput{
		Location:  rule.Location,
		Range:     r,
		Days:      days,
		BaseStart: start,
		DayEnd:    &end,
		Timezone:  schedulesvalidator.Location(sanitizer.NormalizeTimezone(rule.Timezone, defaultTZ)),
		Template:  rule.Template(),
		Closed:    rule.Exceptions,
	}, nil
}

func (s *ruleService) sanitize(rule *model.AvailabilityRule) {
	rule.Name = sanitizer.NormalizeTitle(rule.Name)
	rule.Location = sanitizer.NormalizeLocation(rule.Location)
	rule.StartOfDay = sanitizer.NormalizeTimeOfDay(rule.StartOfDay)
	rule.EndOfDay = sanitizer.NormalizeTimeOfDay(rule.EndOfDay)
	rule.DaysOfWeek = sanitizer.NormalizeWeekdays(rule.DaysOfWeek)
	rule.Exceptions = sanitizer.NormalizeDates(rule.Exceptions)
	rule.Timezone = sanitizer.NormalizeTimezone(rule.Timezone, s.cfg.DefaultTimezone)
}

func merge(existing *model.AvailabilityRule, updates *model.AvailabilityRuleUpdate) *model.AvailabilityRule {
	merged := *existing
	if updates == nil {
		return &merged
	}
	if updates.Name != "" {
		merged.Name = updates.Name
	}
	if updates.StartOfDay != "" {
		merged.StartOfDay = updates.StartOfDay
	}
	if updates.EndOfDay != "" {
		merged.EndOfDay = updates.EndOfDay
	}
	if len(updates.DaysOfWeek) > 0 {
		merged.DaysOfWeek = updates.DaysOfWeek
	}
	if updates.LessonDurationMin != nil {
		merged.LessonDurationMin = *updates.LessonDurationMin
	}
	if updates.BreakDurationMin != nil {
		merged.BreakDurationMin = *updates.BreakDurationMin
	}
	if updates.MaxCapacity != nil {
		merged.MaxCapacity = *updates.MaxCapacity
	}
	if updates.Joinable != nil {
		merged.Joinable = *updates.Joinable
	}
	if updates.Exceptions != nil {
		merged.Exceptions = *updates.Exceptions
	}
	if updates.Timezone != "" {
		merged.Timezone = updates.Timezone
	}
	return &merged
}

func (s *ruleService) mapError(err error, id, message string) error {
	switch {
	case apperrors.IsAppError(err):
		return err
	case errors.Is(err, ruleserrors.ErrNotFound):
		return apperrors.NotFoundWithID("Availability rule", id)
	case errors.Is(err, ruleserrors.ErrInvalidID):
		return apperrors.InvalidInput(fmt.Sprintf("Invalid rule ID format: %s", id))
	case errors.Is(err, ruleserrors.ErrRuleExists):
		return apperrors.Conflict("An availability rule with this name already exists at this location")
	default:
		s.cfg.Log.Error(message, "id", id, "error", err)
		return apperrors.Internal(message, err)
	}
}
