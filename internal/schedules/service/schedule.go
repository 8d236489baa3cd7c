package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"clubschedule/internal/access"
	"clubschedule/internal/events"
	scheduleserrors "clubschedule/internal/schedules/errors"
	"clubschedule/internal/schedules/repository"
	"clubschedule/internal/schedules/validator"
	"clubschedule/internal/scheduling"
	"clubschedule/pkg/config"
	apperrors "clubschedule/pkg/errors"
	"clubschedule/pkg/model"
	"clubschedule/pkg/sanitizer"
	"clubschedule/pkg/validation"
)

const publishTimeout = 5 * time.Second

type ScheduleService interface {
	ApplySchedule(ctx context.Context, spec *model.BatchSpec) (*model.ApplyResult, error)
	CheckScheduleConflicts(ctx context.Context, spec *model.BatchSpec) (*model.ConflictCheck, error)
	CheckBookingProtection(ctx context.Context, filter *model.ProtectionFilter) (*model.ProtectionReport, error)
	GetBatch(ctx context.Context, id string) (*model.ScheduleBatch, error)
	ListBatches(ctx context.Context, location string, limit int, offset int64) ([]*model.ScheduleBatch, int64, error)
}

type scheduleService struct {
	pipeline  *Pipeline
	batches   repository.BatchRepository
	publisher events.SchedulePublisher
	validator *validator.ScheduleValidator
	cfg       *config.Config
}

func NewScheduleService(
	pipeline *Pipeline,
	batches repository.BatchRepository,
	publisher events.SchedulePublisher,
	validator *validator.ScheduleValidator,
	cfg *config.Config,
) ScheduleService {
	return &scheduleService{
		pipeline:  pipeline,
		batches:   batches,
		publisher: publisher,
		validator: validator,
		cfg:       cfg,
	}
}

// ApplySchedule records the batch first so every slot it creates can point
// at it, then writes the plan and stores the final counts on the batch.
func (s *scheduleService) ApplySchedule(ctx context.Context, spec *model.BatchSpec) (*model.ApplyResult, error) {
	in, err := s.prepare(spec)
	if err != nil {
		return nil, err
	}

	plan, err := s.pipeline.Plan(ctx, in)
	if err != nil {
		return nil, err
	}

	batch := &model.ScheduleBatch{
		Title:         spec.Title,
		ValidFrom:     spec.ValidFrom,
		ValidTo:       spec.ValidTo,
		DaysOfWeek:    spec.DaysOfWeek,
		BaseTimeStart: spec.BaseTimeStart,
		Location:      spec.Location,
		Timezone:      spec.Timezone,
		Template:      spec.Template,
		Options:       spec.Options,
		Status:        model.BatchApplying,
		CreatedBy:     access.CallerID(ctx),
	}
	if err := s.batches.Create(ctx, batch); err != nil {
		s.cfg.Log.Error("Failed to record schedule batch", "location", spec.Location, "error", err)
		return nil, apperrors.Internal("Failed to record schedule batch", err)
	}

	result := s.pipeline.Execute(ctx, plan, spec.Options, Provenance{BatchID: &batch.ID})
	result.BatchID = batch.ID

	if err := s.batches.Finish(ctx, batch.ID, result); err != nil {
		s.cfg.Log.Error("Failed to store batch outcome", "batch_id", batch.ID, "error", err)
	}

	s.cfg.Log.Info("Schedule applied",
		"batch_id", batch.ID,
		"location", spec.Location,
		"policy", spec.Options.Policy,
		"force", spec.Options.Force,
		"status", result.Status,
		"created", result.CreatedCount,
		"skipped", result.SkippedCount,
		"replaced", result.ReplacedCount,
		"failed", result.FailedCount,
	)

	s.publish(ctx, batch, result)
	return result, nil
}

func (s *scheduleService) CheckScheduleConflicts(ctx context.Context, spec *model.BatchSpec) (*model.ConflictCheck, error) {
	in, err := s.prepare(spec)
	if err != nil {
		return nil, err
	}

	plan, err := s.pipeline.Plan(ctx, in)
	if err != nil {
		return nil, err
	}

	decisions := scheduling.Resolve(plan.Conflicts, spec.Options, plan.Booked)
	preview := scheduling.NewPreview(plan.Expansion, plan.Conflicts)
	return &model.ConflictCheck{
		Preview:       preview,
		SlotConflicts: scheduling.ConflictReport(decisions, plan.Booked),
		CanProceed:    preview.ConflictCount == 0,
	}, nil
}

func (s *scheduleService) GetBatch(ctx context.Context, id string) (*model.ScheduleBatch, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Batch ID cannot be empty")
	}

	batch, err := s.batches.FindByID(ctx, id)
	if err != nil {
		return nil, mapError(err, id, "Failed to retrieve schedule batch")
	}
	return batch, nil
}

func (s *scheduleService) ListBatches(ctx context.Context, location string, limit int, offset int64) ([]*model.ScheduleBatch, int64, error) {
	location = sanitizer.NormalizeLocation(location)
	limit = config.NormalizePaginationLimit(limit)
	offset = config.NormalizeOffset(offset)

	var count int64
	var batches []*model.ScheduleBatch
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		count, errCount = s.batches.Count(ctx, location)
		if errCount != nil {
			s.cfg.Log.Error("Failed to count schedule batches", "location", location, "error", errCount)
			errCount = apperrors.Internal("Failed to count schedule batches", errCount)
		}
	}()

	go func() {
		defer wg.Done()
		batches, errFind = s.batches.List(ctx, location, limit, offset)
		if errFind != nil {
			s.cfg.Log.Error("Failed to list schedule batches", "location", location, "error", errFind)
			errFind = apperrors.Internal("Failed to retrieve schedule batches", errFind)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}
	return batches, count, nil
}

// prepare normalises and validates a spec in place and turns it into a plan input.
func (s *scheduleService) prepare(spec *model.BatchSpec) (PlanInput, error) {
	if spec == nil {
		return PlanInput{}, apperrors.InvalidInput("Schedule batch cannot be empty")
	}
	s.sanitize(spec)
	s.applyDefaults(spec)
	if err := s.validator.ValidateSpec(spec); err != nil {
		s.cfg.Log.Warn("Schedule validation failed", "location", spec.Location, "error", err)
		return PlanInput{}, validation.ToAppError(err, "Invalid schedule batch")
	}

	r, err := scheduling.NewDateRange(spec.ValidFrom, spec.ValidTo)
	if err != nil {
		return PlanInput{}, apperrors.ValidationField("valid_to", err.Error())
	}
	days, err := scheduling.NewWeekdays(spec.DaysOfWeek)
	if err != nil {
		return PlanInput{}, apperrors.ValidationField("days_of_week", err.Error())
	}
	base, err := scheduling.ParseTimeOfDay(spec.BaseTimeStart)
	if err != nil {
		return PlanInput{}, apperrors.ValidationField("base_time_start", err.Error())
	}

	return PlanInput{
		Location:  spec.Location,
		Range:     r,
		Days:      days,
		BaseStart: base,
		Timezone:  validator.Location(spec.Timezone),
		Template:  spec.Template,
	}, nil
}

func (s *scheduleService) sanitize(spec *model.BatchSpec) {
	spec.Title = sanitizer.NormalizeTitle(spec.Title)
	spec.Location = sanitizer.NormalizeLocation(spec.Location)
	spec.BaseTimeStart = sanitizer.NormalizeTimeOfDay(spec.BaseTimeStart)
	spec.Timezone = sanitizer.NormalizeTimezone(spec.Timezone, s.cfg.DefaultTimezone)
	spec.DaysOfWeek = sanitizer.NormalizeWeekdays(spec.DaysOfWeek)
}

func (s *scheduleService) applyDefaults(spec *model.BatchSpec) {
	if spec.Options.Policy == "" {
		spec.Options.Policy = model.ConflictPolicy(s.cfg.DefaultPolicy)
	}
	if spec.Options.Policy == "" {
		spec.Options.Policy = model.PolicySkip
	}
	if spec.Template.Defaults.MaxCapacity == 0 {
		spec.Template.Defaults.MaxCapacity = s.cfg.DefaultSlotCapacity
	}
}

// publish is best effort: the batch is already committed.
func (s *scheduleService) publish(ctx context.Context, batch *model.ScheduleBatch, result *model.ApplyResult) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	err := s.publisher.PublishApplied(ctx, &model.ScheduleAppliedEvent{
		BatchID:       batch.ID,
		Location:      batch.Location,
		ValidFrom:     batch.ValidFrom,
		ValidTo:       batch.ValidTo,
		Status:        result.Status,
		CreatedCount:  result.CreatedCount,
		SkippedCount:  result.SkippedCount,
		ReplacedCount: result.ReplacedCount,
		FailedCount:   result.FailedCount,
		AppliedAt:     time.Now().UTC(),
	})
	if err != nil {
		s.cfg.Log.Warn("Failed to publish schedule event", "batch_id", batch.ID, "error", err)
	}
}

func mapError(err error, id, message string) error {
	switch {
	case apperrors.IsAppError(err):
		return err
	case errors.Is(err, scheduleserrors.ErrNotFound):
		return apperrors.NotFoundWithID("Schedule batch", id)
	case errors.Is(err, scheduleserrors.ErrOverrideNotFound):
		return apperrors.NotFoundWithID("Availability override", id)
	case errors.Is(err, scheduleserrors.ErrInvalidID):
		return apperrors.InvalidInput(fmt.Sprintf("Invalid ID format: %s", id))
	case errors.Is(err, scheduleserrors.ErrOverrideExists):
		return apperrors.Conflict("An override already exists for this location and date")
	default:
		return apperrors.Internal(message, err)
	}
}
