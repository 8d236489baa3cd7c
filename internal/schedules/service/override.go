package service

import (
	"context"

	"clubschedule/internal/schedules/repository"
	"clubschedule/internal/schedules/validator"
	"clubschedule/pkg/config"
	apperrors "clubschedule/pkg/errors"
	"clubschedule/pkg/model"
	"clubschedule/pkg/sanitizer"
	"clubschedule/pkg/validation"
)

// OverrideService manages the closed dates every expansion skips.
type OverrideService interface {
	Create(ctx context.Context, override *model.AvailabilityOverride) error
	List(ctx context.Context, location, from, to string) ([]*model.AvailabilityOverride, error)
	Delete(ctx context.Context, id string) error
}

type overrideService struct {
	repo      repository.OverrideRepository
	validator *validator.ScheduleValidator
	cfg       *config.Config
}

func NewOverrideService(repo repository.OverrideRepository, validator *validator.ScheduleValidator, cfg *config.Config) OverrideService {
	return &overrideService{
		repo:      repo,
		validator: validator,
		cfg:       cfg,
	}
}

func (s *overrideService) Create(ctx context.Context, override *model.AvailabilityOverride) error {
	override.Location = sanitizer.NormalizeLocation(override.Location)
	override.Reason = sanitizer.NormalizeTitle(override.Reason)
	if override.Kind == "" {
		override.Kind = model.OverrideClosed
	}
	if err := s.validator.ValidateOverride(override); err != nil {
		s.cfg.Log.Warn("Override validation failed", "location", override.Location, "date", override.Date, "error", err)
		return validation.ToAppError(err, "Invalid availability override")
	}

	if err := s.repo.Create(ctx, override); err != nil {
		return mapError(err, override.Date, "Failed to create availability override")
	}

	s.cfg.Log.Info("Availability override created",
		"id", override.ID,
		"location", override.Location,
		"date", override.Date,
		"kind", override.Kind,
	)
	return nil
}

func (s *overrideService) List(ctx context.Context, location, from, to string) ([]*model.AvailabilityOverride, error) {
	overrides, err := s.repo.List(ctx, sanitizer.NormalizeLocation(location), from, to)
	if err != nil {
		s.cfg.Log.Error("Failed to list overrides", "location", location, "error", err)
		return nil, apperrors.Internal("Failed to retrieve availability overrides", err)
	}
	return overrides, nil
}

func (s *overrideService) Delete(ctx context.Context, id string) error {
	if id == "" {
		return apperrors.InvalidInput("Override ID cannot be empty")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return mapError(err, id, "Failed to delete availability override")
	}
	s.cfg.Log.Info("Availability override deleted", "id", id)
	return nil
}
