package service

import (
	"context"
	"errors"
	"sync"
	"time"

	slotserrors "clubschedule/internal/slots/errors"
	"clubschedule/internal/slots/repository"
	"clubschedule/pkg/config"
	apperrors "clubschedule/pkg/errors"
	"clubschedule/pkg/model"
	"clubschedule/pkg/validation"

	"github.com/go-playground/validator/v10"
)

// Recomputer re-derives a slot's status and lock from its bookings.
type Recomputer interface {
	RecomputeSlot(ctx context.Context, slotID string) (*model.Slot, error)
}

type ListQuery struct {
	Location string
	From     *time.Time
	To       *time.Time
	Status   model.SlotStatus
	Limit    int
	Offset   int64
}

type SlotService interface {
	GetByID(ctx context.Context, id string) (*model.Slot, error)
	List(ctx context.Context, q ListQuery) ([]*model.Slot, int64, error)
	SetStatus(ctx context.Context, id string, update *model.SlotStatusUpdate) (*model.Slot, error)
	Recompute(ctx context.Context, id string) (*model.Slot, error)
}

type slotService struct {
	repo       repository.SlotRepository
	recomputer Recomputer
	validate   *validator.Validate
	cfg        *config.Config
}

func NewSlotService(repo repository.SlotRepository, recomputer Recomputer, cfg *config.Config) SlotService {
	return &slotService{
		repo:       repo,
		recomputer: recomputer,
		validate:   validation.New(cfg.Log),
		cfg:        cfg,
	}
}

func (s *slotService) GetByID(ctx context.Context, id string) (*model.Slot, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Slot ID cannot be empty")
	}

	slot, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, MapError(err, id, "Failed to retrieve slot")
	}
	return slot, nil
}

func (s *slotService) List(ctx context.Context, q ListQuery) ([]*model.Slot, int64, error) {
	if q.From != nil && q.To != nil && !q.From.Before(*q.To) {
		return nil, 0, apperrors.InvalidInput("'to' must be after 'from'")
	}
	filter := repository.SlotFilter{
		Location: q.Location,
		From:     q.From,
		To:       q.To,
		Status:   q.Status,
	}
	limit := config.NormalizePaginationLimit(q.Limit)
	offset := config.NormalizeOffset(q.Offset)

	var count int64
	var slots []*model.Slot
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		count, errCount = s.repo.Count(ctx, filter)
		if errCount != nil {
			s.cfg.Log.Error("Failed to count slots", "location", q.Location, "error", errCount)
			errCount = apperrors.Internal("Failed to count slots", errCount)
		}
	}()

	go func() {
		defer wg.Done()
		slots, errFind = s.repo.List(ctx, filter, limit, offset)
		if errFind != nil {
			s.cfg.Log.Error("Failed to list slots", "location", q.Location, "error", errFind)
			errFind = apperrors.Internal("Failed to retrieve slots", errFind)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	return slots, count, nil
}

// SetStatus applies an administrative override. Cancelled and closed stick
// until an admin sets open again, which hands the slot back to its bookings.
func (s *slotService) SetStatus(ctx context.Context, id string, update *model.SlotStatusUpdate) (*model.Slot, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Slot ID cannot be empty")
	}
	if err := validation.Struct(s.validate, update); err != nil {
		s.cfg.Log.Warn("Slot status validation failed", "id", id, "error", err)
		return nil, validation.ToAppError(err, "Invalid slot status")
	}

	slot, err := s.repo.UpdateStatus(ctx, id, update.Status)
	if err != nil {
		return nil, MapError(err, id, "Failed to update slot status")
	}
	s.cfg.Log.Info("Slot status overridden", "id", id, "status", update.Status)

	if update.Status != model.SlotOpen {
		return slot, nil
	}

	recomputed, err := s.recomputer.RecomputeSlot(ctx, id)
	if err != nil {
		s.cfg.Log.Warn("Slot reopened but recompute failed", "id", id, "error", err)
		return slot, nil
	}
	return recomputed, nil
}

func (s *slotService) Recompute(ctx context.Context, id string) (*model.Slot, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Slot ID cannot be empty")
	}
	return s.recomputer.RecomputeSlot(ctx, id)
}

// MapError converts repository errors into AppErrors.
func MapError(err error, id, message string) error {
	switch {
	case apperrors.IsAppError(err):
		return err
	case errors.Is(err, slotserrors.ErrNotFound):
		return apperrors.NotFoundWithID("Slot", id)
	case errors.Is(err, slotserrors.ErrInvalidID):
		return apperrors.InvalidInput("Invalid slot ID format")
	case errors.Is(err, slotserrors.ErrVersionConflict):
		return apperrors.Conflict("Slot was modified concurrently, retry the request")
	case errors.Is(err, slotserrors.ErrInvalidWindow):
		return apperrors.InvalidInput("Window end must be after start")
	default:
		return apperrors.Internal(message, err)
	}
}
