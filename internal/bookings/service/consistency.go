package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	bookingserrors "clubschedule/internal/bookings/errors"
	"clubschedule/internal/bookings/repository"
	"clubschedule/internal/bookings/validator"
	"clubschedule/internal/scheduling"
	slotserrors "clubschedule/internal/slots/errors"
	slotsrepo "clubschedule/internal/slots/repository"
	"clubschedule/pkg/config"
	apperrors "clubschedule/pkg/errors"
	"clubschedule/pkg/model"
	"clubschedule/pkg/validation"

	"golang.org/x/sync/errgroup"
)

const (
	reconcilePageSize    = 500
	reconcileConcurrency = 8
)

// ConsistencyManager keeps each slot's status and lock in step with its
// bookings. It runs after the booking procedure has committed, and every
// write is a projection of the full booking set, never an increment.
type ConsistencyManager interface {
	HandleEvent(ctx context.Context, event *model.BookingEvent) (*model.Slot, error)
	OnBookingCreated(ctx context.Context, booking *model.Booking) (*model.Slot, error)
	OnBookingCancelled(ctx context.Context, booking *model.Booking) (*model.Slot, error)
	RecomputeSlot(ctx context.Context, slotID string) (*model.Slot, error)
	Reconcile(ctx context.Context, from, to time.Time) (*model.ReconcileResult, error)
}

type consistencyManager struct {
	bookings  repository.BookingRepository
	slots     slotsrepo.SlotRepository
	validator *validator.EventValidator
	cfg       *config.Config
}

func NewConsistencyManager(
	bookings repository.BookingRepository,
	slots slotsrepo.SlotRepository,
	validator *validator.EventValidator,
	cfg *config.Config,
) ConsistencyManager {
	return &consistencyManager{
		bookings:  bookings,
		slots:     slots,
		validator: validator,
		cfg:       cfg,
	}
}

func (m *consistencyManager) HandleEvent(ctx context.Context, event *model.BookingEvent) (*model.Slot, error) {
	if event == nil {
		return nil, apperrors.InvalidInput("Booking event cannot be empty")
	}
	if err := m.validator.Validate(event); err != nil {
		m.cfg.Log.Warn("Booking event validation failed", "event_type", event.EventType, "error", err)
		return nil, validation.ToAppError(err, "Invalid booking event")
	}

	switch event.EventType {
	case model.EventBookingCreated:
		return m.OnBookingCreated(ctx, event.Booking)
	default:
		return m.OnBookingCancelled(ctx, event.Booking)
	}
}

// OnBookingCreated projects the slot once the new booking is visible.
func (m *consistencyManager) OnBookingCreated(ctx context.Context, booking *model.Booking) (*model.Slot, error) {
	slot, err := m.recompute(ctx, booking.SlotID, func(bookings []*model.Booking) error {
		if find(bookings, booking.ID) == nil {
			return bookingserrors.ErrStaleRead
		}
		return nil
	})
	if err != nil {
		m.logFailure("created", booking, err)
		return nil, mapError(err, booking.SlotID)
	}

	m.cfg.Log.Info("Slot projected after booking created",
		"slot_id", slot.ID,
		"booking_id", booking.ID,
		"status", slot.Status,
		"locked_by", slot.LockedBy(),
	)
	return slot, nil
}

// OnBookingCancelled projects the slot once the cancellation is visible.
// Cancelling the same booking twice converges on the same slot fields.
func (m *consistencyManager) OnBookingCancelled(ctx context.Context, booking *model.Booking) (*model.Slot, error) {
	slot, err := m.recompute(ctx, booking.SlotID, func(bookings []*model.Booking) error {
		if b := find(bookings, booking.ID); b != nil && b.IsActive() {
			return bookingserrors.ErrStaleRead
		}
		return nil
	})
	if err != nil {
		m.logFailure("cancelled", booking, err)
		return nil, mapError(err, booking.SlotID)
	}

	m.cfg.Log.Info("Slot projected after booking cancelled",
		"slot_id", slot.ID,
		"booking_id", booking.ID,
		"status", slot.Status,
		"locked_by", slot.LockedBy(),
	)
	return slot, nil
}

func (m *consistencyManager) RecomputeSlot(ctx context.Context, slotID string) (*model.Slot, error) {
	if slotID == "" {
		return nil, apperrors.InvalidInput("Slot ID cannot be empty")
	}
	slot, err := m.recompute(ctx, slotID, nil)
	if err != nil {
		m.cfg.Log.Warn("Slot recompute failed", "slot_id", slotID, "error", err)
		return nil, mapError(err, slotID)
	}
	return slot, nil
}

// recompute reads the slot and its bookings, projects, and writes with a
// version check. A concurrent writer forces a fresh read and another
// projection, up to RecomputeMaxAttempts. check rejects a booking read that
// does not yet show the triggering write.
func (m *consistencyManager) recompute(ctx context.Context, slotID string, check func([]*model.Booking) error) (*model.Slot, error) {
	attempts := max(1, m.cfg.RecomputeMaxAttempts)

	for attempt := 1; ; attempt++ {
		slot, err := m.slots.FindByID(ctx, slotID)
		if err != nil {
			return nil, err
		}
		bookings, err := m.bookings.ListBySlot(ctx, slotID)
		if err != nil {
			return nil, err
		}
		if check != nil {
			if err := check(bookings); err != nil {
				return nil, err
			}
		}

		p := scheduling.Project(slot, bookings)
		if p.Matches(slot) {
			return slot, nil
		}

		err = m.slots.UpdateProjection(ctx, slot, p.Status, p.LockedBy)
		if err == nil {
			return slot, nil
		}
		if !errors.Is(err, slotserrors.ErrVersionConflict) || attempt >= attempts {
			return nil, err
		}
		m.cfg.Log.Debug("Slot version moved, reprojecting", "slot_id", slotID, "attempt", attempt)
	}
}

// Reconcile re-projects every slot overlapping [from, to). A failed slot is
// counted and the run carries on.
func (m *consistencyManager) Reconcile(ctx context.Context, from, to time.Time) (*model.ReconcileResult, error) {
	if !from.Before(to) {
		return nil, apperrors.InvalidInput("Reconcile window end must be after start")
	}
	result := &model.ReconcileResult{From: from, To: to}
	filter := slotsrepo.SlotFilter{From: &from, To: &to}

	var repaired, failed atomic.Int64
	var offset int64
	for {
		page, err := m.slots.List(ctx, filter, reconcilePageSize, offset)
		if err != nil {
			return nil, apperrors.Internal("Failed to list slots for reconciliation", err)
		}
		if len(page) == 0 {
			break
		}
		result.Scanned += len(page)

		ids := make([]string, 0, len(page))
		for _, s := range page {
			ids = append(ids, s.ID)
		}
		bookings, err := m.bookings.ListBySlots(ctx, ids)
		if err != nil {
			return nil, apperrors.Internal("Failed to list bookings for reconciliation", err)
		}
		bySlot := make(map[string][]*model.Booking, len(page))
		for _, b := range bookings {
			bySlot[b.SlotID] = append(bySlot[b.SlotID], b)
		}

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(reconcileConcurrency)
		for _, slot := range page {
			g.Go(func() error {
				changed, err := m.repair(gctx, slot, bySlot[slot.ID])
				switch {
				case err != nil:
					failed.Add(1)
					m.cfg.Log.Warn("Reconcile failed for slot", "slot_id", slot.ID, "error", err)
				case changed:
					repaired.Add(1)
				}
				return nil
			})
		}
		_ = g.Wait()

		if err := ctx.Err(); err != nil {
			return nil, apperrors.Timeout("Reconciliation interrupted")
		}
		if len(page) < reconcilePageSize {
			break
		}
		offset += int64(len(page))
	}

	result.Repaired = int(repaired.Load())
	result.Failed = int(failed.Load())
	m.cfg.Log.Info("Reconciliation finished",
		"from", from,
		"to", to,
		"scanned", result.Scanned,
		"repaired", result.Repaired,
		"failed", result.Failed,
	)
	return result, nil
}

// repair projects a slot from a page-level booking read and falls back to a
// full recompute when the slot moved underneath it.
func (m *consistencyManager) repair(ctx context.Context, slot *model.Slot, bookings []*model.Booking) (bool, error) {
	p := scheduling.Project(slot, bookings)
	if p.Matches(slot) {
		return false, nil
	}
	err := m.slots.UpdateProjection(ctx, slot, p.Status, p.LockedBy)
	if err == nil {
		return true, nil
	}
	if !errors.Is(err, slotserrors.ErrVersionConflict) {
		return false, err
	}
	if _, err := m.recompute(ctx, slot.ID, nil); err != nil {
		return false, err
	}
	return true, nil
}

func (m *consistencyManager) logFailure(event string, booking *model.Booking, err error) {
	if errors.Is(err, bookingserrors.ErrStaleRead) {
		m.cfg.Log.Warn("Booking read is stale, event will be retried",
			"event", event,
			"booking_id", booking.ID,
			"slot_id", booking.SlotID,
		)
		return
	}
	m.cfg.Log.Error("Slot recompute failed",
		"event", event,
		"booking_id", booking.ID,
		"slot_id", booking.SlotID,
		"error", err,
	)
}

func find(bookings []*model.Booking, id string) *model.Booking {
	for _, b := range bookings {
		if b.ID == id {
			return b
		}
	}
	return nil
}

func mapError(err error, slotID string) error {
	switch {
	case apperrors.IsAppError(err):
		return err
	case errors.Is(err, slotserrors.ErrNotFound):
		return apperrors.NotFoundWithID("Slot", slotID)
	case errors.Is(err, slotserrors.ErrInvalidID), errors.Is(err, bookingserrors.ErrInvalidID):
		return apperrors.InvalidInput("Invalid slot ID format")
	case errors.Is(err, slotserrors.ErrVersionConflict):
		return apperrors.Conflict("Slot kept changing during recompute, retry the event")
	case errors.Is(err, bookingserrors.ErrStaleRead):
		return apperrors.Wrap(err, apperrors.CodeUnavailable, "Booking not yet visible, retry the event", http.StatusServiceUnavailable)
	default:
		return apperrors.Internal("Failed to recompute slot", fmt.Errorf("slot %s: %w", slotID, err))
	}
}
