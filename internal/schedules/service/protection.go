package service

import (
	"context"
	"fmt"
	"sort"

	"clubschedule/internal/schedules/validator"
	"clubschedule/internal/scheduling"
	apperrors "clubschedule/pkg/errors"
	"clubschedule/pkg/model"
	"clubschedule/pkg/sanitizer"
	"clubschedule/pkg/validation"

	"golang.org/x/sync/errgroup"
)

const (
	protectionChunkSize   = 200
	protectionConcurrency = 4
)

// CheckBookingProtection reports which bookings in a window would stop a
// replace. Pending and confirmed bookings both protect their slot.
func (s *scheduleService) CheckBookingProtection(ctx context.Context, filter *model.ProtectionFilter) (*model.ProtectionReport, error) {
	if filter == nil {
		return nil, apperrors.InvalidInput("Protection filter cannot be empty")
	}
	filter.Location = sanitizer.NormalizeLocation(filter.Location)
	filter.Timezone = sanitizer.NormalizeTimezone(filter.Timezone, s.cfg.DefaultTimezone)
	if err := s.validator.ValidateProtection(filter); err != nil {
		return nil, validation.ToAppError(err, "Invalid protection filter")
	}

	r, err := scheduling.NewDateRange(filter.From, filter.To)
	if err != nil {
		return nil, apperrors.ValidationField("to", err.Error())
	}
	window := r.Window(validator.Location(filter.Timezone))

	slots, err := s.pipeline.slots.FindInWindow(ctx, filter.Location, window.Start, window.End)
	if err != nil {
		s.cfg.Log.Error("Failed to load slots for protection check", "location", filter.Location, "error", err)
		return nil, apperrors.Internal("Failed to load slots", err)
	}

	bookings, err := s.bookingsFor(ctx, slots)
	if err != nil {
		s.cfg.Log.Error("Failed to load bookings for protection check", "location", filter.Location, "error", err)
		return nil, apperrors.Internal("Failed to load bookings", err)
	}

	report := buildProtectionReport(slots, bookings)
	s.cfg.Log.Info("Booking protection checked",
		"location", filter.Location,
		"from", filter.From,
		"to", filter.To,
		"protected_slots", report.ProtectedSlots,
		"free_slots", report.FreeSlots,
	)
	return report, nil
}

// bookingsFor reads bookings for the slots in chunks, several chunks at a time.
func (s *scheduleService) bookingsFor(ctx context.Context, slots []*model.Slot) ([]*model.Booking, error) {
	ids := make([]string, 0, len(slots))
	for _, slot := range slots {
		ids = append(ids, slot.ID)
	}

	var chunks [][]string
	for start := 0; start < len(ids); start += protectionChunkSize {
		chunks = append(chunks, ids[start:min(start+protectionChunkSize, len(ids))])
	}

	results := make([][]*model.Booking, len(chunks))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(protectionConcurrency)
	for i, chunk := range chunks {
		g.Go(func() error {
			bookings, err := s.pipeline.bookings.ListBySlots(gctx, chunk)
			if err != nil {
				return err
			}
			results[i] = bookings
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var all []*model.Booking
	for _, r := range results {
		all = append(all, r...)
	}
	return all, nil
}

func buildProtectionReport(slots []*model.Slot, bookings []*model.Booking) *model.ProtectionReport {
	byID := make(map[string]*model.Slot, len(slots))
	for _, slot := range slots {
		byID[slot.ID] = slot
	}

	report := &model.ProtectionReport{
		ProtectedBookings:  []model.ProtectedBooking{},
		ModifiableBookings: []model.ProtectedBooking{},
	}
	protectedSlots := make(map[string]struct{})
	users := make(map[string]struct{})
	pending := 0

	for _, b := range bookings {
		slot, ok := byID[b.SlotID]
		if !ok {
			continue
		}
		entry := model.ProtectedBooking{
			BookingID: b.ID,
			SlotID:    b.SlotID,
			UserID:    b.UserID,
			GroupSize: b.GroupSize,
			Status:    b.Status,
			StartAt:   slot.StartAt,
			EndAt:     slot.EndAt,
		}
		if !b.IsActive() {
			report.ModifiableBookings = append(report.ModifiableBookings, entry)
			continue
		}
		report.ProtectedBookings = append(report.ProtectedBookings, entry)
		protectedSlots[b.SlotID] = struct{}{}
		users[b.UserID] = struct{}{}
		if b.Status == model.BookingPending {
			pending++
		}
	}

	sortBookings(report.ProtectedBookings)
	sortBookings(report.ModifiableBookings)
	report.ProtectedSlots = len(protectedSlots)
	report.FreeSlots = len(slots) - report.ProtectedSlots
	report.Recommendations = recommendations(len(slots), report.ProtectedSlots, report.FreeSlots, len(users), pending)
	return report
}

func sortBookings(list []model.ProtectedBooking) {
	sort.Slice(list, func(i, j int) bool {
		if list[i].StartAt.Equal(list[j].StartAt) {
			return list[i].BookingID < list[j].BookingID
		}
		return list[i].StartAt.Before(list[j].StartAt)
	})
}

func recommendations(total, protected, free, users, pending int) []string {
	if total == 0 {
		return []string{"No slots exist in this window; any policy creates the full schedule."}
	}
	var out []string
	if protected > 0 {
		out = append(out, fmt.Sprintf(
			"%d slot(s) hold active bookings and are kept by every policy. Contact the %d affected member(s) before moving them.",
			protected, users))
	}
	if pending > 0 {
		out = append(out, fmt.Sprintf(
			"%d pending booking(s) protect their slots the same as confirmed ones.", pending))
	}
	if free > 0 {
		out = append(out, fmt.Sprintf(
			"%d slot(s) have no active bookings and can be rebuilt with policy replace and force.", free))
	}
	if protected == 0 {
		out = append(out, "No active bookings in this window; a forced replace is safe.")
	}
	return out
}
