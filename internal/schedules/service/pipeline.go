package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"clubschedule/internal/schedules/repository"
	"clubschedule/internal/scheduling"
	slotserrors "clubschedule/internal/slots/errors"
	slotsrepo "clubschedule/internal/slots/repository"
	"clubschedule/pkg/config"
	apperrors "clubschedule/pkg/errors"
	"clubschedule/pkg/model"

	"go.mongodb.org/mongo-driver/mongo"
)

// BookingReader is the read side of the bookings store the pipeline needs.
type BookingReader interface {
	ListBySlots(ctx context.Context, slotIDs []string) ([]*model.Booking, error)
	ActiveSlotIDs(ctx context.Context, slotIDs []string) (map[string]bool, error)
}

// PlanInput describes one expansion. Both batch templates and availability
// rules are reduced to this form.
type PlanInput struct {
	Location  string
	Range     scheduling.DateRange
	Days      scheduling.Weekdays
	BaseStart scheduling.TimeOfDay
	DayEnd    *scheduling.TimeOfDay
	Timezone  *time.Location
	Template  model.ScheduleTemplate
	// Closed adds dates on top of the location's overrides.
	Closed []string
}

// Plan is an expansion annotated with conflicts. Building one never writes.
type Plan struct {
	Location  string
	Expansion *scheduling.Expansion
	Conflicts []scheduling.Conflict
	Booked    scheduling.BookedSlots
}

// Provenance is stamped on every slot an apply creates.
type Provenance struct {
	BatchID *string
	RuleID  *string
}

// Pipeline expands, detects conflicts, resolves them by policy and writes
// the outcome. It is shared by schedule batches and availability rules.
type Pipeline struct {
	slots     slotsrepo.SlotRepository
	bookings  BookingReader
	overrides repository.OverrideRepository
	cfg       *config.Config
}

func NewPipeline(
	slots slotsrepo.SlotRepository,
	bookings BookingReader,
	overrides repository.OverrideRepository,
	cfg *config.Config,
) *Pipeline {
	return &Pipeline{
		slots:     slots,
		bookings:  bookings,
		overrides: overrides,
		cfg:       cfg,
	}
}

func (p *Pipeline) Plan(ctx context.Context, in PlanInput) (*Plan, error) {
	from := in.Range.From.Format(scheduling.DateLayout)
	to := in.Range.To.Format(scheduling.DateLayout)

	closedDates, err := p.overrides.ClosedDates(ctx, in.Location, from, to)
	if err != nil {
		p.cfg.Log.Error("Failed to load overrides", "location", in.Location, "error", err)
		return nil, apperrors.Internal("Failed to load availability overrides", err)
	}
	closed := scheduling.NewClosedDates(closedDates...)
	for _, d := range in.Closed {
		closed.Add(d)
	}

	exp, err := scheduling.Expand(scheduling.ExpandInput{
		Template:  in.Template,
		Range:     in.Range,
		Days:      in.Days,
		BaseStart: in.BaseStart,
		Location:  in.Timezone,
		Closed:    closed,
		DayEnd:    in.DayEnd,
	})
	if err != nil {
		return nil, apperrors.ValidationField("template", err.Error())
	}

	plan := &Plan{Location: in.Location, Expansion: exp, Booked: scheduling.BookedSlots{}}
	if len(exp.Candidates) == 0 {
		return plan, nil
	}

	window := candidateWindow(in.Range.Window(in.Timezone), exp.Candidates)
	existing, err := p.slots.FindInWindow(ctx, in.Location, window.Start, window.End)
	if err != nil {
		p.cfg.Log.Error("Failed to load existing slots", "location", in.Location, "error", err)
		return nil, apperrors.Internal("Failed to load existing slots", err)
	}
	plan.Conflicts = scheduling.Detect(exp.Candidates, existing)

	overlapping := overlappingIDs(plan.Conflicts)
	if len(overlapping) > 0 {
		active, err := p.bookings.ActiveSlotIDs(ctx, overlapping)
		if err != nil {
			p.cfg.Log.Error("Failed to load bookings on conflicting slots", "location", in.Location, "error", err)
			return nil, apperrors.Internal("Failed to check bookings on conflicting slots", err)
		}
		plan.Booked = scheduling.BookedSlots(active)
	}
	return plan, nil
}

// Execute writes a plan. Storage failures are counted rather than returned,
// and nothing already written is rolled back.
func (p *Pipeline) Execute(ctx context.Context, plan *Plan, opts model.ApplyOptions, prov Provenance) *model.ApplyResult {
	decisions := scheduling.Resolve(plan.Conflicts, opts, plan.Booked)
	result := &model.ApplyResult{}

	var creates []*model.Slot
	for i, d := range decisions {
		switch d.Action {
		case scheduling.ActionCreate:
			creates = append(creates, newSlot(plan.Location, d.Conflict.Candidate, prov))
		case scheduling.ActionSkip:
			result.SkippedCount++
		case scheduling.ActionReplace:
			protected, err := p.replace(ctx, d, newSlot(plan.Location, d.Conflict.Candidate, prov))
			switch {
			case err == nil:
				result.ReplacedCount++
			case errors.Is(err, slotserrors.ErrSlotProtected):
				result.SkippedCount++
				decisions[i].Action, decisions[i].Reason = scheduling.ActionSkip, scheduling.ReasonProtectedBooking
				for id := range protected {
					plan.Booked[id] = true
				}
				p.cfg.Log.Info("Replace downgraded to skip, slot was booked meanwhile",
					"location", plan.Location,
					"date", d.Conflict.Candidate.Date,
					"slot_ids", d.Delete,
				)
			default:
				result.FailedCount++
				p.cfg.Log.Error("Failed to replace slot",
					"location", plan.Location,
					"date", d.Conflict.Candidate.Date,
					"slot_ids", d.Delete,
					"error", err,
				)
			}
		}
	}

	if len(creates) > 0 {
		inserted, err := p.slots.InsertMany(ctx, creates)
		result.CreatedCount = inserted
		result.FailedCount += len(creates) - inserted
		if err != nil {
			p.cfg.Log.Error("Some slots were not inserted",
				"location", plan.Location,
				"inserted", inserted,
				"requested", len(creates),
				"error", err,
			)
		}
	}

	result.Status = model.BatchCompleted
	if result.FailedCount > 0 {
		result.Status = model.BatchPartial
	}
	result.Conflicts = scheduling.ConflictReport(decisions, plan.Booked)
	return result
}

// replace deletes the overlapped slots and inserts the candidate in one
// transaction. Bookings are re-checked inside it, so a booking admitted since
// the plan was built still protects its slot.
func (p *Pipeline) replace(ctx context.Context, d scheduling.Decision, slot *model.Slot) (map[string]bool, error) {
	var active map[string]bool
	err := p.slots.ExecuteTransaction(ctx, func(sc mongo.SessionContext) error {
		var err error
		active, err = p.bookings.ActiveSlotIDs(sc, d.Delete)
		if err != nil {
			return err
		}
		if len(active) > 0 {
			return slotserrors.ErrSlotProtected
		}
		if _, err := p.slots.DeleteByIDs(sc, d.Delete); err != nil {
			return fmt.Errorf("delete overlapped slots: %w", err)
		}
		return p.slots.Insert(sc, slot)
	})
	return active, err
}

func newSlot(location string, c scheduling.Candidate, prov Provenance) *model.Slot {
	return &model.Slot{
		StartAt:            c.StartAt,
		EndAt:              c.EndAt,
		MaxCapacity:        c.MaxCapacity,
		Location:           location,
		Status:             model.SlotOpen,
		Joinable:           c.Joinable,
		CreatedFromBatchID: prov.BatchID,
		CreatedFromRuleID:  prov.RuleID,
	}
}

// candidateWindow widens the date-range window to cover candidates that run
// past midnight.
func candidateWindow(w scheduling.Interval, candidates []scheduling.Candidate) scheduling.Interval {
	for _, c := range candidates {
		if c.StartAt.Before(w.Start) {
			w.Start = c.StartAt
		}
		if c.EndAt.After(w.End) {
			w.End = c.EndAt
		}
	}
	return w
}

func overlappingIDs(conflicts []scheduling.Conflict) []string {
	seen := make(map[string]struct{})
	var ids []string
	for _, c := range conflicts {
		for _, s := range c.Overlapping {
			if _, ok := seen[s.ID]; !ok {
				seen[s.ID] = struct{}{}
				ids = append(ids, s.ID)
			}
		}
	}
	return ids
}
