package scheduling

import (
	"clubschedule/pkg/model"
)

type Action string

const (
	ActionCreate  Action = "create"
	ActionSkip    Action = "skip"
	ActionReplace Action = "replace"
)

type Reason string

const (
	ReasonNoConflict       Reason = "no_conflict"
	ReasonPolicySkip       Reason = "policy_skip"
	ReasonPolicyProtect    Reason = "policy_protect"
	ReasonReplaceNotForced Reason = "replace_not_forced"
	ReasonProtectedBooking Reason = "protected_booking"
	ReasonReplaced         Reason = "replaced"
)

// BookedSlots answers whether a slot currently holds a non-cancelled booking.
// Pending and confirmed bookings both count.
type BookedSlots map[string]bool

func (b BookedSlots) Has(slotID string) bool {
	return b[slotID]
}

type Decision struct {
	Conflict Conflict
	Action   Action
	Reason   Reason
	// Delete lists the stored slots removed before the candidate is inserted.
	// Only set for ActionReplace.
	Delete []string
}

// Decide applies the conflict policy to a single candidate. A slot with a live
// booking is never scheduled for deletion, whatever the policy or force flag.
func Decide(c Conflict, opts model.ApplyOptions, booked BookedSlots) Decision {
	d := Decision{Conflict: c}
	if !c.HasConflict() {
		d.Action, d.Reason = ActionCreate, ReasonNoConflict
		return d
	}

	switch opts.Policy {
	case model.PolicyReplace:
		if !opts.Force {
			d.Action, d.Reason = ActionSkip, ReasonReplaceNotForced
			return d
		}
		for _, s := range c.Overlapping {
			if booked.Has(s.ID) {
				d.Action, d.Reason = ActionSkip, ReasonProtectedBooking
				return d
			}
		}
		d.Action, d.Reason = ActionReplace, ReasonReplaced
		d.Delete = c.OverlappingIDs()
	case model.PolicyProtect:
		d.Action, d.Reason = ActionSkip, ReasonPolicyProtect
	default:
		d.Action, d.Reason = ActionSkip, ReasonPolicySkip
	}
	return d
}

// Resolve decides every conflict in order.
func Resolve(conflicts []Conflict, opts model.ApplyOptions, booked BookedSlots) []Decision {
	out := make([]Decision, 0, len(conflicts))
	for _, c := range conflicts {
		out = append(out, Decide(c, opts, booked))
	}
	return out
}

// ConflictReport converts the conflicting decisions into their reporting form.
func ConflictReport(decisions []Decision, booked BookedSlots) []model.SlotConflict {
	out := make([]model.SlotConflict, 0)
	for _, d := range decisions {
		c := d.Conflict
		if !c.HasConflict() {
			continue
		}
		hasBookings := false
		for _, s := range c.Overlapping {
			if booked.Has(s.ID) {
				hasBookings = true
				break
			}
		}
		out = append(out, model.SlotConflict{
			Date:             c.Candidate.Date,
			CandidateStartAt: c.Candidate.StartAt,
			CandidateEndAt:   c.Candidate.EndAt,
			ExistingSlotID:   c.Existing.ID,
			ExistingStartAt:  c.Existing.StartAt,
			ExistingEndAt:    c.Existing.EndAt,
			ExistingStatus:   c.Existing.Status,
			OverlapCount:     len(c.Overlapping),
			HasBookings:      hasBookings,
			Resolution:       string(d.Action),
			Reason:           string(d.Reason),
		})
	}
	return out
}
