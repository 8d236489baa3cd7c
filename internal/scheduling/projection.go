package scheduling

import (
	"sort"

	"clubschedule/pkg/model"
)

// Projection is the part of a slot that is derived from its bookings.
type Projection struct {
	Status   model.SlotStatus
	LockedBy *string
	Occupied int
}

// Project recomputes status and lock from the full booking set of a slot.
// It never reads the previous lock, so running it twice over the same bookings
// gives the same answer.
//
// The lock goes to the lowest-id active booking that disallows fill. Status is
// full when active group sizes reach capacity, otherwise open; cancelled and
// closed slots keep their administrative status.
func Project(slot *model.Slot, bookings []*model.Booking) Projection {
	var occupied int
	var exclusive []string
	for _, b := range bookings {
		if b == nil || b.SlotID != slot.ID || !b.IsActive() {
			continue
		}
		occupied += b.GroupSize
		if !b.AllowFill {
			exclusive = append(exclusive, b.ID)
		}
	}

	p := Projection{Status: slot.Status, Occupied: occupied}
	if len(exclusive) > 0 {
		sort.Slice(exclusive, func(i, j int) bool { return lessID(exclusive[i], exclusive[j]) })
		id := exclusive[0]
		p.LockedBy = &id
	}
	if slot.Status.IsCapacityDriven() {
		if occupied >= slot.MaxCapacity {
			p.Status = model.SlotFull
		} else {
			p.Status = model.SlotOpen
		}
	}
	return p
}

// Matches reports whether the slot already carries this projection.
func (p Projection) Matches(slot *model.Slot) bool {
	if slot.Status != p.Status {
		return false
	}
	if (slot.LockedByBookingID == nil) != (p.LockedBy == nil) {
		return false
	}
	return p.LockedBy == nil || *slot.LockedByBookingID == *p.LockedBy
}

// Apply copies the projection onto the slot.
func (p Projection) Apply(slot *model.Slot) {
	slot.Status = p.Status
	slot.LockedByBookingID = p.LockedBy
}

// lessID sorts shorter ids first so numeric ids keep their natural order.
// Equal-length ids, such as hex ObjectIDs, compare lexically.
func lessID(a, b string) bool {
	if len(a) != len(b) {
		return len(a) < len(b)
	}
	return a < b
}
