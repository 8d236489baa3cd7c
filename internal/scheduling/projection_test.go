package scheduling

import (
	"fmt"
	"math/rand"
	"testing"

	"clubschedule/pkg/model"
)

func booking(id string, size int, allowFill bool, status model.BookingStatus) *model.Booking {
	return &model.Booking{ID: id, SlotID: "slot", UserID: "u-" + id, GroupSize: size, AllowFill: allowFill, Status: status}
}

func TestProject_ExclusiveBookingThenFillThenCancel(t *testing.T) {
	slot := &model.Slot{ID: "slot", MaxCapacity: 4, Status: model.SlotOpen}

	a := booking("1", 2, false, model.BookingConfirmed)
	p := Project(slot, []*model.Booking{a})
	p.Apply(slot)
	if slot.LockedBy() != "1" {
		t.Errorf("expected lock by booking 1, got %q", slot.LockedBy())
	}
	if slot.Status != model.SlotOpen {
		t.Errorf("expected open (2<4), got %s", slot.Status)
	}

	b := booking("2", 2, true, model.BookingConfirmed)
	Project(slot, []*model.Booking{a, b}).Apply(slot)
	if slot.Status != model.SlotFull {
		t.Errorf("expected full (4>=4), got %s", slot.Status)
	}
	if slot.LockedBy() != "1" {
		t.Errorf("lock should stay with booking 1, got %q", slot.LockedBy())
	}

	a.Status = model.BookingCancelled
	Project(slot, []*model.Booking{a, b}).Apply(slot)
	if slot.LockedByBookingID != nil {
		t.Errorf("expected no lock after cancelling booking 1, got %q", slot.LockedBy())
	}
	if slot.Status != model.SlotOpen {
		t.Errorf("expected open (2<4), got %s", slot.Status)
	}
}

func TestProject_LockGoesToLowestID(t *testing.T) {
	slot := &model.Slot{ID: "slot", MaxCapacity: 10, Status: model.SlotOpen}
	bookings := []*model.Booking{
		booking("9", 1, false, model.BookingConfirmed),
		booking("10", 1, false, model.BookingPending),
		booking("3", 1, false, model.BookingCancelled),
		booking("5", 1, true, model.BookingConfirmed),
	}

	p := Project(slot, bookings)
	if p.LockedBy == nil || *p.LockedBy != "9" {
		t.Errorf("expected lock by 9, got %v", p.LockedBy)
	}
	if p.Occupied != 3 {
		t.Errorf("Occupied = %d, want 3", p.Occupied)
	}
}

func TestProject_AdministrativeStatusIsKept(t *testing.T) {
	for _, status := range []model.SlotStatus{model.SlotCancelled, model.SlotClosed} {
		t.Run(string(status), func(t *testing.T) {
			slot := &model.Slot{ID: "slot", MaxCapacity: 1, Status: status}
			p := Project(slot, []*model.Booking{booking("1", 1, false, model.BookingConfirmed)})
			if p.Status != status {
				t.Errorf("status changed to %s", p.Status)
			}
			if p.LockedBy == nil || *p.LockedBy != "1" {
				t.Error("lock should still be derived")
			}
		})
	}
}

func TestProject_IgnoresOtherSlots(t *testing.T) {
	slot := &model.Slot{ID: "slot", MaxCapacity: 2, Status: model.SlotOpen}
	other := booking("1", 2, false, model.BookingConfirmed)
	other.SlotID = "elsewhere"

	p := Project(slot, []*model.Booking{other})
	if p.Status != model.SlotOpen || p.LockedBy != nil {
		t.Errorf("booking on another slot leaked into projection: %+v", p)
	}
}

func TestProject_IsIdempotent(t *testing.T) {
	slot := &model.Slot{ID: "slot", MaxCapacity: 4, Status: model.SlotOpen}
	bookings := []*model.Booking{
		booking("1", 2, false, model.BookingCancelled),
		booking("2", 2, true, model.BookingConfirmed),
	}

	Project(slot, bookings).Apply(slot)
	again := Project(slot, bookings)
	if !again.Matches(slot) {
		t.Errorf("second projection differs from stored fields: %+v vs %+v", again, slot)
	}
}

func TestProject_InvariantsHoldForRandomEventSequences(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for run := 0; run < 200; run++ {
		capacity := rng.Intn(4) + 1
		slot := &model.Slot{ID: "slot", MaxCapacity: capacity, Status: model.SlotOpen}
		var bookings []*model.Booking
		nextID := 1

		for step := 0; step < 20; step++ {
			active := activeOf(bookings)
			if len(active) > 0 && rng.Intn(3) == 0 {
				active[rng.Intn(len(active))].Status = model.BookingCancelled
			} else {
				b := booking(fmt.Sprint(nextID), rng.Intn(capacity)+1, rng.Intn(2) == 0, model.BookingConfirmed)
				nextID++
				bookings = append(bookings, b)
			}
			Project(slot, bookings).Apply(slot)
			assertInvariants(t, slot, bookings)
		}
	}
}

func activeOf(bookings []*model.Booking) []*model.Booking {
	var out []*model.Booking
	for _, b := range bookings {
		if b.IsActive() {
			out = append(out, b)
		}
	}
	return out
}

func assertInvariants(t *testing.T, slot *model.Slot, bookings []*model.Booking) {
	t.Helper()

	sum := 0
	var lowest *model.Booking
	for _, b := range activeOf(bookings) {
		sum += b.GroupSize
		if !b.AllowFill && (lowest == nil || lessID(b.ID, lowest.ID)) {
			lowest = b
		}
	}

	if (slot.Status == model.SlotFull) != (sum >= slot.MaxCapacity) {
		t.Fatalf("capacity invariant broken: status=%s sum=%d capacity=%d", slot.Status, sum, slot.MaxCapacity)
	}
	if lowest == nil {
		if slot.LockedByBookingID != nil {
			t.Fatalf("lock %q held without any exclusive active booking", slot.LockedBy())
		}
		return
	}
	if slot.LockedBy() != lowest.ID {
		t.Fatalf("lock = %q, want lowest exclusive booking %q", slot.LockedBy(), lowest.ID)
	}
}
