package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	bookingserrors "clubschedule/internal/bookings/errors"
	"clubschedule/pkg/model"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MemoryBookingRepository is a BookingRepository held in process memory,
// used by service tests. Put plays the part of the booking procedure.
type MemoryBookingRepository struct {
	mu       sync.Mutex
	bookings map[string]*model.Booking

	// Err, when set, is returned by every read.
	Err error
}

func NewMemoryBookingRepository(bookings ...*model.Booking) *MemoryBookingRepository {
	r := &MemoryBookingRepository{bookings: make(map[string]*model.Booking)}
	for _, b := range bookings {
		r.Put(b)
	}
	return r
}

// Put inserts or replaces a booking, assigning an id when it has none.
func (r *MemoryBookingRepository) Put(b *model.Booking) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if b.ID == "" {
		b.ID = primitive.NewObjectID().Hex()
	}
	cp := *b
	r.bookings[b.ID] = &cp
}

func (r *MemoryBookingRepository) FindByID(ctx context.Context, id string) (*model.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	b, ok := r.bookings[id]
	if !ok {
		return nil, bookingserrors.ErrNotFound
	}
	cp := *b
	return &cp, nil
}

func (r *MemoryBookingRepository) ListBySlot(ctx context.Context, slotID string) ([]*model.Booking, error) {
	return r.ListBySlots(ctx, []string{slotID})
}

func (r *MemoryBookingRepository) ListBySlots(ctx context.Context, slotIDs []string) ([]*model.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	want := make(map[string]bool, len(slotIDs))
	for _, id := range slotIDs {
		want[id] = true
	}
	out := make([]*model.Booking, 0)
	for _, b := range r.bookings {
		if want[b.SlotID] {
			cp := *b
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *MemoryBookingRepository) ActiveSlotIDs(ctx context.Context, slotIDs []string) (map[string]bool, error) {
	bookings, err := r.ListBySlots(ctx, slotIDs)
	if err != nil {
		return nil, err
	}
	active := make(map[string]bool)
	for _, b := range bookings {
		if b.IsActive() {
			active[b.SlotID] = true
		}
	}
	return active, nil
}

// MemoryLeaseRepository is a LeaseRepository held in process memory.
type MemoryLeaseRepository struct {
	mu     sync.Mutex
	leases map[string]lease
	now    func() time.Time
}

func NewMemoryLeaseRepository() *MemoryLeaseRepository {
	return &MemoryLeaseRepository{leases: make(map[string]lease), now: time.Now}
}

func (r *MemoryLeaseRepository) Acquire(ctx context.Context, name, owner string, ttl time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now()
	if l, ok := r.leases[name]; ok && l.Owner != owner && l.ExpiresAt.After(now) {
		return bookingserrors.ErrLeaseHeld
	}
	r.leases[name] = lease{Name: name, Owner: owner, ExpiresAt: now.Add(ttl)}
	return nil
}

func (r *MemoryLeaseRepository) Release(ctx context.Context, name, owner string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if l, ok := r.leases[name]; ok && l.Owner == owner {
		delete(r.leases, name)
	}
	return nil
}

// Holder returns the current owner of a live lease, or "".
func (r *MemoryLeaseRepository) Holder(name string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if l, ok := r.leases[name]; ok && l.ExpiresAt.After(r.now()) {
		return l.Owner
	}
	return ""
}
