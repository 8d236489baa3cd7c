package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	slotserrors "clubschedule/internal/slots/errors"
	mongotx "clubschedule/pkg/db/mongo"
	"clubschedule/pkg/model"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// MemorySlotRepository is a SlotRepository held in process memory. It keeps
// the version semantics of the Mongo repository and is used by service tests.
// Transactions run fn directly without isolation or rollback.
type MemorySlotRepository struct {
	mu    sync.Mutex
	slots map[string]*model.Slot

	// FailInsert, when set, is consulted for every slot InsertMany writes.
	FailInsert func(slot *model.Slot) error
}

func NewMemorySlotRepository(slots ...*model.Slot) *MemorySlotRepository {
	r := &MemorySlotRepository{slots: make(map[string]*model.Slot)}
	for _, s := range slots {
		if s.ID == "" {
			s.ID = primitive.NewObjectID().Hex()
		}
		cp := *s
		r.slots[s.ID] = &cp
	}
	return r
}

// All returns copies of every stored slot ordered by start.
func (r *MemorySlotRepository) All() []*model.Slot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sortedLocked(func(*model.Slot) bool { return true })
}

func (r *MemorySlotRepository) sortedLocked(keep func(*model.Slot) bool) []*model.Slot {
	out := make([]*model.Slot, 0, len(r.slots))
	for _, s := range r.slots {
		if keep(s) {
			cp := *s
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].StartAt.Equal(out[j].StartAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].StartAt.Before(out[j].StartAt)
	})
	return out
}

func (r *MemorySlotRepository) FindByID(ctx context.Context, id string) (*model.Slot, error) {
	if !primitive.IsValidObjectID(id) {
		return nil, slotserrors.ErrInvalidID
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.slots[id]
	if !ok {
		return nil, slotserrors.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (r *MemorySlotRepository) FindInWindow(ctx context.Context, location string, from, to time.Time) ([]*model.Slot, error) {
	if !from.Before(to) {
		return nil, slotserrors.ErrInvalidWindow
	}
	return r.filter(SlotFilter{Location: location, From: &from, To: &to}), nil
}

func (r *MemorySlotRepository) List(ctx context.Context, filter SlotFilter, limit int, offset int64) ([]*model.Slot, error) {
	all := r.filter(filter)
	if offset >= int64(len(all)) {
		return []*model.Slot{}, nil
	}
	all = all[offset:]
	if limit > 0 && limit < len(all) {
		all = all[:limit]
	}
	return all, nil
}

func (r *MemorySlotRepository) Count(ctx context.Context, filter SlotFilter) (int64, error) {
	return int64(len(r.filter(filter))), nil
}

func (r *MemorySlotRepository) filter(f SlotFilter) []*model.Slot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sortedLocked(func(s *model.Slot) bool {
		if f.Location != "" && s.Location != f.Location {
			return false
		}
		if f.To != nil && !s.StartAt.Before(*f.To) {
			return false
		}
		if f.From != nil && !s.EndAt.After(*f.From) {
			return false
		}
		return f.Status == "" || s.Status == f.Status
	})
}

func (r *MemorySlotRepository) Insert(ctx context.Context, slot *model.Slot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stampNew(slot)
	slot.ID = primitive.NewObjectID().Hex()
	cp := *slot
	r.slots[slot.ID] = &cp
	return nil
}

func (r *MemorySlotRepository) InsertMany(ctx context.Context, slots []*model.Slot) (int, error) {
	inserted := 0
	var firstErr error
	for _, s := range slots {
		if r.FailInsert != nil {
			if err := r.FailInsert(s); err != nil {
				if firstErr == nil {
					firstErr = err
				}
				continue
			}
		}
		if err := r.Insert(ctx, s); err != nil {
			return inserted, err
		}
		inserted++
	}
	return inserted, firstErr
}

func (r *MemorySlotRepository) DeleteByIDs(ctx context.Context, ids []string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, id := range ids {
		if _, ok := r.slots[id]; ok {
			delete(r.slots, id)
			n++
		}
	}
	return n, nil
}

func (r *MemorySlotRepository) UpdateProjection(ctx context.Context, slot *model.Slot, status model.SlotStatus, lockedBy *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.slots[slot.ID]
	if !ok || stored.Version != slot.Version {
		return slotserrors.ErrVersionConflict
	}
	now := time.Now().UTC()
	stored.Status = status
	stored.LockedByBookingID = lockedBy
	stored.UpdatedAt = now
	stored.Version++

	slot.Status = status
	slot.LockedByBookingID = lockedBy
	slot.UpdatedAt = now
	slot.Version = stored.Version
	return nil
}

func (r *MemorySlotRepository) UpdateStatus(ctx context.Context, id string, status model.SlotStatus) (*model.Slot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.slots[id]
	if !ok {
		return nil, slotserrors.ErrNotFound
	}
	stored.Status = status
	stored.UpdatedAt = time.Now().UTC()
	stored.Version++
	cp := *stored
	return &cp, nil
}

// Bump increments a slot's version as a concurrent writer would.
func (r *MemorySlotRepository) Bump(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.slots[id]; ok {
		s.Version++
	}
}

func (r *MemorySlotRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return fn(mongo.NewSessionContext(ctx, nil))
}
