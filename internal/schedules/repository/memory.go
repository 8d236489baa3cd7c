package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	scheduleserrors "clubschedule/internal/schedules/errors"
	"clubschedule/pkg/model"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MemoryBatchRepository is a BatchRepository held in process memory.
type MemoryBatchRepository struct {
	mu      sync.Mutex
	batches map[string]*model.ScheduleBatch
}

func NewMemoryBatchRepository() *MemoryBatchRepository {
	return &MemoryBatchRepository{batches: make(map[string]*model.ScheduleBatch)}
}

func (r *MemoryBatchRepository) Create(ctx context.Context, batch *model.ScheduleBatch) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	batch.ID = primitive.NewObjectID().Hex()
	batch.CreatedAt = time.Now().UTC()
	cp := *batch
	r.batches[batch.ID] = &cp
	return nil
}

func (r *MemoryBatchRepository) Finish(ctx context.Context, id string, result *model.ApplyResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.batches[id]
	if !ok || b.Status != model.BatchApplying {
		return scheduleserrors.ErrNotFound
	}
	b.Status = result.Status
	b.CreatedCount = result.CreatedCount
	b.SkippedCount = result.SkippedCount
	b.ReplacedCount = result.ReplacedCount
	b.FailedCount = result.FailedCount
	return nil
}

func (r *MemoryBatchRepository) FindByID(ctx context.Context, id string) (*model.ScheduleBatch, error) {
	if !primitive.IsValidObjectID(id) {
		return nil, scheduleserrors.ErrInvalidID
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.batches[id]
	if !ok {
		return nil, scheduleserrors.ErrNotFound
	}
	cp := *b
	return &cp, nil
}

func (r *MemoryBatchRepository) List(ctx context.Context, location string, limit int, offset int64) ([]*model.ScheduleBatch, error) {
	all := r.matching(location)
	if offset >= int64(len(all)) {
		return []*model.ScheduleBatch{}, nil
	}
	all = all[offset:]
	if limit > 0 && limit < len(all) {
		all = all[:limit]
	}
	return all, nil
}

func (r *MemoryBatchRepository) Count(ctx context.Context, location string) (int64, error) {
	return int64(len(r.matching(location))), nil
}

func (r *MemoryBatchRepository) matching(location string) []*model.ScheduleBatch {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*model.ScheduleBatch, 0, len(r.batches))
	for _, b := range r.batches {
		if location == "" || b.Location == location {
			cp := *b
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out
}

// MemoryOverrideRepository is an OverrideRepository held in process memory.
type MemoryOverrideRepository struct {
	mu        sync.Mutex
	overrides map[string]*model.AvailabilityOverride
}

func NewMemoryOverrideRepository(overrides ...*model.AvailabilityOverride) *MemoryOverrideRepository {
	r := &MemoryOverrideRepository{overrides: make(map[string]*model.AvailabilityOverride)}
	for _, o := range overrides {
		_ = r.Create(context.Background(), o)
	}
	return r
}

func (r *MemoryOverrideRepository) Create(ctx context.Context, override *model.AvailabilityOverride) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, o := range r.overrides {
		if o.Location == override.Location && o.Date == override.Date {
			return scheduleserrors.ErrOverrideExists
		}
	}
	override.ID = primitive.NewObjectID().Hex()
	override.CreatedAt = time.Now().UTC()
	cp := *override
	r.overrides[override.ID] = &cp
	return nil
}

func (r *MemoryOverrideRepository) Delete(ctx context.Context, id string) error {
	if !primitive.IsValidObjectID(id) {
		return scheduleserrors.ErrInvalidID
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.overrides[id]; !ok {
		return scheduleserrors.ErrOverrideNotFound
	}
	delete(r.overrides, id)
	return nil
}

func (r *MemoryOverrideRepository) List(ctx context.Context, location, from, to string) ([]*model.AvailabilityOverride, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*model.AvailabilityOverride, 0)
	for _, o := range r.overrides {
		if location != "" && o.Location != location {
			continue
		}
		if (from != "" && o.Date < from) || (to != "" && o.Date > to) {
			continue
		}
		cp := *o
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Location == out[j].Location {
			return out[i].Date < out[j].Date
		}
		return out[i].Location < out[j].Location
	})
	return out, nil
}

func (r *MemoryOverrideRepository) ClosedDates(ctx context.Context, location, from, to string) ([]string, error) {
	overrides, err := r.List(ctx, location, from, to)
	if err != nil {
		return nil, err
	}
	dates := make([]string, 0, len(overrides))
	for _, o := range overrides {
		if o.Kind == model.OverrideClosed {
			dates = append(dates, o.Date)
		}
	}
	return dates, nil
}
