package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	ruleserrors "clubschedule/internal/rules/errors"
	"clubschedule/pkg/model"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MemoryRuleRepository is a RuleRepository held in process memory.
type MemoryRuleRepository struct {
	mu    sync.Mutex
	rules map[string]*model.AvailabilityRule
}

func NewMemoryRuleRepository() *MemoryRuleRepository {
	return &MemoryRuleRepository{rules: make(map[string]*model.AvailabilityRule)}
}

func (r *MemoryRuleRepository) Create(ctx context.Context, rule *model.AvailabilityRule) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.nameTakenLocked("", rule.Location, rule.Name) {
		return ruleserrors.ErrRuleExists
	}
	rule.ID = primitive.NewObjectID().Hex()
	rule.CreatedAt = time.Now().UTC()
	cp := *rule
	r.rules[rule.ID] = &cp
	return nil
}

func (r *MemoryRuleRepository) FindByID(ctx context.Context, id string) (*model.AvailabilityRule, error) {
	if !primitive.IsValidObjectID(id) {
		return nil, ruleserrors.ErrInvalidID
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	rule, ok := r.rules[id]
	if !ok {
		return nil, ruleserrors.ErrNotFound
	}
	cp := *rule
	return &cp, nil
}

func (r *MemoryRuleRepository) List(ctx context.Context, location string, limit int, offset int64) ([]*model.AvailabilityRule, error) {
	all := r.matching(location)
	if offset >= int64(len(all)) {
		return []*model.AvailabilityRule{}, nil
	}
	all = all[offset:]
	if limit > 0 && limit < len(all) {
		all = all[:limit]
	}
	return all, nil
}

func (r *MemoryRuleRepository) Count(ctx context.Context, location string) (int64, error) {
	return int64(len(r.matching(location))), nil
}

func (r *MemoryRuleRepository) Update(ctx context.Context, id string, rule *model.AvailabilityRule) error {
	if !primitive.IsValidObjectID(id) {
		return ruleserrors.ErrInvalidID
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.rules[id]
	if !ok {
		return ruleserrors.ErrNotFound
	}
	if r.nameTakenLocked(id, existing.Location, rule.Name) {
		return ruleserrors.ErrRuleExists
	}
	cp := *rule
	cp.ID, cp.Location, cp.CreatedAt = id, existing.Location, existing.CreatedAt
	r.rules[id] = &cp
	return nil
}

func (r *MemoryRuleRepository) Delete(ctx context.Context, id string) error {
	if !primitive.IsValidObjectID(id) {
		return ruleserrors.ErrInvalidID
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rules[id]; !ok {
		return ruleserrors.ErrNotFound
	}
	delete(r.rules, id)
	return nil
}

func (r *MemoryRuleRepository) nameTakenLocked(exceptID, location, name string) bool {
	for id, existing := range r.rules {
		if id != exceptID && existing.Location == location && existing.Name == name {
			return true
		}
	}
	return false
}

func (r *MemoryRuleRepository) matching(location string) []*model.AvailabilityRule {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*model.AvailabilityRule, 0, len(r.rules))
	for _, rule := range r.rules {
		if location == "" || rule.Location == location {
			cp := *rule
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Location == out[j].Location {
			return out[i].Name < out[j].Name
		}
		return out[i].Location < out[j].Location
	})
	return out
}
