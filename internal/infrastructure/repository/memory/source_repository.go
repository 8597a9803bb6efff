package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/jcamiloaa/deep90-app/internal/domain/source"
)

type SourceRepository struct {
	mu     sync.RWMutex
	nextID int64
	items  map[int64]source.Source
	now    func() time.Time
}

func NewSourceRepository() *SourceRepository {
	return &SourceRepository{items: make(map[int64]source.Source), now: time.Now}
}

func (r *SourceRepository) GetByID(_ context.Context, id int64) (source.Source, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.items[id]
	if !ok {
		return source.Source{}, false, nil
	}
	return cloneSource(item), true, nil
}

func (r *SourceRepository) List(_ context.Context) ([]source.Source, error) {
	return r.filter(func(source.Source) bool { return true }), nil
}

func (r *SourceRepository) ListDue(_ context.Context, now time.Time) ([]source.Source, error) {
	items := r.filter(func(item source.Source) bool { return item.IsDue(now) })
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i].NextRunAt, items[j].NextRunAt
		switch {
		case a == nil && b != nil:
			return true
		case a != nil && b == nil:
			return false
		case a != nil && b != nil && !a.Equal(*b):
			return a.Before(*b)
		}
		return items[i].ID < items[j].ID
	})
	return items, nil
}

func (r *SourceRepository) ListStalled(_ context.Context, now, leaseCutoff time.Time) ([]source.Source, error) {
	return r.filter(func(item source.Source) bool { return isStalled(item, now, leaseCutoff) }), nil
}

func (r *SourceRepository) Register(_ context.Context, item source.Source) (source.Source, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now().UTC()
	// Enabled and run state of an existing row are kept.
	for id, existing := range r.items {
		if existing.Name != item.Name {
			continue
		}
		existing.Kind = item.Kind
		existing.Endpoint = item.Endpoint
		existing.Params = cloneParams(item.Params)
		existing.Description = item.Description
		existing.IntervalSeconds = item.IntervalSeconds
		existing.UpdatedAt = now
		r.items[id] = existing
		return cloneSource(existing), nil
	}

	r.nextID++
	item.ID = r.nextID
	if item.Status == "" {
		item.Status = source.StatusIdle
	}
	item.CreatedAt = now
	item.UpdatedAt = now
	r.items[item.ID] = cloneSource(item)
	return cloneSource(item), nil
}

func (r *SourceRepository) Claim(_ context.Context, id int64, at time.Time) (source.Source, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	item, ok := r.items[id]
	if !ok || !item.Enabled || item.Status == source.StatusRunning {
		return source.Source{}, false, nil
	}
	item.Status = source.StatusRunning
	item.LastRunAt = &at
	item.UpdatedAt = at
	r.items[id] = item
	return cloneSource(item), true, nil
}

func (r *SourceRepository) Update(_ context.Context, item source.Source) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.items[item.ID]
	if !ok {
		return nil
	}
	item.CreatedAt = existing.CreatedAt
	item.UpdatedAt = r.now().UTC()
	r.items[item.ID] = cloneSource(item)
	return nil
}

func (r *SourceRepository) SaveRunState(_ context.Context, id int64, from source.RunStatus, state source.RunState) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	item, ok := r.items[id]
	if !ok || !item.Enabled || item.Status != from {
		return false, nil
	}
	r.items[id] = cloneSource(item.WithRunState(r.stamp(state)))
	return true, nil
}

func (r *SourceRepository) SetEnabled(_ context.Context, id int64, enabled bool, state source.RunState) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	item, ok := r.items[id]
	if !ok {
		return false, nil
	}
	item.Enabled = enabled
	r.items[id] = cloneSource(item.WithRunState(r.stamp(state)))
	return true, nil
}

func (r *SourceRepository) stamp(state source.RunState) source.RunState {
	if state.At.IsZero() {
		state.At = r.now().UTC()
	}
	state.NextRunAt = cloneTime(state.NextRunAt)
	return state
}

func (r *SourceRepository) ResetStalled(_ context.Context, id int64, now, leaseCutoff time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	item, ok := r.items[id]
	if !ok || !isStalled(item, now, leaseCutoff) {
		return false, nil
	}
	item.NextRunAt = &now
	if item.Status == source.StatusFailed || item.Status == source.StatusRunning {
		item.Status = source.StatusIdle
	}
	item.UpdatedAt = now
	r.items[id] = item
	return true, nil
}

func (r *SourceRepository) filter(keep func(source.Source) bool) []source.Source {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]source.Source, 0, len(r.items))
	for _, item := range r.items {
		if keep(item) {
			out = append(out, cloneSource(item))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func isStalled(item source.Source, now, leaseCutoff time.Time) bool {
	if !item.Enabled || item.NextRunAt == nil || !item.NextRunAt.Before(now) {
		return false
	}
	if item.Status != source.StatusRunning {
		return true
	}
	return item.LastRunAt == nil || item.LastRunAt.Before(leaseCutoff)
}

func cloneSource(item source.Source) source.Source {
	copied := item
	copied.Params = cloneParams(item.Params)
	copied.LastRunAt = cloneTime(item.LastRunAt)
	copied.NextRunAt = cloneTime(item.NextRunAt)
	return copied
}

func cloneParams(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for key, value := range in {
		out[key] = value
	}
	return out
}

func cloneTime(in *time.Time) *time.Time {
	if in == nil {
		return nil
	}
	v := *in
	return &v
}
