package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/jcamiloaa/deep90-app/internal/domain/jobscheduler"
)

// JobDispatchRepository folds events per dispatch id like the dispatch table.
type JobDispatchRepository struct {
	mu         sync.RWMutex
	dispatches map[string]jobscheduler.Dispatch
}

func NewJobDispatchRepository() *JobDispatchRepository {
	return &JobDispatchRepository{dispatches: make(map[string]jobscheduler.Dispatch)}
}

func (r *JobDispatchRepository) UpsertEvent(_ context.Context, event jobscheduler.DispatchEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.dispatches[event.DispatchID] = r.dispatches[event.DispatchID].Apply(event)
	return nil
}

func (r *JobDispatchRepository) ListBySource(_ context.Context, sourceID int64, limit int) ([]jobscheduler.Dispatch, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]jobscheduler.Dispatch, 0)
	for _, item := range r.dispatches {
		if item.SourceID == sourceID {
			out = append(out, item)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].DispatchID < out[j].DispatchID
		}
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *JobDispatchRepository) Get(dispatchID string) (jobscheduler.Dispatch, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.dispatches[dispatchID]
	return item, ok
}
