package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/jcamiloaa/deep90-app/internal/domain/livefixture"
	"github.com/jcamiloaa/deep90-app/internal/domain/liveodds"
)

type LiveFixtureRepository struct {
	mu       sync.RWMutex
	bySource map[int64][]livefixture.Snapshot
}

func NewLiveFixtureRepository() *LiveFixtureRepository {
	return &LiveFixtureRepository{bySource: make(map[int64][]livefixture.Snapshot)}
}

func (r *LiveFixtureRepository) ReplaceForSource(_ context.Context, sourceID int64, items []livefixture.Snapshot) error {
	copied := make([]livefixture.Snapshot, 0, len(items))
	for _, item := range items {
		item.SourceID = sourceID
		item.Raw = append([]byte(nil), item.Raw...)
		copied = append(copied, item)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if len(copied) == 0 {
		delete(r.bySource, sourceID)
		return nil
	}
	r.bySource[sourceID] = copied
	return nil
}

func (r *LiveFixtureRepository) ListBySource(_ context.Context, sourceID int64) ([]livefixture.Snapshot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := append([]livefixture.Snapshot(nil), r.bySource[sourceID]...)
	sort.Slice(out, func(i, j int) bool { return out[i].FixtureID < out[j].FixtureID })
	return out, nil
}

func (r *LiveFixtureRepository) ListLive(_ context.Context, limit int) ([]livefixture.Snapshot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]livefixture.Snapshot, 0)
	for _, items := range r.bySource {
		for _, item := range items {
			if item.IsLive() {
				out = append(out, item)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].UpdatedAt.After(out[j].UpdatedAt)
		}
		return out[i].FixtureID < out[j].FixtureID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *LiveFixtureRepository) LiveFixtureIDs(_ context.Context) (map[int64]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[int64]string)
	for _, items := range r.bySource {
		for _, item := range items {
			if item.IsLive() {
				out[item.FixtureID] = item.Status.Short
			}
		}
	}
	return out, nil
}

type LiveOddsRepository struct {
	mu       sync.RWMutex
	bySource map[int64][]liveodds.Snapshot
}

func NewLiveOddsRepository() *LiveOddsRepository {
	return &LiveOddsRepository{bySource: make(map[int64][]liveodds.Snapshot)}
}

func (r *LiveOddsRepository) ReplaceForSource(_ context.Context, sourceID int64, items []liveodds.Snapshot) error {
	copied := make([]liveodds.Snapshot, 0, len(items))
	for _, item := range items {
		item.SourceID = sourceID
		copied = append(copied, cloneOdds(item))
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if len(copied) == 0 {
		delete(r.bySource, sourceID)
		return nil
	}
	r.bySource[sourceID] = copied
	return nil
}

func (r *LiveOddsRepository) ListBySource(_ context.Context, sourceID int64) ([]liveodds.Snapshot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	items := r.bySource[sourceID]
	out := make([]liveodds.Snapshot, 0, len(items))
	for _, item := range items {
		out = append(out, cloneOdds(item))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FixtureID < out[j].FixtureID })
	return out, nil
}

// GetByFixture returns the most recently updated snapshot across sources.
func (r *LiveOddsRepository) GetByFixture(_ context.Context, fixtureID int64) (liveodds.Snapshot, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var (
		found liveodds.Snapshot
		ok    bool
	)
	for _, items := range r.bySource {
		for _, item := range items {
			if item.FixtureID != fixtureID {
				continue
			}
			if !ok || item.UpdatedAt.After(found.UpdatedAt) {
				found, ok = item, true
			}
		}
	}
	if !ok {
		return liveodds.Snapshot{}, false, nil
	}
	return cloneOdds(found), true, nil
}

func cloneOdds(item liveodds.Snapshot) liveodds.Snapshot {
	copied := item
	copied.Raw = append([]byte(nil), item.Raw...)
	copied.Categories = make([]liveodds.Category, 0, len(item.Categories))
	for _, category := range item.Categories {
		category.Values = append([]liveodds.Value(nil), category.Values...)
		copied.Categories = append(copied.Categories, category)
	}
	return copied
}
