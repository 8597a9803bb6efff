package cache

import (
	"context"
	"strconv"
	"time"

	"github.com/jcamiloaa/deep90-app/internal/domain/livefixture"
	"github.com/jcamiloaa/deep90-app/internal/domain/liveodds"
	basecache "github.com/jcamiloaa/deep90-app/internal/platform/cache"
)

// LiveFixtureRepository caches the read paths used by chat tools and the live
// endpoints. Writes go through and drop every cached read.
type LiveFixtureRepository struct {
	next  livefixture.Repository
	lists *basecache.Store[[]livefixture.Snapshot]
	ids   *basecache.Store[map[int64]string]
}

func NewLiveFixtureRepository(next livefixture.Repository, ttl time.Duration) *LiveFixtureRepository {
	return &LiveFixtureRepository{
		next:  next,
		lists: basecache.NewStore[[]livefixture.Snapshot](ttl),
		ids:   basecache.NewStore[map[int64]string](ttl),
	}
}

func (r *LiveFixtureRepository) ReplaceForSource(ctx context.Context, sourceID int64, items []livefixture.Snapshot) error {
	err := r.next.ReplaceForSource(ctx, sourceID, items)
	// a failed replace rolled back, but drop anyway so nothing stale outlives it
	r.lists.DeletePrefix(ctx, "livefixture:")
	r.ids.Delete(ctx, "livefixture:ids")
	return err
}

func (r *LiveFixtureRepository) ListBySource(ctx context.Context, sourceID int64) ([]livefixture.Snapshot, error) {
	key := "livefixture:source:" + strconv.FormatInt(sourceID, 10)
	items, err := r.lists.GetOrLoad(ctx, key, func(ctx context.Context) ([]livefixture.Snapshot, error) {
		return r.next.ListBySource(ctx, sourceID)
	})
	if err != nil {
		return nil, err
	}
	return append([]livefixture.Snapshot(nil), items...), nil
}

func (r *LiveFixtureRepository) ListLive(ctx context.Context, limit int) ([]livefixture.Snapshot, error) {
	key := "livefixture:live:" + strconv.Itoa(limit)
	items, err := r.lists.GetOrLoad(ctx, key, func(ctx context.Context) ([]livefixture.Snapshot, error) {
		return r.next.ListLive(ctx, limit)
	})
	if err != nil {
		return nil, err
	}
	return append([]livefixture.Snapshot(nil), items...), nil
}

func (r *LiveFixtureRepository) LiveFixtureIDs(ctx context.Context) (map[int64]string, error) {
	ids, err := r.ids.GetOrLoad(ctx, "livefixture:ids", r.next.LiveFixtureIDs)
	if err != nil {
		return nil, err
	}
	out := make(map[int64]string, len(ids))
	for id, status := range ids {
		out[id] = status
	}
	return out, nil
}

type LiveOddsRepository struct {
	next     liveodds.Repository
	fixtures *basecache.Store[cachedOdds]
}

type cachedOdds struct {
	value  liveodds.Snapshot
	exists bool
}

func NewLiveOddsRepository(next liveodds.Repository, ttl time.Duration) *LiveOddsRepository {
	return &LiveOddsRepository{
		next:     next,
		fixtures: basecache.NewStore[cachedOdds](ttl),
	}
}

func (r *LiveOddsRepository) ReplaceForSource(ctx context.Context, sourceID int64, items []liveodds.Snapshot) error {
	err := r.next.ReplaceForSource(ctx, sourceID, items)
	r.fixtures.DeletePrefix(ctx, "liveodds:")
	return err
}

// ListBySource is only used by the reconcile path and is not cached.
func (r *LiveOddsRepository) ListBySource(ctx context.Context, sourceID int64) ([]liveodds.Snapshot, error) {
	return r.next.ListBySource(ctx, sourceID)
}

func (r *LiveOddsRepository) GetByFixture(ctx context.Context, fixtureID int64) (liveodds.Snapshot, bool, error) {
	key := "liveodds:fixture:" + strconv.FormatInt(fixtureID, 10)
	cached, err := r.fixtures.GetOrLoad(ctx, key, func(ctx context.Context) (cachedOdds, error) {
		item, exists, err := r.next.GetByFixture(ctx, fixtureID)
		if err != nil {
			return cachedOdds{}, err
		}
		return cachedOdds{value: item, exists: exists}, nil
	})
	if err != nil {
		return liveodds.Snapshot{}, false, err
	}
	return cached.value, cached.exists, nil
}
