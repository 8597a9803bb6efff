package livefixture

import "context"

type Repository interface {
	// ReplaceForSource deletes every row of the source and inserts items in one
	// transaction. Empty items leaves the source with no rows.
	ReplaceForSource(ctx context.Context, sourceID int64, items []Snapshot) error
	ListBySource(ctx context.Context, sourceID int64) ([]Snapshot, error)
	ListLive(ctx context.Context, limit int) ([]Snapshot, error)
	// LiveFixtureIDs maps fixture id to short status for every in-play fixture.
	LiveFixtureIDs(ctx context.Context) (map[int64]string, error)
}
