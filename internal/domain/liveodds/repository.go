package liveodds

import "context"

type Repository interface {
	// ReplaceForSource swaps snapshots, categories and values of the source in
	// one transaction.
	ReplaceForSource(ctx context.Context, sourceID int64, items []Snapshot) error
	ListBySource(ctx context.Context, sourceID int64) ([]Snapshot, error)
	GetByFixture(ctx context.Context, fixtureID int64) (Snapshot, bool, error)
}
