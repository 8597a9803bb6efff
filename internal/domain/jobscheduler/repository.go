package jobscheduler

import "context"

type Repository interface {
	UpsertEvent(ctx context.Context, event DispatchEvent) error
	// ListBySource returns the most recently updated dispatches first.
	ListBySource(ctx context.Context, sourceID int64, limit int) ([]Dispatch, error)
}
