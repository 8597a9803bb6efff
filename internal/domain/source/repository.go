package source

import (
	"context"
	"time"
)

// Repository persists sources and their run state.
type Repository interface {
	GetByID(ctx context.Context, id int64) (Source, bool, error)
	List(ctx context.Context) ([]Source, error)
	ListDue(ctx context.Context, now time.Time) ([]Source, error)
	// ListStalled returns enabled sources whose next run is in the past and that
	// are either not running or running with last_run before leaseCutoff.
	ListStalled(ctx context.Context, now, leaseCutoff time.Time) ([]Source, error)
	// Register upserts by name and keeps existing run state.
	Register(ctx context.Context, item Source) (Source, error)
	// Claim moves an enabled, non-running source to running. false means another
	// worker holds it or the source is disabled.
	Claim(ctx context.Context, id int64, at time.Time) (Source, bool, error)
	Update(ctx context.Context, item Source) error
	// SaveRunState writes only the run-state columns, and only while the source
	// is enabled and still in status from. false means it was disabled or moved
	// on meanwhile and nothing was written.
	SaveRunState(ctx context.Context, id int64, from RunStatus, state RunState) (bool, error)
	// SetEnabled writes the enabled flag together with the run state it implies.
	SetEnabled(ctx context.Context, id int64, enabled bool, state RunState) (bool, error)
	// ResetStalled sets next_run=now and failed->idle only if the row still
	// matches the stalled predicate.
	ResetStalled(ctx context.Context, id int64, now, leaseCutoff time.Time) (bool, error)
}
