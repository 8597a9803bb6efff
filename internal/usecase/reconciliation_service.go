package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jcamiloaa/deep90-app/internal/domain/jobscheduler"
	"github.com/jcamiloaa/deep90-app/internal/domain/livefixture"
	"github.com/jcamiloaa/deep90-app/internal/domain/liveodds"
	"github.com/jcamiloaa/deep90-app/internal/domain/source"
	"github.com/jcamiloaa/deep90-app/internal/platform/logging"
	"github.com/sourcegraph/conc/pool"
)

const (
	defaultDispatchListLimit = 20
	maxDispatchListLimit     = 100
)

type ReconciliationConfig struct {
	FeedTimeout time.Duration
	// ResetErrorsOnSuccess clears error_count after a successful poll. Off by
	// default: only enable and restart reset it.
	ResetErrorsOnSuccess bool
	// RunningLease is how long a source may stay running before CheckStalled
	// treats it as abandoned.
	RunningLease     time.Duration
	FixturesInterval time.Duration
	OddsInterval     time.Duration
	MaxConcurrency   int
}

type ReconcileOutcome struct {
	SourceID        int64         `json:"source_id"`
	Kind            string        `json:"kind"`
	Success         bool          `json:"success"`
	Skipped         bool          `json:"skipped"`
	SkipReason      string        `json:"skip_reason,omitempty"`
	ItemsCount      int           `json:"items_count"`
	RejectedCount   int           `json:"rejected_count"`
	FilteredCount   int           `json:"filtered_count,omitempty"`
	ExecutionTime   time.Duration `json:"-"`
	ExecutionMillis int64         `json:"execution_ms"`
	NextRunAt       *time.Time    `json:"next_run_at,omitempty"`
	Error           string        `json:"error,omitempty"`
}

type ScheduleResult struct {
	DueCount    int     `json:"due_count"`
	QueuedCount int     `json:"queued_count"`
	FailedCount int     `json:"failed_count"`
	Queued      []int64 `json:"queued_source_ids"`
	Failed      []int64 `json:"failed_source_ids,omitempty"`
}

type RunDueResult struct {
	DueCount     int                `json:"due_count"`
	SuccessCount int                `json:"success_count"`
	FailedCount  int                `json:"failed_count"`
	Outcomes     []ReconcileOutcome `json:"outcomes"`
}

type StalledCheckResult struct {
	Found     int     `json:"found"`
	Reset     int     `json:"reset"`
	SourceIDs []int64 `json:"source_ids"`
}

type runResult struct {
	items    int
	rejected int
	filtered int
}

type sourceRunner func(ctx context.Context, src source.Source) (runResult, error)

// ReconciliationService keeps the live snapshots of every source in line with
// the upstream feed by full replace per poll.
type ReconciliationService struct {
	sourceRepo  source.Repository
	fixtureRepo livefixture.Repository
	oddsRepo    liveodds.Repository
	feed        FeedClient
	queue       JobQueue
	dispatches  dispatchRecorder
	validate    *validator.Validate
	cfg         ReconciliationConfig
	logger      *logging.Logger
	now         func() time.Time
	runners     map[source.Kind]sourceRunner
}

func NewReconciliationService(
	sourceRepo source.Repository,
	fixtureRepo livefixture.Repository,
	oddsRepo liveodds.Repository,
	feed FeedClient,
	queue JobQueue,
	dispatchRepo jobscheduler.Repository,
	cfg ReconciliationConfig,
	logger *logging.Logger,
) *ReconciliationService {
	if queue == nil {
		queue = NewNoopJobQueue()
	}
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.FeedTimeout <= 0 {
		cfg.FeedTimeout = 30 * time.Second
	}
	if cfg.RunningLease <= 0 {
		cfg.RunningLease = 10 * time.Minute
	}
	if cfg.FixturesInterval <= 0 {
		cfg.FixturesInterval = 60 * time.Second
	}
	if cfg.OddsInterval <= 0 {
		cfg.OddsInterval = 60 * time.Second
	}
	if cfg.MaxConcurrency <= 0 {
		cfg.MaxConcurrency = 4
	}

	s := &ReconciliationService{
		sourceRepo:  sourceRepo,
		fixtureRepo: fixtureRepo,
		oddsRepo:    oddsRepo,
		feed:        feed,
		queue:       queue,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
		cfg:         cfg,
		logger:      logger.Named("reconciler"),
		now:         time.Now,
	}
	s.dispatches = dispatchRecorder{repo: dispatchRepo, logger: s.logger, now: func() time.Time { return s.now() }}
	s.runners = map[source.Kind]sourceRunner{
		source.KindLiveFixtures: s.runLiveFixtures,
		source.KindLiveOdds:     s.runLiveOdds,
	}
	return s
}

// Reconcile runs one poll cycle for a source. Feed and persistence failures are
// recorded on the source and returned typed together with the failed outcome.
func (s *ReconciliationService) Reconcile(ctx context.Context, sourceID int64) (ReconcileOutcome, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ReconciliationService.Reconcile")
	defer span.End()

	started := s.now()
	item, exists, err := s.sourceRepo.GetByID(ctx, sourceID)
	if err != nil {
		return ReconcileOutcome{}, fmt.Errorf("get source=%d: %w", sourceID, err)
	}
	if !exists {
		return ReconcileOutcome{}, fmt.Errorf("%w: source=%d", ErrNotFound, sourceID)
	}

	outcome := ReconcileOutcome{SourceID: item.ID, Kind: item.Kind.String()}
	if !item.Enabled {
		return s.skipped(outcome, "disabled", started), nil
	}
	runner, ok := s.runners[item.Kind]
	if !ok {
		return outcome, fmt.Errorf("%w: unsupported source kind %q", ErrInvalidInput, item.Kind)
	}

	claimed, ok, err := s.sourceRepo.Claim(ctx, item.ID, started.UTC())
	if err != nil {
		return outcome, fmt.Errorf("claim source=%d: %w", item.ID, err)
	}
	if !ok {
		return s.skipped(outcome, "already running", started), nil
	}

	result, runErr := runner(ctx, claimed)
	now := s.now().UTC()
	outcome.ExecutionTime = s.now().Sub(started)
	outcome.ExecutionMillis = outcome.ExecutionTime.Milliseconds()

	if runErr != nil {
		next, stateErr := s.markFailed(ctx, claimed, runErr, now)
		outcome.NextRunAt = &next
		outcome.Error = runErr.Error()
		s.logger.WarnContext(ctx, "reconcile failed",
			"source_id", claimed.ID,
			"kind", claimed.Kind,
			"error_count", claimed.ErrorCount+1,
			"next_run_at", next,
			"error", runErr,
		)
		if stateErr != nil {
			return outcome, errors.Join(runErr, stateErr)
		}
		return outcome, runErr
	}

	next, err := s.markSucceeded(ctx, claimed, now)
	if err != nil {
		return outcome, err
	}
	outcome.Success = true
	outcome.ItemsCount = result.items
	outcome.RejectedCount = result.rejected
	outcome.FilteredCount = result.filtered
	outcome.NextRunAt = &next

	s.logger.InfoContext(ctx, "reconcile completed",
		"source_id", claimed.ID,
		"kind", claimed.Kind,
		"items", result.items,
		"rejected", result.rejected,
		"duration_ms", outcome.ExecutionMillis,
	)
	return outcome, nil
}

// RunReconcileJob executes a queued reconcile job and records its dispatch outcome.
func (s *ReconciliationService) RunReconcileJob(ctx context.Context, payload ReconcileJobPayload) (ReconcileOutcome, error) {
	if err := s.validate.StructCtx(ctx, payload); err != nil {
		return ReconcileOutcome{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	outcome, err := s.Reconcile(ctx, payload.SourceID)
	event := jobscheduler.DispatchEvent{
		DispatchID: payload.DispatchID,
		JobName:    JobNameReconcile,
		JobPath:    JobPathReconcile,
		SourceID:   payload.SourceID,
		Status:     jobscheduler.StatusCompleted,
		Payload:    map[string]any{"source_id": payload.SourceID, "dispatch_id": payload.DispatchID},
	}
	if err != nil {
		event.Status = jobscheduler.StatusFailed
		event.ErrorMessage = err.Error()
	}
	s.dispatches.record(ctx, event)
	return outcome, err
}

func (s *ReconciliationService) skipped(outcome ReconcileOutcome, reason string, started time.Time) ReconcileOutcome {
	outcome.Success = true
	outcome.Skipped = true
	outcome.SkipReason = reason
	outcome.ExecutionTime = s.now().Sub(started)
	outcome.ExecutionMillis = outcome.ExecutionTime.Milliseconds()
	return outcome
}

func (s *ReconciliationService) markFailed(ctx context.Context, src source.Source, runErr error, now time.Time) (time.Time, error) {
	state := src.RunState()
	state.ErrorCount++
	state.LastError = runErr.Error()
	state.Status = source.StatusFailed
	next := now.Add(source.BackoffDelay(src.Interval(), state.ErrorCount))
	state.NextRunAt = &next
	state.At = now
	if err := s.finishRun(ctx, src, state); err != nil {
		return next, fmt.Errorf("persist failed state source=%d: %w", src.ID, err)
	}
	return next, nil
}

func (s *ReconciliationService) markSucceeded(ctx context.Context, src source.Source, now time.Time) (time.Time, error) {
	state := src.RunState()
	state.Status = source.StatusIdle
	next := now.Add(src.Interval())
	state.NextRunAt = &next
	state.At = now
	if s.cfg.ResetErrorsOnSuccess {
		state.ErrorCount = 0
		state.LastError = ""
	}
	if err := s.finishRun(ctx, src, state); err != nil {
		return next, fmt.Errorf("persist idle state source=%d: %w", src.ID, err)
	}
	return next, nil
}

// finishRun releases the claim. A source disabled or reset while the run was in
// flight keeps the state the operator gave it.
func (s *ReconciliationService) finishRun(ctx context.Context, src source.Source, state source.RunState) error {
	saved, err := s.sourceRepo.SaveRunState(ctx, src.ID, source.StatusRunning, state)
	if err != nil {
		return err
	}
	if !saved {
		s.logger.InfoContext(ctx, "source changed during run, run state not saved",
			"source_id", src.ID,
			"status", state.Status,
		)
	}
	return nil
}

func (s *ReconciliationService) runLiveFixtures(ctx context.Context, src source.Source) (runResult, error) {
	feedCtx, cancel := context.WithTimeout(ctx, s.cfg.FeedTimeout)
	defer cancel()

	feed, err := s.feed.FetchLiveFixtures(feedCtx, src.Endpoint, src.Params)
	if err != nil {
		return runResult{}, asFeedFailure("fetch live fixtures", err)
	}

	now := s.now().UTC()
	result := runResult{rejected: len(feed.Rejected)}
	s.logRejected(ctx, src, feed.Rejected)

	snapshots := make([]livefixture.Snapshot, 0, len(feed.Items))
	positions := make(map[int64]int, len(feed.Items))
	for i, item := range feed.Items {
		if err := s.validate.StructCtx(ctx, item); err != nil {
			result.rejected++
			s.logger.WarnContext(ctx, "skip invalid live fixture", "source_id", src.ID, "index", i, "error", err)
			continue
		}
		snapshot := item.toSnapshot(src.ID, now)
		if pos, ok := positions[item.FixtureID]; ok {
			snapshots[pos] = snapshot
			continue
		}
		positions[item.FixtureID] = len(snapshots)
		snapshots = append(snapshots, snapshot)
	}

	if err := s.fixtureRepo.ReplaceForSource(ctx, src.ID, snapshots); err != nil {
		return runResult{}, &PersistenceError{Op: "replace live fixtures", Err: err}
	}
	result.items = len(snapshots)
	return result, nil
}

// runLiveOdds only asks upstream while fixtures are in play and keeps odds for
// those fixtures only.
func (s *ReconciliationService) runLiveOdds(ctx context.Context, src source.Source) (runResult, error) {
	live, err := s.fixtureRepo.LiveFixtureIDs(ctx)
	if err != nil {
		return runResult{}, &PersistenceError{Op: "read live fixture ids", Err: err}
	}
	if len(live) == 0 {
		if err := s.oddsRepo.ReplaceForSource(ctx, src.ID, nil); err != nil {
			return runResult{}, &PersistenceError{Op: "clear live odds", Err: err}
		}
		return runResult{}, nil
	}

	feedCtx, cancel := context.WithTimeout(ctx, s.cfg.FeedTimeout)
	defer cancel()

	feed, err := s.feed.FetchLiveOdds(feedCtx, src.Endpoint, src.Params)
	if err != nil {
		return runResult{}, asFeedFailure("fetch live odds", err)
	}

	now := s.now().UTC()
	result := runResult{rejected: len(feed.Rejected)}
	s.logRejected(ctx, src, feed.Rejected)

	snapshots := make([]liveodds.Snapshot, 0, len(feed.Items))
	positions := make(map[int64]int, len(feed.Items))
	for i, item := range feed.Items {
		if err := s.validate.StructCtx(ctx, item); err != nil {
			result.rejected++
			s.logger.WarnContext(ctx, "skip invalid live odds", "source_id", src.ID, "index", i, "error", err)
			continue
		}
		statusShort, ok := live[item.FixtureID]
		if !ok {
			result.filtered++
			continue
		}
		snapshot := item.toSnapshot(src.ID, statusShort, now)
		if pos, ok := positions[item.FixtureID]; ok {
			snapshots[pos] = snapshot
			continue
		}
		positions[item.FixtureID] = len(snapshots)
		snapshots = append(snapshots, snapshot)
	}

	if err := s.oddsRepo.ReplaceForSource(ctx, src.ID, snapshots); err != nil {
		return runResult{}, &PersistenceError{Op: "replace live odds", Err: err}
	}
	result.items = len(snapshots)
	return result, nil
}

func (s *ReconciliationService) logRejected(ctx context.Context, src source.Source, rejected []ValidationError) {
	for _, item := range rejected {
		s.logger.WarnContext(ctx, "skip undecodable feed item", "source_id", src.ID, "index", item.Index, "reason", item.Reason)
	}
}

func asFeedFailure(op string, err error) error {
	if IsFeedFailure(err) {
		return err
	}
	return &TransportError{Op: op, Err: err}
}

// ScheduleDueSources enqueues a reconcile job for every due source. Enqueue
// failures are counted per source and never abort the batch.
func (s *ReconciliationService) ScheduleDueSources(ctx context.Context) (ScheduleResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ReconciliationService.ScheduleDueSources")
	defer span.End()

	now := s.now().UTC()
	due, err := s.sourceRepo.ListDue(ctx, now)
	if err != nil {
		return ScheduleResult{}, fmt.Errorf("list due sources: %w", err)
	}

	result := ScheduleResult{DueCount: len(due), Queued: make([]int64, 0, len(due))}
	for _, item := range due {
		dedupID := dedupKey(JobNameReconcile, item.ID, now, item.Interval())
		payload := ReconcileJobPayload{SourceID: item.ID, DispatchID: dedupID}
		event := jobscheduler.DispatchEvent{
			DispatchID: dedupID,
			JobName:    JobNameReconcile,
			JobPath:    JobPathReconcile,
			SourceID:   item.ID,
			Status:     jobscheduler.StatusSent,
			Payload:    map[string]any{"source_id": item.ID, "dispatch_id": dedupID},
			OccurredAt: now,
		}

		if err := s.queue.Enqueue(ctx, JobPathReconcile, payload, 0, dedupID); err != nil {
			result.FailedCount++
			result.Failed = append(result.Failed, item.ID)
			event.Status = jobscheduler.StatusFailed
			event.ErrorMessage = err.Error()
			s.dispatches.record(ctx, event)
			s.logger.WarnContext(ctx, "enqueue reconcile failed", "source_id", item.ID, "error", err)
			continue
		}
		result.QueuedCount++
		result.Queued = append(result.Queued, item.ID)
		s.dispatches.record(ctx, event)
	}
	return result, nil
}

// RunDueSources reconciles every due source inline, concurrently.
func (s *ReconciliationService) RunDueSources(ctx context.Context) (RunDueResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ReconciliationService.RunDueSources")
	defer span.End()

	due, err := s.sourceRepo.ListDue(ctx, s.now().UTC())
	if err != nil {
		return RunDueResult{}, fmt.Errorf("list due sources: %w", err)
	}

	workers := pool.NewWithResults[ReconcileOutcome]().WithMaxGoroutines(s.cfg.MaxConcurrency)
	for _, item := range due {
		workers.Go(func() ReconcileOutcome {
			outcome, err := s.Reconcile(ctx, item.ID)
			if err != nil && outcome.SourceID == 0 {
				outcome = ReconcileOutcome{SourceID: item.ID, Kind: item.Kind.String(), Error: err.Error()}
			}
			return outcome
		})
	}

	result := RunDueResult{DueCount: len(due), Outcomes: workers.Wait()}
	for _, outcome := range result.Outcomes {
		if outcome.Success {
			result.SuccessCount++
			continue
		}
		result.FailedCount++
	}
	return result, nil
}

// CheckStalled pulls forward sources whose next run already passed but were
// never picked up, and releases running sources older than the lease.
func (s *ReconciliationService) CheckStalled(ctx context.Context) (StalledCheckResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ReconciliationService.CheckStalled")
	defer span.End()

	now := s.now().UTC()
	cutoff := now.Add(-s.cfg.RunningLease)
	stalled, err := s.sourceRepo.ListStalled(ctx, now, cutoff)
	if err != nil {
		return StalledCheckResult{}, fmt.Errorf("list stalled sources: %w", err)
	}

	result := StalledCheckResult{Found: len(stalled), SourceIDs: make([]int64, 0, len(stalled))}
	for _, item := range stalled {
		reset, err := s.sourceRepo.ResetStalled(ctx, item.ID, now, cutoff)
		if err != nil {
			s.logger.WarnContext(ctx, "reset stalled source failed", "source_id", item.ID, "error", err)
			continue
		}
		if !reset {
			continue
		}
		result.Reset++
		result.SourceIDs = append(result.SourceIDs, item.ID)
		s.logger.InfoContext(ctx, "stalled source rescheduled", "source_id", item.ID, "previous_status", item.Status)
	}
	return result, nil
}

func (s *ReconciliationService) ListSources(ctx context.Context) ([]source.Source, error) {
	items, err := s.sourceRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list sources: %w", err)
	}
	return items, nil
}

// ListDispatches returns the latest reconcile jobs of a source, newest first.
func (s *ReconciliationService) ListDispatches(ctx context.Context, sourceID int64, limit int) ([]jobscheduler.Dispatch, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ReconciliationService.ListDispatches")
	defer span.End()

	switch {
	case limit <= 0:
		limit = defaultDispatchListLimit
	case limit > maxDispatchListLimit:
		return nil, fmt.Errorf("%w: limit must be at most %d", ErrInvalidInput, maxDispatchListLimit)
	}
	if _, err := s.mustGet(ctx, sourceID); err != nil {
		return nil, err
	}
	if s.dispatches.repo == nil {
		return []jobscheduler.Dispatch{}, nil
	}

	items, err := s.dispatches.repo.ListBySource(ctx, sourceID, limit)
	if err != nil {
		return nil, fmt.Errorf("list dispatches source=%d: %w", sourceID, err)
	}
	return items, nil
}

// SetEnabled toggles a source. Enabling clears the error history and schedules
// an immediate run; disabling pauses it.
func (s *ReconciliationService) SetEnabled(ctx context.Context, sourceID int64, enabled bool) (source.Source, error) {
	item, err := s.mustGet(ctx, sourceID)
	if err != nil {
		return source.Source{}, err
	}

	now := s.now().UTC()
	state := item.RunState()
	state.At = now
	if enabled {
		state.Status = source.StatusIdle
		state.ErrorCount = 0
		state.LastError = ""
		state.NextRunAt = &now
	} else {
		state.Status = source.StatusPaused
	}
	ok, err := s.sourceRepo.SetEnabled(ctx, sourceID, enabled, state)
	if err != nil {
		return source.Source{}, fmt.Errorf("update source=%d: %w", sourceID, err)
	}
	if !ok {
		return source.Source{}, fmt.Errorf("%w: source=%d", ErrNotFound, sourceID)
	}
	item.Enabled = enabled
	return item.WithRunState(state), nil
}

// Restart resets a failed source for an immediate run.
func (s *ReconciliationService) Restart(ctx context.Context, sourceID int64) (source.Source, error) {
	item, err := s.mustGet(ctx, sourceID)
	if err != nil {
		return source.Source{}, err
	}
	if item.Status != source.StatusFailed {
		return source.Source{}, fmt.Errorf("%w: source=%d is %s, only failed sources can be restarted", ErrInvalidInput, sourceID, item.Status)
	}

	now := s.now().UTC()
	state := source.RunState{Status: source.StatusIdle, NextRunAt: &now, At: now}
	ok, err := s.sourceRepo.SaveRunState(ctx, sourceID, source.StatusFailed, state)
	if err != nil {
		return source.Source{}, fmt.Errorf("update source=%d: %w", sourceID, err)
	}
	if !ok {
		return source.Source{}, fmt.Errorf("%w: source=%d changed while restarting", ErrInvalidInput, sourceID)
	}
	return item.WithRunState(state), nil
}

// RegisterDefaults upserts one source per kind with the configured intervals.
func (s *ReconciliationService) RegisterDefaults(ctx context.Context) ([]source.Source, error) {
	now := s.now().UTC()
	intervals := map[source.Kind]time.Duration{
		source.KindLiveFixtures: s.cfg.FixturesInterval,
		source.KindLiveOdds:     s.cfg.OddsInterval,
	}

	out := make([]source.Source, 0, len(intervals))
	for _, kind := range source.Kinds() {
		spec, _ := kind.Spec()
		registered, err := s.sourceRepo.Register(ctx, source.Source{
			Name:            spec.DefaultName,
			Kind:            kind,
			Endpoint:        spec.DefaultEndpoint,
			Params:          spec.DefaultParams,
			Description:     spec.DefaultDescription,
			Enabled:         true,
			IntervalSeconds: int(intervals[kind] / time.Second),
			Status:          source.StatusIdle,
			NextRunAt:       &now,
		})
		if err != nil {
			return nil, fmt.Errorf("register default source kind=%s: %w", kind, err)
		}
		out = append(out, registered)
	}
	return out, nil
}

func (s *ReconciliationService) mustGet(ctx context.Context, sourceID int64) (source.Source, error) {
	item, exists, err := s.sourceRepo.GetByID(ctx, sourceID)
	if err != nil {
		return source.Source{}, fmt.Errorf("get source=%d: %w", sourceID, err)
	}
	if !exists {
		return source.Source{}, fmt.Errorf("%w: source=%d", ErrNotFound, sourceID)
	}
	return item, nil
}
