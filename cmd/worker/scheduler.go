package main

import (
	"context"
	"fmt"
	"time"

	"github.com/jcamiloaa/deep90-app/internal/platform/logging"
	"github.com/jcamiloaa/deep90-app/internal/usecase"
	"github.com/robfig/cron/v3"
)

type reconciler interface {
	ScheduleDueSources(ctx context.Context) (usecase.ScheduleResult, error)
	RunDueSources(ctx context.Context) (usecase.RunDueResult, error)
	CheckStalled(ctx context.Context) (usecase.StalledCheckResult, error)
}

type schedulerConfig struct {
	Tick                 time.Duration
	StalledCheckInterval time.Duration
	RunInline            bool
	JobTimeout           time.Duration
}

// scheduler drives the periodic reconcile loop. Overlapping runs of the same
// job are skipped rather than queued.
type scheduler struct {
	cron       *cron.Cron
	reconciler reconciler
	cfg        schedulerConfig
	logger     *logging.Logger
	baseCtx    context.Context
}

func newScheduler(baseCtx context.Context, r reconciler, cfg schedulerConfig, logger *logging.Logger) (*scheduler, error) {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.Tick <= 0 {
		cfg.Tick = 15 * time.Second
	}
	if cfg.StalledCheckInterval <= 0 {
		cfg.StalledCheckInterval = 5 * time.Minute
	}
	if cfg.JobTimeout <= 0 {
		cfg.JobTimeout = 10 * time.Minute
	}

	cronLog := cronLogger{logger: logger.Named("cron")}
	s := &scheduler{
		cron: cron.New(
			cron.WithLogger(cronLog),
			cron.WithChain(cron.Recover(cronLog), cron.SkipIfStillRunning(cronLog)),
		),
		reconciler: r,
		cfg:        cfg,
		logger:     logger.Named("scheduler"),
		baseCtx:    baseCtx,
	}

	if _, err := s.cron.AddFunc("@every "+cfg.Tick.String(), s.tick); err != nil {
		return nil, fmt.Errorf("register scheduler tick: %w", err)
	}
	if _, err := s.cron.AddFunc("@every "+cfg.StalledCheckInterval.String(), s.checkStalled); err != nil {
		return nil, fmt.Errorf("register stalled check: %w", err)
	}
	return s, nil
}

func (s *scheduler) Start() {
	s.logger.Info("scheduler starting",
		"tick", s.cfg.Tick.String(),
		"stalled_check_interval", s.cfg.StalledCheckInterval.String(),
		"run_inline", s.cfg.RunInline,
	)
	s.cron.Start()
}

// Stop halts new runs and waits for running ones until ctx expires.
func (s *scheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *scheduler) tick() {
	ctx, cancel := context.WithTimeout(s.baseCtx, s.cfg.JobTimeout)
	defer cancel()

	if s.cfg.RunInline {
		result, err := s.reconciler.RunDueSources(ctx)
		if err != nil {
			s.logger.ErrorContext(ctx, "run due sources failed", "error", err)
			return
		}
		if result.DueCount > 0 {
			s.logger.InfoContext(ctx, "ran due sources",
				"due", result.DueCount,
				"succeeded", result.SuccessCount,
				"failed", result.FailedCount,
			)
		}
		return
	}

	result, err := s.reconciler.ScheduleDueSources(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "schedule due sources failed", "error", err)
		return
	}
	if result.DueCount > 0 {
		s.logger.InfoContext(ctx, "scheduled due sources",
			"due", result.DueCount,
			"queued", result.QueuedCount,
			"failed", result.FailedCount,
		)
	}
}

func (s *scheduler) checkStalled() {
	ctx, cancel := context.WithTimeout(s.baseCtx, s.cfg.JobTimeout)
	defer cancel()

	result, err := s.reconciler.CheckStalled(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "stalled check failed", "error", err)
		return
	}
	if result.Reset > 0 {
		s.logger.WarnContext(ctx, "reset stalled sources", "found", result.Found, "reset", result.Reset, "source_ids", result.SourceIDs)
	}
}

// cronLogger adapts the app logger to cron.Logger.
type cronLogger struct {
	logger *logging.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error(msg, append(keysAndValues, "error", err)...)
}
