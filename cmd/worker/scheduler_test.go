package main

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jcamiloaa/deep90-app/internal/platform/logging"
	"github.com/jcamiloaa/deep90-app/internal/usecase"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingReconciler struct {
	scheduled atomic.Int32
	ran       atomic.Int32
	stalled   atomic.Int32
	err       error
}

func (r *countingReconciler) ScheduleDueSources(context.Context) (usecase.ScheduleResult, error) {
	r.scheduled.Add(1)
	return usecase.ScheduleResult{DueCount: 1, QueuedCount: 1}, r.err
}

func (r *countingReconciler) RunDueSources(context.Context) (usecase.RunDueResult, error) {
	r.ran.Add(1)
	return usecase.RunDueResult{DueCount: 1, SuccessCount: 1}, r.err
}

func (r *countingReconciler) CheckStalled(context.Context) (usecase.StalledCheckResult, error) {
	r.stalled.Add(1)
	return usecase.StalledCheckResult{}, r.err
}

func TestScheduler_TickSchedulesByDefault(t *testing.T) {
	rec := &countingReconciler{}
	s, err := newScheduler(context.Background(), rec, schedulerConfig{Tick: time.Minute}, logging.NewNop())
	require.NoError(t, err)

	s.tick()

	assert.EqualValues(t, 1, rec.scheduled.Load())
	assert.EqualValues(t, 0, rec.ran.Load())
}

func TestScheduler_TickRunsInline(t *testing.T) {
	rec := &countingReconciler{}
	s, err := newScheduler(context.Background(), rec, schedulerConfig{Tick: time.Minute, RunInline: true}, logging.NewNop())
	require.NoError(t, err)

	s.tick()

	assert.EqualValues(t, 0, rec.scheduled.Load())
	assert.EqualValues(t, 1, rec.ran.Load())
}

func TestScheduler_FailuresAreLoggedNotFatal(t *testing.T) {
	rec := &countingReconciler{err: errors.New("db down")}
	s, err := newScheduler(context.Background(), rec, schedulerConfig{}, logging.NewNop())
	require.NoError(t, err)

	assert.NotPanics(t, func() {
		s.tick()
		s.checkStalled()
	})
	assert.EqualValues(t, 1, rec.stalled.Load())
}

func TestScheduler_RegistersBothJobs(t *testing.T) {
	s, err := newScheduler(context.Background(), &countingReconciler{}, schedulerConfig{}, logging.NewNop())
	require.NoError(t, err)

	assert.Len(t, s.cron.Entries(), 2)
	assert.Equal(t, 15*time.Second, s.cfg.Tick)
	assert.Equal(t, 5*time.Minute, s.cfg.StalledCheckInterval)
}

func TestScheduler_StartAndStop(t *testing.T) {
	rec := &countingReconciler{}
	s, err := newScheduler(context.Background(), rec, schedulerConfig{Tick: time.Second}, logging.NewNop())
	require.NoError(t, err)

	s.Start()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, s.Stop(ctx))
}
