package jobqueue

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/jcamiloaa/deep90-app/internal/platform/cache"
	"github.com/jcamiloaa/deep90-app/internal/platform/logging"
	"github.com/panjf2000/ants/v2"
)

// Handler runs one job body, the same JSON a remote queue would POST.
type Handler func(ctx context.Context, body []byte) error

type LocalQueueConfig struct {
	Workers     int
	DedupWindow time.Duration
	JobTimeout  time.Duration
}

// LocalQueue runs jobs in-process on an ants pool. It stands in for QStash in
// development and single-node deployments.
type LocalQueue struct {
	pool     *ants.Pool
	handlers map[string]Handler
	dedup    *cache.Store[struct{}]
	timeout  time.Duration
	logger   *logging.Logger

	mu     sync.Mutex
	timers map[*time.Timer]struct{}
	closed bool
	wg     sync.WaitGroup
}

func NewLocalQueue(cfg LocalQueueConfig, logger *logging.Logger) (*LocalQueue, error) {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	if cfg.DedupWindow <= 0 {
		cfg.DedupWindow = 10 * time.Minute
	}
	if cfg.JobTimeout <= 0 {
		cfg.JobTimeout = 2 * time.Minute
	}

	pool, err := ants.NewPool(cfg.Workers)
	if err != nil {
		return nil, fmt.Errorf("create job worker pool: %w", err)
	}
	return &LocalQueue{
		pool:     pool,
		handlers: make(map[string]Handler),
		dedup:    cache.NewStore[struct{}](cfg.DedupWindow),
		timeout:  cfg.JobTimeout,
		logger:   logger.Named("local_queue"),
		timers:   make(map[*time.Timer]struct{}),
	}, nil
}

// Handle registers the handler for path. Register before the first Enqueue.
func (q *LocalQueue) Handle(path string, handler Handler) {
	q.handlers[normalizePath(path)] = handler
}

func (q *LocalQueue) Enqueue(ctx context.Context, path string, payload any, delay time.Duration, deduplicationID string) error {
	path = normalizePath(path)
	handler, ok := q.handlers[path]
	if !ok {
		return fmt.Errorf("no local job handler for path=%s", path)
	}
	if payload == nil {
		payload = map[string]any{}
	}
	body, err := sonic.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal job payload: %w", err)
	}

	if dedup := strings.TrimSpace(deduplicationID); dedup != "" {
		if !q.dedup.SetIfAbsent(ctx, path+"|"+dedup, struct{}{}) {
			q.logger.DebugContext(ctx, "duplicate local job dropped", "path", path, "deduplication_id", dedup)
			return nil
		}
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return fmt.Errorf("local queue is closed")
	}

	jobCtx := context.WithoutCancel(ctx)
	q.wg.Add(1)
	if delay <= 0 {
		return q.submitLocked(jobCtx, path, handler, body)
	}

	var timer *time.Timer
	timer = time.AfterFunc(delay, func() {
		q.mu.Lock()
		defer q.mu.Unlock()
		delete(q.timers, timer)
		if q.closed {
			q.wg.Done()
			return
		}
		if err := q.submitLocked(jobCtx, path, handler, body); err != nil {
			q.logger.ErrorContext(jobCtx, "submit delayed local job failed", "path", path, "error", err)
		}
	})
	q.timers[timer] = struct{}{}
	return nil
}

// submitLocked expects q.mu held and one wg slot reserved for the job.
func (q *LocalQueue) submitLocked(ctx context.Context, path string, handler Handler, body []byte) error {
	err := q.pool.Submit(func() {
		defer q.wg.Done()

		runCtx, cancel := context.WithTimeout(ctx, q.timeout)
		defer cancel()
		started := time.Now()
		if err := handler(runCtx, body); err != nil {
			q.logger.WarnContext(runCtx, "local job failed", "path", path, "error", err, "execution_ms", time.Since(started).Milliseconds())
			return
		}
		q.logger.DebugContext(runCtx, "local job done", "path", path, "execution_ms", time.Since(started).Milliseconds())
	})
	if err != nil {
		q.wg.Done()
		return fmt.Errorf("submit local job path=%s: %w", path, err)
	}
	return nil
}

// Close drops delayed jobs that have not fired, waits for running ones until
// ctx ends and releases the pool.
func (q *LocalQueue) Close(ctx context.Context) error {
	q.mu.Lock()
	q.closed = true
	for timer := range q.timers {
		if timer.Stop() {
			q.wg.Done()
		}
		delete(q.timers, timer)
	}
	q.mu.Unlock()

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()
	defer q.pool.Release()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("drain local queue: %w", ctx.Err())
	}
}

func normalizePath(path string) string {
	return "/" + strings.TrimLeft(strings.TrimSpace(path), "/")
}
