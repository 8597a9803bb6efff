package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jcamiloaa/deep90-app/internal/platform/logging"
	"github.com/panjf2000/ants/v2"
)

type inboundHandler interface {
	HandleInbound(ctx context.Context, msg InboundMessage) (ChatOutcome, error)
}

// ChatDispatcher hands inbound messages to a bounded worker pool so webhook
// requests return immediately. Messages from the same sender run one at a time.
type ChatDispatcher struct {
	pool    *ants.Pool
	handler inboundHandler
	timeout time.Duration
	logger  *logging.Logger

	locksMu sync.Mutex
	locks   map[string]*senderLock
	wg      sync.WaitGroup
}

type senderLock struct {
	mu   sync.Mutex
	refs int
}

func NewChatDispatcher(handler *ChatService, size int, timeout time.Duration, logger *logging.Logger) (*ChatDispatcher, error) {
	return newChatDispatcher(handler, size, timeout, logger)
}

func newChatDispatcher(handler inboundHandler, size int, timeout time.Duration, logger *logging.Logger) (*ChatDispatcher, error) {
	if handler == nil {
		return nil, fmt.Errorf("%w: chat handler is required", ErrInvalidInput)
	}
	if logger == nil {
		logger = logging.Default()
	}
	if size <= 0 {
		size = 16
	}
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}

	pool, err := ants.NewPool(size, ants.WithNonblocking(true))
	if err != nil {
		return nil, fmt.Errorf("create chat worker pool: %w", err)
	}
	return &ChatDispatcher{
		pool:    pool,
		handler: handler,
		timeout: timeout,
		logger:  logger.Named("chat_dispatcher"),
		locks:   make(map[string]*senderLock),
	}, nil
}

// Submit queues msg. The work outlives ctx cancellation but keeps its values
// (trace span) and is bounded by the dispatcher timeout.
func (d *ChatDispatcher) Submit(ctx context.Context, msg InboundMessage) error {
	workCtx := context.WithoutCancel(ctx)

	d.wg.Add(1)
	err := d.pool.Submit(func() {
		defer d.wg.Done()

		key := normalizePhone(msg.From)
		unlock := d.lock(key)
		defer unlock()

		runCtx, cancel := context.WithTimeout(workCtx, d.timeout)
		defer cancel()

		outcome, err := d.handler.HandleInbound(runCtx, msg)
		if err != nil {
			d.logger.WarnContext(runCtx, "chat message handling failed",
				"message_id", msg.MessageID,
				"subscriber_id", outcome.SubscriberID,
				"error", err,
			)
			return
		}
		d.logger.DebugContext(runCtx, "chat message handled",
			"message_id", msg.MessageID,
			"action", outcome.Action,
			"limited", outcome.Limited,
		)
	})
	if err != nil {
		d.wg.Done()
		return fmt.Errorf("%w: submit chat message: %v", ErrDependencyUnavailable, err)
	}
	return nil
}

func (d *ChatDispatcher) lock(key string) func() {
	d.locksMu.Lock()
	l, ok := d.locks[key]
	if !ok {
		l = &senderLock{}
		d.locks[key] = l
	}
	l.refs++
	d.locksMu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		d.locksMu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(d.locks, key)
		}
		d.locksMu.Unlock()
	}
}

// Close waits for queued messages until ctx ends, then releases the pool.
func (d *ChatDispatcher) Close(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		d.pool.Release()
		return nil
	case <-ctx.Done():
		d.pool.Release()
		return fmt.Errorf("drain chat dispatcher: %w", ctx.Err())
	}
}
