package jobqueue

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	sonic "github.com/bytedance/sonic"
)

type reconcileBody struct {
	SourceID int64 `json:"source_id"`
}

func TestLocalQueue_RunsHandlerWithJSONBody(t *testing.T) {
	t.Parallel()

	q, err := NewLocalQueue(LocalQueueConfig{Workers: 2}, nil)
	if err != nil {
		t.Fatalf("new queue: %v", err)
	}

	var (
		mu  sync.Mutex
		got []int64
	)
	q.Handle("v1/internal/jobs/reconcile", func(_ context.Context, body []byte) error {
		var payload reconcileBody
		if err := sonic.Unmarshal(body, &payload); err != nil {
			return err
		}
		mu.Lock()
		got = append(got, payload.SourceID)
		mu.Unlock()
		return nil
	})

	ctx := context.Background()
	if err := q.Enqueue(ctx, "/v1/internal/jobs/reconcile", reconcileBody{SourceID: 4}, 0, "reconcile-4-slot"); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	// same dedup id inside the window is dropped
	if err := q.Enqueue(ctx, "/v1/internal/jobs/reconcile", reconcileBody{SourceID: 4}, 0, "reconcile-4-slot"); err != nil {
		t.Fatalf("enqueue duplicate: %v", err)
	}
	if err := q.Enqueue(ctx, "/v1/internal/jobs/reconcile", reconcileBody{SourceID: 5}, 5*time.Millisecond, ""); err != nil {
		t.Fatalf("enqueue delayed: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		mu.Lock()
		n := len(got)
		mu.Unlock()
		if n == 2 || time.Now().After(deadline) {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}

	closeCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	if err := q.Close(closeCtx); err != nil {
		t.Fatalf("close: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(got) != 2 {
		t.Fatalf("unexpected handled jobs: got=%v want=[4 5]", got)
	}
}

func TestLocalQueue_UnknownPath(t *testing.T) {
	t.Parallel()

	q, err := NewLocalQueue(LocalQueueConfig{}, nil)
	if err != nil {
		t.Fatalf("new queue: %v", err)
	}
	defer func() { _ = q.Close(context.Background()) }()

	if err := q.Enqueue(context.Background(), "/nope", nil, 0, ""); err == nil {
		t.Fatalf("expected error for unknown path")
	}
}

func TestLocalQueue_CloseDropsPendingDelayedJobs(t *testing.T) {
	t.Parallel()

	q, err := NewLocalQueue(LocalQueueConfig{}, nil)
	if err != nil {
		t.Fatalf("new queue: %v", err)
	}
	ran := make(chan struct{}, 1)
	q.Handle("/job", func(context.Context, []byte) error {
		ran <- struct{}{}
		return errors.New("should not run")
	})
	if err := q.Enqueue(context.Background(), "/job", nil, time.Hour, ""); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if err := q.Close(context.Background()); err != nil {
		t.Fatalf("close: %v", err)
	}
	select {
	case <-ran:
		t.Fatalf("delayed job ran after close")
	default:
	}
	if err := q.Enqueue(context.Background(), "/job", nil, 0, ""); err == nil {
		t.Fatalf("expected enqueue after close to fail")
	}
}
