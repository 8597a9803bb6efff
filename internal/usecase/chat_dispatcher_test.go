package usecase

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type orderingHandler struct {
	mu       sync.Mutex
	inFlight map[string]int
	overlap  atomic.Bool
	handled  atomic.Int32
}

func (h *orderingHandler) HandleInbound(_ context.Context, msg InboundMessage) (ChatOutcome, error) {
	h.mu.Lock()
	h.inFlight[msg.From]++
	if h.inFlight[msg.From] > 1 {
		h.overlap.Store(true)
	}
	h.mu.Unlock()

	time.Sleep(2 * time.Millisecond)

	h.mu.Lock()
	h.inFlight[msg.From]--
	h.mu.Unlock()
	h.handled.Add(1)
	return ChatOutcome{Action: ActionContinue}, nil
}

func TestChatDispatcher_SerializesPerSender(t *testing.T) {
	t.Parallel()

	handler := &orderingHandler{inFlight: map[string]int{}}
	d, err := newChatDispatcher(handler, 8, time.Second, nil)
	if err != nil {
		t.Fatalf("new dispatcher: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	for i := 0; i < 6; i++ {
		from := "573001112233"
		if i%2 == 1 {
			from = "573004445566"
		}
		if err := d.Submit(ctx, InboundMessage{MessageID: "m", From: from, Text: "hi"}); err != nil {
			t.Fatalf("submit %d: %v", i, err)
		}
	}
	// Work must survive the request context.
	cancel()

	closeCtx, closeCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer closeCancel()
	if err := d.Close(closeCtx); err != nil {
		t.Fatalf("close: %v", err)
	}
	if got := handler.handled.Load(); got != 6 {
		t.Fatalf("unexpected handled count: got=%d want=6", got)
	}
	if handler.overlap.Load() {
		t.Fatalf("messages from one sender ran concurrently")
	}
}
