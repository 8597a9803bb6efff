package cache

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestStore_ExpiresEntries(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 14, 18, 0, 0, 0, time.UTC)
	s := NewStore[int](10 * time.Second)
	s.now = func() time.Time { return now }

	s.Set(ctx, "live:fixtures", 3)
	if got, ok := s.Get(ctx, "live:fixtures"); !ok || got != 3 {
		t.Fatalf("expected cached value 3, got %d ok=%v", got, ok)
	}

	now = now.Add(11 * time.Second)
	if _, ok := s.Get(ctx, "live:fixtures"); ok {
		t.Fatalf("expected entry to expire")
	}
}

func TestStore_SetIfAbsent(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 14, 18, 0, 0, 0, time.UTC)
	s := NewStore[struct{}](time.Minute)
	s.now = func() time.Time { return now }

	if !s.SetIfAbsent(ctx, "reconcile-1-20260314T180000Z", struct{}{}) {
		t.Fatalf("first insert must succeed")
	}
	if s.SetIfAbsent(ctx, "reconcile-1-20260314T180000Z", struct{}{}) {
		t.Fatalf("duplicate insert must be rejected")
	}

	now = now.Add(2 * time.Minute)
	if !s.SetIfAbsent(ctx, "reconcile-1-20260314T180000Z", struct{}{}) {
		t.Fatalf("insert after expiry must succeed")
	}
}

func TestStore_GetOrLoad(t *testing.T) {
	ctx := context.Background()
	s := NewStore[string](time.Minute)
	loads := 0

	loader := func(context.Context) (string, error) {
		loads++
		return "value", nil
	}
	for i := 0; i < 3; i++ {
		got, err := s.GetOrLoad(ctx, "k", loader)
		if err != nil || got != "value" {
			t.Fatalf("unexpected result: %q %v", got, err)
		}
	}
	if loads != 1 {
		t.Fatalf("expected one load, got %d", loads)
	}

	boom := errors.New("boom")
	if _, err := s.GetOrLoad(ctx, "other", func(context.Context) (string, error) { return "", boom }); !errors.Is(err, boom) {
		t.Fatalf("expected loader error, got %v", err)
	}
	if _, ok := s.Get(ctx, "other"); ok {
		t.Fatalf("failed load must not be cached")
	}
}
