package memory

import (
	"context"
	"testing"
	"time"

	"github.com/jcamiloaa/deep90-app/internal/domain/conversation"
	"github.com/jcamiloaa/deep90-app/internal/domain/source"
)

func TestSourceRepository_ClaimIsExclusive(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := NewSourceRepository()
	item, err := repo.Register(ctx, source.Source{Name: "live-fixtures", Kind: source.KindLiveFixtures, Enabled: true, IntervalSeconds: 60})
	if err != nil {
		t.Fatalf("register source: %v", err)
	}

	at := time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)
	if _, ok, _ := repo.Claim(ctx, item.ID, at); !ok {
		t.Fatalf("first claim must win")
	}
	if _, ok, _ := repo.Claim(ctx, item.ID, at); ok {
		t.Fatalf("second claim must lose while running")
	}
}

func TestSourceRepository_RegisterKeepsRunState(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := NewSourceRepository()
	first, _ := repo.Register(ctx, source.Source{Name: "live-odds", Kind: source.KindLiveOdds, Enabled: true, IntervalSeconds: 60})
	first.ErrorCount = 3
	first.Status = source.StatusFailed
	if err := repo.Update(ctx, first); err != nil {
		t.Fatalf("update: %v", err)
	}

	again, err := repo.Register(ctx, source.Source{Name: "live-odds", Kind: source.KindLiveOdds, Enabled: true, IntervalSeconds: 90})
	if err != nil {
		t.Fatalf("register again: %v", err)
	}
	if again.ID != first.ID || again.IntervalSeconds != 90 || again.ErrorCount != 3 || again.Status != source.StatusFailed {
		t.Fatalf("unexpected upsert result: %+v", again)
	}
}

func TestSourceRepository_RegisterKeepsDisabledSource(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := NewSourceRepository()
	at := time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)
	first, _ := repo.Register(ctx, source.Source{Name: "live-fixtures", Kind: source.KindLiveFixtures, Enabled: true, IntervalSeconds: 60, NextRunAt: &at})
	if ok, err := repo.SetEnabled(ctx, first.ID, false, source.RunState{Status: source.StatusPaused, NextRunAt: &at, At: at}); err != nil || !ok {
		t.Fatalf("disable: ok=%v err=%v", ok, err)
	}

	later := at.Add(time.Hour)
	again, err := repo.Register(ctx, source.Source{Name: "live-fixtures", Kind: source.KindLiveFixtures, Enabled: true, IntervalSeconds: 60, NextRunAt: &later})
	if err != nil {
		t.Fatalf("register again: %v", err)
	}
	if again.Enabled || again.Status != source.StatusPaused || again.NextRunAt == nil || !again.NextRunAt.Equal(at) {
		t.Fatalf("re-register must keep the disabled run state: %+v", again)
	}
	if due, _ := repo.ListDue(ctx, later); len(due) != 0 {
		t.Fatalf("disabled source must not become due after re-register: %+v", due)
	}
}

func TestSourceRepository_SaveRunStateSkipsDisabledSource(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := NewSourceRepository()
	at := time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)
	item, _ := repo.Register(ctx, source.Source{Name: "live-odds", Kind: source.KindLiveOdds, Enabled: true, IntervalSeconds: 60})
	if _, ok, _ := repo.Claim(ctx, item.ID, at); !ok {
		t.Fatalf("claim must win")
	}
	if _, err := repo.SetEnabled(ctx, item.ID, false, source.RunState{Status: source.StatusPaused, At: at}); err != nil {
		t.Fatalf("disable: %v", err)
	}

	next := at.Add(time.Minute)
	saved, err := repo.SaveRunState(ctx, item.ID, source.StatusRunning, source.RunState{Status: source.StatusIdle, NextRunAt: &next, At: next})
	if err != nil || saved {
		t.Fatalf("run state must not be saved on a disabled source: saved=%v err=%v", saved, err)
	}
	stored, _, _ := repo.GetByID(ctx, item.ID)
	if stored.Enabled || stored.Status != source.StatusPaused {
		t.Fatalf("unexpected source: %+v", stored)
	}
}

func TestSourceRepository_ResetStalledIsConditional(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := NewSourceRepository()
	now := time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)
	past := now.Add(-5 * time.Minute)
	item, _ := repo.Register(ctx, source.Source{Name: "s", Kind: source.KindLiveFixtures, Enabled: true, IntervalSeconds: 60, NextRunAt: &past})

	cutoff := now.Add(-10 * time.Minute)
	ok, err := repo.ResetStalled(ctx, item.ID, now, cutoff)
	if err != nil || !ok {
		t.Fatalf("expected reset: ok=%v err=%v", ok, err)
	}
	ok, _ = repo.ResetStalled(ctx, item.ID, now, cutoff)
	if ok {
		t.Fatalf("second reset must be a no-op because next_run is no longer in the past")
	}
}

func TestConversationRepository_ActivateKeepsOneActive(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := NewConversationRepository()
	at := time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)

	first, err := repo.Activate(ctx, conversation.ActivateInput{UserID: 7, ThreadID: "t1", Persona: conversation.PersonaGeneral, At: at})
	if err != nil {
		t.Fatalf("activate first: %v", err)
	}
	second, err := repo.Activate(ctx, conversation.ActivateInput{
		UserID:   7,
		ThreadID: "t2",
		Persona:  conversation.PersonaBetting,
		At:       at.Add(time.Minute),
		Message:  &conversation.Message{ID: "m1", Direction: conversation.DirectionUser, Content: "hi", CreatedAt: at},
	})
	if err != nil {
		t.Fatalf("activate second: %v", err)
	}

	if got := repo.ActiveCount(7); got != 1 {
		t.Fatalf("unexpected active count: got=%d want=1", got)
	}
	active, ok, _ := repo.GetActive(ctx, 7)
	if !ok || active.ID != second.ID || active.ID == first.ID {
		t.Fatalf("unexpected active conversation: %+v", active)
	}
	messages, _ := repo.ListMessages(ctx, second.ID, 0)
	if len(messages) != 1 || messages[0].ConversationID != second.ID {
		t.Fatalf("activation message not stored: %+v", messages)
	}
}

func TestConversationRepository_ActivateStoresPreserveOfPrevious(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := NewConversationRepository()
	at := time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)

	// created preserved, left while the tier no longer keeps context
	if _, err := repo.Activate(ctx, conversation.ActivateInput{UserID: 7, ThreadID: "t1", Persona: conversation.PersonaGeneral, Preserve: true, At: at}); err != nil {
		t.Fatalf("activate first: %v", err)
	}
	if _, err := repo.Activate(ctx, conversation.ActivateInput{UserID: 7, ThreadID: "t2", Persona: conversation.PersonaBetting, PreservePrevious: false, At: at}); err != nil {
		t.Fatalf("activate second: %v", err)
	}
	if _, found, _ := repo.FindPreserved(ctx, 7, conversation.PersonaGeneral, nil); found {
		t.Fatalf("conversation left with PreservePrevious=false must not be offered again")
	}

	if _, err := repo.Activate(ctx, conversation.ActivateInput{UserID: 7, ThreadID: "t3", Persona: conversation.PersonaGeneral, PreservePrevious: true, At: at}); err != nil {
		t.Fatalf("activate third: %v", err)
	}
	saved, found, _ := repo.FindPreserved(ctx, 7, conversation.PersonaBetting, nil)
	if !found || saved.ThreadID != "t2" {
		t.Fatalf("expected betting conversation preserved, got found=%v %+v", found, saved)
	}
}
