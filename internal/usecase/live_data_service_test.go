package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/jcamiloaa/deep90-app/internal/domain/livefixture"
	"github.com/jcamiloaa/deep90-app/internal/domain/liveodds"
	"github.com/jcamiloaa/deep90-app/internal/infrastructure/repository/memory"
)

func TestLiveDataService_ListLiveFixtures(t *testing.T) {
	ctx := context.Background()
	fixtures := memory.NewLiveFixtureRepository()
	if err := fixtures.ReplaceForSource(ctx, 1, []livefixture.Snapshot{
		{SourceID: 1, FixtureID: 10, Status: livefixture.Status{Short: "1H"}},
		{SourceID: 1, FixtureID: 11, Status: livefixture.Status{Short: "FT"}},
	}); err != nil {
		t.Fatalf("seed fixtures: %v", err)
	}

	svc := NewLiveDataService(fixtures, memory.NewLiveOddsRepository(), nil)

	items, err := svc.ListLiveFixtures(ctx, 0)
	if err != nil {
		t.Fatalf("list live fixtures: %v", err)
	}
	if len(items) != 1 || items[0].FixtureID != 10 {
		t.Fatalf("expected only the in-play fixture, got %+v", items)
	}

	if _, err := svc.ListLiveFixtures(ctx, maxLiveFixturesLimit+1); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for oversized limit, got %v", err)
	}
}

func TestLiveDataService_GetLiveOdds(t *testing.T) {
	ctx := context.Background()
	odds := memory.NewLiveOddsRepository()
	if err := odds.ReplaceForSource(ctx, 2, []liveodds.Snapshot{{SourceID: 2, FixtureID: 10, StatusShort: "2H"}}); err != nil {
		t.Fatalf("seed odds: %v", err)
	}

	svc := NewLiveDataService(memory.NewLiveFixtureRepository(), odds, nil)

	item, err := svc.GetLiveOdds(ctx, 10)
	if err != nil {
		t.Fatalf("get live odds: %v", err)
	}
	if item.StatusShort != "2H" {
		t.Fatalf("unexpected snapshot: %+v", item)
	}

	if _, err := svc.GetLiveOdds(ctx, 99); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := svc.GetLiveOdds(ctx, 0); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}
