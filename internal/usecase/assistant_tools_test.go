package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jcamiloaa/deep90-app/internal/domain/livefixture"
	"github.com/jcamiloaa/deep90-app/internal/domain/liveodds"
	"github.com/jcamiloaa/deep90-app/internal/infrastructure/repository/memory"
	livefixturemock "github.com/jcamiloaa/deep90-app/internal/mocks/domain/livefixture"
)

func intPtr(v int) *int { return &v }

func TestAssistantToolbox_Definitions(t *testing.T) {
	t.Parallel()

	box := NewAssistantToolbox(memory.NewLiveFixtureRepository(), memory.NewLiveOddsRepository(), 0, nil)
	defs := box.Definitions()
	if len(defs) != 2 || defs[0].Name != ToolLiveMatchResults || defs[1].Name != ToolLiveOdds {
		t.Fatalf("unexpected definitions: %+v", defs)
	}
}

func TestAssistantToolbox_LiveMatchResults(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	fixtures := memory.NewLiveFixtureRepository()
	err := fixtures.ReplaceForSource(ctx, 1, []livefixture.Snapshot{{
		SourceID:  1,
		FixtureID: 1035,
		Status:    livefixture.Status{Short: "2H", Elapsed: intPtr(67)},
		Home:      livefixture.TeamSide{Name: "Millonarios"},
		Away:      livefixture.TeamSide{Name: "Nacional"},
		Goals:     livefixture.ScorePair{Home: intPtr(2), Away: intPtr(1)},
		League:    livefixture.League{Name: "Primera A", Country: "Colombia"},
	}})
	if err != nil {
		t.Fatalf("seed fixtures: %v", err)
	}

	box := NewAssistantToolbox(fixtures, memory.NewLiveOddsRepository(), time.Minute, nil)
	outputs := box.Execute(ctx, []ToolCall{{ID: "call_1", Name: ToolLiveMatchResults}})
	if len(outputs) != 1 || outputs[0].ToolCallID != "call_1" {
		t.Fatalf("unexpected outputs: %+v", outputs)
	}
	for _, want := range []string{"Colombia", "1035", "67'", "*Millonarios* 2 - 1 *Nacional*"} {
		if !strings.Contains(outputs[0].Output, want) {
			t.Fatalf("output missing %q:\n%s", want, outputs[0].Output)
		}
	}
}

func TestAssistantToolbox_LiveMatchResultsIsCached(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := livefixturemock.NewRepository(t)
	repo.On("ListLive", ctx, liveMatchesToolLimit).Return([]livefixture.Snapshot{}, nil).Once()

	box := NewAssistantToolbox(repo, memory.NewLiveOddsRepository(), time.Minute, nil)
	for i := 0; i < 3; i++ {
		outputs := box.Execute(ctx, []ToolCall{{ID: "c", Name: ToolLiveMatchResults}})
		if outputs[0].Output != "There are no live matches right now." {
			t.Fatalf("unexpected output: %q", outputs[0].Output)
		}
	}
}

func TestAssistantToolbox_FailuresBecomeOutputText(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := livefixturemock.NewRepository(t)
	repo.On("ListLive", ctx, liveMatchesToolLimit).Return(nil, errors.New("db down")).Once()

	box := NewAssistantToolbox(repo, memory.NewLiveOddsRepository(), time.Minute, nil)
	outputs := box.Execute(ctx, []ToolCall{
		{ID: "a", Name: ToolLiveMatchResults},
		{ID: "b", Name: "get_standings"},
		{ID: "c", Name: ToolLiveOdds, Arguments: "{not json"},
		{ID: "d", Name: ToolLiveOdds, Arguments: "{}"},
	})
	if len(outputs) != 4 {
		t.Fatalf("unexpected output count: got=%d want=4", len(outputs))
	}
	if !strings.Contains(outputs[0].Output, "db down") {
		t.Fatalf("unexpected output: %q", outputs[0].Output)
	}
	if outputs[1].Output != "Error: function 'get_standings' is not implemented." {
		t.Fatalf("unexpected output: %q", outputs[1].Output)
	}
	if !strings.Contains(outputs[2].Output, "invalid arguments") {
		t.Fatalf("unexpected output: %q", outputs[2].Output)
	}
	if !strings.Contains(outputs[3].Output, "fixture_id is required") {
		t.Fatalf("unexpected output: %q", outputs[3].Output)
	}
}

func TestAssistantToolbox_LiveOdds(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	odds := memory.NewLiveOddsRepository()
	err := odds.ReplaceForSource(ctx, 2, []liveodds.Snapshot{{
		SourceID:    2,
		FixtureID:   1035,
		StatusShort: "2H",
		Elapsed:     intPtr(67),
		GoalsHome:   intPtr(2),
		GoalsAway:   intPtr(1),
		Categories: []liveodds.Category{{
			ExternalID: 59,
			Name:       "Fulltime Result",
			Values: []liveodds.Value{
				{Label: "Home", Odd: "1.45", Main: true},
				{Label: "Draw", Odd: "4.10"},
				{Label: "Away", Odd: "7.00", Suspended: true},
			},
		}},
	}})
	if err != nil {
		t.Fatalf("seed odds: %v", err)
	}

	box := NewAssistantToolbox(memory.NewLiveFixtureRepository(), odds, time.Minute, nil)
	outputs := box.Execute(ctx, []ToolCall{
		{ID: "a", Name: ToolLiveOdds, Arguments: `{"fixture_id":1035}`},
		{ID: "b", Name: ToolLiveOdds, Arguments: `{"fixture_id":"99"}`},
	})

	got := outputs[0].Output
	if !strings.Contains(got, "Fulltime Result: Home*=1.45 Draw=4.10") || strings.Contains(got, "Away=") {
		t.Fatalf("unexpected odds output:\n%s", got)
	}
	if outputs[1].Output != "There are no live odds for fixture 99 right now." {
		t.Fatalf("unexpected output: %q", outputs[1].Output)
	}
}
