package usecase

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jcamiloaa/deep90-app/internal/domain/livefixture"
	"github.com/jcamiloaa/deep90-app/internal/domain/liveodds"
	"github.com/jcamiloaa/deep90-app/internal/platform/cache"
	"github.com/jcamiloaa/deep90-app/internal/platform/logging"
	jsoniter "github.com/json-iterator/go"
)

const (
	ToolLiveMatchResults = "get_live_match_results"
	ToolLiveOdds         = "get_live_odds"

	liveMatchesToolLimit = 5
	maxOddsCategories    = 6
)

type toolFunc func(ctx context.Context, args map[string]any) (string, error)

type assistantTool struct {
	definition ToolDefinition
	run        toolFunc
}

// AssistantToolbox executes the read-only functions the assistant may call.
type AssistantToolbox struct {
	fixtures livefixture.Repository
	odds     liveodds.Repository
	cache    *cache.Store[string]
	logger   *logging.Logger
	order    []string
	tools    map[string]assistantTool
}

func NewAssistantToolbox(fixtures livefixture.Repository, odds liveodds.Repository, cacheTTL time.Duration, logger *logging.Logger) *AssistantToolbox {
	if logger == nil {
		logger = logging.Default()
	}
	if cacheTTL <= 0 {
		cacheTTL = 15 * time.Second
	}

	b := &AssistantToolbox{
		fixtures: fixtures,
		odds:     odds,
		cache:    cache.NewStore[string](cacheTTL),
		logger:   logger.Named("assistant_tools"),
	}
	b.register(assistantTool{
		definition: ToolDefinition{
			Name:        ToolLiveMatchResults,
			Description: "Always call this function to get the latest live football match results, even if you called it before in this conversation. Data refreshes every few seconds.",
			Parameters: map[string]any{
				"type":                 "object",
				"properties":           map[string]any{},
				"additionalProperties": false,
				"required":             []string{},
			},
		},
		run: b.liveMatchResults,
	})
	b.register(assistantTool{
		definition: ToolDefinition{
			Name:        ToolLiveOdds,
			Description: "Get the current in-play betting markets for a live fixture.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"fixture_id": map[string]any{"type": "integer", "description": "Fixture id as shown in the live match list"},
				},
				"additionalProperties": false,
				"required":             []string{"fixture_id"},
			},
		},
		run: b.liveOdds,
	})
	return b
}

func (b *AssistantToolbox) register(tool assistantTool) {
	if b.tools == nil {
		b.tools = make(map[string]assistantTool)
	}
	b.tools[tool.definition.Name] = tool
	b.order = append(b.order, tool.definition.Name)
}

func (b *AssistantToolbox) Definitions() []ToolDefinition {
	out := make([]ToolDefinition, 0, len(b.order))
	for _, name := range b.order {
		out = append(out, b.tools[name].definition)
	}
	return out
}

// Execute runs every call. Failures become error text in the output so the
// assistant can still answer.
func (b *AssistantToolbox) Execute(ctx context.Context, calls []ToolCall) []ToolOutput {
	outputs := make([]ToolOutput, 0, len(calls))
	for _, call := range calls {
		outputs = append(outputs, ToolOutput{ToolCallID: call.ID, Output: b.executeOne(ctx, call)})
	}
	return outputs
}

func (b *AssistantToolbox) executeOne(ctx context.Context, call ToolCall) string {
	tool, ok := b.tools[call.Name]
	if !ok {
		return fmt.Sprintf("Error: function '%s' is not implemented.", call.Name)
	}

	args := map[string]any{}
	if raw := strings.TrimSpace(call.Arguments); raw != "" {
		if err := jsoniter.UnmarshalFromString(raw, &args); err != nil {
			return fmt.Sprintf("Error running %s: invalid arguments: %v", call.Name, err)
		}
	}

	output, err := tool.run(ctx, args)
	if err != nil {
		b.logger.WarnContext(ctx, "assistant tool failed", "tool", call.Name, "error", err)
		return fmt.Sprintf("Error running %s: %v", call.Name, err)
	}
	return output
}

func (b *AssistantToolbox) liveMatchResults(ctx context.Context, _ map[string]any) (string, error) {
	return b.cache.GetOrLoad(ctx, "tool:live_matches", func(ctx context.Context) (string, error) {
		items, err := b.fixtures.ListLive(ctx, liveMatchesToolLimit)
		if err != nil {
			return "", fmt.Errorf("list live fixtures: %w", err)
		}
		return formatLiveMatches(items), nil
	})
}

func (b *AssistantToolbox) liveOdds(ctx context.Context, args map[string]any) (string, error) {
	fixtureID, err := int64Arg(args, "fixture_id")
	if err != nil {
		return "", err
	}
	key := "tool:live_odds:" + strconv.FormatInt(fixtureID, 10)
	return b.cache.GetOrLoad(ctx, key, func(ctx context.Context) (string, error) {
		item, exists, err := b.odds.GetByFixture(ctx, fixtureID)
		if err != nil {
			return "", fmt.Errorf("get live odds fixture=%d: %w", fixtureID, err)
		}
		if !exists {
			return fmt.Sprintf("There are no live odds for fixture %d right now.", fixtureID), nil
		}
		return formatLiveOdds(item), nil
	})
}

func int64Arg(args map[string]any, key string) (int64, error) {
	switch v := args[key].(type) {
	case float64:
		return int64(v), nil
	case int64:
		return v, nil
	case int:
		return int64(v), nil
	case string:
		parsed, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("%s must be an integer", key)
		}
		return parsed, nil
	default:
		return 0, fmt.Errorf("%s is required", key)
	}
}

func formatLiveMatches(items []livefixture.Snapshot) string {
	if len(items) == 0 {
		return "There are no live matches right now."
	}

	countries := make([]string, 0)
	byCountry := make(map[string][]livefixture.Snapshot)
	for _, item := range items {
		country := item.League.Country
		if country == "" {
			country = "World"
		}
		if _, ok := byCountry[country]; !ok {
			countries = append(countries, country)
		}
		byCountry[country] = append(byCountry[country], item)
	}

	var sb strings.Builder
	sb.WriteString("⚽ *Live matches* ⚽\n\n")
	for _, country := range countries {
		sb.WriteString("🌍 *" + country + "*\n\n")
		for _, item := range byCountry[country] {
			clock := item.Status.Short
			if item.Status.Elapsed != nil {
				clock = strconv.Itoa(*item.Status.Elapsed) + "'"
			}
			fmt.Fprintf(&sb, "🆔 %d\n🏆 %s\n⌚ %s | *%s* %d - %d *%s*\n──────────────\n",
				item.FixtureID,
				item.League.Name,
				clock,
				item.Home.Name,
				intOrZero(item.Goals.Home),
				intOrZero(item.Goals.Away),
				item.Away.Name,
			)
		}
		sb.WriteString("\n")
	}
	sb.WriteString("Updated by Deep90.")
	return sb.String()
}

func formatLiveOdds(item liveodds.Snapshot) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Fixture %d (%s)", item.FixtureID, item.StatusShort)
	if item.Elapsed != nil {
		fmt.Fprintf(&sb, " %d'", *item.Elapsed)
	}
	fmt.Fprintf(&sb, " score %d - %d\n", intOrZero(item.GoalsHome), intOrZero(item.GoalsAway))
	switch {
	case item.Flags.Finished:
		sb.WriteString("Market closed: match finished.\n")
		return sb.String()
	case item.Flags.Blocked:
		sb.WriteString("Betting is blocked at the moment.\n")
	case item.Flags.Stopped:
		sb.WriteString("Betting is paused at the moment.\n")
	}

	for i, category := range item.Categories {
		if i == maxOddsCategories {
			break
		}
		sb.WriteString(category.Name + ":")
		for _, value := range category.Values {
			if value.Suspended {
				continue
			}
			label := value.Label
			if value.Handicap != "" {
				label += " " + value.Handicap
			}
			if value.Main {
				label += "*"
			}
			sb.WriteString(" " + label + "=" + value.Odd)
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func intOrZero(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}
