package liveodds

import (
	"strings"
	"time"
)

var (
	blockedStatuses  = statusSet("INT", "SUSP", "PST", "CANC", "ABD")
	stoppedStatuses  = statusSet("HT", "BT")
	finishedStatuses = statusSet("FT", "AET", "PEN", "WO", "AWD")
)

func statusSet(codes ...string) map[string]struct{} {
	out := make(map[string]struct{}, len(codes))
	for _, code := range codes {
		out[code] = struct{}{}
	}
	return out
}

type Flags struct {
	Blocked  bool
	Stopped  bool
	Finished bool
}

// DeriveFlags combines the match short status with the flags reported upstream.
func DeriveFlags(short string, upstream Flags) Flags {
	code := strings.ToUpper(strings.TrimSpace(short))
	_, blocked := blockedStatuses[code]
	_, stopped := stoppedStatuses[code]
	_, finished := finishedStatuses[code]
	return Flags{
		Blocked:  blocked || upstream.Blocked,
		Stopped:  stopped || upstream.Stopped,
		Finished: finished || upstream.Finished,
	}
}

type Value struct {
	Label     string
	Odd       string
	Handicap  string
	Main      bool
	Suspended bool
}

type Category struct {
	ExternalID int64
	Name       string
	Values     []Value
}

// Snapshot is the in-play betting state of one fixture for one source.
type Snapshot struct {
	SourceID       int64
	FixtureID      int64
	Flags          Flags
	StatusLong     string
	StatusShort    string
	Elapsed        *int
	ElapsedSeconds *int
	LeagueID       int64
	Season         int
	HomeTeamID     int64
	AwayTeamID     int64
	GoalsHome      *int
	GoalsAway      *int
	UpstreamAt     *time.Time
	Raw            []byte
	Categories     []Category
	UpdatedAt      time.Time
}

// NormalizeCategories drops categories without id or name and keeps the last
// value for each (label, handicap) pair in first-seen order.
func NormalizeCategories(in []Category) []Category {
	out := make([]Category, 0, len(in))
	for _, category := range in {
		name := strings.TrimSpace(category.Name)
		if category.ExternalID == 0 || name == "" {
			continue
		}
		out = append(out, Category{
			ExternalID: category.ExternalID,
			Name:       name,
			Values:     dedupeValues(category.Values),
		})
	}
	return out
}

type valueKey struct {
	label    string
	handicap string
}

func dedupeValues(values []Value) []Value {
	index := make(map[valueKey]int, len(values))
	out := make([]Value, 0, len(values))
	for _, value := range values {
		value.Label = strings.TrimSpace(value.Label)
		value.Handicap = strings.TrimSpace(value.Handicap)
		if strings.TrimSpace(value.Odd) == "" {
			value.Odd = "0"
		}
		key := valueKey{label: value.Label, handicap: value.Handicap}
		if pos, ok := index[key]; ok {
			out[pos] = value
			continue
		}
		index[key] = len(out)
		out = append(out, value)
	}
	return out
}
