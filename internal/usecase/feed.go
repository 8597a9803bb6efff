package usecase

import (
	"context"
	"time"

	"github.com/jcamiloaa/deep90-app/internal/domain/livefixture"
	"github.com/jcamiloaa/deep90-app/internal/domain/liveodds"
)

// FeedClient polls the upstream sports data API. Failures are *TransportError
// or *UpstreamError; undecodable items are reported in Rejected.
type FeedClient interface {
	FetchLiveFixtures(ctx context.Context, endpoint string, params map[string]string) (LiveFixtureFeed, error)
	FetchLiveOdds(ctx context.Context, endpoint string, params map[string]string) (LiveOddsFeed, error)
}

type LiveFixtureFeed struct {
	Items    []ExternalLiveFixture
	Rejected []ValidationError
}

type LiveOddsFeed struct {
	Items    []ExternalLiveOdds
	Rejected []ValidationError
}

type ExternalScore struct {
	Home *int
	Away *int
}

type ExternalLiveFixture struct {
	FixtureID      int64 `validate:"required,gt=0"`
	Date           *time.Time
	Timestamp      int64 `validate:"gte=0"`
	Timezone       string
	Referee        string
	StatusLong     string
	StatusShort    string `validate:"omitempty,max=8"`
	Elapsed        *int   `validate:"omitempty,gte=0"`
	ElapsedSeconds *int   `validate:"omitempty,gte=0"`
	VenueName      string
	VenueCity      string
	HomeTeamID     int64 `validate:"gte=0"`
	HomeTeamName   string
	HomeTeamLogo   string
	HomeWinner     *bool
	AwayTeamID     int64 `validate:"gte=0"`
	AwayTeamName   string
	AwayTeamLogo   string
	AwayWinner     *bool
	Goals          ExternalScore
	Halftime       ExternalScore
	Fulltime       ExternalScore
	Extratime      ExternalScore
	Penalty        ExternalScore
	LeagueID       int64 `validate:"gte=0"`
	LeagueName     string
	LeagueCountry  string
	LeagueLogo     string
	LeagueFlag     string
	LeagueSeason   int
	LeagueRound    string
	Raw            []byte
}

type ExternalOddsValue struct {
	Label     string
	Odd       string
	Handicap  string
	Main      bool
	Suspended bool
}

type ExternalOddsCategory struct {
	ExternalID int64
	Name       string
	Values     []ExternalOddsValue
}

type ExternalLiveOdds struct {
	FixtureID      int64 `validate:"required,gt=0"`
	StatusLong     string
	StatusShort    string `validate:"omitempty,max=8"`
	Elapsed        *int   `validate:"omitempty,gte=0"`
	ElapsedSeconds *int   `validate:"omitempty,gte=0"`
	LeagueID       int64  `validate:"gte=0"`
	Season         int
	HomeTeamID     int64 `validate:"gte=0"`
	AwayTeamID     int64 `validate:"gte=0"`
	GoalsHome      *int
	GoalsAway      *int
	Blocked        bool
	Stopped        bool
	Finished       bool
	UpstreamAt     *time.Time
	Categories     []ExternalOddsCategory
	Raw            []byte
}

func (f ExternalLiveFixture) toSnapshot(sourceID int64, at time.Time) livefixture.Snapshot {
	return livefixture.Snapshot{
		SourceID:  sourceID,
		FixtureID: f.FixtureID,
		Date:      f.Date,
		Timestamp: f.Timestamp,
		Timezone:  f.Timezone,
		Referee:   f.Referee,
		Status: livefixture.Status{
			Long:           f.StatusLong,
			Short:          f.StatusShort,
			Elapsed:        f.Elapsed,
			ElapsedSeconds: f.ElapsedSeconds,
		},
		VenueName: f.VenueName,
		VenueCity: f.VenueCity,
		Home:      livefixture.TeamSide{ID: f.HomeTeamID, Name: f.HomeTeamName, Logo: f.HomeTeamLogo, Winner: f.HomeWinner},
		Away:      livefixture.TeamSide{ID: f.AwayTeamID, Name: f.AwayTeamName, Logo: f.AwayTeamLogo, Winner: f.AwayWinner},
		Goals:     livefixture.ScorePair(f.Goals),
		Halftime:  livefixture.ScorePair(f.Halftime),
		Fulltime:  livefixture.ScorePair(f.Fulltime),
		Extratime: livefixture.ScorePair(f.Extratime),
		Penalty:   livefixture.ScorePair(f.Penalty),
		League: livefixture.League{
			ID:      f.LeagueID,
			Name:    f.LeagueName,
			Country: f.LeagueCountry,
			Logo:    f.LeagueLogo,
			Flag:    f.LeagueFlag,
			Season:  f.LeagueSeason,
			Round:   f.LeagueRound,
		},
		Raw:       f.Raw,
		UpdatedAt: at,
	}
}

// toSnapshot maps an odds item. statusShort comes from the live fixture
// snapshot when known, since the odds feed does not carry it.
func (o ExternalLiveOdds) toSnapshot(sourceID int64, statusShort string, at time.Time) liveodds.Snapshot {
	if statusShort == "" {
		statusShort = o.StatusShort
	}
	categories := make([]liveodds.Category, 0, len(o.Categories))
	for _, category := range o.Categories {
		values := make([]liveodds.Value, 0, len(category.Values))
		for _, value := range category.Values {
			values = append(values, liveodds.Value(value))
		}
		categories = append(categories, liveodds.Category{
			ExternalID: category.ExternalID,
			Name:       category.Name,
			Values:     values,
		})
	}
	return liveodds.Snapshot{
		SourceID:       sourceID,
		FixtureID:      o.FixtureID,
		Flags:          liveodds.DeriveFlags(statusShort, liveodds.Flags{Blocked: o.Blocked, Stopped: o.Stopped, Finished: o.Finished}),
		StatusLong:     o.StatusLong,
		StatusShort:    statusShort,
		Elapsed:        o.Elapsed,
		ElapsedSeconds: o.ElapsedSeconds,
		LeagueID:       o.LeagueID,
		Season:         o.Season,
		HomeTeamID:     o.HomeTeamID,
		AwayTeamID:     o.AwayTeamID,
		GoalsHome:      o.GoalsHome,
		GoalsAway:      o.GoalsAway,
		UpstreamAt:     o.UpstreamAt,
		Raw:            o.Raw,
		Categories:     liveodds.NormalizeCategories(categories),
		UpdatedAt:      at,
	}
}
