package postgres

import (
	"database/sql"
	"time"
)

// liveFixtureRow is used both for inserts and selects; raw is read back as text.
type liveFixtureRow struct {
	SourceID         int64         `db:"source_id"`
	FixtureID        int64         `db:"fixture_id"`
	FixtureDate      sql.NullTime  `db:"fixture_date"`
	FixtureTimestamp int64         `db:"fixture_timestamp"`
	Timezone         string        `db:"timezone"`
	Referee          string        `db:"referee"`
	StatusLong       string        `db:"status_long"`
	StatusShort      string        `db:"status_short"`
	Elapsed          sql.NullInt64 `db:"elapsed"`
	ElapsedSeconds   sql.NullInt64 `db:"elapsed_seconds"`
	VenueName        string        `db:"venue_name"`
	VenueCity        string        `db:"venue_city"`
	HomeTeamID       int64         `db:"home_team_id"`
	HomeTeamName     string        `db:"home_team_name"`
	HomeTeamLogo     string        `db:"home_team_logo"`
	HomeTeamWinner   sql.NullBool  `db:"home_team_winner"`
	AwayTeamID       int64         `db:"away_team_id"`
	AwayTeamName     string        `db:"away_team_name"`
	AwayTeamLogo     string        `db:"away_team_logo"`
	AwayTeamWinner   sql.NullBool  `db:"away_team_winner"`
	GoalsHome        sql.NullInt64 `db:"goals_home"`
	GoalsAway        sql.NullInt64 `db:"goals_away"`
	HalftimeHome     sql.NullInt64 `db:"halftime_home"`
	HalftimeAway     sql.NullInt64 `db:"halftime_away"`
	FulltimeHome     sql.NullInt64 `db:"fulltime_home"`
	FulltimeAway     sql.NullInt64 `db:"fulltime_away"`
	ExtratimeHome    sql.NullInt64 `db:"extratime_home"`
	ExtratimeAway    sql.NullInt64 `db:"extratime_away"`
	PenaltyHome      sql.NullInt64 `db:"penalty_home"`
	PenaltyAway      sql.NullInt64 `db:"penalty_away"`
	LeagueID         int64         `db:"league_id"`
	LeagueName       string        `db:"league_name"`
	LeagueCountry    string        `db:"league_country"`
	LeagueLogo       string        `db:"league_logo"`
	LeagueFlag       string        `db:"league_flag"`
	LeagueSeason     int           `db:"league_season"`
	LeagueRound      string        `db:"league_round"`
	Raw              string        `db:"raw"`
	UpdatedAt        time.Time     `db:"updated_at"`
}

var liveFixtureColumns = []string{
	"source_id", "fixture_id", "fixture_date", "fixture_timestamp", "timezone", "referee",
	"status_long", "status_short", "elapsed", "elapsed_seconds", "venue_name", "venue_city",
	"home_team_id", "home_team_name", "home_team_logo", "home_team_winner",
	"away_team_id", "away_team_name", "away_team_logo", "away_team_winner",
	"goals_home", "goals_away", "halftime_home", "halftime_away", "fulltime_home", "fulltime_away",
	"extratime_home", "extratime_away", "penalty_home", "penalty_away",
	"league_id", "league_name", "league_country", "league_logo", "league_flag", "league_season", "league_round",
	"raw::text AS raw", "updated_at",
}
