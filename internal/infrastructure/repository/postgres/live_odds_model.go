package postgres

import (
	"database/sql"
	"time"
)

type liveOddsRow struct {
	SourceID       int64         `db:"source_id"`
	FixtureID      int64         `db:"fixture_id"`
	Blocked        bool          `db:"blocked"`
	Stopped        bool          `db:"stopped"`
	Finished       bool          `db:"finished"`
	StatusLong     string        `db:"status_long"`
	StatusShort    string        `db:"status_short"`
	Elapsed        sql.NullInt64 `db:"elapsed"`
	ElapsedSeconds sql.NullInt64 `db:"elapsed_seconds"`
	LeagueID       int64         `db:"league_id"`
	Season         int           `db:"season"`
	HomeTeamID     int64         `db:"home_team_id"`
	AwayTeamID     int64         `db:"away_team_id"`
	GoalsHome      sql.NullInt64 `db:"goals_home"`
	GoalsAway      sql.NullInt64 `db:"goals_away"`
	UpstreamAt     sql.NullTime  `db:"upstream_at"`
	Raw            string        `db:"raw"`
	UpdatedAt      time.Time     `db:"updated_at"`
}

type liveOddsTableModel struct {
	ID int64 `db:"id"`
	liveOddsRow
}

type liveOddsCategoryInsertModel struct {
	LiveOddsID int64  `db:"live_odds_id"`
	ExternalID int64  `db:"external_id"`
	Name       string `db:"name"`
	Position   int    `db:"position"`
}

type liveOddsValueInsertModel struct {
	CategoryID int64  `db:"category_id"`
	Label      string `db:"label"`
	Odd        string `db:"odd"`
	Handicap   string `db:"handicap"`
	Main       bool   `db:"main"`
	Suspended  bool   `db:"suspended"`
	Position   int    `db:"position"`
}

type liveOddsValueTableModel struct {
	LiveOddsID         int64          `db:"live_odds_id"`
	CategoryExternalID int64          `db:"category_external_id"`
	CategoryName       string         `db:"category_name"`
	Label              sql.NullString `db:"label"`
	Odd                sql.NullString `db:"odd"`
	Handicap           sql.NullString `db:"handicap"`
	Main               sql.NullBool   `db:"main"`
	Suspended          sql.NullBool   `db:"suspended"`
}

var liveOddsColumns = []string{
	"id", "source_id", "fixture_id", "blocked", "stopped", "finished", "status_long", "status_short",
	"elapsed", "elapsed_seconds", "league_id", "season", "home_team_id", "away_team_id",
	"goals_home", "goals_away", "upstream_at", "raw::text AS raw", "updated_at",
}
