package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jcamiloaa/deep90-app/internal/domain/livefixture"
	qb "github.com/jcamiloaa/deep90-app/internal/platform/querybuilder"
	"github.com/jmoiron/sqlx"
)

// Rows per INSERT statement; keeps bind parameters well under the 65535 limit.
const liveFixtureInsertChunk = 200

type LiveFixtureRepository struct {
	db *sqlx.DB
}

func NewLiveFixtureRepository(db *sqlx.DB) *LiveFixtureRepository {
	return &LiveFixtureRepository{db: db}
}

func (r *LiveFixtureRepository) ReplaceForSource(ctx context.Context, sourceID int64, items []livefixture.Snapshot) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx replace live fixtures: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	deleteQuery, deleteArgs, err := qb.DeleteFrom("live_fixtures").Where(qb.Eq("source_id", sourceID)).ToSQL()
	if err != nil {
		return fmt.Errorf("build delete live fixtures query: %w", err)
	}
	if _, err := tx.ExecContext(ctx, deleteQuery, deleteArgs...); err != nil {
		return fmt.Errorf("delete live fixtures source=%d: %w", sourceID, err)
	}

	rows := make([]liveFixtureRow, 0, len(items))
	for _, item := range items {
		rows = append(rows, liveFixtureRowFromSnapshot(sourceID, item))
	}
	for start := 0; start < len(rows); start += liveFixtureInsertChunk {
		end := min(start+liveFixtureInsertChunk, len(rows))
		query, args, err := qb.InsertModels("live_fixtures", rows[start:end], "")
		if err != nil {
			return fmt.Errorf("build insert live fixtures query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("insert live fixtures source=%d: %w", sourceID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit replace live fixtures source=%d: %w", sourceID, err)
	}
	return nil
}

func (r *LiveFixtureRepository) ListBySource(ctx context.Context, sourceID int64) ([]livefixture.Snapshot, error) {
	query, args, err := qb.Select(liveFixtureColumns...).From("live_fixtures").
		Where(qb.Eq("source_id", sourceID)).
		OrderBy("fixture_id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select live fixtures by source query: %w", err)
	}
	return r.selectSnapshots(ctx, "select live fixtures by source", query, args)
}

func (r *LiveFixtureRepository) ListLive(ctx context.Context, limit int) ([]livefixture.Snapshot, error) {
	builder := qb.Select(liveFixtureColumns...).From("live_fixtures").
		Where(qb.In("status_short", liveStatusArgs())).
		OrderBy("league_country", "league_name", "fixture_id")
	if limit > 0 {
		builder = builder.Limit(limit)
	}
	query, args, err := builder.ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select live fixtures query: %w", err)
	}
	return r.selectSnapshots(ctx, "select live fixtures", query, args)
}

func (r *LiveFixtureRepository) LiveFixtureIDs(ctx context.Context) (map[int64]string, error) {
	query, args, err := qb.Select("fixture_id", "status_short").From("live_fixtures").
		Where(qb.In("status_short", liveStatusArgs())).
		OrderBy("updated_at").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select live fixture ids query: %w", err)
	}

	var rows []struct {
		FixtureID   int64  `db:"fixture_id"`
		StatusShort string `db:"status_short"`
	}
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select live fixture ids: %w", err)
	}

	out := make(map[int64]string, len(rows))
	for _, row := range rows {
		out[row.FixtureID] = row.StatusShort
	}
	return out, nil
}

func (r *LiveFixtureRepository) selectSnapshots(ctx context.Context, op, query string, args []any) ([]livefixture.Snapshot, error) {
	var rows []liveFixtureRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	out := make([]livefixture.Snapshot, 0, len(rows))
	for _, row := range rows {
		out = append(out, liveFixtureFromRow(row))
	}
	return out, nil
}

func liveStatusArgs() []any {
	codes := livefixture.LiveStatusCodes()
	out := make([]any, 0, len(codes))
	for _, code := range codes {
		out = append(out, code)
	}
	return out
}

func liveFixtureRowFromSnapshot(sourceID int64, item livefixture.Snapshot) liveFixtureRow {
	updatedAt := item.UpdatedAt.UTC()
	if item.UpdatedAt.IsZero() {
		updatedAt = time.Now().UTC()
	}
	return liveFixtureRow{
		SourceID:         sourceID,
		FixtureID:        item.FixtureID,
		FixtureDate:      toNullTime(item.Date),
		FixtureTimestamp: item.Timestamp,
		Timezone:         item.Timezone,
		Referee:          item.Referee,
		StatusLong:       item.Status.Long,
		StatusShort:      item.Status.Short,
		Elapsed:          toNullInt(item.Status.Elapsed),
		ElapsedSeconds:   toNullInt(item.Status.ElapsedSeconds),
		VenueName:        item.VenueName,
		VenueCity:        item.VenueCity,
		HomeTeamID:       item.Home.ID,
		HomeTeamName:     item.Home.Name,
		HomeTeamLogo:     item.Home.Logo,
		HomeTeamWinner:   toNullBool(item.Home.Winner),
		AwayTeamID:       item.Away.ID,
		AwayTeamName:     item.Away.Name,
		AwayTeamLogo:     item.Away.Logo,
		AwayTeamWinner:   toNullBool(item.Away.Winner),
		GoalsHome:        toNullInt(item.Goals.Home),
		GoalsAway:        toNullInt(item.Goals.Away),
		HalftimeHome:     toNullInt(item.Halftime.Home),
		HalftimeAway:     toNullInt(item.Halftime.Away),
		FulltimeHome:     toNullInt(item.Fulltime.Home),
		FulltimeAway:     toNullInt(item.Fulltime.Away),
		ExtratimeHome:    toNullInt(item.Extratime.Home),
		ExtratimeAway:    toNullInt(item.Extratime.Away),
		PenaltyHome:      toNullInt(item.Penalty.Home),
		PenaltyAway:      toNullInt(item.Penalty.Away),
		LeagueID:         item.League.ID,
		LeagueName:       item.League.Name,
		LeagueCountry:    item.League.Country,
		LeagueLogo:       item.League.Logo,
		LeagueFlag:       item.League.Flag,
		LeagueSeason:     item.League.Season,
		LeagueRound:      item.League.Round,
		Raw:              rawJSON(item.Raw),
		UpdatedAt:        updatedAt,
	}
}

func liveFixtureFromRow(row liveFixtureRow) livefixture.Snapshot {
	return livefixture.Snapshot{
		SourceID:  row.SourceID,
		FixtureID: row.FixtureID,
		Date:      nullTimePtr(row.FixtureDate),
		Timestamp: row.FixtureTimestamp,
		Timezone:  row.Timezone,
		Referee:   row.Referee,
		Status: livefixture.Status{
			Long:           row.StatusLong,
			Short:          row.StatusShort,
			Elapsed:        nullIntPtr(row.Elapsed),
			ElapsedSeconds: nullIntPtr(row.ElapsedSeconds),
		},
		VenueName: row.VenueName,
		VenueCity: row.VenueCity,
		Home:      livefixture.TeamSide{ID: row.HomeTeamID, Name: row.HomeTeamName, Logo: row.HomeTeamLogo, Winner: nullBoolPtr(row.HomeTeamWinner)},
		Away:      livefixture.TeamSide{ID: row.AwayTeamID, Name: row.AwayTeamName, Logo: row.AwayTeamLogo, Winner: nullBoolPtr(row.AwayTeamWinner)},
		Goals:     livefixture.ScorePair{Home: nullIntPtr(row.GoalsHome), Away: nullIntPtr(row.GoalsAway)},
		Halftime:  livefixture.ScorePair{Home: nullIntPtr(row.HalftimeHome), Away: nullIntPtr(row.HalftimeAway)},
		Fulltime:  livefixture.ScorePair{Home: nullIntPtr(row.FulltimeHome), Away: nullIntPtr(row.FulltimeAway)},
		Extratime: livefixture.ScorePair{Home: nullIntPtr(row.ExtratimeHome), Away: nullIntPtr(row.ExtratimeAway)},
		Penalty:   livefixture.ScorePair{Home: nullIntPtr(row.PenaltyHome), Away: nullIntPtr(row.PenaltyAway)},
		League: livefixture.League{
			ID:      row.LeagueID,
			Name:    row.LeagueName,
			Country: row.LeagueCountry,
			Logo:    row.LeagueLogo,
			Flag:    row.LeagueFlag,
			Season:  row.LeagueSeason,
			Round:   row.LeagueRound,
		},
		Raw:       []byte(row.Raw),
		UpdatedAt: row.UpdatedAt.UTC(),
	}
}

func toNullInt(value *int) sql.NullInt64 {
	if value == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*value), Valid: true}
}

func toNullBool(value *bool) sql.NullBool {
	if value == nil {
		return sql.NullBool{}
	}
	return sql.NullBool{Bool: *value, Valid: true}
}

func toNullTime(value *time.Time) sql.NullTime {
	if value == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: value.UTC(), Valid: true}
}
