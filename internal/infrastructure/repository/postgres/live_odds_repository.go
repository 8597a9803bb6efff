package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jcamiloaa/deep90-app/internal/domain/liveodds"
	qb "github.com/jcamiloaa/deep90-app/internal/platform/querybuilder"
	"github.com/jmoiron/sqlx"
)

type LiveOddsRepository struct {
	db *sqlx.DB
}

func NewLiveOddsRepository(db *sqlx.DB) *LiveOddsRepository {
	return &LiveOddsRepository{db: db}
}

// ReplaceForSource deletes the source's odds rows (categories and values go
// with them through ON DELETE CASCADE) and writes items in one transaction.
func (r *LiveOddsRepository) ReplaceForSource(ctx context.Context, sourceID int64, items []liveodds.Snapshot) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx replace live odds: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	deleteQuery, deleteArgs, err := qb.DeleteFrom("live_odds").Where(qb.Eq("source_id", sourceID)).ToSQL()
	if err != nil {
		return fmt.Errorf("build delete live odds query: %w", err)
	}
	if _, err := tx.ExecContext(ctx, deleteQuery, deleteArgs...); err != nil {
		return fmt.Errorf("delete live odds source=%d: %w", sourceID, err)
	}

	for _, item := range items {
		if err := insertLiveOdds(ctx, tx, sourceID, item); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit replace live odds source=%d: %w", sourceID, err)
	}
	return nil
}

func insertLiveOdds(ctx context.Context, tx *sqlx.Tx, sourceID int64, item liveodds.Snapshot) error {
	query, args, err := qb.InsertModel("live_odds", liveOddsRowFromSnapshot(sourceID, item), "RETURNING id")
	if err != nil {
		return fmt.Errorf("build insert live odds query: %w", err)
	}
	var oddsID int64
	if err := tx.GetContext(ctx, &oddsID, query, args...); err != nil {
		return fmt.Errorf("insert live odds source=%d fixture=%d: %w", sourceID, item.FixtureID, err)
	}

	for position, category := range item.Categories {
		categoryQuery, categoryArgs, err := qb.InsertModel("live_odds_categories", liveOddsCategoryInsertModel{
			LiveOddsID: oddsID,
			ExternalID: category.ExternalID,
			Name:       category.Name,
			Position:   position,
		}, "RETURNING id")
		if err != nil {
			return fmt.Errorf("build insert live odds category query: %w", err)
		}
		var categoryID int64
		if err := tx.GetContext(ctx, &categoryID, categoryQuery, categoryArgs...); err != nil {
			return fmt.Errorf("insert live odds category fixture=%d category=%d: %w", item.FixtureID, category.ExternalID, err)
		}

		if len(category.Values) == 0 {
			continue
		}
		values := make([]liveOddsValueInsertModel, 0, len(category.Values))
		for valuePosition, value := range category.Values {
			values = append(values, liveOddsValueInsertModel{
				CategoryID: categoryID,
				Label:      value.Label,
				Odd:        value.Odd,
				Handicap:   value.Handicap,
				Main:       value.Main,
				Suspended:  value.Suspended,
				Position:   valuePosition,
			})
		}
		valuesQuery, valuesArgs, err := qb.InsertModels("live_odds_values", values, "")
		if err != nil {
			return fmt.Errorf("build insert live odds values query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, valuesQuery, valuesArgs...); err != nil {
			return fmt.Errorf("insert live odds values fixture=%d category=%d: %w", item.FixtureID, category.ExternalID, err)
		}
	}
	return nil
}

func (r *LiveOddsRepository) ListBySource(ctx context.Context, sourceID int64) ([]liveodds.Snapshot, error) {
	query, args, err := qb.Select(liveOddsColumns...).From("live_odds").
		Where(qb.Eq("source_id", sourceID)).
		OrderBy("fixture_id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select live odds by source query: %w", err)
	}

	var rows []liveOddsTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select live odds by source: %w", err)
	}
	return r.withCategories(ctx, rows)
}

// GetByFixture returns the freshest snapshot of the fixture across sources.
func (r *LiveOddsRepository) GetByFixture(ctx context.Context, fixtureID int64) (liveodds.Snapshot, bool, error) {
	query, args, err := qb.Select(liveOddsColumns...).From("live_odds").
		Where(qb.Eq("fixture_id", fixtureID)).
		OrderBy("updated_at DESC", "id DESC").
		Limit(1).
		ToSQL()
	if err != nil {
		return liveodds.Snapshot{}, false, fmt.Errorf("build select live odds by fixture query: %w", err)
	}

	var row liveOddsTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return liveodds.Snapshot{}, false, nil
		}
		return liveodds.Snapshot{}, false, fmt.Errorf("select live odds fixture=%d: %w", fixtureID, err)
	}

	items, err := r.withCategories(ctx, []liveOddsTableModel{row})
	if err != nil {
		return liveodds.Snapshot{}, false, err
	}
	return items[0], true, nil
}

func (r *LiveOddsRepository) withCategories(ctx context.Context, rows []liveOddsTableModel) ([]liveodds.Snapshot, error) {
	out := make([]liveodds.Snapshot, 0, len(rows))
	if len(rows) == 0 {
		return out, nil
	}

	ids := make([]any, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ID)
	}
	query, args, err := qb.Select(
		"c.live_odds_id",
		"c.external_id AS category_external_id",
		"c.name AS category_name",
		"v.label",
		"v.odd",
		"v.handicap",
		"v.main",
		"v.suspended",
	).From("live_odds_categories c LEFT JOIN live_odds_values v ON v.category_id = c.id").
		Where(qb.In("c.live_odds_id", ids)).
		OrderBy("c.live_odds_id", "c.position", "v.position").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select live odds categories query: %w", err)
	}

	var valueRows []liveOddsValueTableModel
	if err := r.db.SelectContext(ctx, &valueRows, query, args...); err != nil {
		return nil, fmt.Errorf("select live odds categories: %w", err)
	}

	categories := make(map[int64][]liveodds.Category, len(rows))
	for _, v := range valueRows {
		list := categories[v.LiveOddsID]
		if n := len(list); n == 0 || list[n-1].ExternalID != v.CategoryExternalID {
			list = append(list, liveodds.Category{ExternalID: v.CategoryExternalID, Name: v.CategoryName})
		}
		if v.Label.Valid {
			last := &list[len(list)-1]
			last.Values = append(last.Values, liveodds.Value{
				Label:     v.Label.String,
				Odd:       v.Odd.String,
				Handicap:  v.Handicap.String,
				Main:      v.Main.Bool,
				Suspended: v.Suspended.Bool,
			})
		}
		categories[v.LiveOddsID] = list
	}

	for _, row := range rows {
		item := liveOddsFromRow(row.liveOddsRow)
		item.Categories = categories[row.ID]
		out = append(out, item)
	}
	return out, nil
}

func liveOddsRowFromSnapshot(sourceID int64, item liveodds.Snapshot) liveOddsRow {
	updatedAt := item.UpdatedAt.UTC()
	if item.UpdatedAt.IsZero() {
		updatedAt = time.Now().UTC()
	}
	return liveOddsRow{
		SourceID:       sourceID,
		FixtureID:      item.FixtureID,
		Blocked:        item.Flags.Blocked,
		Stopped:        item.Flags.Stopped,
		Finished:       item.Flags.Finished,
		StatusLong:     item.StatusLong,
		StatusShort:    item.StatusShort,
		Elapsed:        toNullInt(item.Elapsed),
		ElapsedSeconds: toNullInt(item.ElapsedSeconds),
		LeagueID:       item.LeagueID,
		Season:         item.Season,
		HomeTeamID:     item.HomeTeamID,
		AwayTeamID:     item.AwayTeamID,
		GoalsHome:      toNullInt(item.GoalsHome),
		GoalsAway:      toNullInt(item.GoalsAway),
		UpstreamAt:     toNullTime(item.UpstreamAt),
		Raw:            rawJSON(item.Raw),
		UpdatedAt:      updatedAt,
	}
}

func liveOddsFromRow(row liveOddsRow) liveodds.Snapshot {
	return liveodds.Snapshot{
		SourceID:  row.SourceID,
		FixtureID: row.FixtureID,
		Flags: liveodds.Flags{
			Blocked:  row.Blocked,
			Stopped:  row.Stopped,
			Finished: row.Finished,
		},
		StatusLong:     row.StatusLong,
		StatusShort:    row.StatusShort,
		Elapsed:        nullIntPtr(row.Elapsed),
		ElapsedSeconds: nullIntPtr(row.ElapsedSeconds),
		LeagueID:       row.LeagueID,
		Season:         row.Season,
		HomeTeamID:     row.HomeTeamID,
		AwayTeamID:     row.AwayTeamID,
		GoalsHome:      nullIntPtr(row.GoalsHome),
		GoalsAway:      nullIntPtr(row.GoalsAway),
		UpstreamAt:     nullTimePtr(row.UpstreamAt),
		Raw:            []byte(row.Raw),
		UpdatedAt:      row.UpdatedAt.UTC(),
	}
}
