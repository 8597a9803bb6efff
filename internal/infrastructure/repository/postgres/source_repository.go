package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jcamiloaa/deep90-app/internal/domain/source"
	qb "github.com/jcamiloaa/deep90-app/internal/platform/querybuilder"
	"github.com/jmoiron/sqlx"
)

type SourceRepository struct {
	db *sqlx.DB
}

func NewSourceRepository(db *sqlx.DB) *SourceRepository {
	return &SourceRepository{db: db}
}

func (r *SourceRepository) GetByID(ctx context.Context, id int64) (source.Source, bool, error) {
	query, args, err := qb.Select(sourceColumns...).From("sources").
		Where(qb.Eq("id", id)).
		Limit(1).
		ToSQL()
	if err != nil {
		return source.Source{}, false, fmt.Errorf("build select source by id query: %w", err)
	}

	var row sourceTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return source.Source{}, false, nil
		}
		return source.Source{}, false, fmt.Errorf("select source id=%d: %w", id, err)
	}
	return sourceFromRow(row), true, nil
}

func (r *SourceRepository) List(ctx context.Context) ([]source.Source, error) {
	query, args, err := qb.Select(sourceColumns...).From("sources").OrderBy("id").ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list sources query: %w", err)
	}
	return r.selectSources(ctx, "list sources", query, args)
}

func (r *SourceRepository) ListDue(ctx context.Context, now time.Time) ([]source.Source, error) {
	query, args, err := qb.Select(sourceColumns...).From("sources").
		Where(
			qb.Eq("enabled", true),
			qb.Ne("status", string(source.StatusRunning)),
			qb.Or(qb.IsNull("next_run_at"), qb.Lte("next_run_at", now.UTC())),
		).
		OrderBy("next_run_at NULLS FIRST", "id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list due sources query: %w", err)
	}
	return r.selectSources(ctx, "list due sources", query, args)
}

func (r *SourceRepository) ListStalled(ctx context.Context, now, leaseCutoff time.Time) ([]source.Source, error) {
	query, args, err := qb.Select(sourceColumns...).From("sources").
		Where(stalledConditions(now, leaseCutoff)...).
		OrderBy("id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list stalled sources query: %w", err)
	}
	return r.selectSources(ctx, "list stalled sources", query, args)
}

func (r *SourceRepository) Register(ctx context.Context, item source.Source) (source.Source, error) {
	params, err := encodeStringMap(item.Params)
	if err != nil {
		return source.Source{}, fmt.Errorf("marshal source params: %w", err)
	}

	now := item.UpdatedAt.UTC()
	if item.UpdatedAt.IsZero() {
		now = time.Now().UTC()
	}
	model := sourceInsertModel{
		Name:            strings.TrimSpace(item.Name),
		Kind:            string(item.Kind),
		Endpoint:        item.Endpoint,
		Params:          params,
		Description:     item.Description,
		Enabled:         item.Enabled,
		IntervalSeconds: item.IntervalSeconds,
		Status:          string(source.NormalizeStatus(string(item.Status))),
		NextRunAt:       utcPtr(item.NextRunAt),
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	// Run state (status, next run, errors) of an existing row is kept.
	suffix := `ON CONFLICT (name)
DO UPDATE SET
    kind = EXCLUDED.kind,
    endpoint = EXCLUDED.endpoint,
    params = EXCLUDED.params,
    description = EXCLUDED.description,
    interval_seconds = EXCLUDED.interval_seconds,
    updated_at = EXCLUDED.updated_at
RETURNING ` + strings.Join(sourceColumns, ", ")

	query, args, err := qb.InsertModel("sources", model, suffix)
	if err != nil {
		return source.Source{}, fmt.Errorf("build register source query: %w", err)
	}

	var row sourceTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		return source.Source{}, fmt.Errorf("register source name=%s: %w", model.Name, err)
	}
	return sourceFromRow(row), nil
}

// Claim relies on the conditional UPDATE so two workers can never both win.
func (r *SourceRepository) Claim(ctx context.Context, id int64, at time.Time) (source.Source, bool, error) {
	at = at.UTC()
	query, args, err := qb.Update("sources").
		Set("status", string(source.StatusRunning)).
		Set("last_run_at", at).
		Set("updated_at", at).
		Where(
			qb.Eq("id", id),
			qb.Eq("enabled", true),
			qb.Ne("status", string(source.StatusRunning)),
		).
		Suffix("RETURNING " + strings.Join(sourceColumns, ", ")).
		ToSQL()
	if err != nil {
		return source.Source{}, false, fmt.Errorf("build claim source query: %w", err)
	}

	var row sourceTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return source.Source{}, false, nil
		}
		return source.Source{}, false, fmt.Errorf("claim source id=%d: %w", id, err)
	}
	return sourceFromRow(row), true, nil
}

func (r *SourceRepository) Update(ctx context.Context, item source.Source) error {
	params, err := encodeStringMap(item.Params)
	if err != nil {
		return fmt.Errorf("marshal source params: %w", err)
	}

	updatedAt := item.UpdatedAt.UTC()
	if item.UpdatedAt.IsZero() {
		updatedAt = time.Now().UTC()
	}
	query, args, err := qb.Update("sources").
		Set("name", item.Name).
		Set("kind", string(item.Kind)).
		Set("endpoint", item.Endpoint).
		SetExpr("params", "?::jsonb", params).
		Set("description", item.Description).
		Set("enabled", item.Enabled).
		Set("interval_seconds", item.IntervalSeconds).
		Set("status", string(item.Status)).
		Set("last_run_at", utcPtr(item.LastRunAt)).
		Set("next_run_at", utcPtr(item.NextRunAt)).
		Set("error_count", item.ErrorCount).
		Set("last_error", item.LastError).
		Set("updated_at", updatedAt).
		Where(qb.Eq("id", item.ID)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build update source query: %w", err)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update source id=%d: %w", item.ID, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected update source id=%d: %w", item.ID, err)
	}
	if affected == 0 {
		return fmt.Errorf("update source id=%d: no rows affected", item.ID)
	}
	return nil
}

// SaveRunState leaves enabled and the configuration columns alone, so an
// operator toggle made while a run was in flight survives the run's write.
func (r *SourceRepository) SaveRunState(ctx context.Context, id int64, from source.RunStatus, state source.RunState) (bool, error) {
	query, args, err := runStateUpdate(state).
		Where(
			qb.Eq("id", id),
			qb.Eq("enabled", true),
			qb.Eq("status", string(from)),
		).
		ToSQL()
	if err != nil {
		return false, fmt.Errorf("build save run state query: %w", err)
	}
	return r.execAffected(ctx, fmt.Sprintf("save run state source id=%d", id), query, args)
}

func (r *SourceRepository) SetEnabled(ctx context.Context, id int64, enabled bool, state source.RunState) (bool, error) {
	query, args, err := runStateUpdate(state).
		Set("enabled", enabled).
		Where(qb.Eq("id", id)).
		ToSQL()
	if err != nil {
		return false, fmt.Errorf("build set enabled source query: %w", err)
	}
	return r.execAffected(ctx, fmt.Sprintf("set enabled source id=%d", id), query, args)
}

func runStateUpdate(state source.RunState) *qb.UpdateBuilder {
	at := state.At.UTC()
	if state.At.IsZero() {
		at = time.Now().UTC()
	}
	return qb.Update("sources").
		Set("status", string(source.NormalizeStatus(string(state.Status)))).
		Set("next_run_at", utcPtr(state.NextRunAt)).
		Set("error_count", state.ErrorCount).
		Set("last_error", state.LastError).
		Set("updated_at", at)
}

func (r *SourceRepository) execAffected(ctx context.Context, op, query string, args []any) (bool, error) {
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected %s: %w", op, err)
	}
	return affected > 0, nil
}

func (r *SourceRepository) ResetStalled(ctx context.Context, id int64, now, leaseCutoff time.Time) (bool, error) {
	now = now.UTC()
	conditions := append([]qb.Condition{qb.Eq("id", id)}, stalledConditions(now, leaseCutoff)...)
	query, args, err := qb.Update("sources").
		Set("next_run_at", now).
		SetExpr("status", "CASE WHEN status IN ('failed', 'running') THEN 'idle' ELSE status END").
		Set("updated_at", now).
		Where(conditions...).
		ToSQL()
	if err != nil {
		return false, fmt.Errorf("build reset stalled source query: %w", err)
	}
	return r.execAffected(ctx, fmt.Sprintf("reset stalled source id=%d", id), query, args)
}

func (r *SourceRepository) selectSources(ctx context.Context, op, query string, args []any) ([]source.Source, error) {
	var rows []sourceTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	out := make([]source.Source, 0, len(rows))
	for _, row := range rows {
		out = append(out, sourceFromRow(row))
	}
	return out, nil
}

func stalledConditions(now, leaseCutoff time.Time) []qb.Condition {
	return []qb.Condition{
		qb.Eq("enabled", true),
		qb.NotNull("next_run_at"),
		qb.Lt("next_run_at", now.UTC()),
		qb.Or(
			qb.Ne("status", string(source.StatusRunning)),
			qb.Or(qb.IsNull("last_run_at"), qb.Lt("last_run_at", leaseCutoff.UTC())),
		),
	}
}

func sourceFromRow(row sourceTableModel) source.Source {
	kind, _ := source.ParseKind(row.Kind)
	return source.Source{
		ID:              row.ID,
		Name:            row.Name,
		Kind:            kind,
		Endpoint:        row.Endpoint,
		Params:          decodeStringMap(row.Params),
		Description:     row.Description,
		Enabled:         row.Enabled,
		IntervalSeconds: row.IntervalSeconds,
		Status:          source.NormalizeStatus(row.Status),
		LastRunAt:       nullTimePtr(row.LastRunAt),
		NextRunAt:       nullTimePtr(row.NextRunAt),
		ErrorCount:      row.ErrorCount,
		LastError:       row.LastError,
		CreatedAt:       row.CreatedAt.UTC(),
		UpdatedAt:       row.UpdatedAt.UTC(),
	}
}
