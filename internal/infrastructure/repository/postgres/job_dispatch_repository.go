package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jcamiloaa/deep90-app/internal/domain/jobscheduler"
	qb "github.com/jcamiloaa/deep90-app/internal/platform/querybuilder"
	"github.com/jmoiron/sqlx"
)

// Only the columns of the reported status are non-null in EXCLUDED, so
// COALESCE keeps the history of earlier transitions.
const upsertJobDispatchSuffix = `ON CONFLICT (dispatch_id) WHERE deleted_at IS NULL
DO UPDATE SET
    job_name = EXCLUDED.job_name,
    job_path = EXCLUDED.job_path,
    source_id = EXCLUDED.source_id,
    payload = EXCLUDED.payload,
    status = EXCLUDED.status,
    sent_at = COALESCE(EXCLUDED.sent_at, job_dispatches.sent_at),
    completed_at = COALESCE(EXCLUDED.completed_at, job_dispatches.completed_at),
    failed_at = CASE WHEN EXCLUDED.status = 'completed' THEN NULL ELSE COALESCE(EXCLUDED.failed_at, job_dispatches.failed_at) END,
    last_error = EXCLUDED.last_error,
    sent_trace_id = COALESCE(EXCLUDED.sent_trace_id, job_dispatches.sent_trace_id),
    sent_span_id = COALESCE(EXCLUDED.sent_span_id, job_dispatches.sent_span_id),
    completed_trace_id = COALESCE(EXCLUDED.completed_trace_id, job_dispatches.completed_trace_id),
    completed_span_id = COALESCE(EXCLUDED.completed_span_id, job_dispatches.completed_span_id),
    failed_trace_id = COALESCE(EXCLUDED.failed_trace_id, job_dispatches.failed_trace_id),
    failed_span_id = COALESCE(EXCLUDED.failed_span_id, job_dispatches.failed_span_id),
    updated_at = EXCLUDED.updated_at,
    deleted_at = NULL`

type JobDispatchRepository struct {
	db *sqlx.DB
}

func NewJobDispatchRepository(db *sqlx.DB) *JobDispatchRepository {
	return &JobDispatchRepository{db: db}
}

func (r *JobDispatchRepository) UpsertEvent(ctx context.Context, event jobscheduler.DispatchEvent) error {
	model, err := jobDispatchModelFromEvent(event)
	if err != nil {
		return err
	}

	query, args, err := qb.InsertModel("job_dispatches", model, upsertJobDispatchSuffix)
	if err != nil {
		return fmt.Errorf("build upsert job dispatch query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert job dispatch dispatch_id=%s status=%s: %w", model.DispatchID, event.Status, err)
	}
	return nil
}

func (r *JobDispatchRepository) ListBySource(ctx context.Context, sourceID int64, limit int) ([]jobscheduler.Dispatch, error) {
	query, args, err := qb.Select(jobDispatchColumns...).From("job_dispatches").
		Where(qb.Eq("source_id", sourceID), qb.IsNull("deleted_at")).
		OrderBy("updated_at DESC", "id DESC").
		Limit(limit).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list job dispatches query: %w", err)
	}

	var rows []jobDispatchTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list job dispatches source=%d: %w", sourceID, err)
	}
	out := make([]jobscheduler.Dispatch, 0, len(rows))
	for _, row := range rows {
		out = append(out, jobDispatchFromRow(row))
	}
	return out, nil
}

func jobDispatchModelFromEvent(event jobscheduler.DispatchEvent) (jobDispatchInsertModel, error) {
	dispatchID := strings.TrimSpace(event.DispatchID)
	if dispatchID == "" {
		return jobDispatchInsertModel{}, fmt.Errorf("dispatch id is required")
	}

	occurredAt := event.OccurredAt.UTC()
	if event.OccurredAt.IsZero() {
		occurredAt = time.Now().UTC()
	}
	payload, err := encodeJSONMap(event.Payload)
	if err != nil {
		return jobDispatchInsertModel{}, fmt.Errorf("marshal job dispatch payload: %w", err)
	}

	model := jobDispatchInsertModel{
		DispatchID: dispatchID,
		JobName:    firstNonEmpty(event.JobName, "unknown"),
		JobPath:    firstNonEmpty(event.JobPath, "/unknown"),
		SourceID:   event.SourceID,
		Payload:    payload,
		Status:     string(event.Status),
		UpdatedAt:  occurredAt,
	}

	traceID, spanID := optionalString(event.TraceID), optionalString(event.SpanID)
	switch event.Status {
	case jobscheduler.StatusSent:
		model.SentAt, model.SentTraceID, model.SentSpanID = &occurredAt, traceID, spanID
	case jobscheduler.StatusCompleted:
		model.CompletedAt, model.CompletedTraceID, model.CompletedSpanID = &occurredAt, traceID, spanID
	case jobscheduler.StatusFailed:
		model.FailedAt, model.FailedTraceID, model.FailedSpanID = &occurredAt, traceID, spanID
		model.LastError = optionalString(strings.TrimSpace(event.ErrorMessage))
	default:
		return jobDispatchInsertModel{}, fmt.Errorf("unknown dispatch status %q", event.Status)
	}
	return model, nil
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
