package postgres

import (
	"database/sql"
	"time"

	"github.com/jcamiloaa/deep90-app/internal/domain/jobscheduler"
)

// jobDispatchInsertModel leaves the columns of other transitions nil so the
// upsert can COALESCE them with the stored row.
type jobDispatchInsertModel struct {
	DispatchID       string     `db:"dispatch_id"`
	JobName          string     `db:"job_name"`
	JobPath          string     `db:"job_path"`
	SourceID         int64      `db:"source_id"`
	Payload          string     `db:"payload"`
	Status           string     `db:"status"`
	SentAt           *time.Time `db:"sent_at"`
	CompletedAt      *time.Time `db:"completed_at"`
	FailedAt         *time.Time `db:"failed_at"`
	LastError        *string    `db:"last_error"`
	SentTraceID      *string    `db:"sent_trace_id"`
	SentSpanID       *string    `db:"sent_span_id"`
	CompletedTraceID *string    `db:"completed_trace_id"`
	CompletedSpanID  *string    `db:"completed_span_id"`
	FailedTraceID    *string    `db:"failed_trace_id"`
	FailedSpanID     *string    `db:"failed_span_id"`
	UpdatedAt        time.Time  `db:"updated_at"`
}

type jobDispatchTableModel struct {
	DispatchID  string         `db:"dispatch_id"`
	JobName     string         `db:"job_name"`
	SourceID    int64          `db:"source_id"`
	Status      string         `db:"status"`
	LastError   sql.NullString `db:"last_error"`
	SentAt      sql.NullTime   `db:"sent_at"`
	CompletedAt sql.NullTime   `db:"completed_at"`
	FailedAt    sql.NullTime   `db:"failed_at"`
	UpdatedAt   time.Time      `db:"updated_at"`
}

var jobDispatchColumns = []string{
	"dispatch_id",
	"job_name",
	"source_id",
	"status",
	"last_error",
	"sent_at",
	"completed_at",
	"failed_at",
	"updated_at",
}

func jobDispatchFromRow(row jobDispatchTableModel) jobscheduler.Dispatch {
	return jobscheduler.Dispatch{
		DispatchID:  row.DispatchID,
		JobName:     row.JobName,
		SourceID:    row.SourceID,
		Status:      jobscheduler.DispatchStatus(row.Status),
		LastError:   row.LastError.String,
		SentAt:      nullTimePtr(row.SentAt),
		CompletedAt: nullTimePtr(row.CompletedAt),
		FailedAt:    nullTimePtr(row.FailedAt),
		UpdatedAt:   row.UpdatedAt.UTC(),
	}
}
