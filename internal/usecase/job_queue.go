package usecase

import (
	"context"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/jcamiloaa/deep90-app/internal/domain/jobscheduler"
	"github.com/jcamiloaa/deep90-app/internal/platform/logging"
)

const (
	JobPathReconcile    = "/v1/internal/jobs/reconcile"
	JobNameReconcile    = "reconcile"
	JobPathCheckStalled = "/v1/internal/jobs/check-stalled"
)

type JobQueue interface {
	Enqueue(ctx context.Context, path string, payload any, delay time.Duration, deduplicationID string) error
}

type noopJobQueue struct{}

func (noopJobQueue) Enqueue(_ context.Context, _ string, _ any, _ time.Duration, _ string) error {
	return nil
}

func NewNoopJobQueue() JobQueue {
	return noopJobQueue{}
}

// ReconcileJobPayload is the body of a reconcile job.
type ReconcileJobPayload struct {
	SourceID   int64  `json:"source_id" validate:"required,gt=0"`
	DispatchID string `json:"dispatch_id,omitempty"`
}

var dedupUnsafeCharRegex = regexp.MustCompile(`[^a-zA-Z0-9_-]`)

// dedupKey buckets at into slots of size bucket so repeated enqueues inside one
// slot collapse into one job. The key is safe for QStash deduplication ids.
func dedupKey(prefix string, sourceID int64, at time.Time, bucket time.Duration) string {
	if bucket <= 0 {
		bucket = time.Minute
	}
	slot := at.UTC().Truncate(bucket).Format("20060102T150405Z")
	return sanitizeDedupSegment(prefix) + "-" + strconv.FormatInt(sourceID, 10) + "-" + slot
}

func sanitizeDedupSegment(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return "unknown"
	}
	return dedupUnsafeCharRegex.ReplaceAllString(value, "-")
}

type dispatchRecorder struct {
	repo   jobscheduler.Repository
	logger *logging.Logger
	now    func() time.Time
}

func (r dispatchRecorder) record(ctx context.Context, event jobscheduler.DispatchEvent) {
	if r.repo == nil || strings.TrimSpace(event.DispatchID) == "" {
		return
	}
	event.TraceID, event.SpanID = traceMetaFromContext(ctx)
	if event.OccurredAt.IsZero() {
		event.OccurredAt = r.now().UTC()
	}
	if err := r.repo.UpsertEvent(ctx, event); err != nil {
		r.logger.WarnContext(ctx, "record job dispatch event failed",
			"dispatch_id", event.DispatchID,
			"status", event.Status,
			"error", err,
		)
	}
}
