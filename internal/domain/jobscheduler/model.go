package jobscheduler

import "time"

type DispatchStatus string

const (
	StatusSent      DispatchStatus = "sent"
	StatusCompleted DispatchStatus = "completed"
	StatusFailed    DispatchStatus = "failed"
)

// Terminal reports whether no further event is expected for the dispatch.
func (s DispatchStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// DispatchEvent is one transition of a reconcile job: enqueued (sent) or
// executed (completed, failed). Events for the same DispatchID fold into one
// Dispatch.
type DispatchEvent struct {
	DispatchID   string
	JobName      string
	JobPath      string
	SourceID     int64
	Status       DispatchStatus
	Payload      map[string]any
	ErrorMessage string
	OccurredAt   time.Time
	TraceID      string
	SpanID       string
}

// Dispatch is the folded history of one dispatch id. Timestamps of earlier
// transitions survive later events; FailedAt is cleared by a completion.
type Dispatch struct {
	DispatchID  string
	JobName     string
	SourceID    int64
	Status      DispatchStatus
	LastError   string
	SentAt      *time.Time
	CompletedAt *time.Time
	FailedAt    *time.Time
	UpdatedAt   time.Time
}

// Apply folds event into d the same way the dispatch table upsert does.
func (d Dispatch) Apply(event DispatchEvent) Dispatch {
	at := event.OccurredAt.UTC()
	d.DispatchID = event.DispatchID
	d.JobName = event.JobName
	d.SourceID = event.SourceID
	d.Status = event.Status
	d.UpdatedAt = at
	d.LastError = ""

	switch event.Status {
	case StatusSent:
		d.SentAt = &at
	case StatusCompleted:
		d.CompletedAt = &at
		d.FailedAt = nil
	case StatusFailed:
		d.FailedAt = &at
		d.LastError = event.ErrorMessage
	}
	return d
}
