package source

import (
	"strings"
	"time"
)

type RunStatus string

const (
	StatusIdle    RunStatus = "idle"
	StatusRunning RunStatus = "running"
	StatusFailed  RunStatus = "failed"
	StatusPaused  RunStatus = "paused"
)

// maxBackoffSteps caps failure backoff at 6x the base interval.
const maxBackoffSteps = 5

// Source is an independently scheduled consumer of one upstream feed endpoint.
type Source struct {
	ID              int64
	Name            string
	Kind            Kind
	Endpoint        string
	Params          map[string]string
	Description     string
	Enabled         bool
	IntervalSeconds int
	Status          RunStatus
	LastRunAt       *time.Time
	NextRunAt       *time.Time
	ErrorCount      int
	LastError       string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// RunState is the scheduling part of a source. Writing it never touches the
// configuration or the enabled flag.
type RunState struct {
	Status     RunStatus
	NextRunAt  *time.Time
	ErrorCount int
	LastError  string
	At         time.Time
}

// RunState extracts the current run state of s.
func (s Source) RunState() RunState {
	return RunState{
		Status:     s.Status,
		NextRunAt:  s.NextRunAt,
		ErrorCount: s.ErrorCount,
		LastError:  s.LastError,
		At:         s.UpdatedAt,
	}
}

// WithRunState returns s with the run-state fields replaced by state.
func (s Source) WithRunState(state RunState) Source {
	s.Status = state.Status
	s.NextRunAt = state.NextRunAt
	s.ErrorCount = state.ErrorCount
	s.LastError = state.LastError
	s.UpdatedAt = state.At
	return s
}

func (s Source) Interval() time.Duration {
	return time.Duration(s.IntervalSeconds) * time.Second
}

// IsDue reports whether the source should be polled at now.
func (s Source) IsDue(now time.Time) bool {
	if !s.Enabled || s.Status == StatusRunning {
		return false
	}
	return s.NextRunAt == nil || !s.NextRunAt.After(now)
}

// BackoffDelay is interval * (1 + min(5, errorCount)); errorCount is the
// count after the current failure has been recorded.
func BackoffDelay(interval time.Duration, errorCount int) time.Duration {
	if errorCount < 0 {
		errorCount = 0
	}
	return interval * time.Duration(1+min(maxBackoffSteps, errorCount))
}

func NormalizeStatus(value string) RunStatus {
	switch status := RunStatus(strings.ToLower(strings.TrimSpace(value))); status {
	case StatusRunning, StatusFailed, StatusPaused:
		return status
	default:
		return StatusIdle
	}
}
