package usecase

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInput          = errors.New("invalid input")
	ErrNotFound              = errors.New("resource not found")
	ErrUnauthorized          = errors.New("unauthorized")
	ErrDependencyUnavailable = errors.New("dependency unavailable")
	ErrAssistantUnavailable  = errors.New("assistant unavailable")
)

// TransportError is a network level failure talking to the feed, including timeouts.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport error during %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// UpstreamError is a non-2xx answer from the feed.
type UpstreamError struct {
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("upstream returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("upstream returned status %d: %s", e.StatusCode, e.Body)
}

// PersistenceError means a snapshot replace failed and was rolled back.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence error during %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// ValidationError rejects a single upstream item; the rest of the batch continues.
type ValidationError struct {
	Index  int
	Reason string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("item %d rejected: %s", e.Index, e.Reason)
}

// IsFeedFailure reports whether err is a transport or upstream failure.
func IsFeedFailure(err error) bool {
	var transportErr *TransportError
	var upstreamErr *UpstreamError
	return errors.As(err, &transportErr) || errors.As(err, &upstreamErr)
}

// IsRecordedFailure reports whether the failure was already folded into the
// source run state, so callers should not retry the job.
func IsRecordedFailure(err error) bool {
	var persistenceErr *PersistenceError
	return IsFeedFailure(err) || errors.As(err, &persistenceErr)
}
