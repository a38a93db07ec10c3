package domain

import (
	"errors"
	"fmt"
	"strings"
)

// FailureKind classifies a job failure for retry decisions and reporting.
type FailureKind string

const (
	FailTransientFetch FailureKind = "transient_fetch"
	FailPermanentFetch FailureKind = "permanent_fetch"
	FailConversion     FailureKind = "conversion"
	FailVerification   FailureKind = "verification"
	FailUserAbort      FailureKind = "user_abort"
	FailInput          FailureKind = "input"
)

// ErrAborted is returned when the run is cancelled by the user.
var ErrAborted = errors.New("aborted by user")

// JobError is a classified job failure. Kind drives the retry decision;
// Reason is the human-readable line recorded in the error report.
type JobError struct {
	Kind   FailureKind
	Reason string
	Err    error
}

func (e *JobError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Reason)
}

func (e *JobError) Unwrap() error {
	return e.Err
}

// Retryable reports whether the failure may be retried within the
// job's attempt budget.
func (e *JobError) Retryable() bool {
	switch e.Kind {
	case FailTransientFetch, FailConversion, FailVerification:
		return true
	}
	return false
}

// NewJobError builds a classified failure.
func NewJobError(kind FailureKind, reason string, err error) *JobError {
	return &JobError{Kind: kind, Reason: reason, Err: err}
}

// AsJobError extracts a JobError from an error chain, wrapping unknown
// errors as transient fetch failures.
func AsJobError(err error) *JobError {
	var je *JobError
	if errors.As(err, &je) {
		return je
	}
	if errors.Is(err, ErrAborted) {
		return &JobError{Kind: FailUserAbort, Reason: "aborted by user", Err: err}
	}
	return &JobError{Kind: FailTransientFetch, Reason: err.Error(), Err: err}
}

// Output markers the retrieval engine emits for conditions that will not
// resolve on retry.
var permanentFetchMarkers = []string{
	"video unavailable",
	"private video",
	"this video has been removed",
	"has been terminated",
	"not available in your country",
	"sign in to confirm your age",
	"unsupported url",
}

// Markers for conditions worth retrying even when the message sounds final.
var transientFetchMarkers = []string{
	"http error 429",
	"http error 500",
	"http error 502",
	"http error 503",
	"connection reset",
	"timed out",
	"temporary failure in name resolution",
	"unable to download",
}

// ClassifyFetchOutput classifies a retrieval failure from the last lines of
// child output. Permanent markers win over transient ones; anything else is
// treated as transient so the attempt budget applies.
func ClassifyFetchOutput(tail []string, err error) *JobError {
	reason := "download failed"
	for i := len(tail) - 1; i >= 0; i-- {
		line := tail[i]
		lower := strings.ToLower(line)
		if !strings.Contains(lower, "error") && !containsAny(lower, permanentFetchMarkers) {
			continue
		}
		reason = strings.TrimSpace(line)
		if containsAny(lower, permanentFetchMarkers) {
			return NewJobError(FailPermanentFetch, reason, err)
		}
		if containsAny(lower, transientFetchMarkers) {
			return NewJobError(FailTransientFetch, reason, err)
		}
	}
	return NewJobError(FailTransientFetch, reason, err)
}

func containsAny(s string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(s, m) {
			return true
		}
	}
	return false
}
