package domain

import "time"

// ProgressEventKind distinguishes structured progress updates from raw
// pass-through output.
type ProgressEventKind string

const (
	EventProgress ProgressEventKind = "progress"
	EventStage    ProgressEventKind = "stage"
	EventLog      ProgressEventKind = "log"
)

// ProgressEvent is one structured update parsed from child process output.
// Fields that the source line did not carry stay at their zero value;
// Percent is -1 when unknown.
type ProgressEvent struct {
	Kind   ProgressEventKind
	Stream StreamKind

	Percent       float64
	BytesDone     int64
	BytesExpected int64
	RateBps       float64
	ETA           time.Duration

	// Stage marker text, e.g. a destination announcement or merge start.
	Stage string

	// Raw carries the original line for EventLog events.
	Raw string
}

// Apply folds the event into a sub-stream progress record.
func (e ProgressEvent) Apply(s *StreamProgress) {
	if e.Kind != EventProgress {
		return
	}
	if e.BytesExpected > 0 {
		s.BytesExpected = e.BytesExpected
	}
	if e.BytesDone > 0 {
		s.BytesDone = e.BytesDone
	} else if e.Percent >= 0 && s.BytesExpected > 0 {
		s.BytesDone = int64(e.Percent / 100 * float64(s.BytesExpected))
	}
	if e.RateBps > 0 {
		s.RateBps = e.RateBps
	}
	if e.ETA > 0 {
		s.ETASeconds = int(e.ETA.Seconds())
	}
}
