package domain

import (
	"time"

	"github.com/google/uuid"
)

// JobState represents where a job currently sits in its lifecycle.
type JobState string

const (
	StatePending            JobState = "pending"
	StateResolvingOverwrite JobState = "resolving_overwrite"
	StateFetching           JobState = "fetching"
	StateCombining          JobState = "combining"
	StateVerifying          JobState = "verifying"
	StateDone               JobState = "done"
	StateFailed             JobState = "failed"
	StateSkipped            JobState = "skipped"
)

// TerminalResult is the final outcome of a job.
type TerminalResult string

const (
	ResultSuccess TerminalResult = "success"
	ResultFailed  TerminalResult = "failed"
	ResultSkipped TerminalResult = "skipped"
)

// TargetFormat selects the output container and codec settings for a job.
type TargetFormat string

const (
	FormatAudioHigh    TargetFormat = "audio-high"
	FormatAudioFast    TargetFormat = "audio-fast"
	FormatAudioHighVBR TargetFormat = "audio-highVBR"
	FormatAudioMono    TargetFormat = "audio-mono"
	FormatVideo480     TargetFormat = "video-480"
	FormatVideo720     TargetFormat = "video-720"
	FormatVideo1080    TargetFormat = "video-1080"
)

// ValidateFormat checks if a target format is one of the supported values.
func ValidateFormat(f TargetFormat) bool {
	switch f {
	case FormatAudioHigh, FormatAudioFast, FormatAudioHighVBR, FormatAudioMono,
		FormatVideo480, FormatVideo720, FormatVideo1080:
		return true
	}
	return false
}

// IsVideo reports whether the format produces a merged video container.
func (f TargetFormat) IsVideo() bool {
	switch f {
	case FormatVideo480, FormatVideo720, FormatVideo1080:
		return true
	}
	return false
}

// Ext returns the output file extension for the format, dot included.
func (f TargetFormat) Ext() string {
	if f.IsVideo() {
		return ".mp4"
	}
	return ".mp3"
}

// MaxHeight returns the resolution cap for video formats, 0 for audio.
func (f TargetFormat) MaxHeight() int {
	switch f {
	case FormatVideo480:
		return 480
	case FormatVideo720:
		return 720
	case FormatVideo1080:
		return 1080
	}
	return 0
}

// StreamKind identifies which sub-stream a progress record belongs to.
type StreamKind string

const (
	StreamVideo StreamKind = "video"
	StreamAudio StreamKind = "audio"
)

// StreamProgress tracks fetch progress for a single sub-stream.
type StreamProgress struct {
	BytesExpected int64
	BytesDone     int64
	RateBps       float64
	ETASeconds    int
}

// JobTiming records when the job started and how long each stage took.
type JobTiming struct {
	StartedAt       time.Time
	FetchDuration   time.Duration
	CombineDuration time.Duration
}

// Job is one requested source-to-output conversion unit within a run.
//
// OutputPath is decided before any child process is launched and never
// changes mid-job. Attempt never exceeds MaxAttempts.
type Job struct {
	ID          string
	Source      string
	Format      TargetFormat
	OutputPath  string
	State       JobState
	Attempt     int
	MaxAttempts int

	Video StreamProgress
	Audio StreamProgress

	Timing JobTiming

	Result        TerminalResult
	FailureReason string
}

// NewJob creates a pending job for a source URL.
func NewJob(source string, format TargetFormat, outputPath string, maxAttempts int) *Job {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &Job{
		ID:          uuid.New().String(),
		Source:      source,
		Format:      format,
		OutputPath:  outputPath,
		State:       StatePending,
		MaxAttempts: maxAttempts,
	}
}

// Stream returns the progress record for the given sub-stream.
func (j *Job) Stream(kind StreamKind) *StreamProgress {
	if kind == StreamVideo {
		return &j.Video
	}
	return &j.Audio
}

// BytesDone sums transferred bytes across sub-streams.
func (j *Job) BytesDone() int64 {
	return j.Video.BytesDone + j.Audio.BytesDone
}

// MarkDone marks the job as successfully finished.
func (j *Job) MarkDone() {
	j.State = StateDone
	j.Result = ResultSuccess
}

// MarkFailed marks the job as terminally failed with a reason.
func (j *Job) MarkFailed(reason string) {
	j.State = StateFailed
	j.Result = ResultFailed
	j.FailureReason = reason
}

// MarkSkipped marks the job as skipped (existing output kept).
func (j *Job) MarkSkipped() {
	j.State = StateSkipped
	j.Result = ResultSkipped
}

// IsTerminal reports whether the job reached a final state.
func (j *Job) IsTerminal() bool {
	return j.State == StateDone || j.State == StateFailed || j.State == StateSkipped
}

// CanRetry reports whether another fetch/convert attempt is allowed.
func (j *Job) CanRetry() bool {
	return j.Attempt < j.MaxAttempts
}

// ResetStreams clears per-stream progress before a retry attempt.
func (j *Job) ResetStreams() {
	j.Video = StreamProgress{}
	j.Audio = StreamProgress{}
}
