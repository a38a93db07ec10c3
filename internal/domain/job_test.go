package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTargetFormat(t *testing.T) {
	tests := []struct {
		format    TargetFormat
		valid     bool
		video     bool
		ext       string
		maxHeight int
	}{
		{FormatAudioHigh, true, false, ".mp3", 0},
		{FormatAudioFast, true, false, ".mp3", 0},
		{FormatAudioHighVBR, true, false, ".mp3", 0},
		{FormatAudioMono, true, false, ".mp3", 0},
		{FormatVideo480, true, true, ".mp4", 480},
		{FormatVideo720, true, true, ".mp4", 720},
		{FormatVideo1080, true, true, ".mp4", 1080},
		{TargetFormat("video-4k"), false, false, ".mp3", 0},
		{TargetFormat(""), false, false, ".mp3", 0},
	}

	for _, tt := range tests {
		t.Run(string(tt.format), func(t *testing.T) {
			assert.Equal(t, tt.valid, ValidateFormat(tt.format))
			assert.Equal(t, tt.video, tt.format.IsVideo())
			assert.Equal(t, tt.ext, tt.format.Ext())
			assert.Equal(t, tt.maxHeight, tt.format.MaxHeight())
		})
	}
}

func TestNewJob(t *testing.T) {
	job := NewJob("https://example.com/v", FormatAudioHigh, "/tmp/out.mp3", 3)

	assert.NotEmpty(t, job.ID)
	assert.Equal(t, StatePending, job.State)
	assert.Equal(t, 0, job.Attempt)
	assert.Equal(t, 3, job.MaxAttempts)
	assert.False(t, job.IsTerminal())
}

func TestNewJob_AttemptFloor(t *testing.T) {
	job := NewJob("https://example.com/v", FormatAudioHigh, "/tmp/out.mp3", 0)
	assert.Equal(t, 1, job.MaxAttempts)
}

func TestJob_CanRetry(t *testing.T) {
	job := NewJob("https://example.com/v", FormatAudioHigh, "/tmp/out.mp3", 2)

	job.Attempt = 1
	assert.True(t, job.CanRetry())
	job.Attempt = 2
	assert.False(t, job.CanRetry())
}

func TestJob_TerminalMarks(t *testing.T) {
	t.Run("done", func(t *testing.T) {
		job := NewJob("s", FormatAudioHigh, "o", 1)
		job.MarkDone()
		assert.True(t, job.IsTerminal())
		assert.Equal(t, ResultSuccess, job.Result)
	})

	t.Run("failed", func(t *testing.T) {
		job := NewJob("s", FormatAudioHigh, "o", 1)
		job.MarkFailed("video unavailable")
		assert.True(t, job.IsTerminal())
		assert.Equal(t, ResultFailed, job.Result)
		assert.Equal(t, "video unavailable", job.FailureReason)
	})

	t.Run("skipped", func(t *testing.T) {
		job := NewJob("s", FormatAudioHigh, "o", 1)
		job.MarkSkipped()
		assert.True(t, job.IsTerminal())
		assert.Equal(t, ResultSkipped, job.Result)
	})
}

func TestJob_StreamSelection(t *testing.T) {
	job := NewJob("s", FormatVideo720, "o", 1)
	job.Stream(StreamVideo).BytesDone = 100
	job.Stream(StreamAudio).BytesDone = 50

	assert.Equal(t, int64(100), job.Video.BytesDone)
	assert.Equal(t, int64(50), job.Audio.BytesDone)
	assert.Equal(t, int64(150), job.BytesDone())
}

func TestJob_ResetStreams(t *testing.T) {
	job := NewJob("s", FormatVideo720, "o", 3)
	job.Video = StreamProgress{BytesExpected: 1000, BytesDone: 500, RateBps: 10}
	job.Audio = StreamProgress{BytesExpected: 200, BytesDone: 200}

	job.ResetStreams()

	assert.Equal(t, StreamProgress{}, job.Video)
	assert.Equal(t, StreamProgress{}, job.Audio)
}

func TestProgressEvent_Apply(t *testing.T) {
	t.Run("explicit byte counts", func(t *testing.T) {
		var s StreamProgress
		ev := ProgressEvent{
			Kind:          EventProgress,
			Percent:       50,
			BytesDone:     512,
			BytesExpected: 1024,
			RateBps:       100,
			ETA:           5 * time.Second,
		}
		ev.Apply(&s)

		assert.Equal(t, int64(1024), s.BytesExpected)
		assert.Equal(t, int64(512), s.BytesDone)
		assert.Equal(t, 100.0, s.RateBps)
		assert.Equal(t, 5, s.ETASeconds)
	})

	t.Run("bytes derived from percent", func(t *testing.T) {
		s := StreamProgress{BytesExpected: 2000}
		ev := ProgressEvent{Kind: EventProgress, Percent: 25}
		ev.Apply(&s)
		assert.Equal(t, int64(500), s.BytesDone)
	})

	t.Run("sparse update keeps earlier fields", func(t *testing.T) {
		s := StreamProgress{BytesExpected: 1000, BytesDone: 300, RateBps: 42}
		ev := ProgressEvent{Kind: EventProgress, Percent: 40}
		ev.Apply(&s)

		assert.Equal(t, int64(1000), s.BytesExpected)
		assert.Equal(t, int64(400), s.BytesDone)
		assert.Equal(t, 42.0, s.RateBps)
	})

	t.Run("stage and log events do not touch progress", func(t *testing.T) {
		s := StreamProgress{BytesDone: 100}
		ProgressEvent{Kind: EventStage, Stage: "merging"}.Apply(&s)
		ProgressEvent{Kind: EventLog, Raw: "noise"}.Apply(&s)
		assert.Equal(t, int64(100), s.BytesDone)
	})
}
