package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJobError_Retryable(t *testing.T) {
	tests := []struct {
		kind      FailureKind
		retryable bool
	}{
		{FailTransientFetch, true},
		{FailConversion, true},
		{FailVerification, true},
		{FailPermanentFetch, false},
		{FailUserAbort, false},
		{FailInput, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			je := NewJobError(tt.kind, "reason", nil)
			assert.Equal(t, tt.retryable, je.Retryable())
		})
	}
}

func TestJobError_Unwrap(t *testing.T) {
	cause := errors.New("exit status 1")
	je := NewJobError(FailConversion, "conversion failed", cause)
	assert.ErrorIs(t, je, cause)
	assert.Contains(t, je.Error(), "conversion failed")
}

func TestAsJobError(t *testing.T) {
	t.Run("passes through classified errors", func(t *testing.T) {
		orig := NewJobError(FailPermanentFetch, "video unavailable", nil)
		wrapped := fmt.Errorf("job failed: %w", orig)
		assert.Same(t, orig, AsJobError(wrapped))
	})

	t.Run("abort sentinel maps to user abort", func(t *testing.T) {
		je := AsJobError(fmt.Errorf("while fetching: %w", ErrAborted))
		assert.Equal(t, FailUserAbort, je.Kind)
		assert.False(t, je.Retryable())
	})

	t.Run("unknown errors count as transient", func(t *testing.T) {
		je := AsJobError(errors.New("something odd"))
		assert.Equal(t, FailTransientFetch, je.Kind)
		assert.True(t, je.Retryable())
	})
}

func TestClassifyFetchOutput(t *testing.T) {
	exitErr := errors.New("exit status 1")

	tests := []struct {
		name   string
		tail   []string
		kind   FailureKind
		reason string
	}{
		{
			name: "removed video is permanent",
			tail: []string{
				"[youtube] abc123: Downloading webpage",
				"ERROR: [youtube] abc123: Video unavailable. This video has been removed",
			},
			kind:   FailPermanentFetch,
			reason: "ERROR: [youtube] abc123: Video unavailable. This video has been removed",
		},
		{
			name: "private video is permanent",
			tail: []string{
				"ERROR: [youtube] abc123: Private video. Sign in if you've been granted access",
			},
			kind: FailPermanentFetch,
		},
		{
			name: "geo restriction is permanent",
			tail: []string{
				"ERROR: The uploader has not made this video not available in your country",
			},
			kind: FailPermanentFetch,
		},
		{
			name: "rate limit is transient",
			tail: []string{
				"ERROR: unable to download video data: HTTP Error 429: Too Many Requests",
			},
			kind: FailTransientFetch,
		},
		{
			name: "server error is transient",
			tail: []string{
				"ERROR: unable to download webpage: HTTP Error 503: Service Unavailable",
			},
			kind: FailTransientFetch,
		},
		{
			name: "unknown error is transient",
			tail: []string{
				"ERROR: something nobody has seen before",
			},
			kind:   FailTransientFetch,
			reason: "ERROR: something nobody has seen before",
		},
		{
			name:   "no error lines at all",
			tail:   []string{"[download]  42.3% of 10.57MiB at 1.21MiB/s ETA 00:05"},
			kind:   FailTransientFetch,
			reason: "download failed",
		},
		{
			name:   "empty tail",
			tail:   nil,
			kind:   FailTransientFetch,
			reason: "download failed",
		},
		{
			name: "permanent marker wins even after transient noise",
			tail: []string{
				"ERROR: [youtube] abc123: Video unavailable",
				"WARNING: retrying after connection reset",
			},
			kind: FailPermanentFetch,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			je := ClassifyFetchOutput(tt.tail, exitErr)
			require.NotNil(t, je)
			assert.Equal(t, tt.kind, je.Kind)
			if tt.reason != "" {
				assert.Equal(t, tt.reason, je.Reason)
			}
			assert.ErrorIs(t, je, exitErr)
		})
	}
}
