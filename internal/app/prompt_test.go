package app

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/IgorBrzezek/YT-Audio-Video-Extractor/internal/domain"
)

func TestConsolePrompter_Answers(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected domain.OverwriteDecision
	}{
		{name: "yes", input: "y\n", expected: domain.DecisionProceed},
		{name: "no", input: "n\n", expected: domain.DecisionSkip},
		{name: "blank defaults to no", input: "\n", expected: domain.DecisionSkip},
		{name: "all", input: "a\n", expected: domain.DecisionEscalateAll},
		{name: "quit", input: "q\n", expected: domain.DecisionAbort},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := &bytes.Buffer{}
			p := NewConsolePrompter(strings.NewReader(tt.input), out)

			decision, err := p.Ask(context.Background(), "/tmp/out.mp3")
			require.NoError(t, err)
			assert.Equal(t, tt.expected, decision)
			assert.Contains(t, out.String(), "/tmp/out.mp3")
		})
	}
}

func TestConsolePrompter_RepromptsOnGarbage(t *testing.T) {
	out := &bytes.Buffer{}
	p := NewConsolePrompter(strings.NewReader("maybe\nwhat\na\n"), out)

	decision, err := p.Ask(context.Background(), "/tmp/out.mp3")
	require.NoError(t, err)
	assert.Equal(t, domain.DecisionEscalateAll, decision)
	// two bad answers mean three prompts total
	assert.Equal(t, 3, strings.Count(out.String(), "Overwrite?"))
}

func TestConsolePrompter_EOFMeansDefault(t *testing.T) {
	p := NewConsolePrompter(strings.NewReader(""), io.Discard)

	decision, err := p.Ask(context.Background(), "/tmp/out.mp3")
	require.NoError(t, err)
	assert.Equal(t, domain.DecisionSkip, decision)
}

func TestConsolePrompter_AbortWhileWaiting(t *testing.T) {
	// a reader that never delivers a line keeps the prompt pending
	pr, _ := io.Pipe()
	p := NewConsolePrompter(pr, io.Discard)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	decision, err := p.Ask(ctx, "/tmp/out.mp3")
	assert.Equal(t, domain.DecisionAbort, decision)
	assert.ErrorIs(t, err, domain.ErrAborted)
}
