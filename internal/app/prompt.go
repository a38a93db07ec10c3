package app

import (
	"bufio"
	"context"
	"fmt"
	"io"

	"github.com/IgorBrzezek/YT-Audio-Video-Extractor/internal/domain"
)

// OverwritePrompter asks the operator what to do about one colliding
// output file.
type OverwritePrompter interface {
	Ask(ctx context.Context, outputPath string) (domain.OverwriteDecision, error)
}

// ConsolePrompter reads overwrite answers from an input stream. The read
// happens on its own goroutine so the prompt stays an abort-responsive
// suspension point rather than a blocking call.
type ConsolePrompter struct {
	out   io.Writer
	lines chan string
}

// NewConsolePrompter starts a prompter reading answers from in.
func NewConsolePrompter(in io.Reader, out io.Writer) *ConsolePrompter {
	p := &ConsolePrompter{
		out:   out,
		lines: make(chan string),
	}
	go func() {
		defer close(p.lines)
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			p.lines <- sc.Text()
		}
	}()
	return p
}

// Ask prompts until it gets a parseable answer. Unknown input re-prompts
// without side effects; EOF counts as the default answer (no).
func (p *ConsolePrompter) Ask(ctx context.Context, outputPath string) (domain.OverwriteDecision, error) {
	for {
		fmt.Fprintf(p.out, "File %q already exists. Overwrite? [y]es/[n]o/[a]ll/[q]uit (default n): ", outputPath)
		select {
		case line, ok := <-p.lines:
			if !ok {
				return domain.DecisionSkip, nil
			}
			if decision, valid := domain.ParseOverwriteAnswer(line); valid {
				return decision, nil
			}
		case <-ctx.Done():
			return domain.DecisionAbort, domain.ErrAborted
		}
	}
}
