package infrastructure

import (
	"bufio"
	"io"
	"strings"
	"sync"
)

const (
	lineChanBuffer = 64
	maxLineBytes   = 1024 * 1024
	tailKeep       = 10
)

// LineReader turns a child process stream into a sequence of discrete
// display lines. Producers that rewrite a line in place for live progress
// terminate it with a bare carriage return instead of a newline, so both
// '\n' and '\r' count as line boundaries.
//
// Reading happens on an internal goroutine; the orchestrator consumes
// Lines() from a select loop and therefore never blocks on the child
// exclusively. Lines are delivered in the order the child emitted them.
type LineReader struct {
	lines chan string

	mu   sync.Mutex
	tail []string
	err  error
}

// NewLineReader starts reading lines from r. The Lines channel is closed
// when r reaches EOF or fails.
func NewLineReader(r io.Reader) *LineReader {
	lr := &LineReader{
		lines: make(chan string, lineChanBuffer),
	}
	go lr.read(r)
	return lr
}

// Lines returns the ordered sequence of display lines.
func (lr *LineReader) Lines() <-chan string {
	return lr.lines
}

// Tail returns the last few non-empty captured lines, kept as diagnostic
// context when the child terminates abnormally.
func (lr *LineReader) Tail() []string {
	lr.mu.Lock()
	defer lr.mu.Unlock()
	out := make([]string, len(lr.tail))
	copy(out, lr.tail)
	return out
}

// Err returns the read error, if any, once Lines is closed.
func (lr *LineReader) Err() error {
	lr.mu.Lock()
	defer lr.mu.Unlock()
	return lr.err
}

func (lr *LineReader) read(r io.Reader) {
	defer close(lr.lines)

	sc := bufio.NewScanner(r)
	sc.Split(scanDisplayLines)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	for sc.Scan() {
		line := sc.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		lr.keepTail(line)
		lr.lines <- line
	}
	if err := sc.Err(); err != nil {
		lr.mu.Lock()
		lr.err = err
		lr.mu.Unlock()
	}
}

func (lr *LineReader) keepTail(line string) {
	lr.mu.Lock()
	defer lr.mu.Unlock()
	lr.tail = append(lr.tail, line)
	if len(lr.tail) > tailKeep {
		lr.tail = lr.tail[len(lr.tail)-tailKeep:]
	}
}

// scanDisplayLines is a bufio.SplitFunc that treats '\n' and '\r' both as
// line terminators, so carriage-return progress rewrites become separate
// tokens instead of one giant line.
func scanDisplayLines(data []byte, atEOF bool) (advance int, token []byte, err error) {
	for i, b := range data {
		if b == '\n' || b == '\r' {
			return i + 1, data[:i], nil
		}
	}
	if atEOF && len(data) > 0 {
		return len(data), data, nil
	}
	return 0, nil, nil
}
