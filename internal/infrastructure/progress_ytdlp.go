package infrastructure

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/IgorBrzezek/YT-Audio-Video-Extractor/internal/domain"
)

// Retrieval-stage line grammar, e.g.
//
//	[download]  42.3% of ~10.57MiB at 1.21MiB/s ETA 00:05
//	[download] Destination: /tmp/clip.f137.mp4
//	[Merger] Merging formats into "clip.mp4"
//	ERROR: [youtube] abc123: Video unavailable
var (
	ytdlpProgressRe = regexp.MustCompile(
		`\[download\]\s+([\d.]+)%(?:\s+of\s+~?\s*(\S+))?(?:\s+at\s+(\S+))?(?:\s+ETA\s+([\d:]+|Unknown))?`)
	ytdlpDestinationRe = regexp.MustCompile(`\[download\]\s+Destination:\s+(.+)`)
	ytdlpMergerRe      = regexp.MustCompile(`\[Merger\]\s+Merging formats into`)
	ytdlpAlreadyRe     = regexp.MustCompile(`\[download\]\s+(.+) has already been downloaded`)
)

// YTDLPParser converts retrieval-engine output lines into progress events
// for one sub-stream. One parser instance per child process.
type YTDLPParser struct {
	stream domain.StreamKind
}

// NewYTDLPParser creates a parser attributing events to the given sub-stream.
func NewYTDLPParser(stream domain.StreamKind) *YTDLPParser {
	return &YTDLPParser{stream: stream}
}

// ParseLine converts one display line into a progress event. Unrecognized
// lines come back as raw log events so nothing is silently dropped.
func (p *YTDLPParser) ParseLine(line string) domain.ProgressEvent {
	trimmed := strings.TrimSpace(line)

	if m := ytdlpProgressRe.FindStringSubmatch(trimmed); m != nil {
		ev := domain.ProgressEvent{
			Kind:    domain.EventProgress,
			Stream:  p.stream,
			Percent: -1,
		}
		if pct, err := strconv.ParseFloat(m[1], 64); err == nil {
			ev.Percent = pct
		}
		if m[2] != "" {
			if size, err := ParseSize(m[2]); err == nil {
				ev.BytesExpected = size
				if ev.Percent >= 0 {
					ev.BytesDone = int64(ev.Percent / 100 * float64(size))
				}
			}
		}
		if m[3] != "" {
			if rate, err := ParseRate(m[3]); err == nil {
				ev.RateBps = rate
			}
		}
		if m[4] != "" && m[4] != "Unknown" {
			if eta, ok := parseClock(m[4]); ok {
				ev.ETA = eta
			}
		}
		return ev
	}

	if m := ytdlpDestinationRe.FindStringSubmatch(trimmed); m != nil {
		return domain.ProgressEvent{
			Kind:   domain.EventStage,
			Stream: p.stream,
			Stage:  "destination " + m[1],
		}
	}

	if ytdlpMergerRe.MatchString(trimmed) {
		return domain.ProgressEvent{
			Kind:   domain.EventStage,
			Stream: p.stream,
			Stage:  "merging",
		}
	}

	if ytdlpAlreadyRe.MatchString(trimmed) {
		return domain.ProgressEvent{
			Kind:    domain.EventProgress,
			Stream:  p.stream,
			Percent: 100,
		}
	}

	return domain.ProgressEvent{
		Kind:   domain.EventLog,
		Stream: p.stream,
		Raw:    trimmed,
	}
}

// parseClock parses MM:SS or HH:MM:SS tokens.
func parseClock(s string) (time.Duration, bool) {
	parts := strings.Split(s, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, false
	}
	total := 0
	for _, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil {
			return 0, false
		}
		total = total*60 + n
	}
	return time.Duration(total) * time.Second, true
}
