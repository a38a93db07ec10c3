package infrastructure

import (
	"strconv"
	"strings"
	"time"

	"github.com/IgorBrzezek/YT-Audio-Video-Extractor/internal/domain"
)

// FFmpegParser converts transcoder progress output into events. The
// transcoder is launched with `-progress pipe:1`, which emits key=value
// records terminated by a `progress=continue|end` line:
//
//	total_size=1048576
//	out_time_us=5250000
//	speed=12.3x
//	progress=continue
//
// Percent is derived from out_time against the input duration probed
// beforehand; with an unknown duration progress stays indeterminate.
type FFmpegParser struct {
	duration time.Duration

	bytesDone int64
	outTime   time.Duration
}

// NewFFmpegParser creates a parser. duration may be zero when the input
// length could not be probed.
func NewFFmpegParser(duration time.Duration) *FFmpegParser {
	return &FFmpegParser{duration: duration}
}

// ParseLine consumes one key=value line. Progress events are emitted on
// the record terminator; other recognized keys update internal state and
// return a log event.
func (p *FFmpegParser) ParseLine(line string) domain.ProgressEvent {
	trimmed := strings.TrimSpace(line)
	key, value, found := strings.Cut(trimmed, "=")
	if !found {
		return domain.ProgressEvent{Kind: domain.EventLog, Stream: domain.StreamAudio, Raw: trimmed}
	}

	switch key {
	case "total_size":
		if n, err := strconv.ParseInt(value, 10, 64); err == nil {
			p.bytesDone = n
		}
	case "out_time_us", "out_time_ms":
		// ffmpeg historically reported microseconds under both keys
		if n, err := strconv.ParseInt(value, 10, 64); err == nil {
			p.outTime = time.Duration(n) * time.Microsecond
		}
	case "progress":
		ev := domain.ProgressEvent{
			Kind:      domain.EventProgress,
			Stream:    domain.StreamAudio,
			Percent:   -1,
			BytesDone: p.bytesDone,
		}
		if value == "end" {
			ev.Percent = 100
		} else if p.duration > 0 && p.outTime > 0 {
			pct := float64(p.outTime) / float64(p.duration) * 100
			if pct > 100 {
				pct = 100
			}
			ev.Percent = pct
		}
		return ev
	}

	return domain.ProgressEvent{Kind: domain.EventLog, Stream: domain.StreamAudio, Raw: trimmed}
}
