package infrastructure

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/IgorBrzezek/YT-Audio-Video-Extractor/internal/domain"
)

func TestYTDLPParser_ProgressLines(t *testing.T) {
	p := NewYTDLPParser(domain.StreamVideo)

	mib := float64(1 << 20)

	tests := []struct {
		name          string
		line          string
		percent       float64
		bytesExpected int64
		rateBps       float64
		eta           time.Duration
	}{
		{
			name:          "full progress line",
			line:          "[download]  42.3% of 10.57MiB at 1.21MiB/s ETA 00:05",
			percent:       42.3,
			bytesExpected: int64(10.57 * mib),
			rateBps:       1.21 * mib,
			eta:           5 * time.Second,
		},
		{
			name:          "approximate size",
			line:          "[download]   5.0% of ~250.00MiB at 500.00KiB/s ETA 08:05",
			percent:       5.0,
			bytesExpected: int64(250 * (1 << 20)),
			rateBps:       500 * 1024,
			eta:           8*time.Minute + 5*time.Second,
		},
		{
			name:    "no size or rate",
			line:    "[download]   0.0%",
			percent: 0,
		},
		{
			name:          "unknown eta",
			line:          "[download]  99.9% of 4.00MiB at 2.00MiB/s ETA Unknown",
			percent:       99.9,
			bytesExpected: 4 << 20,
			rateBps:       2 << 20,
		},
		{
			name:          "hours eta",
			line:          "[download]  12.5% of 1.00GiB at 100.00KiB/s ETA 01:02:03",
			percent:       12.5,
			bytesExpected: 1 << 30,
			rateBps:       100 * 1024,
			eta:           1*time.Hour + 2*time.Minute + 3*time.Second,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev := p.ParseLine(tt.line)
			assert.Equal(t, domain.EventProgress, ev.Kind)
			assert.Equal(t, domain.StreamVideo, ev.Stream)
			assert.InDelta(t, tt.percent, ev.Percent, 0.001)
			if tt.bytesExpected > 0 {
				assert.InDelta(t, float64(tt.bytesExpected), float64(ev.BytesExpected), 1)
			}
			assert.InDelta(t, tt.rateBps, ev.RateBps, 1)
			assert.Equal(t, tt.eta, ev.ETA)
		})
	}
}

func TestYTDLPParser_DerivesBytesDoneFromPercent(t *testing.T) {
	p := NewYTDLPParser(domain.StreamAudio)
	ev := p.ParseLine("[download]  50.0% of 10.00MiB at 1.00MiB/s ETA 00:05")
	assert.Equal(t, int64(5<<20), ev.BytesDone)
}

func TestYTDLPParser_StageLines(t *testing.T) {
	p := NewYTDLPParser(domain.StreamAudio)

	ev := p.ParseLine("[download] Destination: /tmp/clip.f140.m4a")
	assert.Equal(t, domain.EventStage, ev.Kind)
	assert.Equal(t, "destination /tmp/clip.f140.m4a", ev.Stage)

	ev = p.ParseLine(`[Merger] Merging formats into "clip.mp4"`)
	assert.Equal(t, domain.EventStage, ev.Kind)
	assert.Equal(t, "merging", ev.Stage)
}

func TestYTDLPParser_AlreadyDownloaded(t *testing.T) {
	p := NewYTDLPParser(domain.StreamAudio)
	ev := p.ParseLine("[download] /tmp/clip.m4a has already been downloaded")
	assert.Equal(t, domain.EventProgress, ev.Kind)
	assert.Equal(t, 100.0, ev.Percent)
}

func TestYTDLPParser_UnrecognizedLinesPassThrough(t *testing.T) {
	p := NewYTDLPParser(domain.StreamVideo)

	for _, line := range []string{
		"[youtube] abc123: Downloading webpage",
		"ERROR: [youtube] abc123: Video unavailable",
		"WARNING: unable to extract channel id",
	} {
		t.Run(line, func(t *testing.T) {
			ev := p.ParseLine(line)
			assert.Equal(t, domain.EventLog, ev.Kind)
			assert.Equal(t, line, ev.Raw)
		})
	}
}

func TestParseClock(t *testing.T) {
	tests := []struct {
		token    string
		expected time.Duration
		ok       bool
	}{
		{"00:05", 5 * time.Second, true},
		{"10:30", 10*time.Minute + 30*time.Second, true},
		{"01:02:03", time.Hour + 2*time.Minute + 3*time.Second, true},
		{"5", 0, false},
		{"a:b", 0, false},
		{"1:2:3:4", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			got, ok := parseClock(tt.token)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.expected, got)
		})
	}
}
