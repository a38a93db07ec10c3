package infrastructure

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/IgorBrzezek/YT-Audio-Video-Extractor/internal/domain"
)

// FFmpegConverter implements domain.Converter over ffmpeg, with ffprobe
// for duration lookups.
type FFmpegConverter struct {
	ffmpeg    string
	ffprobe   string
	killGrace time.Duration
	logger    *zap.Logger
}

// NewFFmpegConverter creates a converter for the configured binaries.
func NewFFmpegConverter(tools *domain.ToolsConfig, killGrace time.Duration, logger *zap.Logger) *FFmpegConverter {
	return &FFmpegConverter{
		ffmpeg:    tools.FFmpegBinary,
		ffprobe:   tools.FFprobeBinary,
		killGrace: killGrace,
		logger:    logger,
	}
}

// Convert transcodes or muxes the fetched sub-streams into the final
// output. Progress comes from ffmpeg's `-progress pipe:1` key=value
// records on stdout; stderr is kept as diagnostic tail.
func (c *FFmpegConverter) Convert(ctx context.Context, req domain.ConvertRequest, events chan<- domain.ProgressEvent) error {
	if len(req.Inputs) == 0 {
		return domain.NewJobError(domain.FailConversion, "no inputs to convert", nil)
	}

	// Duration makes conversion progress a percentage; without it the
	// job still runs with indeterminate progress.
	duration, err := c.probeDuration(ctx, req.Inputs[0])
	if err != nil {
		c.logger.Warn("could not probe input duration", zap.Error(err))
	}

	args := buildConvertArgs(req)
	cmd := exec.CommandContext(ctx, c.ffmpeg, args...)
	cmd.Cancel = func() error {
		return cmd.Process.Signal(syscall.SIGTERM)
	}
	cmd.WaitDelay = c.killGrace

	c.logger.Debug("launching transcoder",
		zap.String("cmd", CommandLine(c.ffmpeg, args...)))

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return domain.NewJobError(domain.FailConversion, "pipe setup failed", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return domain.NewJobError(domain.FailConversion, "pipe setup failed", err)
	}

	if err := cmd.Start(); err != nil {
		return domain.NewJobError(domain.FailInput,
			fmt.Sprintf("cannot start %s", c.ffmpeg), err)
	}

	diag := NewLineReader(stderr)
	go func() {
		// drain stderr so ffmpeg never stalls on a full pipe
		for range diag.Lines() {
		}
	}()

	parser := NewFFmpegParser(duration)
	progress := NewLineReader(stdout)
	for line := range progress.Lines() {
		ev := parser.ParseLine(line)
		select {
		case events <- ev:
		case <-ctx.Done():
		}
	}

	waitErr := cmd.Wait()
	if ctx.Err() != nil {
		return domain.ErrAborted
	}
	if waitErr != nil {
		reason := "conversion failed"
		if tail := diag.Tail(); len(tail) > 0 {
			reason = tail[len(tail)-1]
		}
		return domain.NewJobError(domain.FailConversion, reason, waitErr)
	}
	return nil
}

// probeDuration asks ffprobe for the container duration in seconds.
func (c *FFmpegConverter) probeDuration(ctx context.Context, path string) (time.Duration, error) {
	cmd := exec.CommandContext(ctx, c.ffprobe,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "json",
		path)
	out, err := cmd.Output()
	if err != nil {
		return 0, fmt.Errorf("ffprobe failed: %w", err)
	}
	return parseProbeDuration(out)
}

func parseProbeDuration(out []byte) (time.Duration, error) {
	var probe struct {
		Format struct {
			Duration string `json:"duration"`
		} `json:"format"`
	}
	if err := json.Unmarshal(out, &probe); err != nil {
		return 0, fmt.Errorf("unexpected ffprobe output: %w", err)
	}
	if probe.Format.Duration == "" {
		return 0, fmt.Errorf("ffprobe output missing duration")
	}
	secs, err := strconv.ParseFloat(probe.Format.Duration, 64)
	if err != nil {
		return 0, fmt.Errorf("unexpected ffprobe duration %q", probe.Format.Duration)
	}
	return time.Duration(secs * float64(time.Second)), nil
}

// buildConvertArgs maps a target format to the transcoder invocation:
// audio targets re-encode to mp3, video targets mux the two fetched
// sub-streams into mp4 without re-encoding the video track.
func buildConvertArgs(req domain.ConvertRequest) []string {
	args := []string{"-hide_banner", "-loglevel", "error"}
	for _, input := range req.Inputs {
		args = append(args, "-i", input)
	}

	if req.Format.IsVideo() {
		args = append(args, "-c:v", "copy", "-c:a", "aac", "-movflags", "+faststart")
	} else {
		args = append(args, "-vn")
		switch req.Format {
		case domain.FormatAudioHigh:
			args = append(args, "-b:a", "320k")
		case domain.FormatAudioFast:
			args = append(args, "-b:a", "128k")
		case domain.FormatAudioMono:
			args = append(args, "-b:a", "128k", "-ac", "1")
		default: // FormatAudioHighVBR
			args = append(args, "-q:a", "0")
		}
	}

	return append(args, "-progress", "pipe:1", "-y", req.OutputPath)
}
