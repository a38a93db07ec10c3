package infrastructure

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/IgorBrzezek/YT-Audio-Video-Extractor/internal/domain"
)

const userAgentHeader = "User-Agent: Mozilla/5.0 (Windows NT 10.0; Win64; x64) " +
	"AppleWebKit/537.36 (KHTML, like Gecko) Chrome/128.0.0.0 Safari/537.36"

const androidExtractorArgs = "youtube:player_client=android"

// YTDLPFetcher implements domain.Fetcher over the yt-dlp binary.
type YTDLPFetcher struct {
	binary    string
	network   *domain.NetworkConfig
	killGrace time.Duration
	logger    *zap.Logger
}

// NewYTDLPFetcher creates a fetcher for the configured binary.
func NewYTDLPFetcher(tools *domain.ToolsConfig, network *domain.NetworkConfig, killGrace time.Duration, logger *zap.Logger) *YTDLPFetcher {
	return &YTDLPFetcher{
		binary:    tools.YTDLPBinary,
		network:   network,
		killGrace: killGrace,
		logger:    logger,
	}
}

// Title resolves the video title used for the output filename.
func (f *YTDLPFetcher) Title(ctx context.Context, source string) (string, error) {
	args := []string{"--no-warnings", "--encoding", "utf-8", "--quiet", "--get-filename", "-o", "%(title)s"}
	args = append(args, f.networkArgs()...)
	args = append(args, source)

	cmd := f.command(ctx, args)
	out, err := cmd.Output()
	if err != nil {
		if ctx.Err() != nil {
			return "", domain.ErrAborted
		}
		return "", domain.NewJobError(domain.FailTransientFetch,
			fmt.Sprintf("could not get video metadata for %s", source), err)
	}
	title := strings.TrimSpace(string(out))
	if title == "" {
		return "", domain.NewJobError(domain.FailTransientFetch,
			fmt.Sprintf("empty title for %s", source), nil)
	}
	return title, nil
}

// Fetch runs one retrieval child and streams parsed progress events until
// it exits. The child's combined output is consumed line by line through a
// LineReader so carriage-return progress rewrites arrive as updates.
func (f *YTDLPFetcher) Fetch(ctx context.Context, req domain.FetchRequest, events chan<- domain.ProgressEvent) error {
	args := f.buildArgs(req)
	cmd := f.command(ctx, args)

	f.logger.Debug("launching retrieval engine",
		zap.String("stream", string(req.Stream)),
		zap.String("cmd", CommandLine(f.binary, args...)))

	// Combined stdout+stderr through a single pipe, like `2>&1`.
	pr, pw, err := os.Pipe()
	if err != nil {
		return domain.NewJobError(domain.FailTransientFetch, "pipe setup failed", err)
	}
	cmd.Stdout = pw
	cmd.Stderr = pw

	if err := cmd.Start(); err != nil {
		pw.Close()
		pr.Close()
		return domain.NewJobError(domain.FailInput,
			fmt.Sprintf("cannot start %s", f.binary), err)
	}
	pw.Close()

	reader := NewLineReader(pr)
	parser := NewYTDLPParser(req.Stream)
	for line := range reader.Lines() {
		ev := parser.ParseLine(line)
		select {
		case events <- ev:
		case <-ctx.Done():
			// keep draining so the child can exit
		}
	}
	pr.Close()

	waitErr := cmd.Wait()
	if ctx.Err() != nil {
		return domain.ErrAborted
	}
	if waitErr != nil {
		return domain.ClassifyFetchOutput(reader.Tail(), waitErr)
	}
	return nil
}

func (f *YTDLPFetcher) command(ctx context.Context, args []string) *exec.Cmd {
	cmd := exec.CommandContext(ctx, f.binary, args...)
	// graceful stop first, forced kill after the grace period
	cmd.Cancel = func() error {
		return cmd.Process.Signal(syscall.SIGTERM)
	}
	cmd.WaitDelay = f.killGrace
	return cmd
}

func (f *YTDLPFetcher) buildArgs(req domain.FetchRequest) []string {
	args := []string{
		"--no-warnings",
		"--newline",
		"--progress",
		"--no-mtime",
		"--force-overwrite",
		"-f", formatSelector(req),
		"-o", req.DestPath,
	}
	args = append(args, f.networkArgs()...)
	return append(args, req.Source)
}

func (f *YTDLPFetcher) networkArgs() []string {
	var args []string
	if f.network.CookiesBrowser != "" {
		args = append(args, "--cookies-from-browser", f.network.CookiesBrowser)
	}
	if f.network.LimitRate != "" {
		args = append(args, "--limit-rate", f.network.LimitRate)
	}
	if f.network.AddUserAgent {
		args = append(args, "--add-header", userAgentHeader)
	}
	if f.network.AndroidClient {
		args = append(args, "--extractor-args", androidExtractorArgs)
	}
	return args
}

// formatSelector maps a sub-stream request to the engine's stream selector.
func formatSelector(req domain.FetchRequest) string {
	if req.Stream == domain.StreamVideo {
		return fmt.Sprintf("bestvideo[height<=%d]", req.Format.MaxHeight())
	}
	return "bestaudio"
}
