package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/IgorBrzezek/YT-Audio-Video-Extractor/internal/domain"
)

// ErrorReportName is the fixed name of the failure report side file,
// written into the destination directory whenever any job fails.
const ErrorReportName = "ytavx-errors.log"

// JobRequest is one planned download before a Job exists for it.
type JobRequest struct {
	Source     string
	OutputName string // custom output filename, single-source runs only
}

// BatchDriver sequentially drives each job through the job runner,
// owns the overwrite policy and the batch summary, and produces the
// end-of-run report.
type BatchDriver struct {
	runner      *JobRunner
	fetcher     domain.Fetcher
	cfg         *domain.Config
	policy      domain.OverwritePolicy
	interactive bool
	history     domain.HistoryStore
	logger      *zap.Logger
	out         io.Writer

	lastLineProgress bool
}

// NewBatchDriver creates a driver. history may be nil; out receives the
// console rendering (io.Discard in batch mode).
func NewBatchDriver(runner *JobRunner, fetcher domain.Fetcher, cfg *domain.Config, policy domain.OverwritePolicy, interactive bool, history domain.HistoryStore, logger *zap.Logger, out io.Writer) *BatchDriver {
	d := &BatchDriver{
		runner:      runner,
		fetcher:     fetcher,
		cfg:         cfg,
		policy:      policy,
		interactive: interactive,
		history:     history,
		logger:      logger,
		out:         out,
	}
	runner.SetObserver(d.renderEvent)
	return d
}

// Run processes all requests in order and returns the finished summary.
// The returned error is non-nil only when the run was aborted; per-job
// failures are recorded, never propagated.
func (d *BatchDriver) Run(ctx context.Context, requests []JobRequest, format domain.TargetFormat) (*domain.BatchSummary, error) {
	start := time.Now()
	summary := &domain.BatchSummary{}
	record := &domain.ErrorRecord{}
	var abortErr error

	fmt.Fprintf(d.out, "Found %d file(s) to process.\n", len(requests))
	d.logger.Info("starting batch",
		zap.Int("jobs", len(requests)),
		zap.String("format", string(format)))

	for i, req := range requests {
		if ctx.Err() != nil {
			abortErr = domain.ErrAborted
			break
		}

		fmt.Fprintf(d.out, "\n--- Processing file %d/%d: %s ---\n", i+1, len(requests), req.Source)
		job := d.plan(ctx, req, format)

		if !job.IsTerminal() {
			err := d.runner.Run(ctx, job, &d.policy, d.interactive)
			if err != nil {
				if je := domain.AsJobError(err); je.Kind == domain.FailUserAbort {
					abortErr = err
					d.finishJob(summary, record, job)
					break
				}
			}
		}
		d.finishJob(summary, record, job)
	}

	summary.Elapsed = time.Since(start)

	if record.Len() > 0 {
		d.writeErrorReport(record)
	}

	fmt.Fprintf(d.out, "\n%s", summary.Render())
	d.logger.Info("batch finished",
		zap.Int("succeeded", summary.Succeeded),
		zap.Int("failed", summary.Failed),
		zap.Int("skipped", summary.Skipped),
		zap.Int64("total_bytes", summary.TotalBytes),
		zap.Duration("elapsed", summary.Elapsed))

	return summary, abortErr
}

// plan resolves the output path for a request. The path is fixed before
// any download child is launched and never changes mid-job.
func (d *BatchDriver) plan(ctx context.Context, req JobRequest, format domain.TargetFormat) *domain.Job {
	maxAttempts := d.cfg.Download.MaxAttempts

	name := req.OutputName
	if name == "" {
		title, err := d.fetcher.Title(ctx, req.Source)
		if err != nil {
			job := domain.NewJob(req.Source, format, "", maxAttempts)
			job.Attempt = 1
			job.MarkFailed(domain.AsJobError(err).Reason)
			return job
		}
		name = sanitizeFilename(title)
	}
	if !strings.HasSuffix(strings.ToLower(name), format.Ext()) {
		name += format.Ext()
	}

	outputPath := filepath.Join(d.cfg.Download.DestDir, name)
	return domain.NewJob(req.Source, format, outputPath, maxAttempts)
}

func (d *BatchDriver) finishJob(summary *domain.BatchSummary, record *domain.ErrorRecord, job *domain.Job) {
	summary.Record(job)
	switch job.Result {
	case domain.ResultSuccess:
		fmt.Fprintf(d.out, "\nSuccessfully created: %s (%.2f MB, %.2fs)\n",
			job.OutputPath,
			float64(job.BytesDone())/(1024*1024),
			(job.Timing.FetchDuration + job.Timing.CombineDuration).Seconds())
	case domain.ResultFailed:
		record.Append(job.Source, job.FailureReason)
		fmt.Fprintf(d.out, "\nFailed: %s (%s)\n", job.Source, job.FailureReason)
	case domain.ResultSkipped:
		fmt.Fprintf(d.out, "Skipped: %s\n", job.OutputPath)
	}

	if d.history != nil {
		if err := d.history.Record(job); err != nil {
			d.logger.Warn("failed to record job history", zap.Error(err))
		}
	}
}

func (d *BatchDriver) writeErrorReport(record *domain.ErrorRecord) {
	path := filepath.Join(d.cfg.Download.DestDir, ErrorReportName)
	if err := os.WriteFile(path, []byte(record.Render()), 0644); err != nil {
		d.logger.Error("failed to write error report", zap.String("path", path), zap.Error(err))
		return
	}
	d.logger.Info("error report written", zap.String("path", path), zap.Int("failures", record.Len()))
}

// renderEvent is the live display for job progress. Progress updates
// rewrite one console line in place; stage markers get their own line.
func (d *BatchDriver) renderEvent(job *domain.Job, ev domain.ProgressEvent) {
	switch ev.Kind {
	case domain.EventProgress:
		fmt.Fprintf(d.out, "\r%s  ", progressLine(job))
		d.lastLineProgress = true
	case domain.EventStage:
		if d.lastLineProgress {
			fmt.Fprintln(d.out)
			d.lastLineProgress = false
		}
		fmt.Fprintf(d.out, "[%s]\n", ev.Stage)
	}
}

func progressLine(job *domain.Job) string {
	if !job.Format.IsVideo() {
		return fmt.Sprintf("audio %s", streamPercent(&job.Audio))
	}
	return fmt.Sprintf("video %s  audio %s",
		streamPercent(&job.Video), streamPercent(&job.Audio))
}

func streamPercent(s *domain.StreamProgress) string {
	if s.BytesExpected <= 0 {
		return "--%"
	}
	pct := float64(s.BytesDone) / float64(s.BytesExpected) * 100
	out := fmt.Sprintf("%.1f%%", pct)
	if s.RateBps > 0 {
		out += fmt.Sprintf(" at %.1fMB/s", s.RateBps/(1024*1024))
	}
	return out
}

var invalidFilenameChars = regexp.MustCompile(`[<>:"/\\|?*\x00-\x1F]`)

// sanitizeFilename makes a video title safe to use as a file name.
func sanitizeFilename(name string) string {
	clean := invalidFilenameChars.ReplaceAllString(name, "_")
	clean = strings.TrimSpace(clean)
	if clean == "" {
		return "untitled"
	}
	return clean
}
