package domain

import (
	"fmt"
	"strings"
	"time"
)

// JobReport is the per-job entry kept for the end-of-run summary.
type JobReport struct {
	Source     string
	OutputPath string
	Result     TerminalResult
	Reason     string
	Attempts   int
	Bytes      int64
	Duration   time.Duration
}

// BatchSummary aggregates all jobs of a run. It is owned and mutated only
// by the batch driver and is immutable once the run ends.
type BatchSummary struct {
	Succeeded  int
	Failed     int
	Skipped    int
	TotalBytes int64
	Elapsed    time.Duration
	Jobs       []JobReport
}

// Record folds a finished job into the summary.
func (s *BatchSummary) Record(job *Job) {
	report := JobReport{
		Source:     job.Source,
		OutputPath: job.OutputPath,
		Result:     job.Result,
		Reason:     job.FailureReason,
		Attempts:   job.Attempt,
		Bytes:      job.BytesDone(),
	}
	if !job.Timing.StartedAt.IsZero() {
		report.Duration = job.Timing.FetchDuration + job.Timing.CombineDuration
	}
	switch job.Result {
	case ResultSuccess:
		s.Succeeded++
		s.TotalBytes += report.Bytes
	case ResultFailed:
		s.Failed++
	case ResultSkipped:
		s.Skipped++
	}
	s.Jobs = append(s.Jobs, report)
}

// ExitCode is the process exit status: the failed-job count, bounded to
// the range exit statuses can represent.
func (s *BatchSummary) ExitCode() int {
	if s.Failed > 125 {
		return 125
	}
	return s.Failed
}

// AverageRateBps is the mean transfer rate over the whole run.
func (s *BatchSummary) AverageRateBps() float64 {
	if s.Elapsed <= 0 {
		return 0
	}
	return float64(s.TotalBytes) / s.Elapsed.Seconds()
}

// Render produces the end-of-run summary block, suitable for console
// output or log-file capture.
func (s *BatchSummary) Render() string {
	var b strings.Builder
	b.WriteString("--- SUMMARY ---\n")
	fmt.Fprintf(&b, "Processed: %d | Failed: %d | Skipped: %d\n",
		s.Succeeded, s.Failed, s.Skipped)
	fmt.Fprintf(&b, "Total size: %.2f MB | Total time: %.2fs | Avg rate: %.2f MB/s\n",
		float64(s.TotalBytes)/(1024*1024), s.Elapsed.Seconds(),
		s.AverageRateBps()/(1024*1024))
	return b.String()
}

// ErrorRecord is the append-only list of (source, reason) pairs for jobs
// that ended in Failed. It is persisted as the run's failure report.
type ErrorRecord struct {
	entries []JobReport
}

// Append records one failed job.
func (r *ErrorRecord) Append(source, reason string) {
	r.entries = append(r.entries, JobReport{Source: source, Reason: reason})
}

// Len returns the number of recorded failures.
func (r *ErrorRecord) Len() int {
	return len(r.entries)
}

// Render produces the failure report, one line per failed source.
func (r *ErrorRecord) Render() string {
	var b strings.Builder
	for _, e := range r.entries {
		fmt.Fprintf(&b, "%s\t%s\n", e.Source, e.Reason)
	}
	return b.String()
}
