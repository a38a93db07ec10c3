package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/IgorBrzezek/YT-Audio-Video-Extractor/internal/domain"
)

// JobObserver receives every state transition and progress event of a
// running job, for live display and summary aggregation.
type JobObserver func(job *domain.Job, ev domain.ProgressEvent)

// JobRunner drives a single job through its state machine:
// Pending → ResolvingOverwrite → Fetching → Combining → Verifying → Done,
// with terminal Failed/Skipped and a retry back-edge for transient
// failures while the attempt budget lasts.
type JobRunner struct {
	fetcher   domain.Fetcher
	converter domain.Converter
	prompter  OverwritePrompter
	cfg       *domain.DownloadConfig
	logger    *zap.Logger
	observer  JobObserver
}

// NewJobRunner creates a runner. prompter may be nil for non-interactive
// runs.
func NewJobRunner(fetcher domain.Fetcher, converter domain.Converter, prompter OverwritePrompter, cfg *domain.DownloadConfig, logger *zap.Logger) *JobRunner {
	return &JobRunner{
		fetcher:   fetcher,
		converter: converter,
		prompter:  prompter,
		cfg:       cfg,
		logger:    logger,
	}
}

// SetObserver installs the live display callback.
func (r *JobRunner) SetObserver(fn JobObserver) {
	r.observer = fn
}

// Run executes one job to a terminal state. The returned error is the
// classified failure; the caller only propagates user aborts. policy is
// owned by the batch driver and may be escalated here by an "all" answer.
func (r *JobRunner) Run(ctx context.Context, job *domain.Job, policy *domain.OverwritePolicy, interactive bool) error {
	job.Timing.StartedAt = time.Now()

	r.transition(job, domain.StateResolvingOverwrite)
	decision := domain.ResolveOverwrite(fileExists(job.OutputPath), *policy, interactive && r.prompter != nil)
	if decision == domain.DecisionPromptNeeded {
		var err error
		decision, err = r.prompter.Ask(ctx, job.OutputPath)
		if err != nil {
			return r.abortJob(job, err)
		}
	}
	switch decision {
	case domain.DecisionSkip:
		job.MarkSkipped()
		r.logger.Info("skipping existing file", zap.String("output", job.OutputPath))
		return nil
	case domain.DecisionAbort:
		return r.abortJob(job, domain.ErrAborted)
	case domain.DecisionEscalateAll:
		*policy = domain.PolicyOverwriteAll
		r.logger.Info("overwrite policy escalated to all remaining files")
	}

	for {
		job.Attempt++
		job.ResetStreams()

		r.transition(job, domain.StateFetching)
		fetchStart := time.Now()
		tempFiles, err := r.fetch(ctx, job)
		job.Timing.FetchDuration += time.Since(fetchStart)

		if err == nil {
			r.transition(job, domain.StateCombining)
			combineStart := time.Now()
			err = r.combine(ctx, job, tempFiles)
			job.Timing.CombineDuration += time.Since(combineStart)
		}

		if err == nil {
			r.transition(job, domain.StateVerifying)
			err = verifyOutput(job.OutputPath)
		}

		wroteOutput := job.State == domain.StateCombining || job.State == domain.StateVerifying
		removeFiles(tempFiles)

		if err == nil {
			job.MarkDone()
			r.transition(job, domain.StateDone)
			return nil
		}

		if ctx.Err() != nil || errors.Is(err, domain.ErrAborted) {
			if wroteOutput {
				os.Remove(job.OutputPath)
			}
			return r.abortJob(job, err)
		}

		je := domain.AsJobError(err)
		if wroteOutput {
			// never leave a partial artifact behind a failed attempt
			os.Remove(job.OutputPath)
		}

		if je.Retryable() && job.CanRetry() {
			r.logger.Warn("attempt failed, retrying",
				zap.String("source", job.Source),
				zap.Int("attempt", job.Attempt),
				zap.Int("max_attempts", job.MaxAttempts),
				zap.String("reason", je.Reason))
			select {
			case <-time.After(r.cfg.RetryDelay):
			case <-ctx.Done():
				return r.abortJob(job, domain.ErrAborted)
			}
			continue
		}

		job.MarkFailed(je.Reason)
		r.transition(job, domain.StateFailed)
		return je
	}
}

// fetch launches one retrieval child per needed sub-stream (audio only,
// or video+audio concurrently) and folds their event streams into the
// job. Events from one child stay ordered; the two children interleave
// arbitrarily.
func (r *JobRunner) fetch(ctx context.Context, job *domain.Job) ([]string, error) {
	streams := []domain.StreamKind{domain.StreamAudio}
	if job.Format.IsVideo() {
		streams = []domain.StreamKind{domain.StreamVideo, domain.StreamAudio}
	}

	paths := make([]string, len(streams))
	errs := make([]error, len(streams))
	events := make(chan domain.ProgressEvent, 64)

	var wg sync.WaitGroup
	for i, stream := range streams {
		paths[i] = r.tempPath(job, stream)
		wg.Add(1)
		go func(i int, stream domain.StreamKind) {
			defer wg.Done()
			errs[i] = r.fetcher.Fetch(ctx, domain.FetchRequest{
				Source:   job.Source,
				Stream:   stream,
				Format:   job.Format,
				DestPath: paths[i],
			}, events)
		}(i, stream)
	}
	go func() {
		wg.Wait()
		close(events)
	}()

	for ev := range events {
		ev.Apply(job.Stream(ev.Stream))
		r.notify(job, ev)
	}

	// a permanent classification wins over transient ones
	var firstErr error
	for _, err := range errs {
		if err == nil {
			continue
		}
		if je := domain.AsJobError(err); je.Kind == domain.FailPermanentFetch {
			return paths, je
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return paths, firstErr
}

// combine runs the transcoder/muxer over the fetched sub-streams.
func (r *JobRunner) combine(ctx context.Context, job *domain.Job, inputs []string) error {
	events := make(chan domain.ProgressEvent, 64)
	done := make(chan error, 1)
	go func() {
		done <- r.converter.Convert(ctx, domain.ConvertRequest{
			Inputs:     inputs,
			OutputPath: job.OutputPath,
			Format:     job.Format,
		}, events)
		close(events)
	}()

	for ev := range events {
		r.notify(job, ev)
	}
	return <-done
}

func (r *JobRunner) tempPath(job *domain.Job, stream domain.StreamKind) string {
	name := fmt.Sprintf("temp_%d_%s_%s.media", os.Getpid(), job.ID[:8], stream)
	return filepath.Join(filepath.Dir(job.OutputPath), name)
}

func (r *JobRunner) abortJob(job *domain.Job, err error) error {
	job.MarkFailed("aborted by user")
	r.transition(job, domain.StateFailed)
	return domain.NewJobError(domain.FailUserAbort, "aborted by user", err)
}

func (r *JobRunner) transition(job *domain.Job, state domain.JobState) {
	if state != domain.StateDone && state != domain.StateFailed {
		job.State = state
	}
	r.logger.Debug("job state",
		zap.String("source", job.Source),
		zap.String("state", string(job.State)),
		zap.Int("attempt", job.Attempt))
	r.notify(job, domain.ProgressEvent{Kind: domain.EventStage, Stage: string(state)})
}

func (r *JobRunner) notify(job *domain.Job, ev domain.ProgressEvent) {
	if r.observer != nil {
		r.observer(job, ev)
	}
}

func verifyOutput(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return domain.NewJobError(domain.FailVerification, "output file missing", err)
	}
	if info.Size() == 0 {
		return domain.NewJobError(domain.FailVerification, "output file empty", nil)
	}
	return nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func removeFiles(paths []string) {
	for _, p := range paths {
		if p != "" {
			os.Remove(p)
		}
	}
}
