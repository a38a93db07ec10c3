package domain

import "context"

// FetchRequest describes one sub-stream retrieval by the external engine.
type FetchRequest struct {
	Source   string
	Stream   StreamKind
	Format   TargetFormat
	DestPath string
}

// Fetcher drives the external retrieval engine.
type Fetcher interface {
	// Fetch runs one retrieval child process, streaming structured progress
	// events until the child exits. A returned error is a classified
	// *JobError unless the context was cancelled.
	Fetch(ctx context.Context, req FetchRequest, events chan<- ProgressEvent) error

	// Title resolves the human title for a source, used to pick the
	// output filename before any download starts.
	Title(ctx context.Context, source string) (string, error)
}

// ConvertRequest describes one transcode/mux invocation.
type ConvertRequest struct {
	Inputs     []string
	OutputPath string
	Format     TargetFormat
}

// Converter drives the external transcoder/muxer.
type Converter interface {
	Convert(ctx context.Context, req ConvertRequest, events chan<- ProgressEvent) error
}

// HistoryStore persists finished jobs for later inspection.
type HistoryStore interface {
	Record(job *Job) error
}
