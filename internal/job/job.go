package job

import "context"

// Spec describes one caption job: where the audio comes from, which languages
// to produce, and where results go.
type Spec struct {
	ID               string
	MediaEndpoint    string
	SourceLanguage   string
	TargetLanguages  []string
	ChatChannelID    string
	MetadataEndpoint string
}

// Source hands out queued jobs. Exactly one job is in flight per worker: the
// worker calls Next again only after the previous run has terminated.
//
// Delete removes the job unconditionally after a run ends, success or failure.
// A worker crash mid-run therefore causes redelivery and duplicate downstream
// effects; duplicate delivery is preferred over lost delivery.
type Source interface {
	// Next blocks until a job is available or ctx is done. Returns ctx.Err
	// on cancellation.
	Next(ctx context.Context) (*Spec, error)

	// Delete removes the job from the queue. Best effort.
	Delete(ctx context.Context, jobID string) error
}
