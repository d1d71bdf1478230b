package store

import (
	"context"
	"time"
)

// TranscriptRecord is one finalized caption persisted for later retrieval.
// Start and End are offsets into the source stream; zero means the
// recognition service reported no timing for the segment.
type TranscriptRecord struct {
	JobID        string
	ResultID     string
	LanguageCode string
	Text         string
	Start        time.Duration
	End          time.Duration
}

// Store persists finalized transcripts.
type Store interface {
	SaveTranscript(ctx context.Context, record TranscriptRecord) error
}
