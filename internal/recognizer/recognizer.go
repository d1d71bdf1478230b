package recognizer

import (
	"context"
	"time"
)

// Alternative is one candidate transcription for a speech segment.
type Alternative struct {
	Text       string
	Confidence float64
}

// SpeechResult is one recognition hypothesis inside an Event. The same ID may
// appear repeatedly with Partial=true before a single terminal emission with
// Partial=false. A zero Start/End means the service reported no timing.
type SpeechResult struct {
	ID           string
	Partial      bool
	Start        time.Duration
	End          time.Duration
	Alternatives []Alternative
}

// Event is a single message received from the recognition stream. Events may
// legitimately carry no results at all.
type Event struct {
	Results []SpeechResult
}

// Session is an established bidirectional recognition exchange. The adapter
// feeds audio chunks and receives events concurrently; Events is closed when
// the stream ends, after which Err reports a transport failure if one occurred.
type Session interface {
	// Events returns the inbound event stream. Closed on natural end of
	// stream, on transport failure, or after Close.
	Events() <-chan Event

	// Err returns the transport error that terminated the stream, or nil
	// for a natural close. Only meaningful after Events is closed.
	Err() error

	// Close stops sending audio and releases the underlying client.
	// Idempotent.
	Close() error
}

// Recognizer opens streaming recognition sessions. Start fails when the
// remote call cannot be established (auth failure, invalid language code);
// such a failure is fatal to the run and is not retried.
type Recognizer interface {
	Start(ctx context.Context, language string, chunks <-chan []byte) (Session, error)
}
