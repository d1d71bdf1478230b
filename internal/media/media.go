package media

import (
	"context"
	"io"
)

// Stream is an ordered byte stream of decoded audio (16kHz mono PCM).
// Close terminates the producing process if it is still running; it is
// idempotent and safe to call from a goroutine other than the reader's.
type Stream interface {
	io.Reader
	Close() error
}

// Decoder turns a media endpoint into a raw audio byte stream. The pipeline
// treats the bytes as opaque; how they are produced is the decoder's business.
type Decoder interface {
	Open(ctx context.Context, endpoint string) (Stream, error)
}
