package pipeline

import "io"

// MaxChunkSize is the hard ceiling the recognition service places on a single
// audio message.
const MaxChunkSize = 32000

// Segmenter splits an unbounded byte stream into chunks of at most
// MaxChunkSize bytes. Splitting is purely length-based: byte order and total
// content are preserved, and no more than one source read is buffered.
type Segmenter struct {
	r   io.Reader
	max int
	err error
}

func NewSegmenter(r io.Reader) *Segmenter {
	return &Segmenter{r: r, max: MaxChunkSize}
}

// Next returns the next non-empty chunk, or io.EOF when the source is
// exhausted. Each returned chunk is owned by the caller. A read error
// observed alongside data is held back until the following call.
func (s *Segmenter) Next() ([]byte, error) {
	if s.err != nil {
		return nil, s.err
	}
	buf := make([]byte, s.max)
	for {
		n, err := s.r.Read(buf)
		if n > 0 {
			s.err = err
			return buf[:n], nil
		}
		if err != nil {
			s.err = err
			return nil, err
		}
	}
}
