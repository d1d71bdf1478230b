package pipeline

import (
	"bytes"
	"errors"
	"io"
	"testing"
)

func TestSegmenter_SplitsAtProtocolCeiling(t *testing.T) {
	src := bytes.Repeat([]byte{0xAB}, 50000)
	seg := NewSegmenter(bytes.NewReader(src))

	first, err := seg.Next()
	if err != nil {
		t.Fatalf("expected first chunk, got error %v", err)
	}
	if len(first) != MaxChunkSize {
		t.Fatalf("expected first chunk of %d bytes, got %d", MaxChunkSize, len(first))
	}
	second, err := seg.Next()
	if err != nil {
		t.Fatalf("expected second chunk, got error %v", err)
	}
	if len(second) != 18000 {
		t.Fatalf("expected second chunk of 18000 bytes, got %d", len(second))
	}
	if _, err := seg.Next(); err != io.EOF {
		t.Fatalf("expected io.EOF after source exhausted, got %v", err)
	}
}

// shortReader returns at most n bytes per read regardless of buffer size.
type shortReader struct {
	r io.Reader
	n int
}

func (s *shortReader) Read(p []byte) (int, error) {
	if len(p) > s.n {
		p = p[:s.n]
	}
	return s.r.Read(p)
}

func TestSegmenter_PreservesContentAndOrder(t *testing.T) {
	src := make([]byte, 100000)
	for i := range src {
		src[i] = byte(i * 31)
	}
	seg := NewSegmenter(&shortReader{r: bytes.NewReader(src), n: 7919})

	var out []byte
	for {
		chunk, err := seg.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(chunk) == 0 || len(chunk) > MaxChunkSize {
			t.Fatalf("chunk length %d out of (0, %d]", len(chunk), MaxChunkSize)
		}
		out = append(out, chunk...)
	}
	if !bytes.Equal(out, src) {
		t.Fatal("reassembled output does not match source")
	}
}

type dataThenErrorReader struct {
	data []byte
	err  error
	done bool
}

func (r *dataThenErrorReader) Read(p []byte) (int, error) {
	if r.done {
		return 0, r.err
	}
	r.done = true
	n := copy(p, r.data)
	return n, r.err
}

func TestSegmenter_HoldsBackErrorUntilDataDelivered(t *testing.T) {
	boom := errors.New("boom")
	seg := NewSegmenter(&dataThenErrorReader{data: []byte("hello"), err: boom})

	chunk, err := seg.Next()
	if err != nil {
		t.Fatalf("expected data before error, got %v", err)
	}
	if string(chunk) != "hello" {
		t.Fatalf("unexpected chunk: %q", chunk)
	}
	if _, err := seg.Next(); !errors.Is(err, boom) {
		t.Fatalf("expected held-back error, got %v", err)
	}
}

func TestSegmenter_EmptySource(t *testing.T) {
	seg := NewSegmenter(bytes.NewReader(nil))
	if _, err := seg.Next(); err != io.EOF {
		t.Fatalf("expected io.EOF, got %v", err)
	}
}
