package media

import (
	"context"
	"io"
	"log/slog"
	"os/exec"
	"sync"

	"github.com/foxseedlab/jimakun/internal/media"
)

// FFmpegDecoder spawns an ffmpeg subprocess that pulls the media endpoint and
// writes 16kHz mono signed 16-bit PCM to its stdout. The pipeline reads that
// stdout as an opaque byte stream.
type FFmpegDecoder struct {
	binary string
}

func NewFFmpegDecoder() media.Decoder {
	return &FFmpegDecoder{binary: "ffmpeg"}
}

func (d *FFmpegDecoder) Open(ctx context.Context, endpoint string) (media.Stream, error) {
	cmd := exec.CommandContext(ctx, d.binary,
		"-loglevel", "error",
		"-i", endpoint,
		"-vn",
		"-ac", "1",
		"-ar", "16000",
		"-f", "s16le",
		"pipe:1",
	)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}
	if err := cmd.Start(); err != nil {
		return nil, err
	}
	slog.Info("decoding subprocess started", "endpoint", endpoint, "pid", cmd.Process.Pid)
	return &ffmpegStream{cmd: cmd, out: stdout}, nil
}

type ffmpegStream struct {
	cmd *exec.Cmd
	out io.ReadCloser

	mu     sync.Mutex
	closed bool
}

func (s *ffmpegStream) Read(p []byte) (int, error) {
	return s.out.Read(p)
}

// Close terminates the subprocess if it still runs and reaps it. Idempotent.
func (s *ffmpegStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	_ = s.out.Close()
	if s.cmd.Process != nil {
		_ = s.cmd.Process.Kill()
	}
	_ = s.cmd.Wait()
	return nil
}
