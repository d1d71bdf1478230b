package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/foxseedlab/jimakun/internal/job"
	"github.com/foxseedlab/jimakun/internal/media"
	"github.com/foxseedlab/jimakun/internal/observe"
	"github.com/foxseedlab/jimakun/internal/recognizer"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/sync/errgroup"
)

// State names the phases of one pipeline run.
type State string

const (
	StateInitializing State = "initializing"
	StateStreaming    State = "streaming"
	StateDraining     State = "draining"
	StateTerminated   State = "terminated"
)

// drainTimeout bounds how long Draining waits for in-flight fire-and-forget
// deliveries. Deliveries still running afterwards are abandoned.
const drainTimeout = 10 * time.Second

// Driver owns the lifecycle of one caption run: it opens the decoded byte
// stream, feeds it through the segmenter into a recognition session, and fans
// classified results out to the downstream publishers.
//
// Source-language delivery happens synchronously with event intake; delivery
// for every other target language is dispatched as a tracked goroutine so a
// slow translation or publish never blocks intake of the next event.
type Driver struct {
	decoder media.Decoder
	rec     recognizer.Recognizer
	fanout  *Fanout
	pub     *Publisher
	filter  TextFilter
	metrics *observe.Metrics
}

func NewDriver(decoder media.Decoder, rec recognizer.Recognizer, fanout *Fanout, pub *Publisher, filter TextFilter, metrics *observe.Metrics) *Driver {
	return &Driver{
		decoder: decoder,
		rec:     rec,
		fanout:  fanout,
		pub:     pub,
		filter:  filter,
		metrics: metrics,
	}
}

// Run executes one job to completion. It returns nil on natural end of
// stream or graceful cancellation, and one of the fatal error kinds
// (ConfigurationError, ClientInitError, StreamSetupError,
// StreamTransportError) otherwise.
// Recoverable delivery and translation failures are absorbed downstream and
// never propagate here. All acquired resources, including the decoding
// subprocess, are released on every exit path.
func (d *Driver) Run(ctx context.Context, spec job.Spec) error {
	if err := validateSpec(spec); err != nil {
		slog.Error("rejecting job with invalid specification", "job_id", spec.ID, "error", err)
		return &ConfigurationError{Err: err}
	}

	log := slog.With("job_id", spec.ID)
	log.Info("pipeline run starting", "state", StateInitializing,
		"source_language", spec.SourceLanguage, "target_languages", spec.TargetLanguages)

	d.metrics.ActiveRuns.Add(ctx, 1)
	defer d.metrics.ActiveRuns.Add(ctx, -1)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	stream, err := d.decoder.Open(ctx, spec.MediaEndpoint)
	if err != nil {
		log.Error("pipeline run failed", "state", StateTerminated, "error", err)
		return &ClientInitError{Err: err}
	}

	chunks := make(chan []byte)
	sess, err := d.rec.Start(ctx, spec.SourceLanguage, chunks)
	if err != nil {
		_ = stream.Close()
		log.Error("pipeline run failed", "state", StateTerminated, "error", err)
		return &StreamSetupError{Err: err}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer close(chunks)
		seg := NewSegmenter(stream)
		for {
			chunk, err := seg.Next()
			if err != nil {
				if err != io.EOF && gctx.Err() == nil {
					log.Warn("audio source read failed; stopping chunk production", "error", err)
				}
				return nil
			}
			select {
			case chunks <- chunk:
			case <-gctx.Done():
				return nil
			}
		}
	})

	log.Info("pipeline streaming", "state", StateStreaming)
	dest := Destinations{ChatChannelID: spec.ChatChannelID, MetadataEndpoint: spec.MetadataEndpoint}
	translated := withoutLanguage(spec.TargetLanguages, spec.SourceLanguage)

	var inflight sync.WaitGroup
	for ev := range sess.Events() {
		res, ok := Classify(ev)
		if !ok {
			continue
		}
		if d.filter != nil {
			res.Text = d.filter(res.Text)
		}
		d.metrics.ResultsClassified.Add(ctx, 1,
			metric.WithAttributes(attribute.Bool("partial", res.Partial)))

		d.pub.Deliver(ctx, spec.ID, dest, DeliveryTarget{
			LanguageCode: spec.SourceLanguage,
			Text:         res.Text,
			Source:       res,
		})

		if len(translated) > 0 {
			inflight.Add(1)
			go func(res Result) {
				defer inflight.Done()
				for _, t := range d.fanout.Fanout(ctx, res, spec.SourceLanguage, translated) {
					d.pub.Deliver(ctx, spec.ID, dest, t)
				}
			}(res)
		}
	}

	// In-flight deliveries must finish under a live context; cancelling
	// first would fail them all instantly. Cancellation after the bounded
	// wait cuts off only the stragglers.
	log.Info("pipeline draining", "state", StateDraining)
	if !waitWithTimeout(&inflight, drainTimeout) {
		log.Warn("drain timeout; abandoning in-flight deliveries")
	}
	cancel()
	_ = sess.Close()
	_ = stream.Close()
	_ = g.Wait()

	if serr := sess.Err(); serr != nil {
		log.Error("pipeline run failed", "state", StateTerminated, "error", serr)
		return &StreamTransportError{Err: serr}
	}
	log.Info("pipeline run finished", "state", StateTerminated)
	return nil
}

func validateSpec(spec job.Spec) error {
	switch {
	case spec.MediaEndpoint == "":
		return errors.New("media endpoint is required")
	case spec.SourceLanguage == "":
		return errors.New("source language is required")
	case spec.ChatChannelID == "":
		return errors.New("chat channel is required")
	}
	return nil
}

func withoutLanguage(languages []string, exclude string) []string {
	out := make([]string, 0, len(languages))
	for _, l := range languages {
		if l != exclude {
			out = append(out, l)
		}
	}
	return out
}

func waitWithTimeout(wg *sync.WaitGroup, timeout time.Duration) bool {
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return true
	case <-time.After(timeout):
		return false
	}
}
