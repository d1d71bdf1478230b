package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/foxseedlab/jimakun/internal/chat"
	"github.com/foxseedlab/jimakun/internal/metadata"
	"github.com/foxseedlab/jimakun/internal/observe"
	"github.com/foxseedlab/jimakun/internal/store"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	// deliveryAttempts bounds every downstream publish call.
	deliveryAttempts = 3

	// backoffBase is the wait before the second attempt. Attempt counting
	// starts at zero and the wait doubles each time, so the waits between
	// the three attempts are 500ms then 1s.
	backoffBase = 500 * time.Millisecond
)

// Publisher delivers one DeliveryTarget to the three downstream consumers:
// the live messaging channel always, the metadata channel and the transcript
// store only for finalized results. The three actions fail independently and
// never surface an error to the caller; an exhausted retry budget abandons
// that one delivery and the run continues.
type Publisher struct {
	chat    chat.Publisher
	meta    metadata.Attacher
	store   store.Store
	metrics *observe.Metrics

	// wait is replaced in tests to observe backoff without sleeping.
	wait func(ctx context.Context, d time.Duration) error
}

func NewPublisher(cp chat.Publisher, at metadata.Attacher, st store.Store, metrics *observe.Metrics) *Publisher {
	return &Publisher{
		chat:    cp,
		meta:    at,
		store:   st,
		metrics: metrics,
		wait:    sleepContext,
	}
}

// Deliver publishes one target. A result without an identifier cannot be
// revised or referenced downstream, so nothing at all is attempted for it.
func (p *Publisher) Deliver(ctx context.Context, jobID string, dest Destinations, t DeliveryTarget) {
	if t.Source.ID == "" {
		slog.Warn("skipping delivery for result without id",
			"job_id", jobID, "language", t.LanguageCode)
		return
	}

	started := time.Now()
	messageID := p.pushLive(ctx, dest.ChatChannelID, t)

	if !t.Source.Partial {
		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			p.attachMetadata(ctx, dest.MetadataEndpoint, t, messageID)
		}()
		go func() {
			defer wg.Done()
			p.persist(ctx, jobID, t)
		}()
		wg.Wait()
	}

	p.metrics.DeliveryDuration.Record(ctx, time.Since(started).Seconds(),
		metric.WithAttributes(attribute.String("language", t.LanguageCode)))
}

func (p *Publisher) pushLive(ctx context.Context, channelID string, t DeliveryTarget) string {
	var messageID string
	p.withRetry(ctx, "push", t, func() error {
		id, err := p.chat.Push(ctx, channelID, chat.LiveUpdate{
			ResultID:     t.Source.ID,
			LanguageCode: t.LanguageCode,
			Text:         t.Text,
			Partial:      t.Source.Partial,
		})
		if err != nil {
			return err
		}
		messageID = id
		return nil
	})
	return messageID
}

func (p *Publisher) attachMetadata(ctx context.Context, destination string, t DeliveryTarget, messageID string) {
	p.withRetry(ctx, "metadata", t, func() error {
		return p.meta.Attach(ctx, destination, metadata.Record{
			Type:         metadata.RecordTypeCaption,
			Text:         t.Text,
			LanguageCode: t.LanguageCode,
			MessageID:    messageID,
		})
	})
}

func (p *Publisher) persist(ctx context.Context, jobID string, t DeliveryTarget) {
	p.withRetry(ctx, "persist", t, func() error {
		return p.store.SaveTranscript(ctx, store.TranscriptRecord{
			JobID:        jobID,
			ResultID:     t.Source.ID,
			LanguageCode: t.LanguageCode,
			Text:         t.Text,
			Start:        t.Source.Start,
			End:          t.Source.End,
		})
	})
}

// withRetry runs fn up to deliveryAttempts times with exponential backoff.
// An inactive destination is an expected condition while a broadcast is
// offline: the delivery is abandoned at once without a warning and without
// consuming further attempts.
func (p *Publisher) withRetry(ctx context.Context, action string, t DeliveryTarget, fn func() error) {
	attrs := metric.WithAttributes(attribute.String("action", action))
	delay := backoffBase
	for attempt := 1; ; attempt++ {
		err := fn()
		if err == nil {
			p.metrics.Deliveries.Add(ctx, 1, attrs,
				metric.WithAttributes(attribute.String("status", "ok")))
			return
		}
		if errors.Is(err, chat.ErrDestinationInactive) {
			slog.Debug("destination inactive; abandoning delivery",
				"action", action, "result_id", t.Source.ID, "language", t.LanguageCode)
			p.metrics.Deliveries.Add(ctx, 1, attrs,
				metric.WithAttributes(attribute.String("status", "inactive")))
			return
		}
		if attempt >= deliveryAttempts {
			slog.Warn("delivery abandoned after exhausting attempts",
				"action", action, "attempts", attempt,
				"result_id", t.Source.ID, "language", t.LanguageCode, "error", err)
			p.metrics.Deliveries.Add(ctx, 1, attrs,
				metric.WithAttributes(attribute.String("status", "abandoned")))
			return
		}
		p.metrics.DeliveryRetries.Add(ctx, 1, attrs)
		if werr := p.wait(ctx, delay); werr != nil {
			return
		}
		delay *= 2
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
