package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/foxseedlab/jimakun/internal/chat"
	"github.com/foxseedlab/jimakun/internal/metadata"
	"github.com/foxseedlab/jimakun/internal/observe"
	"github.com/foxseedlab/jimakun/internal/store"
	"go.opentelemetry.io/otel/metric/noop"
)

func testMetrics(t *testing.T) *observe.Metrics {
	t.Helper()
	m, err := observe.NewMetrics(noop.NewMeterProvider())
	if err != nil {
		t.Fatalf("failed to create metrics: %v", err)
	}
	return m
}

type mockChat struct {
	mu        sync.Mutex
	pushes    []chat.LiveUpdate
	errByCall []error
}

func (m *mockChat) Push(_ context.Context, _ string, update chat.LiveUpdate) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	idx := len(m.pushes)
	m.pushes = append(m.pushes, update)
	if idx < len(m.errByCall) && m.errByCall[idx] != nil {
		return "", m.errByCall[idx]
	}
	return fmt.Sprintf("msg-%d", idx+1), nil
}

func (m *mockChat) pushCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.pushes)
}

type mockAttacher struct {
	mu      sync.Mutex
	records []metadata.Record
	err     error
}

func (m *mockAttacher) Attach(_ context.Context, _ string, record metadata.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.records = append(m.records, record)
	return nil
}

func (m *mockAttacher) recordCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records)
}

type mockStore struct {
	mu      sync.Mutex
	records []store.TranscriptRecord
	err     error
}

func (m *mockStore) SaveTranscript(_ context.Context, record store.TranscriptRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.records = append(m.records, record)
	return nil
}

func (m *mockStore) recordCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records)
}

type waitRecorder struct {
	mu    sync.Mutex
	waits []time.Duration
}

func (w *waitRecorder) wait(_ context.Context, d time.Duration) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.waits = append(w.waits, d)
	return nil
}

func newTestPublisher(t *testing.T, cp chat.Publisher, at metadata.Attacher, st store.Store) (*Publisher, *waitRecorder) {
	t.Helper()
	p := NewPublisher(cp, at, st, testMetrics(t))
	rec := &waitRecorder{}
	p.wait = rec.wait
	return p, rec
}

func finalTarget(text, lang string) DeliveryTarget {
	return DeliveryTarget{
		LanguageCode: lang,
		Text:         text,
		Source:       Result{ID: "r1", Partial: false, Start: time.Second, End: 3 * time.Second, Text: text},
	}
}

func TestDeliver_PartialPushesWithoutMetadataOrPersistence(t *testing.T) {
	cp, at, st := &mockChat{}, &mockAttacher{}, &mockStore{}
	p, _ := newTestPublisher(t, cp, at, st)

	p.Deliver(context.Background(), "job-1", Destinations{ChatChannelID: "chan"}, DeliveryTarget{
		LanguageCode: "en-IE",
		Text:         "hel",
		Source:       Result{ID: "r1", Partial: true, Text: "hel"},
	})

	if cp.pushCount() != 1 {
		t.Fatalf("expected 1 push, got %d", cp.pushCount())
	}
	if at.recordCount() != 0 || st.recordCount() != 0 {
		t.Fatal("partial result must not attach metadata or persist")
	}
}

func TestDeliver_MissingResultIDSkipsEverything(t *testing.T) {
	cp, at, st := &mockChat{}, &mockAttacher{}, &mockStore{}
	p, _ := newTestPublisher(t, cp, at, st)

	p.Deliver(context.Background(), "job-1", Destinations{}, DeliveryTarget{
		LanguageCode: "en-IE",
		Text:         "hello",
		Source:       Result{Partial: false, Text: "hello"},
	})

	if cp.pushCount() != 0 || at.recordCount() != 0 || st.recordCount() != 0 {
		t.Fatal("no delivery action may be attempted without a result id")
	}
}

func TestDeliver_FinalTriggersAllThreeActions(t *testing.T) {
	cp, at, st := &mockChat{}, &mockAttacher{}, &mockStore{}
	p, _ := newTestPublisher(t, cp, at, st)

	p.Deliver(context.Background(), "job-1", Destinations{ChatChannelID: "chan", MetadataEndpoint: "https://meta"}, finalTarget("hello", "en-IE"))

	if cp.pushCount() != 1 {
		t.Fatalf("expected 1 push, got %d", cp.pushCount())
	}
	if at.recordCount() != 1 {
		t.Fatalf("expected 1 metadata record, got %d", at.recordCount())
	}
	if st.recordCount() != 1 {
		t.Fatalf("expected 1 persisted record, got %d", st.recordCount())
	}

	rec := at.records[0]
	if rec.Type != metadata.RecordTypeCaption || rec.Text != "hello" || rec.LanguageCode != "en-IE" {
		t.Fatalf("unexpected metadata record: %+v", rec)
	}
	if rec.MessageID != "msg-1" {
		t.Fatalf("expected metadata record to reference the pushed message, got %q", rec.MessageID)
	}

	saved := st.records[0]
	if saved.JobID != "job-1" || saved.ResultID != "r1" || saved.Start != time.Second || saved.End != 3*time.Second {
		t.Fatalf("unexpected transcript record: %+v", saved)
	}
}

func TestDeliver_RetriesWithBackoffThenSucceeds(t *testing.T) {
	boom := errors.New("boom")
	cp := &mockChat{errByCall: []error{boom, boom, nil}}
	at, st := &mockAttacher{}, &mockStore{}
	p, waits := newTestPublisher(t, cp, at, st)

	p.Deliver(context.Background(), "job-1", Destinations{ChatChannelID: "chan"}, DeliveryTarget{
		LanguageCode: "en-IE",
		Text:         "hel",
		Source:       Result{ID: "r1", Partial: true, Text: "hel"},
	})

	if cp.pushCount() != 3 {
		t.Fatalf("expected exactly 3 push attempts, got %d", cp.pushCount())
	}
	want := []time.Duration{500 * time.Millisecond, time.Second}
	if len(waits.waits) != len(want) {
		t.Fatalf("expected %d waits, got %v", len(want), waits.waits)
	}
	for i, d := range want {
		if waits.waits[i] != d {
			t.Fatalf("wait %d: expected %v, got %v", i, d, waits.waits[i])
		}
	}
}

func TestDeliver_AbandonsAfterExhaustedAttempts(t *testing.T) {
	boom := errors.New("boom")
	cp := &mockChat{errByCall: []error{boom, boom, boom}}
	p, _ := newTestPublisher(t, cp, &mockAttacher{}, &mockStore{})

	// Must not panic or surface the failure: the run continues.
	p.Deliver(context.Background(), "job-1", Destinations{ChatChannelID: "chan"}, DeliveryTarget{
		LanguageCode: "en-IE",
		Text:         "hel",
		Source:       Result{ID: "r1", Partial: true, Text: "hel"},
	})

	if cp.pushCount() != 3 {
		t.Fatalf("expected exactly 3 push attempts, got %d", cp.pushCount())
	}
}

func TestDeliver_InactiveDestinationGivesUpImmediately(t *testing.T) {
	inactive := fmt.Errorf("wrapped: %w", chat.ErrDestinationInactive)
	cp := &mockChat{errByCall: []error{inactive}}
	p, waits := newTestPublisher(t, cp, &mockAttacher{}, &mockStore{})

	p.Deliver(context.Background(), "job-1", Destinations{ChatChannelID: "chan"}, DeliveryTarget{
		LanguageCode: "en-IE",
		Text:         "hel",
		Source:       Result{ID: "r1", Partial: true, Text: "hel"},
	})

	if cp.pushCount() != 1 {
		t.Fatalf("expected a single attempt, got %d", cp.pushCount())
	}
	if len(waits.waits) != 0 {
		t.Fatalf("expected no backoff waits, got %v", waits.waits)
	}
}

func TestDeliver_FailuresAreIndependent(t *testing.T) {
	cp := &mockChat{errByCall: []error{errors.New("a"), errors.New("b"), errors.New("c")}}
	at, st := &mockAttacher{}, &mockStore{}
	p, _ := newTestPublisher(t, cp, at, st)

	p.Deliver(context.Background(), "job-1", Destinations{ChatChannelID: "chan"}, finalTarget("hello", "en-IE"))

	if at.recordCount() != 1 || st.recordCount() != 1 {
		t.Fatal("push failure must not block metadata attach or persistence")
	}
	if at.records[0].MessageID != "" {
		t.Fatalf("expected empty message id after failed push, got %q", at.records[0].MessageID)
	}
}
