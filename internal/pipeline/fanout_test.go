package pipeline

import (
	"context"
	"errors"
	"sync"
	"testing"
)

type translateCall struct {
	text, source, target string
}

type mockTranslator struct {
	mu      sync.Mutex
	calls   []translateCall
	results map[string]string
	err     error
}

func (m *mockTranslator) Translate(_ context.Context, text, sourceLanguage, targetLanguage string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, translateCall{text: text, source: sourceLanguage, target: targetLanguage})
	if m.err != nil {
		return "", m.err
	}
	return m.results[targetLanguage], nil
}

func (m *mockTranslator) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

func TestFanout_SameLanguagePassthroughSkipsRemoteCall(t *testing.T) {
	tr := &mockTranslator{}
	f := NewFanout(tr, testMetrics(t))

	targets := f.Fanout(context.Background(), Result{ID: "r1", Text: "hello"}, "en-IE", []string{"en-IE"})

	if tr.callCount() != 0 {
		t.Fatalf("expected no translation call, got %d", tr.callCount())
	}
	if len(targets) != 1 || targets[0].Text != "hello" || targets[0].LanguageCode != "en-IE" {
		t.Fatalf("unexpected targets: %+v", targets)
	}
}

func TestFanout_TranslatesDistinctLanguages(t *testing.T) {
	tr := &mockTranslator{results: map[string]string{"fr-FR": "bonjour"}}
	f := NewFanout(tr, testMetrics(t))

	res := Result{ID: "r1", Text: "hello"}
	targets := f.Fanout(context.Background(), res, "en-IE", []string{"en-IE", "fr-FR"})

	if len(targets) != 2 {
		t.Fatalf("expected 2 targets, got %d", len(targets))
	}
	if targets[0].LanguageCode != "en-IE" || targets[0].Text != "hello" {
		t.Fatalf("unexpected passthrough target: %+v", targets[0])
	}
	if targets[1].LanguageCode != "fr-FR" || targets[1].Text != "bonjour" {
		t.Fatalf("unexpected translated target: %+v", targets[1])
	}
	if tr.callCount() != 1 {
		t.Fatalf("expected exactly 1 translation call, got %d", tr.callCount())
	}
	if targets[1].Source != res {
		t.Fatal("target must carry its source result")
	}
}

func TestFanout_FallsBackToSourceTextOnFailure(t *testing.T) {
	tr := &mockTranslator{err: errors.New("quota exceeded")}
	f := NewFanout(tr, testMetrics(t))

	targets := f.Fanout(context.Background(), Result{ID: "r1", Text: "hello"}, "en-IE", []string{"fr-FR"})

	if tr.callCount() != 1 {
		t.Fatalf("translation must be attempted exactly once, got %d calls", tr.callCount())
	}
	if len(targets) != 1 || targets[0].Text != "hello" || targets[0].LanguageCode != "fr-FR" {
		t.Fatalf("expected source-text fallback, got %+v", targets)
	}
}
