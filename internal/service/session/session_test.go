package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/jkang1643/Exbabel/internal/models"
	"github.com/jkang1643/Exbabel/internal/observability/metrics"
	"github.com/jkang1643/Exbabel/internal/service/reconcile"
	"github.com/jkang1643/Exbabel/internal/service/sequence"
	"github.com/jkang1643/Exbabel/internal/service/translate"
)

type recordingSender struct {
	mu   sync.Mutex
	msgs []models.OutboundMessage
}

func (r *recordingSender) Send(_ context.Context, msg models.OutboundMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, msg)
	return nil
}

func (r *recordingSender) all() []models.OutboundMessage {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.OutboundMessage, len(r.msgs))
	copy(out, r.msgs)
	return out
}

func (r *recordingSender) byKind(kind string) []models.OutboundMessage {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.OutboundMessage
	for _, m := range r.msgs {
		if m.Kind == kind {
			out = append(out, m)
		}
	}
	return out
}

func newTestSession(t *testing.T, finalizeWait time.Duration, emitPartials bool) (*Session, *recordingSender) {
	t.Helper()
	sender := &recordingSender{}
	emitter := sequence.NewEmitter(sender, metrics.DefaultMetrics, zerolog.Nop())

	rcfg := reconcile.DefaultConfig()
	rcfg.FinalizeWait = finalizeWait

	dispatcher := translate.NewDispatcher(translate.DispatcherConfig{
		SessionID:  "sess-test",
		SourceLang: "en",
		TargetLang: "en",
		Emitter:    emitter,
		Metrics:    metrics.DefaultMetrics,
		Logger:     zerolog.Nop(),
	})
	dispatcher.Start(context.Background())

	s := New(Config{
		ID:           "sess-test",
		SourceLang:   "en",
		TargetLang:   "en",
		EmitPartials: emitPartials,
		Reconcile:    rcfg,
		Emitter:      emitter,
		Dispatcher:   dispatcher,
		Metrics:      metrics.DefaultMetrics,
		Logger:       zerolog.Nop(),
	})
	t.Cleanup(func() { s.Close("test_done") })
	return s, sender
}

func drain(t *testing.T, s *Session) {
	t.Helper()
	if !s.dispatcher.Drain(2 * time.Second) {
		t.Fatal("dispatcher did not drain")
	}
}

func TestSession_PartialThenFinal_EmitsCaptionThenTranslation(t *testing.T) {
	s, sender := newTestSession(t, 0, true)

	s.HandleEvent(models.TranscriptEvent{Text: "hello", IsPartial: true})
	s.HandleEvent(models.TranscriptEvent{Text: "hello world", IsPartial: false})
	drain(t, s)

	msgs := sender.all()
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}
	if msgs[0].Kind != models.KindTranscript || msgs[0].OriginalText != "hello" {
		t.Errorf("expected caption first, got %+v", msgs[0])
	}
	if msgs[1].Kind != models.KindTranslation || msgs[1].TranslatedText != "hello world" {
		t.Errorf("expected translation second, got %+v", msgs[1])
	}
	if msgs[0].SequenceID != 1 || msgs[1].SequenceID != 2 {
		t.Errorf("expected sequence ids 1,2 got %d,%d", msgs[0].SequenceID, msgs[1].SequenceID)
	}
}

func TestSession_WordLossGuard_CommitsLongerPartial(t *testing.T) {
	s, sender := newTestSession(t, 0, false)

	s.HandleEvent(models.TranscriptEvent{Text: "hello wor", IsPartial: true})
	s.HandleEvent(models.TranscriptEvent{Text: "hello world today", IsPartial: true})
	s.HandleEvent(models.TranscriptEvent{Text: "hello world", IsPartial: false})
	drain(t, s)

	translations := sender.byKind(models.KindTranslation)
	if len(translations) != 1 {
		t.Fatalf("expected 1 translation, got %d", len(translations))
	}
	if translations[0].TranslatedText != "hello world today" {
		t.Errorf("expected committed text 'hello world today', got %q", translations[0].TranslatedText)
	}
	if got := s.LastCommitted(); got != "hello world today" {
		t.Errorf("expected last committed 'hello world today', got %q", got)
	}
}

func TestSession_DuplicateFinals_EmitOnce(t *testing.T) {
	s, sender := newTestSession(t, 0, false)

	s.HandleEvent(models.TranscriptEvent{Text: "alpha beta", IsPartial: false})
	s.HandleEvent(models.TranscriptEvent{Text: "alpha beta", IsPartial: false})
	drain(t, s)

	translations := sender.byKind(models.KindTranslation)
	if len(translations) != 1 {
		t.Fatalf("expected exactly 1 translation for duplicate finals, got %d", len(translations))
	}
	if translations[0].TranslatedText != "alpha beta" {
		t.Errorf("expected 'alpha beta', got %q", translations[0].TranslatedText)
	}
}

func TestSession_EmptyText_Dropped(t *testing.T) {
	s, sender := newTestSession(t, 0, true)

	s.HandleEvent(models.TranscriptEvent{Text: "   ", IsPartial: false})
	s.HandleEvent(models.TranscriptEvent{Text: "", IsPartial: true})
	drain(t, s)

	if n := len(sender.all()); n != 0 {
		t.Errorf("expected no messages for empty events, got %d", n)
	}
	if got := s.LastCommitted(); got != "" {
		t.Errorf("expected no commit, got %q", got)
	}
}

func TestSession_EmitPartialsDisabled_NoCaptions(t *testing.T) {
	s, sender := newTestSession(t, 0, false)

	s.HandleEvent(models.TranscriptEvent{Text: "quiet caption", IsPartial: true})
	s.HandleEvent(models.TranscriptEvent{Text: "quiet caption here", IsPartial: false})
	drain(t, s)

	if n := len(sender.byKind(models.KindTranscript)); n != 0 {
		t.Errorf("expected no captions, got %d", n)
	}
	if n := len(sender.byKind(models.KindTranslation)); n != 1 {
		t.Errorf("expected 1 translation, got %d", n)
	}
}

func TestSession_RepeatedPartial_EmitsOneCaption(t *testing.T) {
	s, sender := newTestSession(t, 0, true)

	s.HandleEvent(models.TranscriptEvent{Text: "hi there", IsPartial: true})
	s.HandleEvent(models.TranscriptEvent{Text: "hi there", IsPartial: true})

	if n := len(sender.byKind(models.KindTranscript)); n != 1 {
		t.Errorf("expected 1 caption for repeated identical partial, got %d", n)
	}
}

func TestSession_Deferred_TrailingPartialExtendsCommit(t *testing.T) {
	s, sender := newTestSession(t, 50*time.Millisecond, false)

	s.HandleEvent(models.TranscriptEvent{Text: "the quick brown", IsPartial: false})
	if !s.HasPending() {
		t.Fatal("expected pending finalization after deferred final")
	}
	s.HandleEvent(models.TranscriptEvent{Text: "the quick brown fox jumps", IsPartial: true})

	time.Sleep(250 * time.Millisecond)
	drain(t, s)

	if s.HasPending() {
		t.Error("expected pending cleared after expiry")
	}
	translations := sender.byKind(models.KindTranslation)
	if len(translations) != 1 {
		t.Fatalf("expected 1 translation, got %d", len(translations))
	}
	if translations[0].TranslatedText != "the quick brown fox jumps" {
		t.Errorf("expected extended commit, got %q", translations[0].TranslatedText)
	}
}

func TestSession_Deferred_SupersedingFinalMergesUtterance(t *testing.T) {
	s, sender := newTestSession(t, 60*time.Millisecond, false)

	s.HandleEvent(models.TranscriptEvent{
		Text:      "we will discuss the quarterly revenue projections",
		IsPartial: false,
	})
	time.Sleep(20 * time.Millisecond)
	s.HandleEvent(models.TranscriptEvent{
		Text:      "the quarterly revenue projections for the next fiscal year",
		IsPartial: false,
	})
	if !s.HasPending() {
		t.Fatal("expected superseding final to restart the wait window")
	}

	time.Sleep(250 * time.Millisecond)
	drain(t, s)

	translations := sender.byKind(models.KindTranslation)
	if len(translations) != 1 {
		t.Fatalf("expected single merged commit, got %d", len(translations))
	}
	want := "we will discuss the quarterly revenue projections for the next fiscal year"
	if translations[0].TranslatedText != want {
		t.Errorf("expected %q, got %q", want, translations[0].TranslatedText)
	}
}

func TestSession_Flush_CommitsPendingImmediately(t *testing.T) {
	s, sender := newTestSession(t, 10*time.Second, false)

	s.HandleEvent(models.TranscriptEvent{Text: "alpha", IsPartial: false})
	if !s.HasPending() {
		t.Fatal("expected pending finalization")
	}

	s.Flush()
	drain(t, s)

	if s.HasPending() {
		t.Error("expected pending cleared after flush")
	}
	translations := sender.byKind(models.KindTranslation)
	if len(translations) != 1 || translations[0].TranslatedText != "alpha" {
		t.Fatalf("expected flushed commit 'alpha', got %+v", translations)
	}
}

func TestSession_EndOfUtterance_FlushesPending(t *testing.T) {
	s, sender := newTestSession(t, 10*time.Second, false)

	s.OnFinal("gamma rays detected", 0.92)
	if !s.HasPending() {
		t.Fatal("expected pending finalization")
	}

	s.OnEndOfUtterance()
	drain(t, s)

	translations := sender.byKind(models.KindTranslation)
	if len(translations) != 1 || translations[0].TranslatedText != "gamma rays detected" {
		t.Fatalf("expected utterance flush to commit, got %+v", translations)
	}
}

func TestSession_AbnormalClose_DiscardsPending(t *testing.T) {
	s, sender := newTestSession(t, 10*time.Second, false)

	s.HandleEvent(models.TranscriptEvent{Text: "beta", IsPartial: false})
	s.Close("error")
	s.Close("error") // idempotent

	time.Sleep(50 * time.Millisecond)
	if n := len(sender.all()); n != 0 {
		t.Errorf("expected no messages after abnormal close, got %d", n)
	}
	if s.HasPending() {
		t.Error("expected pending cancelled on close")
	}
}

func TestSession_HandleEventAfterClose_IsNoOp(t *testing.T) {
	s, sender := newTestSession(t, 0, true)

	s.Close("error")
	s.HandleEvent(models.TranscriptEvent{Text: "too late", IsPartial: false})
	s.HandleEvent(models.TranscriptEvent{Text: "too late", IsPartial: true})

	time.Sleep(50 * time.Millisecond)
	if n := len(sender.all()); n != 0 {
		t.Errorf("expected no messages after close, got %d", n)
	}
}

func TestSession_CloseGracefully_DrainsQueuedTranslations(t *testing.T) {
	s, sender := newTestSession(t, 10*time.Second, false)

	s.HandleEvent(models.TranscriptEvent{Text: "closing words", IsPartial: false})
	s.CloseGracefully(2 * time.Second)

	translations := sender.byKind(models.KindTranslation)
	if len(translations) != 1 || translations[0].TranslatedText != "closing words" {
		t.Fatalf("expected graceful close to flush and deliver, got %+v", translations)
	}
}
