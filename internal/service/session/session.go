// Package session coordinates one live transcription session. It feeds
// transcript events through the reconciliation engine, emits live captions,
// owns the deferred-finalization timer, and hands committed text to the
// translation dispatcher.
package session

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/jkang1643/Exbabel/internal/models"
	"github.com/jkang1643/Exbabel/internal/observability/metrics"
	"github.com/jkang1643/Exbabel/internal/schema"
	"github.com/jkang1643/Exbabel/internal/service/reconcile"
	"github.com/jkang1643/Exbabel/internal/service/sequence"
	"github.com/jkang1643/Exbabel/internal/service/translate"
)

// Config holds the identity, toggles and collaborators of one session.
type Config struct {
	ID           string
	SourceLang   string
	TargetLang   string
	EmitPartials bool
	Reconcile    reconcile.Config
	Emitter      *sequence.Emitter
	Dispatcher   *translate.Dispatcher
	Metrics      *metrics.Metrics
	Logger       zerolog.Logger
}

// pendingCommit identifies one scheduled finalization. The pointer is the
// identity token: an expiry callback that lost a cancel race finds a
// different pointer in s.pending and returns without committing.
type pendingCommit struct {
	timer *time.Timer
}

// Session owns the per-stream reconciliation state. Every transcript event
// for the session is serialized through its mutex, whether it arrives from
// the WebSocket reader, an ASR adapter goroutine, or the finalization
// timer. The only suspending operation, the translation call, lives on the
// dispatcher's worker goroutine and never holds this lock.
type Session struct {
	id           string
	sourceLang   string
	targetLang   string
	emitPartials bool
	finalizeWait time.Duration

	validator  *schema.Validator
	engine     *reconcile.Engine
	emitter    *sequence.Emitter
	dispatcher *translate.Dispatcher
	metrics    *metrics.Metrics
	log        zerolog.Logger

	mu      sync.Mutex
	pending *pendingCommit
	started time.Time
	closed  bool
}

// New creates a session and records its start.
func New(cfg Config) *Session {
	m := cfg.Metrics
	if m == nil {
		m = metrics.DefaultMetrics
	}
	s := &Session{
		id:           cfg.ID,
		sourceLang:   cfg.SourceLang,
		targetLang:   cfg.TargetLang,
		emitPartials: cfg.EmitPartials,
		finalizeWait: cfg.Reconcile.FinalizeWait,
		validator:    schema.New(),
		engine:       reconcile.NewEngine(cfg.Reconcile),
		emitter:      cfg.Emitter,
		dispatcher:   cfg.Dispatcher,
		metrics:      m,
		log:          cfg.Logger,
		started:      time.Now(),
	}
	m.RecordSessionStart()
	s.log.Info().
		Str("sourceLang", s.sourceLang).
		Str("targetLang", s.targetLang).
		Bool("emitPartials", s.emitPartials).
		Dur("finalizeWait", s.finalizeWait).
		Msg("Session started")
	return s
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// HandleEvent feeds one transcript event through reconciliation. Malformed
// events are dropped and counted, never fatal.
func (s *Session) HandleEvent(ev models.TranscriptEvent) {
	if err := s.validator.ValidateEvent(ev); err != nil {
		s.metrics.RecordEventDropped("missing_text")
		s.log.Debug().
			Err(err).
			Bool("isPartial", ev.IsPartial).
			Msg("Dropped malformed transcript event")
		return
	}

	text := strings.TrimSpace(ev.Text)
	if ev.IsPartial {
		s.handlePartial(text, ev.Timestamp)
		return
	}
	s.handleFinal(text)
}

func (s *Session) handlePartial(text string, ts int64) {
	s.metrics.RecordPartialEvent()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	if !s.engine.ObservePartial(text, time.Now()) {
		return
	}
	if !s.emitPartials {
		return
	}

	// The caption goes out under the session lock so a caption observed
	// before a commit is also sequenced before that commit's translation.
	s.emitter.Emit(context.Background(), models.OutboundMessage{
		Kind:         models.KindTranscript,
		OriginalText: text,
		Timestamp:    ts,
	})
}

func (s *Session) handleFinal(text string) {
	s.metrics.RecordFinalEvent()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.cancelPendingLocked()

	out := s.engine.ReconcileFinal(text)
	s.metrics.RecordAccumulation(string(out.Strategy))
	s.recordOutcome(out)

	switch {
	case out.Duplicate:
		s.log.Debug().Str("text", out.Text).Msg("Duplicate final discarded")
	case out.Deferred:
		s.schedulePendingLocked()
	default:
		s.commitLocked(out.Text)
	}
}

// Flush commits any deferred finalization immediately. Called at a detected
// utterance boundary and on graceful close.
func (s *Session) Flush() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flushLocked()
}

func (s *Session) flushLocked() {
	if s.pending == nil {
		return
	}
	s.pending.timer.Stop()
	s.pending = nil
	s.metrics.RecordPendingExpired()

	out := s.engine.ExpirePending()
	s.recordOutcome(out)
	if out.Duplicate {
		s.log.Debug().Msg("Flushed candidate matched last commit, discarded")
		return
	}
	s.commitLocked(out.Text)
}

// Close tears the session down. Pending finalization and queued
// translations are discarded. Safe to call more than once.
func (s *Session) Close(reason string) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	if s.pending != nil {
		s.pending.timer.Stop()
		s.pending = nil
	}
	s.mu.Unlock()

	s.dispatcher.Stop()
	s.metrics.RecordSessionEnd(reason, time.Since(s.started).Seconds())
	s.log.Info().
		Str("reason", reason).
		Dur("duration", time.Since(s.started)).
		Msg("Session closed")
}

// CloseGracefully flushes deferred work and waits for queued translations
// before closing.
func (s *Session) CloseGracefully(drainTimeout time.Duration) {
	s.Flush()
	if !s.dispatcher.Drain(drainTimeout) {
		s.log.Warn().
			Dur("timeout", drainTimeout).
			Msg("Dispatcher drain timed out, discarding queued work")
	}
	s.Close("closed")
}

// LastCommitted returns the text of the session's most recent commit.
func (s *Session) LastCommitted() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.LastCommitted()
}

// HasPending reports whether a deferred finalization is scheduled.
func (s *Session) HasPending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending != nil
}

func (s *Session) recordOutcome(out reconcile.Outcome) {
	if out.PartialRecovered {
		s.metrics.RecordTruncatedRecovered()
	}
	if out.PartialMerged {
		s.metrics.RecordPartialMerge()
	}
	if out.Duplicate {
		s.metrics.RecordDuplicateSkipped()
	}
}

func (s *Session) schedulePendingLocked() {
	p := &pendingCommit{}
	p.timer = time.AfterFunc(s.finalizeWait, func() { s.expirePending(p) })
	s.pending = p
	s.metrics.RecordPendingScheduled()
	s.log.Debug().
		Dur("wait", s.finalizeWait).
		Str("candidate", s.engine.PendingText()).
		Msg("Finalization deferred")
}

func (s *Session) expirePending(p *pendingCommit) {
	s.mu.Lock()
	defer s.mu.Unlock()
	// A final that arrived while this callback waited on the lock has
	// already cancelled this timer.
	if s.pending != p || s.closed {
		return
	}
	s.pending = nil
	s.metrics.RecordPendingExpired()

	out := s.engine.ExpirePending()
	s.recordOutcome(out)
	if out.Duplicate {
		s.log.Debug().Msg("Deferred candidate matched last commit, discarded")
		return
	}
	s.commitLocked(out.Text)
}

func (s *Session) cancelPendingLocked() {
	if s.pending == nil {
		return
	}
	s.pending.timer.Stop()
	s.pending = nil
	s.metrics.RecordPendingSuperseded()
}

func (s *Session) commitLocked(text string) {
	s.metrics.RecordCommit()
	s.log.Info().Str("text", text).Msg("Transcript committed")
	s.dispatcher.Dispatch(translate.Commit{
		Text:        text,
		CommittedAt: time.Now().UnixMilli(),
	})
}

// --- asr.Callback implementation ---

// OnPartial receives an interim transcript from the ASR adapter.
func (s *Session) OnPartial(text string) {
	s.HandleEvent(models.TranscriptEvent{
		Text:      text,
		IsPartial: true,
		Timestamp: time.Now().UnixMilli(),
	})
}

// OnFinal receives a finalized transcript from the ASR adapter.
func (s *Session) OnFinal(text string, confidence float64) {
	s.log.Debug().Float64("confidence", confidence).Msg("ASR final received")
	s.HandleEvent(models.TranscriptEvent{
		Text:      text,
		IsPartial: false,
		Timestamp: time.Now().UnixMilli(),
	})
}

// OnEndOfUtterance flushes any deferred finalization at a speech boundary.
func (s *Session) OnEndOfUtterance() {
	s.metrics.RecordUtterance()
	s.Flush()
}

// OnError logs an ASR stream error. The session stays usable; the surface
// that owns the adapter decides whether to tear down.
func (s *Session) OnError(err error) {
	s.log.Error().Err(err).Msg("ASR stream error")
}
