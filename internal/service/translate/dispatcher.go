package translate

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/jkang1643/Exbabel/internal/events"
	"github.com/jkang1643/Exbabel/internal/models"
	"github.com/jkang1643/Exbabel/internal/observability/metrics"
	"github.com/jkang1643/Exbabel/internal/service/sequence"
)

// DefaultQueueSize bounds how many commits may wait for translation before
// dispatch applies backpressure.
const DefaultQueueSize = 32

// Commit is one reconciled transcript segment handed over for translation.
type Commit struct {
	Text        string
	CommittedAt int64
}

// DispatcherConfig holds the collaborators and languages for one session's
// dispatcher.
type DispatcherConfig struct {
	SessionID  string
	SourceLang string
	TargetLang string
	QueueSize  int
	Translator Translator
	Emitter    *sequence.Emitter
	Publisher  *events.Publisher
	Metrics    *metrics.Metrics
	Logger     zerolog.Logger
}

// Dispatcher consumes committed transcripts from a buffered queue on a
// single worker goroutine. One translation call is in flight per session at
// most, so emitted messages keep commit order without a reorder buffer.
type Dispatcher struct {
	sessionID  string
	sourceLang string
	targetLang string
	translator Translator
	emitter    *sequence.Emitter
	publisher  *events.Publisher
	metrics    *metrics.Metrics
	log        zerolog.Logger

	queue    chan Commit
	done     <-chan struct{}
	cancel   context.CancelFunc
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewDispatcher creates a dispatcher for one session. Call Start before
// dispatching.
func NewDispatcher(cfg DispatcherConfig) *Dispatcher {
	size := cfg.QueueSize
	if size <= 0 {
		size = DefaultQueueSize
	}
	m := cfg.Metrics
	if m == nil {
		m = metrics.DefaultMetrics
	}
	return &Dispatcher{
		sessionID:  cfg.SessionID,
		sourceLang: cfg.SourceLang,
		targetLang: cfg.TargetLang,
		translator: cfg.Translator,
		emitter:    cfg.Emitter,
		publisher:  cfg.Publisher,
		metrics:    m,
		log:        cfg.Logger,
		queue:      make(chan Commit, size),
	}
}

// Start launches the worker goroutine. The worker stops when ctx is
// cancelled or Stop is called.
func (d *Dispatcher) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	d.cancel = cancel
	d.done = ctx.Done()
	go d.run(ctx)
}

// Dispatch enqueues a committed transcript for translation. It returns
// without enqueueing when the dispatcher has been stopped.
func (d *Dispatcher) Dispatch(c Commit) {
	select {
	case <-d.done:
		return
	default:
	}

	d.wg.Add(1)
	select {
	case d.queue <- c:
	case <-d.done:
		d.wg.Done()
	}
}

// Drain waits for all queued and in-flight commits to be processed, up to
// timeout. It reports whether the queue drained in time.
func (d *Dispatcher) Drain(timeout time.Duration) bool {
	drained := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(drained)
	}()

	select {
	case <-drained:
		return true
	case <-time.After(timeout):
		return false
	}
}

// Stop cancels the worker's context. Queued commits and any in-flight
// translation result are discarded.
func (d *Dispatcher) Stop() {
	d.stopOnce.Do(func() {
		if d.cancel != nil {
			d.cancel()
		}
	})
}

func (d *Dispatcher) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			d.discardQueued()
			return
		case c := <-d.queue:
			d.process(ctx, c)
			d.wg.Done()
		}
	}
}

// discardQueued releases waiters for commits that will never be processed.
func (d *Dispatcher) discardQueued() {
	for {
		select {
		case <-d.queue:
			d.wg.Done()
		default:
			return
		}
	}
}

func (d *Dispatcher) process(ctx context.Context, c Commit) {
	// The firehose sees commits in dispatch order because this worker is
	// the only publisher for the session.
	if d.publisher != nil {
		ev := models.TranscriptCommitted{
			EventType:  "session.transcript.final",
			SessionID:  d.sessionID,
			Text:       c.Text,
			SourceLang: d.sourceLang,
			TargetLang: d.targetLang,
			Timestamp:  c.CommittedAt,
		}
		if err := d.publisher.PublishTranscript(ctx, d.sessionID, ev); err != nil {
			d.log.Error().
				Err(err).
				Str("sessionId", d.sessionID).
				Msg("Failed to publish transcript event")
		}
	}

	msg := models.OutboundMessage{
		Kind:      models.KindTranslation,
		Timestamp: c.CommittedAt,
	}

	if d.translator == nil || d.sourceLang == d.targetLang {
		msg.TranslatedText = c.Text
		d.metrics.RecordTranslation("passthrough", 0)
	} else {
		start := time.Now()
		translated, err := d.translator.Translate(ctx, c.Text, d.sourceLang, d.targetLang)
		latency := time.Since(start).Seconds()

		// The session ended while the call was in flight. Discard the
		// result rather than write to a torn-down transport.
		if ctx.Err() != nil {
			d.metrics.RecordTranslation("discarded", 0)
			d.log.Debug().
				Str("sessionId", d.sessionID).
				Msg("Session ended mid-translation, result discarded")
			return
		}

		msg.OriginalText = c.Text
		if err != nil {
			d.metrics.RecordTranslation("error", latency)
			d.log.Error().
				Err(err).
				Str("sessionId", d.sessionID).
				Str("sourceLang", d.sourceLang).
				Str("targetLang", d.targetLang).
				Msg("Translation failed")
			msg.TranslatedText = fmt.Sprintf("[Translation error: %s]", err)
		} else {
			d.metrics.RecordTranslation("success", latency)
			msg.TranslatedText = translated
		}
	}

	// Send failures are logged and counted by the emitter; the firehose
	// below still records the stamped message.
	sent, _ := d.emitter.Emit(ctx, msg)

	if d.publisher != nil {
		ev := models.TranslationEmitted{
			EventType:      "session.translation",
			SessionID:      d.sessionID,
			SourceLang:     d.sourceLang,
			TargetLang:     d.targetLang,
			OriginalText:   sent.OriginalText,
			TranslatedText: sent.TranslatedText,
			Timestamp:      sent.Timestamp,
			SequenceID:     sent.SequenceID,
		}
		if pubErr := d.publisher.PublishTranslation(ctx, d.sessionID, ev); pubErr != nil {
			d.log.Error().
				Err(pubErr).
				Str("sessionId", d.sessionID).
				Msg("Failed to publish translation event")
		}
	}
}
