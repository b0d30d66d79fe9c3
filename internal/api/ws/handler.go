// Package ws serves the live session WebSocket endpoint. Each connection
// is one session: the first text frame selects the languages, binary frames
// carry audio for the ASR adapter, and further text frames carry transcript
// events directly. Captions and translations flow back on the same
// connection as sequenced JSON frames.
package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/jkang1643/Exbabel/internal/config"
	"github.com/jkang1643/Exbabel/internal/events"
	"github.com/jkang1643/Exbabel/internal/models"
	"github.com/jkang1643/Exbabel/internal/observability/logging"
	"github.com/jkang1643/Exbabel/internal/observability/metrics"
	"github.com/jkang1643/Exbabel/internal/schema"
	"github.com/jkang1643/Exbabel/internal/service/asr"
	"github.com/jkang1643/Exbabel/internal/service/asr/google"
	"github.com/jkang1643/Exbabel/internal/service/asr/mock"
	"github.com/jkang1643/Exbabel/internal/service/reconcile"
	"github.com/jkang1643/Exbabel/internal/service/sequence"
	"github.com/jkang1643/Exbabel/internal/service/session"
	"github.com/jkang1643/Exbabel/internal/service/translate"
	"github.com/jkang1643/Exbabel/internal/transport"
)

const (
	// startFrameTimeout bounds how long a fresh connection may sit idle
	// before sending its session start frame.
	startFrameTimeout = 10 * time.Second

	// writeTimeout is the per-message deadline for outbound frames.
	writeTimeout = 10 * time.Second

	// maxMessageBytes caps inbound frames. Audio clients send small PCM
	// chunks, so anything near this limit is a misbehaving client.
	maxMessageBytes = 1 << 20
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for local dev
	},
}

// Handler upgrades session requests and runs the per-connection loop. One
// handler serves all sessions; per-session state lives in the wiring built
// for each connection.
type Handler struct {
	cfg        *config.Config
	ids        *session.Generator
	validator  *schema.Validator
	translator translate.Translator
	publisher  *events.Publisher
	metrics    *metrics.Metrics

	active atomic.Int64
}

// NewHandler creates the session endpoint handler. The translator may be
// nil, in which case committed text passes through untranslated. The
// publisher may be nil to skip the event firehose entirely.
func NewHandler(cfg *config.Config, translator translate.Translator, publisher *events.Publisher) *Handler {
	return &Handler{
		cfg:        cfg,
		ids:        session.NewGenerator(),
		validator:  schema.New(),
		translator: translator,
		publisher:  publisher,
		metrics:    metrics.DefaultMetrics,
	}
}

// ActiveSessions returns the number of connections currently in a session.
func (h *Handler) ActiveSessions() int64 {
	return h.active.Load()
}

// ServeHTTP upgrades the request and runs the session until the client
// disconnects.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error response.
		logging.WithComponent("ws").Warn().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()
	conn.SetReadLimit(maxMessageBytes)

	// The default handler echoes the close frame at once, and gorilla
	// refuses data writes after a close frame is sent. Deferring the echo
	// until queued translations drain lets them reach the client first.
	conn.SetCloseHandler(func(int, string) error { return nil })

	start, err := h.readStart(conn)
	if err != nil {
		logging.WithComponent("ws").Warn().Err(err).Msg("Rejected session start")
		msg := websocket.FormatCloseMessage(websocket.CloseUnsupportedData, err.Error())
		_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeTimeout))
		return
	}

	h.active.Add(1)
	defer h.active.Add(-1)

	h.runSession(conn, start)
}

// readStart reads and validates the session start frame, applying the
// service language defaults to empty fields.
func (h *Handler) readStart(conn *websocket.Conn) (models.SessionStart, error) {
	var start models.SessionStart

	if err := conn.SetReadDeadline(time.Now().Add(startFrameTimeout)); err != nil {
		return start, err
	}
	_, data, err := conn.ReadMessage()
	if err != nil {
		return start, err
	}
	if err := conn.SetReadDeadline(time.Time{}); err != nil {
		return start, err
	}

	if err := json.Unmarshal(data, &start); err != nil {
		return start, err
	}
	if start.SourceLang == "" {
		start.SourceLang = h.cfg.Session.SourceLang
	}
	if start.TargetLang == "" {
		start.TargetLang = h.cfg.Session.TargetLang
	}
	if err := h.validator.ValidateStart(start); err != nil {
		return start, err
	}
	return start, nil
}

func (h *Handler) runSession(conn *websocket.Conn, start models.SessionStart) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sessionID := h.ids.Next()
	logger := logging.WithSession(sessionID, start.SourceLang, start.TargetLang)

	sender := transport.NewWebSocketSender(conn, writeTimeout)
	emitter := sequence.NewEmitter(sender, h.metrics, logger)

	dispatcher := translate.NewDispatcher(translate.DispatcherConfig{
		SessionID:  sessionID,
		SourceLang: start.SourceLang,
		TargetLang: start.TargetLang,
		QueueSize:  h.cfg.Session.DispatchQueueSize,
		Translator: h.translator,
		Emitter:    emitter,
		Publisher:  h.publisher,
		Metrics:    h.metrics,
		Logger:     logger,
	})
	dispatcher.Start(ctx)

	sess := session.New(session.Config{
		ID:           sessionID,
		SourceLang:   start.SourceLang,
		TargetLang:   start.TargetLang,
		EmitPartials: h.cfg.Session.EmitPartials,
		Reconcile: reconcile.Config{
			AccumulateMinOverlap: h.cfg.Session.AccumulateMinOverlap,
			AccumulateMaxOverlap: h.cfg.Session.AccumulateMaxOverlap,
			ReplaceRatio:         h.cfg.Session.ReplaceRatio,
			FinalizeWait:         h.cfg.Session.FinalizeWait,
		},
		Emitter:    emitter,
		Dispatcher: dispatcher,
		Metrics:    h.metrics,
		Logger:     logger,
	})

	adapter := h.newAdapter(ctx, logger)
	if adapter != nil {
		if err := adapter.Start(ctx, sess); err != nil {
			logger.Error().Err(err).Msg("ASR adapter failed to start, audio frames will be dropped")
			adapter = nil
		}
	}

	graceful := h.readLoop(ctx, conn, sess, adapter, logger)

	if adapter != nil {
		if err := adapter.Close(); err != nil {
			logger.Warn().Err(err).Msg("ASR adapter close failed")
		}
	}
	if graceful {
		sess.CloseGracefully(h.cfg.Session.DrainTimeout)
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeTimeout))
	} else {
		sess.Close("error")
	}
}

// readLoop consumes frames until the connection ends. It reports whether
// the client closed the session cleanly.
func (h *Handler) readLoop(ctx context.Context, conn *websocket.Conn, sess *session.Session, adapter asr.Adapter, logger zerolog.Logger) bool {
	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Info().Msg("Client closed session")
				return true
			}
			logger.Warn().Err(err).Msg("Connection read failed")
			return false
		}

		switch msgType {
		case websocket.BinaryMessage:
			h.metrics.RecordAudioReceived(len(data))
			if adapter == nil {
				h.metrics.RecordEventDropped("no_asr_adapter")
				continue
			}
			if err := adapter.SendAudio(ctx, data); err != nil {
				logger.Warn().Err(err).Msg("ASR adapter rejected audio frame")
			}

		case websocket.TextMessage:
			var ev models.TranscriptEvent
			if err := json.Unmarshal(data, &ev); err != nil {
				h.metrics.RecordEventDropped("malformed_json")
				logger.Debug().Err(err).Msg("Dropped unparseable text frame")
				continue
			}
			sess.HandleEvent(ev)
		}
	}
}

// newAdapter builds the configured ASR adapter. "none" runs the session on
// text frames alone; a failed construction degrades the same way.
func (h *Handler) newAdapter(ctx context.Context, logger zerolog.Logger) asr.Adapter {
	switch h.cfg.ASR.Provider {
	case "google":
		a, err := google.New(ctx, google.Config{
			LanguageCode:         h.cfg.ASR.LanguageCode,
			SampleRateHz:         h.cfg.ASR.SampleRateHz,
			InterimResults:       h.cfg.ASR.InterimResults,
			AudioEncoding:        h.cfg.ASR.AudioEncoding,
			VoiceActivityTimeout: h.cfg.ASR.VoiceActivityTimeout,
		})
		if err != nil {
			logger.Error().Err(err).Msg("Google ASR unavailable, audio frames will be dropped")
			return nil
		}
		return a
	case "none":
		return nil
	default:
		return mock.New()
	}
}
