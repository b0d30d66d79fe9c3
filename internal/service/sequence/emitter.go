// Package sequence assigns delivery order to outbound session messages.
package sequence

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/jkang1643/Exbabel/internal/models"
	"github.com/jkang1643/Exbabel/internal/observability/metrics"
	"github.com/jkang1643/Exbabel/internal/transport"
)

// Emitter stamps each outbound message with a strictly increasing sequence
// id at the moment it is handed to the transport, so sequence order matches
// delivery order. The stamp and the send happen under one lock: the caption
// path and the dispatcher worker share an emitter, and an id assigned first
// must also reach the transport first. Ids are never reassigned or
// reordered; a failed send still consumes its id.
type Emitter struct {
	mu      sync.Mutex
	counter uint64
	sender  transport.Sender
	metrics *metrics.Metrics
	log     zerolog.Logger
}

// NewEmitter creates an emitter bound to one session's transport.
func NewEmitter(sender transport.Sender, m *metrics.Metrics, log zerolog.Logger) *Emitter {
	return &Emitter{sender: sender, metrics: m, log: log}
}

// Emit stamps and sends one message, returning the stamped copy. Send
// failures are logged and counted, never retried.
func (e *Emitter) Emit(ctx context.Context, msg models.OutboundMessage) (models.OutboundMessage, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.counter++
	msg.SequenceID = e.counter
	if msg.Timestamp == 0 {
		msg.Timestamp = time.Now().UnixMilli()
	}

	if err := e.sender.Send(ctx, msg); err != nil {
		e.metrics.RecordSendError()
		e.log.Error().
			Err(err).
			Uint64("sequenceId", msg.SequenceID).
			Str("kind", msg.Kind).
			Msg("Failed to send outbound message")
		return msg, err
	}

	e.metrics.RecordMessageEmitted(msg.Kind)
	e.log.Debug().
		Uint64("sequenceId", msg.SequenceID).
		Str("kind", msg.Kind).
		Msg("Outbound message emitted")
	return msg, nil
}

// Last returns the most recently assigned sequence id.
func (e *Emitter) Last() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.counter
}
