package sequence

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"github.com/jkang1643/Exbabel/internal/models"
	"github.com/jkang1643/Exbabel/internal/observability/metrics"
)

// collectingSender records every message it is handed, in delivery order.
type collectingSender struct {
	mu   sync.Mutex
	msgs []models.OutboundMessage
}

func (s *collectingSender) Send(_ context.Context, msg models.OutboundMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.msgs = append(s.msgs, msg)
	return nil
}

func (s *collectingSender) messages() []models.OutboundMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.OutboundMessage, len(s.msgs))
	copy(out, s.msgs)
	return out
}

type failingSender struct{}

func (s *failingSender) Send(context.Context, models.OutboundMessage) error {
	return errors.New("pipe broken")
}

func TestEmitter_AssignsStrictlyIncreasingIds(t *testing.T) {
	sender := &collectingSender{}
	e := NewEmitter(sender, metrics.DefaultMetrics, zerolog.Nop())

	for i := 0; i < 5; i++ {
		if _, err := e.Emit(context.Background(), models.OutboundMessage{Kind: models.KindTranslation}); err != nil {
			t.Fatalf("unexpected emit error: %v", err)
		}
	}

	msgs := sender.messages()
	if len(msgs) != 5 {
		t.Fatalf("expected 5 messages, got %d", len(msgs))
	}
	for i, m := range msgs {
		if m.SequenceID != uint64(i+1) {
			t.Errorf("message %d: expected sequenceId %d, got %d", i, i+1, m.SequenceID)
		}
		if m.Timestamp == 0 {
			t.Errorf("message %d: expected a timestamp to be stamped", i)
		}
	}
}

func TestEmitter_SequenceSharedAcrossKinds(t *testing.T) {
	sender := &collectingSender{}
	e := NewEmitter(sender, metrics.DefaultMetrics, zerolog.Nop())
	ctx := context.Background()

	e.Emit(ctx, models.OutboundMessage{Kind: models.KindTranscript})
	e.Emit(ctx, models.OutboundMessage{Kind: models.KindTranslation})
	e.Emit(ctx, models.OutboundMessage{Kind: models.KindTranscript})

	msgs := sender.messages()
	for i, m := range msgs {
		if m.SequenceID != uint64(i+1) {
			t.Errorf("expected gap-free ids across kinds, message %d has id %d", i, m.SequenceID)
		}
	}
}

func TestEmitter_ConcurrentEmits_DeliveryMatchesIdOrder(t *testing.T) {
	sender := &collectingSender{}
	e := NewEmitter(sender, metrics.DefaultMetrics, zerolog.Nop())

	const goroutines = 10
	const perGoroutine = 20

	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perGoroutine; j++ {
				e.Emit(context.Background(), models.OutboundMessage{Kind: models.KindTranslation})
			}
		}()
	}
	wg.Wait()

	msgs := sender.messages()
	if len(msgs) != goroutines*perGoroutine {
		t.Fatalf("expected %d messages, got %d", goroutines*perGoroutine, len(msgs))
	}
	// Stamp and send share a lock, so delivery order must equal id order
	// even under concurrent emitters.
	for i, m := range msgs {
		if m.SequenceID != uint64(i+1) {
			t.Fatalf("delivery order diverged from id order at position %d: id %d", i, m.SequenceID)
		}
	}
	if e.Last() != uint64(goroutines*perGoroutine) {
		t.Errorf("expected last id %d, got %d", goroutines*perGoroutine, e.Last())
	}
}

func TestEmitter_SendFailure_StillConsumesId(t *testing.T) {
	e := NewEmitter(&failingSender{}, metrics.DefaultMetrics, zerolog.Nop())

	msg, err := e.Emit(context.Background(), models.OutboundMessage{Kind: models.KindTranslation})
	if err == nil {
		t.Fatal("expected send failure to surface")
	}
	if msg.SequenceID != 1 {
		t.Errorf("expected the failed message to carry id 1, got %d", msg.SequenceID)
	}
	// The id is consumed, never reused.
	if e.Last() != 1 {
		t.Errorf("expected last id 1 after failure, got %d", e.Last())
	}
}
