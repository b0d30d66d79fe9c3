// Package mock provides a scripted ASR adapter for running sessions
// without cloud credentials. Its scripts replay the upstream anomalies the
// reconciliation engine is built for: finals shorter than the last interim
// result, repeated identical finals, and utterances split across several
// finals.
package mock

import (
	"context"
	"sync"
	"time"

	"github.com/jkang1643/Exbabel/internal/service/asr"
)

// ScriptedUtterance is one mock utterance: progressive partials followed by
// one or more final transcripts.
type ScriptedUtterance struct {
	Partials   []string
	Finals     []string
	Confidence float64
}

// DefaultScript exercises the normal path plus each upstream anomaly.
var DefaultScript = []ScriptedUtterance{
	{
		Partials:   []string{"I want", "I want to", "I want to cancel"},
		Finals:     []string{"I want to cancel my subscription"},
		Confidence: 0.94,
	},
	{
		// The recognizer finalizes a shorter span than the last interim
		// result.
		Partials:   []string{"could you please", "could you please check the balance"},
		Finals:     []string{"could you please"},
		Confidence: 0.88,
	},
	{
		// The recognizer repeats an identical finalization.
		Partials:   []string{"thank you"},
		Finals:     []string{"thank you very much", "thank you very much"},
		Confidence: 0.97,
	},
	{
		// One utterance split across two finals sharing a long overlap.
		Partials: []string{"we will discuss"},
		Finals: []string{
			"we will discuss the quarterly revenue projections",
			"the quarterly revenue projections for the next fiscal year",
		},
		Confidence: 0.91,
	},
	{
		Partials:   []string{"goodbye"},
		Finals:     []string{"goodbye and thanks for joining"},
		Confidence: 0.98,
	},
}

const (
	partialDelay = 50 * time.Millisecond
	finalDelay   = 100 * time.Millisecond
)

// delivery is one queued callback invocation.
type delivery struct {
	partial    string
	final      string
	confidence float64
	last       bool
}

// Adapter implements asr.Adapter with scripted responses. Each audio frame
// advances the script by one step: first the partials, then the finals, and
// after the last final an end-of-utterance signal. The script cycles, so a
// long audio stream produces a continuous stream of utterances. Deliveries
// flow through a single goroutine, so callbacks arrive in script order.
type Adapter struct {
	mu             sync.Mutex
	cb             asr.Callback
	script         []ScriptedUtterance
	deliveries     chan delivery
	utteranceIndex int
	partialIndex   int
	finalIndex     int
	closed         bool
}

// New creates a mock adapter replaying the default script.
func New() *Adapter {
	return NewWithScript(DefaultScript)
}

// NewWithScript creates a mock adapter replaying the given utterances.
func NewWithScript(script []ScriptedUtterance) *Adapter {
	if len(script) == 0 {
		script = DefaultScript
	}
	return &Adapter{script: script}
}

// Start begins a mock recognition session.
func (a *Adapter) Start(_ context.Context, cb asr.Callback) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.deliveries != nil {
		return nil
	}
	a.cb = cb
	a.deliveries = make(chan delivery, 64)
	go a.pump()
	return nil
}

// SendAudio simulates receiving audio. One frame queues one scripted step.
func (a *Adapter) SendAudio(_ context.Context, _ []byte) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed || a.cb == nil {
		return nil
	}

	utt := a.script[a.utteranceIndex]
	switch {
	case a.partialIndex < len(utt.Partials):
		a.deliveries <- delivery{partial: utt.Partials[a.partialIndex]}
		a.partialIndex++

	case a.finalIndex < len(utt.Finals):
		last := a.finalIndex == len(utt.Finals)-1
		a.deliveries <- delivery{
			final:      utt.Finals[a.finalIndex],
			confidence: utt.Confidence,
			last:       last,
		}
		a.finalIndex++
		if last {
			a.advanceLocked()
		}
	}

	return nil
}

// Close ends the mock session. If the stream ends mid-utterance, the first
// unsent final still fires, mirroring a recognizer that finalizes on
// stream close. Steps already queued are still delivered.
func (a *Adapter) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return nil
	}
	a.closed = true
	if a.deliveries == nil {
		return nil
	}

	if a.partialIndex > 0 && a.finalIndex == 0 {
		utt := a.script[a.utteranceIndex]
		a.deliveries <- delivery{
			final:      utt.Finals[0],
			confidence: utt.Confidence,
			last:       true,
		}
	}
	close(a.deliveries)

	return nil
}

// pump delivers queued steps one at a time, each after its simulated
// processing delay.
func (a *Adapter) pump() {
	for d := range a.deliveries {
		if d.partial != "" {
			time.Sleep(partialDelay)
			a.cb.OnPartial(d.partial)
			continue
		}
		time.Sleep(finalDelay)
		a.cb.OnFinal(d.final, d.confidence)
		if d.last {
			a.cb.OnEndOfUtterance()
		}
	}
}

func (a *Adapter) advanceLocked() {
	a.utteranceIndex = (a.utteranceIndex + 1) % len(a.script)
	a.partialIndex = 0
	a.finalIndex = 0
}
