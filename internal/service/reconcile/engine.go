// Package reconcile turns the noisy partial/final transcript stream of a
// streaming recognition engine into a single loss-free, deduplicated text
// stream. The engine tolerates an upstream that finalizes a shorter chunk
// than the most recent interim result, splits one utterance across several
// consecutive finals, or repeats identical finals.
package reconcile

import (
	"strings"
	"time"
)

// Config bounds the reconciliation heuristics.
type Config struct {
	// AccumulateMinOverlap and AccumulateMaxOverlap bound the suffix/prefix
	// search when folding consecutive finals into one utterance. The
	// engine's own partial merge accepts any positive overlap instead.
	AccumulateMinOverlap int
	AccumulateMaxOverlap int

	// ReplaceRatio: a final longer than ratio x the accumulation replaces
	// it outright instead of being appended.
	ReplaceRatio float64

	// FinalizeWait defers commits by this window so a trailing partial can
	// still extend the text. Zero commits immediately.
	FinalizeWait time.Duration
}

// DefaultConfig returns the canonical reconciliation bounds.
func DefaultConfig() Config {
	return Config{
		AccumulateMinOverlap: 21,
		AccumulateMaxOverlap: 100,
		ReplaceRatio:         1.5,
	}
}

// Outcome describes how one final event was reconciled.
type Outcome struct {
	// Text is the reconciled text: the committed text, the deferred
	// candidate, or the discarded duplicate.
	Text string
	// Committed is set when Text is settled and should be dispatched now.
	Committed bool
	// Deferred is set when the commit awaits the finalize-wait window; the
	// caller owns scheduling the timer.
	Deferred bool
	// Duplicate is set when Text matched the last committed text and was
	// discarded.
	Duplicate bool
	// Strategy names how the final folded into the accumulation.
	Strategy Strategy
	// PartialRecovered is set when a longer tracked partial replaced a
	// truncated final.
	PartialRecovered bool
	// PartialMerged is set when a trailing partial extended the final via
	// overlap.
	PartialMerged bool
}

// Engine is the per-session reconciliation state machine:
//
//	IDLE → FINAL_ARRIVED → COMMITTED → IDLE
//
// A final event moves the engine to FINAL_ARRIVED; the event either commits
// (immediately or at the deferred deadline) or is discarded as a duplicate.
// The engine is owned by a single session flow; the session serializes
// access and owns the deferral timer.
type Engine struct {
	cfg      Config
	partials *PartialTracker
	acc      *FinalAccumulator
	state    State
}

// NewEngine creates an idle engine with its own tracker and accumulator.
func NewEngine(cfg Config) *Engine {
	return &Engine{
		cfg:      cfg,
		partials: NewPartialTracker(),
		acc:      NewFinalAccumulator(cfg),
	}
}

// State returns the engine's current state.
func (e *Engine) State() State {
	return e.state
}

// LastCommitted returns the text of the most recent commit.
func (e *Engine) LastCommitted() string {
	return e.acc.LastCommitted()
}

// TrackedPartial returns the interim transcript currently tracked.
func (e *Engine) TrackedPartial() string {
	return e.partials.Text()
}

// PendingText returns the uncommitted accumulation, the candidate text
// while a deferred finalization is pending.
func (e *Engine) PendingText() string {
	return e.acc.Pending()
}

// ObservePartial records one interim transcript. Reports whether the
// tracked text changed.
func (e *Engine) ObservePartial(text string, now time.Time) bool {
	if e.state == StateCommitted {
		e.state = StateIdle
	}
	return e.partials.Observe(text, now)
}

// ReconcileFinal runs the reconciliation algorithm for one final event:
// accumulate, rescue or extend with the tracked partial, deduplicate, then
// commit or hand back a deferred candidate.
func (e *Engine) ReconcileFinal(text string) Outcome {
	e.state = StateFinalArrived

	merged, strategy := e.acc.Accumulate(text)
	out := Outcome{Strategy: strategy}
	merged, out.PartialRecovered, out.PartialMerged = e.mergeTrackedPartial(merged)
	out.Text = merged

	if merged == e.acc.LastCommitted() {
		// The upstream engine retried an identical finalization.
		e.discard()
		out.Duplicate = true
		return out
	}
	if e.cfg.FinalizeWait > 0 {
		// Rest in FINAL_ARRIVED until the caller's timer expires or a
		// newer final supersedes the candidate.
		out.Deferred = true
		return out
	}
	e.commit(merged)
	out.Committed = true
	return out
}

// ExpirePending commits the deferred candidate at the end of the wait
// window, first folding in any partial that arrived meanwhile.
func (e *Engine) ExpirePending() Outcome {
	merged := e.acc.Pending()
	var out Outcome
	merged, out.PartialRecovered, out.PartialMerged = e.mergeTrackedPartial(merged)
	out.Text = merged

	if merged == e.acc.LastCommitted() {
		e.discard()
		out.Duplicate = true
		return out
	}
	e.commit(merged)
	out.Committed = true
	return out
}

// mergeTrackedPartial applies the word-loss guard and the trailing-partial
// overlap merge against the tracked interim text. Returns the possibly
// extended text and which of the two rules fired.
func (e *Engine) mergeTrackedPartial(merged string) (string, bool, bool) {
	partial := e.partials.Text()
	if partial == "" || len(partial) <= len(merged) {
		return merged, false, false
	}
	if strings.HasPrefix(partial, strings.TrimSpace(merged)) {
		// The upstream finalized a truncated chunk while the interim result
		// had already grown past it. The partial is the ground truth now.
		e.acc.Reseed(partial)
		return partial, true, false
	}
	if k, ok := FindOverlap(merged, partial, 1, len(merged)); ok {
		rest := strings.TrimSpace(partial[k:])
		if rest == "" {
			return merged, false, false
		}
		extended := strings.TrimSpace(merged) + " " + rest
		e.acc.Reseed(extended)
		return extended, false, true
	}
	return merged, false, false
}

// commit settles text: it becomes the dedup reference, the accumulation and
// tracker clear, and the engine lands in COMMITTED.
func (e *Engine) commit(text string) {
	e.acc.MarkCommitted(text)
	e.acc.Flush()
	e.partials.Reset()
	e.state = StateCommitted
}

// discard drops a duplicate finalization. The tracker still resets, exactly
// as on a commit.
func (e *Engine) discard() {
	e.acc.Flush()
	e.partials.Reset()
	e.state = StateIdle
}
