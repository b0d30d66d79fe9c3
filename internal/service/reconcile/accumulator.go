package reconcile

import "strings"

// Strategy names how a final was folded into the accumulation.
type Strategy string

const (
	// StrategySeed - the accumulation was empty; the final starts it.
	StrategySeed Strategy = "seed"
	// StrategyOverlap - a suffix/prefix overlap was found; the remainder was appended.
	StrategyOverlap Strategy = "overlap"
	// StrategyContained - the final was already fully contained in the accumulation.
	StrategyContained Strategy = "contained"
	// StrategyReplace - the final re-finalized a longer span and replaced the accumulation.
	StrategyReplace Strategy = "replace"
	// StrategyAppend - no relationship detected; appended as a distinct clause.
	StrategyAppend Strategy = "append"
)

// FinalAccumulator folds consecutive final transcripts belonging to one
// utterance into a single logical text. It also remembers the text of the
// last commit for deduplication. Owned by a single session flow.
type FinalAccumulator struct {
	minOverlap   int
	maxOverlap   int
	replaceRatio float64

	accumulated   string
	lastCommitted string
}

// NewFinalAccumulator returns an empty accumulator with the given bounds.
func NewFinalAccumulator(cfg Config) *FinalAccumulator {
	return &FinalAccumulator{
		minOverlap:   cfg.AccumulateMinOverlap,
		maxOverlap:   cfg.AccumulateMaxOverlap,
		replaceRatio: cfg.ReplaceRatio,
	}
}

// Accumulate folds one final transcript into the running accumulation and
// reports which strategy applied. Callers pass trimmed, non-empty text.
func (a *FinalAccumulator) Accumulate(text string) (string, Strategy) {
	if a.accumulated == "" {
		a.accumulated = text
		return a.accumulated, StrategySeed
	}
	if k, ok := FindOverlap(a.accumulated, text, a.minOverlap, a.maxOverlap); ok {
		rest := strings.TrimSpace(text[k:])
		if rest == "" {
			return a.accumulated, StrategyContained
		}
		a.accumulated = strings.TrimSpace(a.accumulated) + " " + rest
		return a.accumulated, StrategyOverlap
	}
	if float64(len(text)) > a.replaceRatio*float64(len(a.accumulated)) {
		// The upstream engine re-finalized a longer span covering the
		// accumulation.
		a.accumulated = text
		return a.accumulated, StrategyReplace
	}
	// Distinct clause within the same utterance.
	a.accumulated += " " + text
	return a.accumulated, StrategyAppend
}

// Flush returns the accumulation and resets it to empty.
func (a *FinalAccumulator) Flush() string {
	out := a.accumulated
	a.accumulated = ""
	return out
}

// Reseed overwrites the accumulation when a longer partial becomes the
// ground truth.
func (a *FinalAccumulator) Reseed(text string) {
	a.accumulated = text
}

// Pending returns the current accumulation without resetting it.
func (a *FinalAccumulator) Pending() string {
	return a.accumulated
}

// LastCommitted returns the text of the most recent commit.
func (a *FinalAccumulator) LastCommitted() string {
	return a.lastCommitted
}

// MarkCommitted records the text of a commit for deduplication. It survives
// flushes until the next commit overwrites it.
func (a *FinalAccumulator) MarkCommitted(text string) {
	a.lastCommitted = text
}
