package reconcile

import "testing"

func TestAccumulator_SeedsWhenEmpty(t *testing.T) {
	acc := NewFinalAccumulator(DefaultConfig())

	got, strategy := acc.Accumulate("hello world")
	if got != "hello world" || strategy != StrategySeed {
		t.Errorf("expected seed with 'hello world', got %q via %s", got, strategy)
	}
}

func TestAccumulator_MergesLongOverlap(t *testing.T) {
	acc := NewFinalAccumulator(DefaultConfig())

	acc.Accumulate("we will discuss the quarterly revenue projections")
	// Shares "the quarterly revenue projections" (33 chars, above the 21
	// minimum), so this is a continuation of the same utterance.
	got, strategy := acc.Accumulate("the quarterly revenue projections for the next fiscal year")

	want := "we will discuss the quarterly revenue projections for the next fiscal year"
	if strategy != StrategyOverlap {
		t.Errorf("expected overlap strategy, got %s", strategy)
	}
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestAccumulator_ShortOverlap_NotMerged(t *testing.T) {
	acc := NewFinalAccumulator(DefaultConfig())

	acc.Accumulate("the quick brown fox jumps over the la")
	// Shares only 17 chars ("jumps over the la"), below the 21 minimum:
	// no merge, and not 1.5x longer, so it is appended as a distinct clause.
	got, strategy := acc.Accumulate("jumps over the lazy dog")

	if strategy != StrategyAppend {
		t.Errorf("expected append strategy for sub-threshold overlap, got %s", strategy)
	}
	want := "the quick brown fox jumps over the la jumps over the lazy dog"
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestAccumulator_ContainedFinal_LeavesAccumulationUnchanged(t *testing.T) {
	acc := NewFinalAccumulator(DefaultConfig())

	seeded, _ := acc.Accumulate("we will discuss the quarterly revenue projections")
	// The final is exactly the accumulation's tail: nothing to add.
	got, strategy := acc.Accumulate("the quarterly revenue projections")

	if strategy != StrategyContained {
		t.Errorf("expected contained strategy, got %s", strategy)
	}
	if got != seeded {
		t.Errorf("expected accumulation unchanged %q, got %q", seeded, got)
	}
}

func TestAccumulator_ReplacementRule(t *testing.T) {
	acc := NewFinalAccumulator(DefaultConfig())

	acc.Accumulate("hi")
	got, strategy := acc.Accumulate("hi there how are you doing today")

	if strategy != StrategyReplace {
		t.Errorf("expected replace strategy, got %s", strategy)
	}
	if got != "hi there how are you doing today" {
		t.Errorf("expected full replacement, got %q", got)
	}
}

func TestAccumulator_AppendFallback(t *testing.T) {
	acc := NewFinalAccumulator(DefaultConfig())

	acc.Accumulate("okay thanks")
	// No overlap and not 1.5x longer: distinct clause, appended verbatim.
	got, strategy := acc.Accumulate("see you")

	if strategy != StrategyAppend {
		t.Errorf("expected append strategy, got %s", strategy)
	}
	if got != "okay thanks see you" {
		t.Errorf("expected 'okay thanks see you', got %q", got)
	}
}

func TestAccumulator_FlushResets(t *testing.T) {
	acc := NewFinalAccumulator(DefaultConfig())

	acc.Accumulate("hello world")
	if got := acc.Flush(); got != "hello world" {
		t.Errorf("expected flush to return 'hello world', got %q", got)
	}
	if acc.Pending() != "" {
		t.Errorf("expected empty accumulation after flush, got %q", acc.Pending())
	}

	// The next final seeds a fresh accumulation.
	got, strategy := acc.Accumulate("next utterance")
	if got != "next utterance" || strategy != StrategySeed {
		t.Errorf("expected fresh seed after flush, got %q via %s", got, strategy)
	}
}

func TestAccumulator_LastCommitted_SurvivesFlush(t *testing.T) {
	acc := NewFinalAccumulator(DefaultConfig())

	acc.Accumulate("hello world")
	acc.MarkCommitted("hello world")
	acc.Flush()

	if acc.LastCommitted() != "hello world" {
		t.Errorf("expected last committed to survive flush, got %q", acc.LastCommitted())
	}
}

func TestAccumulator_Reseed_OverwritesAccumulation(t *testing.T) {
	acc := NewFinalAccumulator(DefaultConfig())

	acc.Accumulate("hello world")
	acc.Reseed("hello world today")

	if acc.Pending() != "hello world today" {
		t.Errorf("expected reseeded accumulation, got %q", acc.Pending())
	}
}
