package reconcile

import (
	"strings"
	"testing"
	"time"
)

func TestPartialTracker_Observe_TracksGrowth(t *testing.T) {
	tr := NewPartialTracker()
	now := time.Now()

	if !tr.Observe("hello", now) {
		t.Error("expected first partial to be tracked")
	}
	if !tr.Observe("hello world", now.Add(time.Millisecond)) {
		t.Error("expected longer partial to replace tracked text")
	}
	if tr.Text() != "hello world" {
		t.Errorf("expected tracked text 'hello world', got %q", tr.Text())
	}
}

func TestPartialTracker_Observe_ReplacesOnShorterRevision(t *testing.T) {
	tr := NewPartialTracker()
	now := time.Now()

	tr.Observe("hello world today", now)
	// A short tracked text is its own probe, so a downward revision cannot
	// match it and replaces it: the recognizer retracted the tail.
	if !tr.Observe("hello world", now.Add(time.Millisecond)) {
		t.Error("expected shorter revision to replace tracked text")
	}
	if tr.Text() != "hello world" {
		t.Errorf("expected tracked text 'hello world', got %q", tr.Text())
	}
}

func TestPartialTracker_Observe_ReplacesOnNewUtterance(t *testing.T) {
	tr := NewPartialTracker()
	now := time.Now()

	tr.Observe("the meeting is adjourned", now)
	// Shorter, but a different utterance: the old partial is stale.
	if !tr.Observe("next item", now.Add(time.Millisecond)) {
		t.Error("expected diverging partial to replace tracked text")
	}
	if tr.Text() != "next item" {
		t.Errorf("expected tracked text 'next item', got %q", tr.Text())
	}
}

func TestPartialTracker_Observe_ProbesFirst50Chars(t *testing.T) {
	tr := NewPartialTracker()
	now := time.Now()

	long := strings.Repeat("a", 50) + " tail that goes on for a while"
	tr.Observe(long, now)

	// Same first 50 chars, shorter: a continuation, ignored.
	cont := strings.Repeat("a", 50) + " tail"
	if tr.Observe(cont, now.Add(time.Millisecond)) {
		t.Error("expected shorter continuation sharing the probe to be ignored")
	}

	// Diverges within the first 50 chars: replaced despite being shorter.
	diverged := strings.Repeat("b", 10)
	if !tr.Observe(diverged, now.Add(2*time.Millisecond)) {
		t.Error("expected diverging partial to replace tracked text")
	}
	if tr.Text() != diverged {
		t.Errorf("expected tracked text %q, got %q", diverged, tr.Text())
	}
}

func TestPartialTracker_Observe_IgnoresEmptyText(t *testing.T) {
	tr := NewPartialTracker()
	tr.Observe("hello", time.Now())

	if tr.Observe("", time.Now()) {
		t.Error("expected empty partial to be ignored")
	}
	if tr.Text() != "hello" {
		t.Errorf("expected tracked text 'hello', got %q", tr.Text())
	}
}

func TestPartialTracker_ObservedAt_NonDecreasing(t *testing.T) {
	tr := NewPartialTracker()
	t0 := time.Now()
	t1 := t0.Add(10 * time.Millisecond)

	tr.Observe("hello", t0)
	first := tr.ObservedAt()
	tr.Observe("hello world", t1)

	if tr.ObservedAt().Before(first) {
		t.Errorf("expected observed time to be non-decreasing, %v then %v", first, tr.ObservedAt())
	}
}

func TestPartialTracker_Reset_Idempotent(t *testing.T) {
	tr := NewPartialTracker()
	tr.Observe("hello", time.Now())

	tr.Reset()
	if tr.Text() != "" || !tr.ObservedAt().IsZero() {
		t.Errorf("expected cleared tracker, got %q at %v", tr.Text(), tr.ObservedAt())
	}

	// Resetting twice must be equivalent to resetting once.
	tr.Reset()
	if tr.Text() != "" || !tr.ObservedAt().IsZero() {
		t.Errorf("expected tracker to stay cleared, got %q at %v", tr.Text(), tr.ObservedAt())
	}
}
