package reconcile

import (
	"strings"
	"time"
)

// continuationProbe is how many leading characters of the tracked text a new
// partial must share to count as a continuation of the same utterance.
const continuationProbe = 50

// PartialTracker remembers the most recent meaningful interim transcript
// seen since the last commit. It is owned by a single session flow and is
// not safe for concurrent use.
type PartialTracker struct {
	latestText string
	latestTime time.Time
}

// NewPartialTracker returns an empty tracker.
func NewPartialTracker() *PartialTracker {
	return &PartialTracker{}
}

// Observe considers one interim transcript. The tracked text is replaced
// when nothing is tracked yet, when the new text is longer, or when the new
// text no longer continues the tracked utterance (the old partial is stale
// either way). Reports whether the tracked text changed.
func (t *PartialTracker) Observe(text string, now time.Time) bool {
	if text == "" {
		return false
	}
	if t.latestText == "" || len(text) > len(t.latestText) || !strings.HasPrefix(text, t.probe()) {
		t.latestText = text
		t.latestTime = now
		return true
	}
	return false
}

func (t *PartialTracker) probe() string {
	if len(t.latestText) > continuationProbe {
		return t.latestText[:continuationProbe]
	}
	return t.latestText
}

// Text returns the tracked interim transcript, empty if none.
func (t *PartialTracker) Text() string {
	return t.latestText
}

// ObservedAt returns when the tracked text last changed.
func (t *PartialTracker) ObservedAt() time.Time {
	return t.latestTime
}

// Reset clears the tracker. Idempotent.
func (t *PartialTracker) Reset() {
	t.latestText = ""
	t.latestTime = time.Time{}
}
