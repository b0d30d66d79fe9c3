package reconcile

import "fmt"

// State represents where the engine is in its commit cycle.
type State int

const (
	// StateIdle - no finalization in progress.
	StateIdle State = iota
	// StateFinalArrived - a final arrived; in deferred mode the engine rests
	// here while the commit window is open.
	StateFinalArrived
	// StateCommitted - the last final committed text; the next observed
	// event returns the engine to IDLE.
	StateCommitted
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateFinalArrived:
		return "FINAL_ARRIVED"
	case StateCommitted:
		return "COMMITTED"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", s)
	}
}
