package reconcile

import "strings"

// FindOverlap reports the largest k in [minLen, maxLen] such that the last k
// characters of a equal the first k characters of b. Candidates are tried
// longest first, so a long genuine overlap wins over a spurious short match.
// Returns (0, false) when no candidate in the window matches.
//
// The accumulator searches with its configured bounds; the engine's partial
// merge searches the full window [1, min(len(a), len(b))].
func FindOverlap(a, b string, minLen, maxLen int) (int, bool) {
	if minLen < 1 {
		minLen = 1
	}
	if limit := min(len(a), len(b)); maxLen > limit {
		maxLen = limit
	}
	for k := maxLen; k >= minLen; k-- {
		if strings.HasPrefix(b, a[len(a)-k:]) {
			return k, true
		}
	}
	return 0, false
}
