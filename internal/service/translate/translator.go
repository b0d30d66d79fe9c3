// Package translate turns committed transcripts into outbound translation
// messages. A per-session dispatcher queues commits on a buffered channel
// consumed by a single worker, so at most one translation call is in flight
// per session and output order matches commit order without a reorder
// buffer.
package translate

import "context"

// Translator is the external translation capability. Implementations must
// be safe for use from a single dispatcher worker at a time.
type Translator interface {
	Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error)
}
