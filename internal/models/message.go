// Package models defines the wire structures for session messages and events.
package models

// Outbound message kinds.
const (
	KindTranslation = "translation"
	KindTranscript  = "transcript"
)

// TranscriptEvent is one inbound recognition result, either produced by an
// ASR adapter or received directly as a WebSocket text frame.
type TranscriptEvent struct {
	Text      string `json:"text"`
	IsPartial bool   `json:"isPartial"`
	Timestamp int64  `json:"timestamp"`
}

// SessionStart is the first frame of a session, selecting its languages.
// Empty fields fall back to the service defaults.
type SessionStart struct {
	SourceLang string `json:"sourceLang"`
	TargetLang string `json:"targetLang"`
}

// OutboundMessage is one sequenced message handed to the transport.
// For kind "translation", OriginalText is empty when source and target
// language match. For kind "transcript" (live caption), TranslatedText
// is empty.
type OutboundMessage struct {
	Kind           string `json:"kind"`
	OriginalText   string `json:"originalText"`
	TranslatedText string `json:"translatedText"`
	Timestamp      int64  `json:"timestamp"`
	SequenceID     uint64 `json:"sequenceId"`
}

// TranscriptCommitted is the Kafka event for a reconciled, committed
// transcript.
type TranscriptCommitted struct {
	EventType  string `json:"eventType"`
	SessionID  string `json:"sessionId"`
	Text       string `json:"text"`
	SourceLang string `json:"sourceLang"`
	TargetLang string `json:"targetLang"`
	Timestamp  int64  `json:"timestamp"`
}

// TranslationEmitted is the Kafka event for an emitted translation message.
type TranslationEmitted struct {
	EventType      string `json:"eventType"`
	SessionID      string `json:"sessionId"`
	SourceLang     string `json:"sourceLang"`
	TargetLang     string `json:"targetLang"`
	OriginalText   string `json:"originalText"`
	TranslatedText string `json:"translatedText"`
	Timestamp      int64  `json:"timestamp"`
	SequenceID     uint64 `json:"sequenceId"`
}
