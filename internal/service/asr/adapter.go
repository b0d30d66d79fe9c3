// Package asr defines the interface for streaming speech recognition
// adapters.
package asr

import "context"

// Callback receives recognition results from the ASR provider. Methods may
// be invoked from the provider's own goroutines.
type Callback interface {
	// OnPartial is called when an interim transcript is received.
	OnPartial(text string)

	// OnFinal is called when a final transcript is received.
	OnFinal(text string, confidence float64)

	// OnEndOfUtterance is called when the provider detects a speech
	// boundary.
	OnEndOfUtterance()

	// OnError is called when an error occurs during recognition.
	OnError(err error)
}

// Adapter defines the interface for ASR providers (Google, mock, etc.).
type Adapter interface {
	// Start begins a streaming recognition session delivering results
	// to cb.
	Start(ctx context.Context, cb Callback) error

	// SendAudio sends raw audio bytes to the provider.
	SendAudio(ctx context.Context, audio []byte) error

	// Close ends the session and releases resources.
	Close() error
}
