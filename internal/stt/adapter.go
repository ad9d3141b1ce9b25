// Package stt defines the interface between the dictation layer and
// speech-to-text providers.
package stt

import "context"

// Callback receives transcript results from a provider. Implementations
// must tolerate being called from the provider's own goroutines.
type Callback interface {
	// OnPartial is called for each interim transcript. Partial text is
	// subject to change until the matching final arrives.
	OnPartial(text string)

	// OnFinal is called once per utterance with the committed transcript.
	OnFinal(text string, confidence float64)

	// OnEndOfUtterance is called when the provider detects the speaker
	// stopped, after the utterance's final transcript.
	OnEndOfUtterance()

	// OnError is called when transcription fails. Runtime recognition
	// errors are not terminal for the session.
	OnError(err error)
}

// Config carries the recognition parameters a session is bound to.
type Config struct {
	LanguageCode   string
	SampleRateHz   int
	InterimResults bool
}

// Adapter is a streaming speech-to-text session factory for one provider.
type Adapter interface {
	// Start begins a streaming transcription session.
	Start(ctx context.Context, cb Callback) error

	// SendAudio sends raw PCM audio bytes to the provider.
	SendAudio(ctx context.Context, audio []byte) error

	// Close ends the session and releases provider resources.
	Close() error
}

// Factory constructs a fresh adapter per session. A session's adapter is
// never reused after Close.
type Factory func(ctx context.Context, cfg Config) (Adapter, error)
