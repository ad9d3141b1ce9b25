// Package mock provides a speech-to-text adapter that simulates a
// recognizer without any provider credentials. It emits progressive
// partials, exactly one final per utterance, and an end-of-utterance
// signal, which is enough to exercise the dispatcher and the document
// mutation path end to end.
package mock

import (
	"context"
	"sync"
	"time"

	"github.com/marienilba/voice-dictation/internal/stt"
)

// Utterance is one simulated spoken phrase with its progressive partials.
type Utterance struct {
	Partials   []string
	Final      string
	Confidence float64
}

// DefaultUtterances cycle through dictated text and voice commands so a dev
// session shows both dispatch tiers.
var DefaultUtterances = []Utterance{
	{
		Partials:   []string{"the quick", "the quick brown", "the quick brown fox"},
		Final:      "the quick brown fox jumps over the lazy dog",
		Confidence: 0.95,
	},
	{
		Partials:   []string{"richard", "richard bold"},
		Final:      "richard bold",
		Confidence: 0.97,
	},
	{
		Partials:   []string{"meeting notes", "meeting notes for"},
		Final:      "meeting notes for monday morning",
		Confidence: 0.92,
	},
	{
		Partials:   []string{"richard", "richard quote"},
		Final:      "richard quote",
		Confidence: 0.96,
	},
	{
		Partials:   []string{"richard stop"},
		Final:      "richard stop",
		Confidence: 0.98,
	},
}

// Adapter implements stt.Adapter with simulated responses. One partial is
// released per audio frame; once the script is exhausted the final and the
// end-of-utterance signal follow, then the next utterance begins.
type Adapter struct {
	delay time.Duration

	mu           sync.Mutex
	cb           stt.Callback
	script       []Utterance
	utterance    int
	partialIndex int
	closed       bool
}

// New creates a mock adapter over the default script.
func New() *Adapter {
	return NewWithScript(DefaultUtterances, 50*time.Millisecond)
}

// NewWithScript creates a mock adapter over a custom script. A zero delay
// makes callbacks synchronous, which tests rely on.
func NewWithScript(script []Utterance, delay time.Duration) *Adapter {
	return &Adapter{script: script, delay: delay}
}

// Factory returns an stt.Factory producing mock sessions.
func Factory() stt.Factory {
	return func(ctx context.Context, cfg stt.Config) (stt.Adapter, error) {
		return New(), nil
	}
}

// Start begins a simulated session.
func (a *Adapter) Start(ctx context.Context, cb stt.Callback) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.cb = cb
	return nil
}

// SendAudio consumes one audio frame and advances the script.
func (a *Adapter) SendAudio(ctx context.Context, audio []byte) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed || a.cb == nil || a.utterance >= len(a.script) {
		return nil
	}

	utt := a.script[a.utterance]
	if a.partialIndex < len(utt.Partials) {
		partial := utt.Partials[a.partialIndex]
		a.partialIndex++
		a.emit(func(cb stt.Callback) { cb.OnPartial(partial) })
		return nil
	}

	a.utterance++
	a.partialIndex = 0
	a.emit(func(cb stt.Callback) {
		cb.OnFinal(utt.Final, utt.Confidence)
		cb.OnEndOfUtterance()
	})
	return nil
}

// Close ends the session. If the current utterance produced partials but no
// final yet, the final is flushed so no speech is silently lost.
func (a *Adapter) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return nil
	}
	if a.cb != nil && a.partialIndex > 0 && a.utterance < len(a.script) {
		utt := a.script[a.utterance]
		a.emit(func(cb stt.Callback) { cb.OnFinal(utt.Final, utt.Confidence) })
	}
	a.closed = true
	return nil
}

// emit invokes fn with the callback, asynchronously when a delay is
// configured. Must be called with the lock held.
func (a *Adapter) emit(fn func(stt.Callback)) {
	cb := a.cb
	if a.delay == 0 {
		a.mu.Unlock()
		fn(cb)
		a.mu.Lock()
		return
	}
	go func() {
		time.Sleep(a.delay)
		fn(cb)
	}()
}
