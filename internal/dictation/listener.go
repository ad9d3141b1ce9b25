// Package dictation runs the live microphone dictation session: it feeds
// audio to a speech recognizer, mirrors partial hypotheses as a transient
// caption, and routes finalized transcripts through the command dispatcher.
package dictation

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/marienilba/voice-dictation/internal/dispatch"
	"github.com/marienilba/voice-dictation/internal/document"
	"github.com/marienilba/voice-dictation/internal/events"
	"github.com/marienilba/voice-dictation/internal/models"
	"github.com/marienilba/voice-dictation/internal/observability/logging"
	"github.com/marienilba/voice-dictation/internal/observability/metrics"
	"github.com/marienilba/voice-dictation/internal/stt"
)

// Limits defines safety guardrails for a dictation session. These prevent
// unbounded resource usage and ensure backpressure.
type Limits struct {
	MaxAudioBytes int64         // Max audio bytes per session
	MaxDuration   time.Duration // Max session duration
	MaxPartials   int           // Max partial transcripts per utterance
}

// DefaultLimits returns sensible default limits.
func DefaultLimits() Limits {
	return Limits{
		MaxAudioBytes: 50 * 1024 * 1024, // ~26 minutes at 16kHz 16-bit mono
		MaxDuration:   30 * time.Minute,
		MaxPartials:   500,
	}
}

// State is the listening state of a dictation session.
type State int

const (
	// StateIdle - not listening. Audio is rejected.
	StateIdle State = iota
	// StateListening - the recognizer is live and consuming audio.
	StateListening
)

func (s State) String() string {
	if s == StateListening {
		return "LISTENING"
	}
	return "IDLE"
}

// Errors returned by the listener.
var (
	ErrNotListening  = errors.New("dictation session is not listening")
	ErrLimitExceeded = errors.New("dictation session limit exceeded")
)

// CaptionFunc receives transient caption updates. An empty string clears
// the caption.
type CaptionFunc func(text string)

// ResultFunc receives the finalized transcript events after dispatch.
type ResultFunc func(models.TranscriptFinal)

// Config wires a listener's collaborators.
type Config struct {
	Factory      stt.Factory
	Locale       string
	SampleRateHz int
	Doc          *document.Store
	Publisher    *events.Publisher
	Limits       Limits
	Metrics      *metrics.Metrics
	OnCaption    CaptionFunc
	OnResult     ResultFunc
	Log          zerolog.Logger
}

// Listener is one live dictation session. It implements stt.Callback: every
// partial updates the caption, every final goes through the dispatcher
// exactly once, and recognition errors are logged without ending the
// session.
type Listener struct {
	id         string
	locale     string
	factory    stt.Factory
	sampleRate int
	dispatcher *dispatch.Dispatcher
	publisher  *events.Publisher
	limits     Limits
	metrics    *metrics.Metrics
	onCaption  CaptionFunc
	onResult   ResultFunc
	log        zerolog.Logger

	mu          sync.Mutex
	state       State
	adapter     stt.Adapter
	caption     string
	utteranceID string
	startTime   time.Time
	audioBytes  int64
	partials    int
	silence     *silenceMonitor
	stopped     chan struct{}
	stopOnce    sync.Once
}

// NewListener creates an idle dictation session for one connection. The
// command table is bound to the session's locale; the listener itself
// serves the session-control commands.
func NewListener(cfg Config) *Listener {
	if cfg.Metrics == nil {
		cfg.Metrics = metrics.DefaultMetrics
	}
	l := &Listener{
		id:          uuid.NewString(),
		locale:      cfg.Locale,
		factory:     cfg.Factory,
		sampleRate:  cfg.SampleRateHz,
		publisher:   cfg.Publisher,
		limits:      cfg.Limits,
		metrics:     cfg.Metrics,
		onCaption:   cfg.OnCaption,
		onResult:    cfg.OnResult,
		utteranceID: uuid.NewString(),
		silence:     newSilenceMonitor(),
		stopped:     make(chan struct{}),
	}
	l.log = logging.WithSession(cfg.Log, l.id, cfg.Locale)
	l.dispatcher = dispatch.New(dispatch.Table(cfg.Locale, cfg.Doc, l), cfg.Doc, l.log)
	return l
}

// ID returns the session identifier.
func (l *Listener) ID() string { return l.id }

// State returns the current listening state.
func (l *Listener) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// Caption returns the current transient caption.
func (l *Listener) Caption() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.caption
}

// Stopped is closed when the session ends, whether by the stop command, a
// limit, silence auto-close, or Stop.
func (l *Listener) Stopped() <-chan struct{} { return l.stopped }

// Phrases returns the session's command phrases in table order.
func (l *Listener) Phrases() []string { return l.dispatcher.Phrases() }

// Start transitions Idle to Listening and opens the recognizer stream.
func (l *Listener) Start(ctx context.Context) error {
	l.mu.Lock()
	if l.state == StateListening {
		l.mu.Unlock()
		return nil
	}
	l.mu.Unlock()

	adapter, err := l.factory(ctx, stt.Config{
		LanguageCode:   l.locale,
		SampleRateHz:   l.sampleRate,
		InterimResults: true,
	})
	if err != nil {
		return fmt.Errorf("construct recognizer: %w", err)
	}
	if err := adapter.Start(ctx, l); err != nil {
		adapter.Close()
		return fmt.Errorf("start recognizer: %w", err)
	}

	l.mu.Lock()
	l.adapter = adapter
	l.state = StateListening
	l.startTime = time.Now()
	l.audioBytes = 0
	l.mu.Unlock()

	l.metrics.RecordSessionStart()
	l.log.Info().Msg("dictation session listening")
	return nil
}

// SendAudio forwards one audio frame to the recognizer. Frames are expected
// to be around 100ms of 16-bit PCM; each frame also feeds the silence
// monitor.
func (l *Listener) SendAudio(ctx context.Context, audio []byte) error {
	l.mu.Lock()
	if l.state != StateListening {
		l.mu.Unlock()
		return ErrNotListening
	}
	adapter := l.adapter
	l.audioBytes += int64(len(audio))
	bytes := l.audioBytes
	start := l.startTime
	ev := l.silence.Tick(hasSpeech(audio))
	l.mu.Unlock()

	if l.limits.MaxAudioBytes > 0 && bytes > l.limits.MaxAudioBytes {
		l.metrics.RecordLimitExceeded("audio_bytes")
		l.stop("max audio bytes exceeded")
		return fmt.Errorf("%w: %d audio bytes", ErrLimitExceeded, bytes)
	}
	if l.limits.MaxDuration > 0 && time.Since(start) > l.limits.MaxDuration {
		l.metrics.RecordLimitExceeded("duration")
		l.stop("max duration exceeded")
		return fmt.Errorf("%w: session older than %v", ErrLimitExceeded, l.limits.MaxDuration)
	}

	switch ev {
	case SilenceWarn, SilenceRepeat:
		l.log.Info().Msg("no speech detected")
	case SilenceWarnClear:
		l.log.Debug().Msg("speech resumed")
	case SilenceAutoClose:
		l.stop("silence auto-close")
		return nil
	}

	l.metrics.RecordAudioReceived(len(audio))
	return adapter.SendAudio(ctx, audio)
}

// Stop ends the session. Idempotent; safe to call from connection teardown.
func (l *Listener) Stop() {
	l.stop("stopped")
}

func (l *Listener) stop(reason string) {
	l.stopOnce.Do(func() {
		l.mu.Lock()
		wasListening := l.state == StateListening
		l.state = StateIdle
		adapter := l.adapter
		l.adapter = nil
		l.caption = ""
		start := l.startTime
		l.mu.Unlock()

		if l.onCaption != nil {
			l.onCaption("")
		}
		if adapter != nil {
			if err := adapter.Close(); err != nil {
				l.log.Warn().Err(err).Msg("error closing recognizer")
			}
		}
		if wasListening {
			l.metrics.RecordSessionEnd(time.Since(start).Seconds())
		}
		l.log.Info().
			Str("reason", reason).
			Msg("dictation session ended")
		close(l.stopped)
	})
}

// --- dispatch.Controls implementation ---

// ResetTranscript clears the transient caption without touching the
// document.
func (l *Listener) ResetTranscript() {
	l.setCaption("")
}

// StopListening ends the session in response to the stop command. The
// recognizer is closed off the callback goroutine.
func (l *Listener) StopListening() {
	go l.stop("stop command")
}

// --- stt.Callback implementation ---

// OnPartial mirrors an interim hypothesis into the caption. Partials never
// touch the document.
func (l *Listener) OnPartial(text string) {
	l.mu.Lock()
	if l.state != StateListening {
		l.mu.Unlock()
		return
	}
	l.partials++
	count := l.partials
	utteranceID := l.utteranceID
	l.mu.Unlock()

	if l.limits.MaxPartials > 0 && count > l.limits.MaxPartials {
		l.metrics.RecordLimitExceeded("partials")
		l.stop("max partials exceeded")
		return
	}

	l.setCaption(text)
	l.metrics.RecordPartialTranscript()
	l.publishPartial(models.TranscriptPartial{
		EventType:   models.EventTypePartial,
		SessionID:   l.id,
		Locale:      l.locale,
		UtteranceID: utteranceID,
		Timestamp:   time.Now().UnixMilli(),
		Text:        text,
	})
}

// OnFinal consumes a finalized transcript exactly once: it is dispatched as
// either a command or a paragraph insertion, and the caption is cleared.
func (l *Listener) OnFinal(text string, confidence float64) {
	l.mu.Lock()
	if l.state != StateListening {
		l.mu.Unlock()
		return
	}
	utteranceID := l.utteranceID
	l.mu.Unlock()

	res := l.dispatcher.Dispatch(text, true)
	l.setCaption("")

	l.metrics.RecordFinalTranscript()
	switch res.Outcome {
	case dispatch.OutcomeCommand:
		l.metrics.RecordCommand(res.Phrase)
	case dispatch.OutcomeInserted:
		l.metrics.RecordParagraphInserted()
	}

	ev := models.TranscriptFinal{
		EventType:   models.EventTypeFinal,
		SessionID:   l.id,
		Locale:      l.locale,
		UtteranceID: utteranceID,
		Timestamp:   time.Now().UnixMilli(),
		Text:        text,
		Confidence:  confidence,
		Outcome:     res.Outcome.String(),
	}
	l.publishFinal(ev)
	if l.onResult != nil {
		l.onResult(ev)
	}
}

// OnEndOfUtterance rolls the utterance id and resets the partial counter.
func (l *Listener) OnEndOfUtterance() {
	l.mu.Lock()
	ended := l.utteranceID
	l.utteranceID = uuid.NewString()
	l.partials = 0
	l.mu.Unlock()
	l.metrics.RecordUtterance()
	ulog := logging.WithUtterance(l.log, ended)
	ulog.Debug().Msg("utterance ended")
}

// OnError logs the recognition error and keeps the session alive. A failed
// utterance loses its transcript but the stream continues.
func (l *Listener) OnError(err error) {
	l.metrics.RecordSTTError("stream", "recognition")
	l.log.Warn().
		Err(err).
		Msg("recognition error, session continues")
}

func (l *Listener) setCaption(text string) {
	l.mu.Lock()
	l.caption = text
	cb := l.onCaption
	l.mu.Unlock()
	if cb != nil {
		cb(text)
	}
}

func (l *Listener) publishPartial(ev models.TranscriptPartial) {
	if l.publisher == nil {
		return
	}
	if err := l.publisher.PublishPartial(context.Background(), l.id, ev); err != nil {
		l.log.Warn().Err(err).Msg("failed to publish partial")
	}
}

func (l *Listener) publishFinal(ev models.TranscriptFinal) {
	if l.publisher == nil {
		return
	}
	if err := l.publisher.PublishFinal(context.Background(), l.id, ev); err != nil {
		l.log.Warn().Err(err).Msg("failed to publish final")
	}
}
