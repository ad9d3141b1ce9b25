package recognizer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/marienilba/voice-dictation/internal/stt"
)

// Upload extensions accepted for offline transcription.
var allowedExtensions = map[string]struct{}{
	".wav":   {},
	".mp3":   {},
	".mpeg3": {},
	".ogg":   {},
	".ulaw":  {},
	".raw":   {},
}

// ErrUnsupportedFormat is returned for uploads outside the accepted
// extension list.
var ErrUnsupportedFormat = errors.New("unsupported audio format")

// AllowedFile reports whether the filename carries an accepted audio
// extension.
func AllowedFile(name string) bool {
	_, ok := allowedExtensions[strings.ToLower(filepath.Ext(name))]
	return ok
}

// Sink receives transcription output. Partial hypotheses are transient
// captions; finals are committed as new paragraphs.
type Sink interface {
	OnCaption(text string)
	OnTranscript(text string, confidence float64)
}

type sinkCallback struct {
	sink Sink
	errs func(error)
}

func (c *sinkCallback) OnPartial(text string) { c.sink.OnCaption(text) }
func (c *sinkCallback) OnFinal(text string, confidence float64) {
	c.sink.OnTranscript(text, confidence)
}
func (c *sinkCallback) OnEndOfUtterance() {}
func (c *sinkCallback) OnError(err error) { c.errs(err) }

// Transcribe streams an uploaded audio file through the session's
// recognizer in real-time-sized chunks. Partial hypotheses go to the sink
// as captions; finals go as committed transcripts. Command phrases are not
// interpreted on this path.
//
// Returns ErrUnsupportedFormat for unknown extensions and the lifecycle
// sentinels when the session cannot accept a transcription.
func (s *Session) Transcribe(ctx context.Context, r io.Reader, filename string, sink Sink, drain time.Duration) error {
	if !AllowedFile(filename) {
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(filename))
	}
	if err := s.lifecycle.BeginTranscription(); err != nil {
		return err
	}
	defer s.lifecycle.EndTranscription()

	sampleRate := s.sampleRate
	if strings.EqualFold(filepath.Ext(filename), ".wav") {
		format, err := ParseWAVHeader(r)
		if err != nil {
			return err
		}
		if int(format.SampleRate) != s.sampleRate {
			s.log.Warn().
				Uint32("fileRateHz", format.SampleRate).
				Int("sessionRateHz", s.sampleRate).
				Msg("WAV sample rate differs from session rate")
			sampleRate = int(format.SampleRate)
		}
	}

	adapter, err := s.factory(ctx, stt.Config{
		LanguageCode:   s.Model.Lang,
		SampleRateHz:   sampleRate,
		InterimResults: true,
	})
	if err != nil {
		return fmt.Errorf("construct recognizer: %w", err)
	}

	s.mu.Lock()
	s.current = adapter
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.current = nil
		s.mu.Unlock()
	}()

	cb := &sinkCallback{
		sink: sink,
		errs: func(err error) {
			// Recognition errors do not abort the stream.
			s.log.Warn().Err(err).Str("sessionId", s.ID).Msg("recognition error during file transcription")
		},
	}
	if err := adapter.Start(ctx, cb); err != nil {
		adapter.Close()
		return fmt.Errorf("start recognizer: %w", err)
	}

	// 100ms of 16-bit mono audio per chunk.
	chunkSize := sampleRate * 2 / 10
	buf := make([]byte, chunkSize)
	for {
		if err := ctx.Err(); err != nil {
			adapter.Close()
			return err
		}
		n, readErr := r.Read(buf)
		if n > 0 {
			if err := adapter.SendAudio(ctx, buf[:n]); err != nil {
				adapter.Close()
				return fmt.Errorf("send audio: %w", err)
			}
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			adapter.Close()
			return fmt.Errorf("read audio: %w", readErr)
		}
	}

	if err := adapter.Close(); err != nil {
		s.log.Warn().Err(err).Str("sessionId", s.ID).Msg("error closing recognizer")
	}
	// Give trailing finals a moment to land before the lifecycle returns to
	// READY.
	if drain > 0 {
		select {
		case <-time.After(drain):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// TranscribeFile runs Transcribe on the manager's active session.
func (m *Manager) TranscribeFile(ctx context.Context, r io.Reader, filename string, sink Sink) error {
	sess := m.Active()
	if sess == nil {
		return ErrSessionNotReady
	}
	return sess.Transcribe(ctx, r, filename, sink, m.drain)
}
