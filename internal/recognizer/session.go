package recognizer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/marienilba/voice-dictation/internal/stt"
)

// Session is the live binding between a loaded acoustic model and the
// recognizer that transcribes uploaded audio against it.
type Session struct {
	ID    string
	Model ModelDescriptor

	sampleRate int
	factory    stt.Factory
	lifecycle  *Lifecycle
	log        zerolog.Logger
	loaded     chan struct{}
	loadErr    error

	mu      sync.Mutex
	current stt.Adapter
}

// Ready reports whether the session's model is loaded and no transcription
// is in flight.
func (s *Session) Ready() bool { return s.lifecycle.Ready() }

// State returns the session's lifecycle state.
func (s *Session) State() State { return s.lifecycle.State() }

// AwaitReady blocks until the model load finishes or the timeout elapses.
func (s *Session) AwaitReady(timeout time.Duration) error {
	select {
	case <-s.loaded:
		return s.loadErr
	case <-time.After(timeout):
		return fmt.Errorf("model %s load timed out after %v", s.Model.Lang, timeout)
	}
}

// terminate releases the session's recognizer. Idempotent.
func (s *Session) terminate() {
	s.lifecycle.Close()
	s.mu.Lock()
	adapter := s.current
	s.current = nil
	s.mu.Unlock()
	if adapter != nil {
		if err := adapter.Close(); err != nil {
			s.log.Warn().Err(err).Str("sessionId", s.ID).Msg("error closing recognizer")
		}
	}
}

// Manager enforces the single-active-session invariant: loading a new model
// fully terminates the previous session before the new recognizer is
// constructed.
type Manager struct {
	factory    stt.Factory
	assetsDir  string
	sampleRate int
	drain      time.Duration
	log        zerolog.Logger

	mu     sync.Mutex
	active *Session
}

// NewManager creates a session manager. assetsDir is where model archives
// live; an empty dir skips the asset presence check. sampleRate is the
// fixed rate every recognizer is bound to.
func NewManager(factory stt.Factory, assetsDir string, sampleRate int, log zerolog.Logger) *Manager {
	return &Manager{
		factory:    factory,
		assetsDir:  assetsDir,
		sampleRate: sampleRate,
		drain:      500 * time.Millisecond,
		log:        log,
	}
}

// SetDrainTimeout overrides how long a transcription waits for trailing
// recognizer callbacks after the last audio byte. Tests set it to zero.
func (m *Manager) SetDrainTimeout(d time.Duration) { m.drain = d }

// Load resolves lang against the catalog and starts loading its model.
// Any previous session is terminated synchronously before the new session
// is constructed. The returned session becomes ready asynchronously.
func (m *Manager) Load(ctx context.Context, lang string) (*Session, error) {
	model, err := FindModel(lang)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.active != nil {
		m.log.Info().
			Str("sessionId", m.active.ID).
			Str("model", m.active.Model.Lang).
			Msg("terminating previous recognizer session")
		m.active.terminate()
		m.active = nil
	}

	sess := &Session{
		ID:         uuid.NewString(),
		Model:      model,
		sampleRate: m.sampleRate,
		factory:    m.factory,
		lifecycle:  NewLifecycle(),
		log:        m.log,
		loaded:     make(chan struct{}),
	}
	m.active = sess

	go m.load(ctx, sess)
	return sess, nil
}

// Active returns the current session, or nil when none was loaded.
func (m *Manager) Active() *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active
}

// Close terminates the active session, if any.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.active != nil {
		m.active.terminate()
		m.active = nil
	}
}

func (m *Manager) load(ctx context.Context, sess *Session) {
	defer close(sess.loaded)

	if m.assetsDir != "" {
		path := filepath.Join(m.assetsDir, sess.Model.Path)
		if _, err := os.Stat(path); err != nil {
			sess.loadErr = fmt.Errorf("model asset %s: %w", sess.Model.Path, err)
			sess.lifecycle.Fail()
			m.log.Error().Err(sess.loadErr).Str("model", sess.Model.Lang).Msg("model load failed")
			return
		}
	}

	// Probe the provider so a misconfigured backend fails the load, not the
	// first upload.
	probe, err := m.factory(ctx, stt.Config{
		LanguageCode:   sess.Model.Lang,
		SampleRateHz:   m.sampleRate,
		InterimResults: true,
	})
	if err != nil {
		sess.loadErr = fmt.Errorf("construct recognizer: %w", err)
		sess.lifecycle.Fail()
		m.log.Error().Err(sess.loadErr).Str("model", sess.Model.Lang).Msg("recognizer construction failed")
		return
	}
	if err := probe.Close(); err != nil {
		m.log.Warn().Err(err).Msg("error closing recognizer probe")
	}

	if !sess.lifecycle.MarkReady() {
		// The session was terminated while loading; leave it closed.
		return
	}
	m.log.Info().
		Str("sessionId", sess.ID).
		Str("model", sess.Model.Lang).
		Int("sampleRateHz", m.sampleRate).
		Msg("recognizer session ready")
}
