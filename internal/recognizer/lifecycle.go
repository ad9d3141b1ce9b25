package recognizer

import (
	"errors"
	"fmt"
	"sync"
)

// State is the lifecycle state of a recognizer session.
type State int

const (
	// StateLoading - the model is being fetched and the recognizer is not
	// yet constructed. Transcription requests are rejected.
	StateLoading State = iota
	// StateReady - the recognizer is constructed and can accept audio.
	StateReady
	// StateTranscribing - a file is currently streaming through the
	// recognizer.
	StateTranscribing
	// StateClosed - the session was terminated; terminal.
	StateClosed
	// StateFailed - the model load or recognizer construction failed;
	// terminal.
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "LOADING"
	case StateReady:
		return "READY"
	case StateTranscribing:
		return "TRANSCRIBING"
	case StateClosed:
		return "CLOSED"
	case StateFailed:
		return "FAILED"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", s)
	}
}

// IsTerminal returns true for CLOSED and FAILED.
func (s State) IsTerminal() bool {
	return s == StateClosed || s == StateFailed
}

// Errors for invalid lifecycle transitions.
var (
	ErrSessionNotReady      = errors.New("recognizer session is not ready")
	ErrSessionClosed        = errors.New("recognizer session is closed")
	ErrTranscribeInProgress = errors.New("a transcription is already in progress")
)

// Lifecycle is the state machine guarding one recognizer session.
// Thread-safe.
//
// Transitions:
//
//	LOADING → READY → TRANSCRIBING → READY
//	   │        │
//	   │        └── Close() ──→ CLOSED
//	   └── Fail() ──→ FAILED
type Lifecycle struct {
	mu    sync.RWMutex
	state State
}

// NewLifecycle creates a lifecycle in LOADING state.
func NewLifecycle() *Lifecycle {
	return &Lifecycle{state: StateLoading}
}

// State returns the current state.
func (l *Lifecycle) State() State {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state
}

// Ready reports whether the session can accept a transcription.
func (l *Lifecycle) Ready() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state == StateReady
}

// MarkReady transitions LOADING → READY. No-op from any other state.
func (l *Lifecycle) MarkReady() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.state != StateLoading {
		return false
	}
	l.state = StateReady
	return true
}

// BeginTranscription transitions READY → TRANSCRIBING.
func (l *Lifecycle) BeginTranscription() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	switch l.state {
	case StateReady:
		l.state = StateTranscribing
		return nil
	case StateTranscribing:
		return ErrTranscribeInProgress
	case StateLoading:
		return ErrSessionNotReady
	case StateClosed, StateFailed:
		return ErrSessionClosed
	default:
		return fmt.Errorf("unexpected state: %v", l.state)
	}
}

// EndTranscription transitions TRANSCRIBING → READY. No-op in terminal
// states so a late-finishing transcription cannot resurrect a closed
// session.
func (l *Lifecycle) EndTranscription() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.state == StateTranscribing {
		l.state = StateReady
	}
}

// Close transitions to CLOSED. Idempotent; FAILED stays FAILED.
func (l *Lifecycle) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.state == StateFailed {
		return
	}
	l.state = StateClosed
}

// Fail transitions to FAILED. Returns false if already terminal.
func (l *Lifecycle) Fail() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.state.IsTerminal() {
		return false
	}
	l.state = StateFailed
	return true
}
