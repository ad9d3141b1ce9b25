// Package httpapi exposes the editor's service surface over HTTP: document
// snapshot access, the model catalog, offline file transcription, the relay
// transcription endpoint, and the live dictation WebSocket.
package httpapi

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/marienilba/voice-dictation/internal/dictation"
	"github.com/marienilba/voice-dictation/internal/document"
	"github.com/marienilba/voice-dictation/internal/events"
	"github.com/marienilba/voice-dictation/internal/observability/metrics"
	"github.com/marienilba/voice-dictation/internal/recognizer"
	"github.com/marienilba/voice-dictation/internal/stt"
	"github.com/marienilba/voice-dictation/internal/toolbar"
)

// Config wires the server's collaborators.
type Config struct {
	Doc           *document.Store
	Toolbar       *toolbar.Observer
	Manager       *recognizer.Manager
	Factory       stt.Factory
	Publisher     *events.Publisher
	Limits        dictation.Limits
	Provider      string
	SampleRateHz  int
	DefaultLocale string
	// DrainTimeout bounds the wait for trailing recognizer callbacks on the
	// relay path. Tests set it to zero.
	DrainTimeout time.Duration
	Log          zerolog.Logger
}

// Server handles the editor API. At most one live dictation listener exists
// at a time; a new WebSocket connection supersedes the previous one.
type Server struct {
	doc           *document.Store
	toolbar       *toolbar.Observer
	manager       *recognizer.Manager
	factory       stt.Factory
	publisher     *events.Publisher
	limits        dictation.Limits
	provider      string
	sampleRate    int
	defaultLocale string
	drain         time.Duration
	metrics       *metrics.Metrics
	log           zerolog.Logger

	mu       sync.Mutex
	listener *dictation.Listener
}

// New creates the API server.
func New(cfg Config) *Server {
	drain := cfg.DrainTimeout
	if drain == 0 {
		drain = 500 * time.Millisecond
	}
	return &Server{
		doc:           cfg.Doc,
		toolbar:       cfg.Toolbar,
		manager:       cfg.Manager,
		factory:       cfg.Factory,
		publisher:     cfg.Publisher,
		limits:        cfg.Limits,
		provider:      cfg.Provider,
		sampleRate:    cfg.SampleRateHz,
		defaultLocale: cfg.DefaultLocale,
		drain:         drain,
		metrics:       metrics.DefaultMetrics,
		log:           cfg.Log,
	}
}

// SetDrainTimeout overrides the relay drain wait. Tests set it to zero.
func (s *Server) SetDrainTimeout(d time.Duration) { s.drain = d }

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, map[string]string{"error": msg})
}
