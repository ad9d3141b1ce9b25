package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter constructs the HTTP router for the service.
func NewRouter(s *Server) http.Handler {
	r := chi.NewRouter()

	// Basic middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	// Health endpoints
	r.Get("/v1/liveness", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/v1/readiness", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	// API routes
	r.Route("/v1", func(r chi.Router) {
		r.Get("/document", s.handleGetDocument)
		r.Put("/document", s.handlePutDocument)
		r.Put("/selection", s.handlePutSelection)
		r.Get("/toolbar", s.handleGetToolbar)
		r.Get("/models", s.handleListModels)
		r.Post("/models/{lang}", s.handleLoadModel)
		r.Get("/session", s.handleGetSession)
		r.Post("/audio", s.handleUploadAudio)
		r.Post("/transcribe", s.handleTranscribe)
		r.Get("/dictation", s.handleDictation)
	})

	return r
}
