package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/marienilba/voice-dictation/internal/dictation"
	"github.com/marienilba/voice-dictation/internal/models"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  8192,
	WriteBufferSize: 8192,
	CheckOrigin: func(r *http.Request) bool {
		return true // same-host editor frontends and the CLI client
	},
}

// wsEvent is one server-to-client message on the dictation socket.
type wsEvent struct {
	Type       string  `json:"type"`
	SessionID  string  `json:"sessionId,omitempty"`
	Text       string  `json:"text,omitempty"`
	Outcome    string  `json:"outcome,omitempty"`
	Confidence float64 `json:"confidence,omitempty"`
	Error      string  `json:"error,omitempty"`
}

// wsControl is a client-to-server text message.
type wsControl struct {
	Type string `json:"type"`
}

// handleDictation runs one live dictation session over a WebSocket. Binary
// frames are PCM audio; a {"type":"stop"} text frame ends the session. The
// server pushes caption updates and dispatch results. A new connection
// supersedes any previous live session.
func (s *Server) handleDictation(w http.ResponseWriter, r *http.Request) {
	locale := r.URL.Query().Get("locale")
	if locale == "" {
		locale = s.defaultLocale
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	var writeMu sync.Mutex
	send := func(ev wsEvent) {
		writeMu.Lock()
		defer writeMu.Unlock()
		if err := conn.WriteJSON(ev); err != nil {
			s.log.Debug().Err(err).Msg("websocket write failed")
		}
	}

	listener := dictation.NewListener(dictation.Config{
		Factory:      s.factory,
		Locale:       locale,
		SampleRateHz: s.sampleRate,
		Doc:          s.doc,
		Publisher:    s.publisher,
		Limits:       s.limits,
		OnCaption: func(text string) {
			send(wsEvent{Type: "caption", Text: text})
		},
		OnResult: func(ev models.TranscriptFinal) {
			send(wsEvent{
				Type:       "final",
				Text:       ev.Text,
				Outcome:    ev.Outcome,
				Confidence: ev.Confidence,
			})
		},
		Log: s.log,
	})

	s.mu.Lock()
	if s.listener != nil {
		s.listener.Stop()
	}
	s.listener = listener
	s.mu.Unlock()
	defer func() {
		listener.Stop()
		s.mu.Lock()
		if s.listener == listener {
			s.listener = nil
		}
		s.mu.Unlock()
	}()

	ctx := r.Context()
	if err := listener.Start(ctx); err != nil {
		s.log.Error().Err(err).Str("locale", locale).Msg("failed to start dictation session")
		send(wsEvent{Type: "error", Error: "failed to start recognizer"})
		return
	}
	send(wsEvent{Type: "listening", SessionID: listener.ID()})

	// Tell the client when the session ends server-side (stop command,
	// limits, silence auto-close).
	go func() {
		<-listener.Stopped()
		send(wsEvent{Type: "stopped", SessionID: listener.ID()})
	}()

	for {
		mt, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		switch mt {
		case websocket.BinaryMessage:
			if err := listener.SendAudio(ctx, data); err != nil {
				if errors.Is(err, dictation.ErrNotListening) {
					return
				}
				if errors.Is(err, dictation.ErrLimitExceeded) {
					send(wsEvent{Type: "error", Error: err.Error()})
					return
				}
				s.log.Warn().Err(err).Msg("failed to forward audio")
				send(wsEvent{Type: "error", Error: "audio forwarding failed"})
				return
			}
		case websocket.TextMessage:
			var ctl wsControl
			if err := json.Unmarshal(data, &ctl); err != nil {
				continue
			}
			switch ctl.Type {
			case "stop":
				listener.Stop()
				return
			case "reset":
				listener.ResetTranscript()
			}
		}
	}
}
