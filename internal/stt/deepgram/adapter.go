// Package deepgram provides a Deepgram streaming speech-to-text adapter
// over the listen websocket API.
package deepgram

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/marienilba/voice-dictation/internal/stt"
)

const listenEndpoint = "wss://api.deepgram.com/v1/listen"

// Adapter implements stt.Adapter against Deepgram's streaming API.
type Adapter struct {
	cfg stt.Config

	connMu sync.Mutex
	conn   *websocket.Conn
	cb     stt.Callback
	done   chan struct{}
}

// New creates a Deepgram adapter. Requires DEEPGRAM_API_KEY to be set in
// the environment.
func New(cfg stt.Config) (*Adapter, error) {
	if _, ok := os.LookupEnv("DEEPGRAM_API_KEY"); !ok {
		return nil, fmt.Errorf("deepgram api key not found")
	}
	return &Adapter{cfg: cfg, done: make(chan struct{})}, nil
}

// Factory returns an stt.Factory producing Deepgram sessions.
func Factory() stt.Factory {
	return func(ctx context.Context, cfg stt.Config) (stt.Adapter, error) {
		return New(cfg)
	}
}

// Start opens the websocket and begins consuming transcript messages.
func (a *Adapter) Start(ctx context.Context, cb stt.Callback) error {
	apiKey := os.Getenv("DEEPGRAM_API_KEY")

	listenURL, _ := url.Parse(listenEndpoint)
	q := listenURL.Query()
	q.Set("encoding", "linear16")
	q.Set("sample_rate", strconv.Itoa(a.cfg.SampleRateHz))
	q.Set("channels", "1")
	q.Set("language", a.cfg.LanguageCode)
	q.Set("smart_format", "true")
	q.Set("utterance_end_ms", "1000")
	q.Set("endpointing", "300")
	if a.cfg.InterimResults {
		q.Set("interim_results", "true")
	}
	listenURL.RawQuery = q.Encode()

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, listenURL.String(),
		http.Header{"Authorization": {"Token " + apiKey}})
	if err != nil {
		return fmt.Errorf("failed to open socket connection to deepgram: %w", err)
	}

	a.connMu.Lock()
	a.conn = conn
	a.cb = cb
	a.connMu.Unlock()

	go a.readMessages(conn, cb)
	return nil
}

// SendAudio writes PCM bytes as a binary websocket message.
func (a *Adapter) SendAudio(ctx context.Context, audio []byte) error {
	a.connMu.Lock()
	defer a.connMu.Unlock()
	if a.conn == nil {
		return fmt.Errorf("deepgram session not started")
	}
	if err := a.conn.WriteMessage(websocket.BinaryMessage, audio); err != nil {
		return fmt.Errorf("failed to write audio to deepgram: %w", err)
	}
	return nil
}

// Close signals the stream to finalize and closes the connection.
func (a *Adapter) Close() error {
	a.connMu.Lock()
	defer a.connMu.Unlock()
	if a.conn == nil {
		return nil
	}
	_ = a.conn.WriteJSON(struct {
		Type string `json:"type"`
	}{Type: "CloseStream"})
	err := a.conn.Close()
	a.conn = nil
	close(a.done)
	return err
}

type listenMessage struct {
	Type        string `json:"type"`
	IsFinal     bool   `json:"is_final"`
	SpeechFinal bool   `json:"speech_final"`
	Channel     struct {
		Alternatives []struct {
			Transcript string  `json:"transcript"`
			Confidence float64 `json:"confidence"`
		} `json:"alternatives"`
	} `json:"channel"`
}

func (a *Adapter) readMessages(conn *websocket.Conn, cb stt.Callback) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			select {
			case <-a.done:
				// Session closed by us, the read error is expected.
			default:
				cb.OnError(fmt.Errorf("deepgram read: %w", err))
			}
			return
		}

		var msg listenMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			cb.OnError(fmt.Errorf("deepgram message: %w", err))
			continue
		}

		switch msg.Type {
		case "Results":
			if len(msg.Channel.Alternatives) == 0 {
				continue
			}
			alt := msg.Channel.Alternatives[0]
			if alt.Transcript == "" {
				continue
			}
			if msg.IsFinal {
				cb.OnFinal(alt.Transcript, alt.Confidence)
				if msg.SpeechFinal {
					cb.OnEndOfUtterance()
				}
			} else {
				cb.OnPartial(alt.Transcript)
			}
		case "UtteranceEnd":
			cb.OnEndOfUtterance()
		}
	}
}
