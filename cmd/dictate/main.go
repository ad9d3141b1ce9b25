// Command dictate streams a local WAV file to the dictation WebSocket to
// simulate a live microphone session.
package main

import (
	"encoding/json"
	"flag"
	"io"
	"log"
	"net/url"
	"os"
	"time"

	"github.com/gorilla/websocket"

	"github.com/marienilba/voice-dictation/internal/recognizer"
)

const chunkIntervalMs = 100

type event struct {
	Type       string  `json:"type"`
	SessionID  string  `json:"sessionId,omitempty"`
	Text       string  `json:"text,omitempty"`
	Outcome    string  `json:"outcome,omitempty"`
	Confidence float64 `json:"confidence,omitempty"`
	Error      string  `json:"error,omitempty"`
}

func main() {
	audioFile := flag.String("audio", "testdata/sample-16khz.wav", "Path to WAV file (16kHz 16-bit mono)")
	serverAddr := flag.String("server", "localhost:8080", "dictation server address")
	locale := flag.String("locale", "en-US", "dictation locale")
	flag.Parse()

	f, err := os.Open(*audioFile)
	if err != nil {
		log.Fatalf("Failed to open audio file: %v", err)
	}
	defer f.Close()

	format, err := recognizer.ParseWAVHeader(f)
	if err != nil {
		log.Fatalf("Invalid WAV file: %v", err)
	}
	log.Printf("WAV file: channels=%d sampleRate=%d bitsPerSample=%d",
		format.NumChannels, format.SampleRate, format.BitsPerSample)

	u := url.URL{
		Scheme:   "ws",
		Host:     *serverAddr,
		Path:     "/v1/dictation",
		RawQuery: "locale=" + url.QueryEscape(*locale),
	}
	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		log.Fatalf("Failed to connect: %v", err)
	}
	defer conn.Close()
	log.Printf("Connected to %s", u.String())

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			var ev event
			if err := conn.ReadJSON(&ev); err != nil {
				return
			}
			switch ev.Type {
			case "listening":
				log.Printf("Session started: %s", ev.SessionID)
			case "caption":
				if ev.Text != "" {
					log.Printf("  ... %s", ev.Text)
				}
			case "final":
				log.Printf("[%s] %s (confidence=%.2f)", ev.Outcome, ev.Text, ev.Confidence)
			case "stopped":
				log.Printf("Session ended: %s", ev.SessionID)
				return
			case "error":
				log.Printf("Server error: %s", ev.Error)
				return
			}
		}
	}()

	// 100ms of audio per frame at the file's sample rate
	chunkSize := int(format.SampleRate) * 2 / 10
	chunk := make([]byte, chunkSize)
	var totalBytes int64
	var chunkNum int
	startTime := time.Now()

	for {
		n, err := f.Read(chunk)
		if err == io.EOF {
			break
		}
		if err != nil {
			log.Fatalf("Failed to read audio: %v", err)
		}

		chunkNum++
		totalBytes += int64(n)

		if err := conn.WriteMessage(websocket.BinaryMessage, chunk[:n]); err != nil {
			log.Fatalf("Failed to send frame: %v", err)
		}

		if chunkNum%10 == 0 {
			log.Printf("Sent chunk %d (%d bytes total)", chunkNum, totalBytes)
		}

		// Simulate real-time streaming
		time.Sleep(chunkIntervalMs * time.Millisecond)
	}

	elapsed := time.Since(startTime)
	log.Printf("Finished streaming: %d chunks, %d bytes in %v", chunkNum, totalBytes, elapsed)

	stop, _ := json.Marshal(map[string]string{"type": "stop"})
	if err := conn.WriteMessage(websocket.TextMessage, stop); err != nil {
		log.Fatalf("Failed to send stop: %v", err)
	}

	select {
	case <-done:
	case <-time.After(10 * time.Second):
		log.Println("Timed out waiting for session end")
	}
}
