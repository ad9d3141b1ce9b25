// Package models defines the data structures for transcript events.
package models

// Event type values carried on the wire.
const (
	EventTypePartial = "dictation.transcript.partial"
	EventTypeFinal   = "dictation.transcript.final"
)

// TranscriptPartial represents an interim/partial transcript result.
type TranscriptPartial struct {
	EventType   string `json:"eventType"`
	SessionID   string `json:"sessionId"`
	Locale      string `json:"locale"`
	UtteranceID string `json:"utteranceId"`
	Timestamp   int64  `json:"timestamp"`
	Text        string `json:"text"`
}

// TranscriptFinal represents a final transcript result with its dispatch
// outcome. Outcome is "command" when the text matched a voice command and
// "inserted" when it was appended to the document verbatim.
type TranscriptFinal struct {
	EventType   string  `json:"eventType"`
	SessionID   string  `json:"sessionId"`
	Locale      string  `json:"locale"`
	UtteranceID string  `json:"utteranceId"`
	Timestamp   int64   `json:"timestamp"`
	Text        string  `json:"text"`
	Confidence  float64 `json:"confidence"`
	Outcome     string  `json:"outcome"`
}
