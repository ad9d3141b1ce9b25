package httpapi

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/marienilba/voice-dictation/internal/document"
	"github.com/marienilba/voice-dictation/internal/observability/logging"
	"github.com/marienilba/voice-dictation/internal/recognizer"
	"github.com/marienilba/voice-dictation/internal/stt"
)

// maxUploadBytes caps audio uploads and relay payloads.
const maxUploadBytes = 64 << 20

// handleGetDocument returns the serialized document snapshot.
func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	snap := s.doc.Snapshot()
	data, err := document.MarshalBlocks(snap.Blocks)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to serialize document")
		respondError(w, http.StatusInternalServerError, "failed to serialize document")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"version":  snap.Version,
		"document": json.RawMessage(data),
	})
}

// handlePutDocument replaces the document with a serialized snapshot.
func (s *Server) handlePutDocument(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxUploadBytes))
	if err != nil {
		respondError(w, http.StatusBadRequest, "failed to read body")
		return
	}
	blocks, err := document.UnmarshalBlocks(body)
	if err != nil {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("invalid document: %v", err))
		return
	}
	if err := s.doc.Replace(blocks); err != nil {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("invalid document: %v", err))
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"version": s.doc.Version()})
}

// handlePutSelection records the editor client's selection so that
// selection-scoped commands and the toolbar projection act on it. A null
// body clears the selection.
func (s *Server) handlePutSelection(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		respondError(w, http.StatusBadRequest, "failed to read body")
		return
	}
	var sel *document.Selection
	if len(bytes.TrimSpace(body)) > 0 && string(bytes.TrimSpace(body)) != "null" {
		sel = &document.Selection{}
		if err := json.Unmarshal(body, sel); err != nil {
			respondError(w, http.StatusBadRequest, fmt.Sprintf("invalid selection: %v", err))
			return
		}
	}
	if err := s.doc.Select(sel); err != nil {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("invalid selection: %v", err))
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"version": s.doc.Version()})
}

// handleGetToolbar returns the toolbar projection of the current selection.
func (s *Server) handleGetToolbar(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.toolbar.State())
}

// handleListModels returns the static model catalog.
func (s *Server) handleListModels(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, recognizer.Catalog)
}

// handleLoadModel starts loading the model for a locale. The previous
// session is terminated first; loading continues after the response.
func (s *Server) handleLoadModel(w http.ResponseWriter, r *http.Request) {
	lang := chi.URLParam(r, "lang")

	// The load outlives this request.
	sess, err := s.manager.Load(context.Background(), lang)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	go func() {
		err := sess.AwaitReady(2 * time.Minute)
		s.metrics.RecordModelLoad(sess.Model.Lang, err)
		rlog := logging.WithRecognizer(s.log, sess.ID, sess.Model.Lang, s.provider)
		if err != nil {
			rlog.Warn().Err(err).Msg("model load failed")
			return
		}
		rlog.Info().Msg("recognizer session ready")
	}()

	respondJSON(w, http.StatusAccepted, map[string]any{
		"sessionId": sess.ID,
		"model":     sess.Model,
		"state":     sess.State().String(),
	})
}

// handleGetSession reports the active recognizer session, or 404.
func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess := s.manager.Active()
	if sess == nil {
		respondError(w, http.StatusNotFound, "no recognizer session")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"sessionId": sess.ID,
		"model":     sess.Model,
		"state":     sess.State().String(),
	})
}

type transcriptCollector struct {
	doc *document.Store

	mu      sync.Mutex
	caption string
	finals  []string
}

func (c *transcriptCollector) OnCaption(text string) {
	c.mu.Lock()
	c.caption = text
	c.mu.Unlock()
}

func (c *transcriptCollector) OnTranscript(text string, confidence float64) {
	c.mu.Lock()
	c.finals = append(c.finals, text)
	c.mu.Unlock()
	_ = c.doc.InsertParagraph(text)
}

func (c *transcriptCollector) transcripts() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.finals))
	copy(out, c.finals)
	return out
}

// handleUploadAudio transcribes an uploaded audio file against the active
// recognizer session. Returns 409 until a model is loaded and ready.
func (s *Server) handleUploadAudio(w http.ResponseWriter, r *http.Request) {
	sess := s.manager.Active()
	if sess == nil || !sess.Ready() {
		respondError(w, http.StatusConflict, "no recognizer session is ready")
		return
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		respondError(w, http.StatusBadRequest, "invalid multipart body")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, http.StatusBadRequest, "missing file field")
		return
	}
	defer file.Close()

	if !recognizer.AllowedFile(header.Filename) {
		respondError(w, http.StatusUnsupportedMediaType,
			fmt.Sprintf("unsupported audio format %q", header.Filename))
		return
	}

	sink := &transcriptCollector{doc: s.doc}
	start := time.Now()
	err = s.manager.TranscribeFile(r.Context(), file, header.Filename, sink)
	s.metrics.RecordFileTranscription(err, time.Since(start).Seconds())
	if err != nil {
		switch {
		case errors.Is(err, recognizer.ErrUnsupportedFormat):
			respondError(w, http.StatusUnsupportedMediaType, err.Error())
		case errors.Is(err, recognizer.ErrSessionNotReady),
			errors.Is(err, recognizer.ErrTranscribeInProgress),
			errors.Is(err, recognizer.ErrSessionClosed):
			respondError(w, http.StatusConflict, err.Error())
		default:
			s.log.Error().Err(err).Str("file", header.Filename).Msg("file transcription failed")
			respondError(w, http.StatusInternalServerError, "transcription failed")
		}
		return
	}

	transcripts := sink.transcripts()
	respondJSON(w, http.StatusOK, map[string]any{
		"transcripts": transcripts,
		"inserted":    len(transcripts),
	})
}

type relayRequest struct {
	Type   string `json:"type"`
	Binary string `json:"binary"`
}

type relayCollector struct {
	mu         sync.Mutex
	texts      []string
	confidence float64
}

func (c *relayCollector) OnPartial(text string) {}
func (c *relayCollector) OnFinal(text string, confidence float64) {
	c.mu.Lock()
	c.texts = append(c.texts, text)
	c.confidence = confidence
	c.mu.Unlock()
}
func (c *relayCollector) OnEndOfUtterance() {}
func (c *relayCollector) OnError(err error) {}

func (c *relayCollector) result() (string, float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return strings.Join(c.texts, " "), c.confidence
}

// handleTranscribe relays an audio payload through the configured speech
// provider and returns the transcript with its confidence.
func (s *Server) handleTranscribe(w http.ResponseWriter, r *http.Request) {
	var req relayRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxUploadBytes)).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	audio, err := base64.StdEncoding.DecodeString(req.Binary)
	if err != nil {
		respondError(w, http.StatusBadRequest, "binary is not valid base64")
		return
	}
	if len(audio) == 0 {
		respondError(w, http.StatusBadRequest, "empty audio payload")
		return
	}

	sampleRate := s.sampleRate
	payload := audio
	// WAV payloads carry their own rate; strip everything up to the data
	// chunk before streaming.
	br := bytes.NewReader(audio)
	if format, err := recognizer.ParseWAVHeader(br); err == nil {
		sampleRate = int(format.SampleRate)
		payload = audio[len(audio)-br.Len():]
	}

	ctx := r.Context()
	adapter, err := s.factory(ctx, stt.Config{
		LanguageCode:   s.defaultLocale,
		SampleRateHz:   sampleRate,
		InterimResults: false,
	})
	if err != nil {
		s.log.Error().Err(err).Msg("failed to construct relay recognizer")
		respondError(w, http.StatusBadGateway, "speech provider unavailable")
		return
	}
	collector := &relayCollector{}
	if err := adapter.Start(ctx, collector); err != nil {
		adapter.Close()
		s.log.Error().Err(err).Msg("failed to start relay recognizer")
		respondError(w, http.StatusBadGateway, "speech provider unavailable")
		return
	}

	chunk := sampleRate * 2 / 10
	if chunk <= 0 {
		chunk = 3200
	}
	for off := 0; off < len(payload); off += chunk {
		end := off + chunk
		if end > len(payload) {
			end = len(payload)
		}
		if err := adapter.SendAudio(ctx, payload[off:end]); err != nil {
			adapter.Close()
			s.log.Warn().Err(err).Msg("relay send failed")
			respondError(w, http.StatusBadGateway, "speech provider unavailable")
			return
		}
	}
	if err := adapter.Close(); err != nil {
		s.log.Warn().Err(err).Msg("error closing relay recognizer")
	}
	if s.drain > 0 {
		select {
		case <-time.After(s.drain):
		case <-ctx.Done():
			return
		}
	}

	text, confidence := collector.result()
	respondJSON(w, http.StatusOK, map[string]any{
		"text":       text,
		"confidence": confidence,
	})
}
