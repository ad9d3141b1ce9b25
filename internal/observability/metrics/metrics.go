// Package metrics provides Prometheus metrics for observability.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "voice_dictation"

// Metrics holds all Prometheus metrics for the service.
type Metrics struct {
	// Dictation session metrics
	SessionsTotal   prometheus.Counter
	SessionsActive  prometheus.Gauge
	SessionDuration prometheus.Histogram

	// Transcript metrics
	TranscriptsPartial prometheus.Counter
	TranscriptsFinal   prometheus.Counter
	Utterances         prometheus.Counter

	// Dispatch metrics
	CommandsDispatched *prometheus.CounterVec
	ParagraphsInserted prometheus.Counter

	// Audio metrics
	AudioBytesReceived  prometheus.Counter
	AudioFramesReceived prometheus.Counter

	// Model lifecycle metrics
	ModelLoads *prometheus.CounterVec

	// File transcription metrics
	FileTranscriptions        *prometheus.CounterVec
	FileTranscriptionDuration prometheus.Histogram

	// Document metrics
	DocumentUpdates prometheus.Counter
	AutosaveWrites  *prometheus.CounterVec

	// Kafka publish metrics
	KafkaPublishTotal   *prometheus.CounterVec
	KafkaPublishErrors  *prometheus.CounterVec
	KafkaPublishLatency *prometheus.HistogramVec

	// STT metrics
	STTErrors *prometheus.CounterVec

	// Backpressure metrics
	SessionLimitExceeded *prometheus.CounterVec
}

// DefaultMetrics is the global metrics instance.
var DefaultMetrics = NewMetrics()

// NewMetrics creates and registers all Prometheus metrics.
func NewMetrics() *Metrics {
	return &Metrics{
		SessionsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_total",
			Help:      "Total number of dictation sessions started",
		}),
		SessionsActive: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sessions_active",
			Help:      "Number of currently active dictation sessions",
		}),
		SessionDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "session_duration_seconds",
			Help:      "Duration of dictation sessions in seconds",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 300, 600},
		}),

		TranscriptsPartial: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transcripts_partial_total",
			Help:      "Total number of partial transcripts received",
		}),
		TranscriptsFinal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transcripts_final_total",
			Help:      "Total number of final transcripts received",
		}),
		Utterances: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "utterances_total",
			Help:      "Total number of utterance boundaries detected",
		}),

		CommandsDispatched: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commands_dispatched_total",
			Help:      "Total number of voice commands executed",
		}, []string{"phrase"}),
		ParagraphsInserted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "paragraphs_inserted_total",
			Help:      "Total number of dictated paragraphs appended to the document",
		}),

		AudioBytesReceived: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audio_bytes_received_total",
			Help:      "Total audio bytes received",
		}),
		AudioFramesReceived: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audio_frames_received_total",
			Help:      "Total audio frames received",
		}),

		ModelLoads: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "model_loads_total",
			Help:      "Total number of acoustic model loads",
		}, []string{"lang", "status"}),

		FileTranscriptions: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "file_transcriptions_total",
			Help:      "Total number of uploaded file transcriptions",
		}, []string{"status"}),
		FileTranscriptionDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "file_transcription_duration_seconds",
			Help:      "Duration of file transcriptions in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		}),

		DocumentUpdates: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "document_updates_total",
			Help:      "Total number of committed document updates",
		}),
		AutosaveWrites: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "autosave_writes_total",
			Help:      "Total number of autosave snapshot writes",
		}, []string{"status"}),

		KafkaPublishTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "kafka_publish_total",
			Help:      "Total number of Kafka messages published",
		}, []string{"topic", "event_type"}),
		KafkaPublishErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "kafka_publish_errors_total",
			Help:      "Total number of Kafka publish errors",
		}, []string{"topic", "event_type"}),
		KafkaPublishLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "kafka_publish_latency_seconds",
			Help:      "Kafka publish latency in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"topic"}),

		STTErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stt_errors_total",
			Help:      "Total number of recognizer errors",
		}, []string{"provider", "error_type"}),

		SessionLimitExceeded: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_limit_exceeded_total",
			Help:      "Total number of times dictation session limits were exceeded",
		}, []string{"limit_type"}),
	}
}

// RecordSessionStart records a new dictation session starting.
func (m *Metrics) RecordSessionStart() {
	m.SessionsTotal.Inc()
	m.SessionsActive.Inc()
}

// RecordSessionEnd records a dictation session ending.
func (m *Metrics) RecordSessionEnd(durationSeconds float64) {
	m.SessionsActive.Dec()
	m.SessionDuration.Observe(durationSeconds)
}

// RecordPartialTranscript records a partial transcript received.
func (m *Metrics) RecordPartialTranscript() {
	m.TranscriptsPartial.Inc()
}

// RecordFinalTranscript records a final transcript received.
func (m *Metrics) RecordFinalTranscript() {
	m.TranscriptsFinal.Inc()
}

// RecordUtterance records an utterance boundary detection.
func (m *Metrics) RecordUtterance() {
	m.Utterances.Inc()
}

// RecordCommand records an executed voice command.
func (m *Metrics) RecordCommand(phrase string) {
	m.CommandsDispatched.WithLabelValues(phrase).Inc()
}

// RecordParagraphInserted records a dictated paragraph committed to the document.
func (m *Metrics) RecordParagraphInserted() {
	m.ParagraphsInserted.Inc()
}

// RecordAudioReceived records audio bytes and frames received.
func (m *Metrics) RecordAudioReceived(bytes int) {
	m.AudioBytesReceived.Add(float64(bytes))
	m.AudioFramesReceived.Inc()
}

// RecordModelLoad records an acoustic model load attempt.
func (m *Metrics) RecordModelLoad(lang string, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.ModelLoads.WithLabelValues(lang, status).Inc()
}

// RecordFileTranscription records an uploaded file transcription.
func (m *Metrics) RecordFileTranscription(err error, durationSeconds float64) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.FileTranscriptions.WithLabelValues(status).Inc()
	m.FileTranscriptionDuration.Observe(durationSeconds)
}

// RecordDocumentUpdate records a committed document update.
func (m *Metrics) RecordDocumentUpdate() {
	m.DocumentUpdates.Inc()
}

// RecordAutosave records an autosave snapshot write.
func (m *Metrics) RecordAutosave(err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.AutosaveWrites.WithLabelValues(status).Inc()
}

// RecordKafkaPublish records a Kafka publish attempt.
func (m *Metrics) RecordKafkaPublish(topic, eventType string, err error, latencySeconds float64) {
	m.KafkaPublishTotal.WithLabelValues(topic, eventType).Inc()
	m.KafkaPublishLatency.WithLabelValues(topic).Observe(latencySeconds)
	if err != nil {
		m.KafkaPublishErrors.WithLabelValues(topic, eventType).Inc()
	}
}

// RecordSTTError records a recognizer error.
func (m *Metrics) RecordSTTError(provider, errorType string) {
	m.STTErrors.WithLabelValues(provider, errorType).Inc()
}

// RecordLimitExceeded records when a dictation session limit is exceeded.
func (m *Metrics) RecordLimitExceeded(limitType string) {
	m.SessionLimitExceeded.WithLabelValues(limitType).Inc()
}
