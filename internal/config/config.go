// Package config loads service configuration from the environment.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is the full service configuration.
type Config struct {
	Service       ServiceConfig
	STT           STTConfig
	Models        ModelsConfig
	Document      DocumentConfig
	SessionLimits SessionLimitsConfig
	Kafka         KafkaConfig
	Observability ObservabilityConfig
}

// ServiceConfig identifies the service and its listen ports.
type ServiceConfig struct {
	Name        string
	HTTPPort    string
	MetricsPort string
}

// STTConfig selects and tunes the speech recognizer.
type STTConfig struct {
	Provider       string // mock, google, deepgram
	SampleRateHz   int
	InterimResults bool
	DefaultLocale  string
}

// ModelsConfig locates the offline acoustic model archives.
type ModelsConfig struct {
	AssetsDir string
}

// DocumentConfig controls snapshot persistence.
type DocumentConfig struct {
	SnapshotPath     string
	RedisAddr        string // empty means file-backed snapshots
	AutosaveDebounce time.Duration
}

// SessionLimitsConfig defines safety guardrails for dictation sessions.
type SessionLimitsConfig struct {
	MaxAudioBytes int64
	MaxDuration   time.Duration
	MaxPartials   int
}

// KafkaConfig controls transcript event publishing.
type KafkaConfig struct {
	Enabled      bool
	Brokers      []string
	TopicPartial string
	TopicFinal   string
	Source       string
}

// ObservabilityConfig controls logging output.
type ObservabilityConfig struct {
	LogLevel  string
	LogFormat string
}

// Load reads the configuration from the environment, falling back to
// defaults for anything unset or unparsable.
func Load() *Config {
	serviceName := envOrDefault("SERVICE_NAME", "voice-dictation")

	return &Config{
		Service: ServiceConfig{
			Name:        serviceName,
			HTTPPort:    envOrDefault("HTTP_PORT", "8080"),
			MetricsPort: envOrDefault("METRICS_PORT", "9090"),
		},
		STT: STTConfig{
			Provider:       envOrDefault("STT_PROVIDER", "mock"),
			SampleRateHz:   envOrDefaultInt("STT_SAMPLE_RATE_HZ", 16000),
			InterimResults: envOrDefaultBool("STT_INTERIM_RESULTS", true),
			DefaultLocale:  envOrDefault("STT_DEFAULT_LOCALE", "en-US"),
		},
		Models: ModelsConfig{
			AssetsDir: envOrDefault("MODEL_ASSETS_DIR", "assets/models"),
		},
		Document: DocumentConfig{
			SnapshotPath:     envOrDefault("SNAPSHOT_PATH", "data/snapshot.json"),
			RedisAddr:        envOrDefault("REDIS_ADDR", ""),
			AutosaveDebounce: envOrDefaultDuration("AUTOSAVE_DEBOUNCE", 500*time.Millisecond),
		},
		SessionLimits: SessionLimitsConfig{
			MaxAudioBytes: envOrDefaultInt64("SESSION_MAX_AUDIO_BYTES", 50*1024*1024),
			MaxDuration:   envOrDefaultDuration("SESSION_MAX_DURATION", 30*time.Minute),
			MaxPartials:   envOrDefaultInt("SESSION_MAX_PARTIALS", 500),
		},
		Kafka: KafkaConfig{
			Enabled:      envOrDefaultBool("KAFKA_ENABLED", false),
			Brokers:      envList("KAFKA_BROKERS"),
			TopicPartial: envOrDefault("KAFKA_TOPIC_PARTIAL", "dictation.transcript.partial"),
			TopicFinal:   envOrDefault("KAFKA_TOPIC_FINAL", "dictation.transcript.final"),
			Source:       envOrDefault("KAFKA_SOURCE", serviceName),
		},
		Observability: ObservabilityConfig{
			LogLevel:  envOrDefault("LOG_LEVEL", "info"),
			LogFormat: envOrDefault("LOG_FORMAT", "json"),
		},
	}
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envOrDefaultInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envOrDefaultInt64(key string, def int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return def
}

func envOrDefaultBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(strings.ToLower(v)); err == nil {
			return b
		}
	}
	return def
}

func envOrDefaultDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func envList(key string) []string {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
