package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/marienilba/voice-dictation/internal/api/httpapi"
	"github.com/marienilba/voice-dictation/internal/config"
	"github.com/marienilba/voice-dictation/internal/dictation"
	"github.com/marienilba/voice-dictation/internal/document"
	"github.com/marienilba/voice-dictation/internal/events"
	"github.com/marienilba/voice-dictation/internal/observability"
	"github.com/marienilba/voice-dictation/internal/observability/logging"
	"github.com/marienilba/voice-dictation/internal/recognizer"
	"github.com/marienilba/voice-dictation/internal/storage"
	"github.com/marienilba/voice-dictation/internal/stt"
	"github.com/marienilba/voice-dictation/internal/stt/deepgram"
	"github.com/marienilba/voice-dictation/internal/stt/google"
	"github.com/marienilba/voice-dictation/internal/stt/mock"
	"github.com/marienilba/voice-dictation/internal/toolbar"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.Load()
	logging.Init(logging.Config{
		Level:      cfg.Observability.LogLevel,
		Format:     cfg.Observability.LogFormat,
		TimeFormat: time.RFC3339,
	})
	log := logging.WithComponent("server")

	factory := sttFactory(cfg.STT.Provider)

	// Kafka publisher with separate topics for partial and final transcripts
	publisher := events.New(&events.Config{
		Enabled:      cfg.Kafka.Enabled,
		Brokers:      cfg.Kafka.Brokers,
		TopicPartial: cfg.Kafka.TopicPartial,
		TopicFinal:   cfg.Kafka.TopicFinal,
		Source:       cfg.Kafka.Source,
	})
	defer publisher.Close()

	doc := document.NewStore()
	var snapshots storage.SnapshotStore
	if cfg.Document.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.Document.RedisAddr})
		snapshots = storage.NewRedisStore(client)
		log.Info().Str("addr", cfg.Document.RedisAddr).Msg("using Redis snapshot store")
	} else {
		snapshots = storage.NewFileStore(cfg.Document.SnapshotPath)
		log.Info().Str("path", cfg.Document.SnapshotPath).Msg("using file snapshot store")
	}
	if err := storage.Restore(context.Background(), doc, snapshots, log); err != nil {
		log.Warn().Err(err).Msg("failed to restore snapshot, starting empty")
	}
	saver := storage.NewAutosaver(doc, snapshots, cfg.Document.AutosaveDebounce, log)
	defer saver.Close()

	tb := toolbar.NewObserver(doc)
	defer tb.Close()

	manager := recognizer.NewManager(factory, cfg.Models.AssetsDir, cfg.STT.SampleRateHz, log)
	defer manager.Close()

	api := httpapi.New(httpapi.Config{
		Doc:       doc,
		Toolbar:   tb,
		Manager:   manager,
		Factory:   factory,
		Publisher: publisher,
		Limits: dictation.Limits{
			MaxAudioBytes: cfg.SessionLimits.MaxAudioBytes,
			MaxDuration:   cfg.SessionLimits.MaxDuration,
			MaxPartials:   cfg.SessionLimits.MaxPartials,
		},
		Provider:      cfg.STT.Provider,
		SampleRateHz:  cfg.STT.SampleRateHz,
		DefaultLocale: cfg.STT.DefaultLocale,
		Log:           log,
	})

	server := &http.Server{
		Addr:         ":" + cfg.Service.HTTPPort,
		Handler:      httpapi.NewRouter(api),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 5 * time.Minute, // file transcriptions stream back slowly
		IdleTimeout:  120 * time.Second,
	}

	obs := observability.NewServer(":"+cfg.Service.MetricsPort, nil)
	obs.Start()

	go func() {
		log.Info().
			Str("service", cfg.Service.Name).
			Str("addr", server.Addr).
			Str("sttProvider", cfg.STT.Provider).
			Msg("dictation service started")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("http serve failed")
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	log.Info().Msg("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("http shutdown failed")
	}
	if err := obs.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("observability shutdown failed")
	}
}

func sttFactory(provider string) stt.Factory {
	switch provider {
	case "google":
		return google.Factory()
	case "deepgram":
		return deepgram.Factory()
	default:
		return mock.Factory()
	}
}
