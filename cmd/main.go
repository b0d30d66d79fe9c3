package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/jkang1643/Exbabel/internal/api/ws"
	"github.com/jkang1643/Exbabel/internal/app"
	"github.com/jkang1643/Exbabel/internal/config"
	"github.com/jkang1643/Exbabel/internal/events"
	httpapi "github.com/jkang1643/Exbabel/internal/http"
	"github.com/jkang1643/Exbabel/internal/observability"
	"github.com/jkang1643/Exbabel/internal/observability/metrics"
	"github.com/jkang1643/Exbabel/internal/service/translate"
	"github.com/jkang1643/Exbabel/internal/service/translate/openai"
)

func main() {
	cfg := config.Load()

	application := app.New(cfg)
	if err := application.Start(); err != nil {
		log.Fatal().Err(err).Msg("Application failed to start")
	}

	// Event firehose for committed transcripts and emitted translations
	publisher := events.New(&events.Config{
		Enabled:          cfg.Kafka.Enabled,
		Brokers:          cfg.Kafka.Brokers,
		TopicTranscript:  cfg.Kafka.TopicTranscript,
		TopicTranslation: cfg.Kafka.TopicTranslation,
		Principal:        cfg.Kafka.Principal,
	})
	defer publisher.Close()

	translator := newTranslator(cfg)

	sessions := ws.NewHandler(cfg, translator, publisher)
	router := httpapi.NewRouter(sessions, metrics.DefaultMetrics, application.StartupTime)

	// Prometheus metrics on a separate port
	metricsServer := observability.NewServer(":" + cfg.Observability.MetricsPort)
	metricsServer.Start()

	server := &http.Server{
		Addr:              ":" + cfg.Service.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Service.HTTPPort).Msg("Session service started")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP serve failed")
		}
	}()
	metricsServer.SetReady()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	log.Info().Msg("Shutting down session service")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown failed")
	}
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Metrics server shutdown failed")
	}
	application.Shutdown()
}

// newTranslator builds the configured translator. A nil translator makes
// every session pass committed text through untranslated.
func newTranslator(cfg *config.Config) translate.Translator {
	switch cfg.Translator.Provider {
	case "openai":
		if cfg.Translator.APIKey == "" {
			log.Warn().Msg("OPENAI_API_KEY not set, translations will pass through untranslated")
			return nil
		}
		return openai.New(openai.Config{
			APIKey:  cfg.Translator.APIKey,
			Model:   cfg.Translator.Model,
			Timeout: cfg.Translator.Timeout,
		})
	default:
		return nil
	}
}
