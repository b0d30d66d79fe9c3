// Package config loads service configuration from environment variables.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is the root configuration for the session service.
type Config struct {
	Service       ServiceConfig
	Session       SessionConfig
	ASR           ASRConfig
	Translator    TranslatorConfig
	Kafka         KafkaConfig
	Observability ObservabilityConfig
}

// ServiceConfig identifies the service and its listen address.
type ServiceConfig struct {
	Principal string
	HTTPPort  string
}

// SessionConfig carries per-session reconciliation defaults. Source and
// target language can be overridden by the client's session start record.
type SessionConfig struct {
	SourceLang           string
	TargetLang           string
	EmitPartials         bool
	FinalizeWait         time.Duration // 0 commits immediately
	AccumulateMinOverlap int
	AccumulateMaxOverlap int
	ReplaceRatio         float64
	DispatchQueueSize    int
	DrainTimeout         time.Duration
}

// ASRConfig selects and tunes the speech recognition adapter.
type ASRConfig struct {
	Provider             string // mock, google, none
	LanguageCode         string
	SampleRateHz         int
	InterimResults       bool
	AudioEncoding        string
	VoiceActivityTimeout time.Duration // 0 leaves the engine default
}

// TranslatorConfig selects and tunes the translation capability.
type TranslatorConfig struct {
	Provider string // openai, none
	Model    string
	APIKey   string
	Timeout  time.Duration
}

// KafkaConfig controls the event firehose publisher.
type KafkaConfig struct {
	Enabled          bool
	Brokers          []string
	TopicTranscript  string
	TopicTranslation string
	Principal        string
}

// ObservabilityConfig controls logging and the metrics server.
type ObservabilityConfig struct {
	LogLevel    string
	MetricsPort string
}

// Load reads configuration from the environment, applying defaults.
func Load() *Config {
	principal := envOrDefault("SERVICE_PRINCIPAL", "svc-exbabel-session")

	return &Config{
		Service: ServiceConfig{
			Principal: principal,
			HTTPPort:  envOrDefault("HTTP_PORT", "8080"),
		},
		Session: SessionConfig{
			SourceLang:           envOrDefault("SOURCE_LANG", "en"),
			TargetLang:           envOrDefault("TARGET_LANG", "en"),
			EmitPartials:         envOrDefaultBool("EMIT_PARTIALS", true),
			FinalizeWait:         envOrDefaultDuration("FINALIZE_WAIT", 0),
			AccumulateMinOverlap: envOrDefaultInt("OVERLAP_MIN_CHARS", 21),
			AccumulateMaxOverlap: envOrDefaultInt("OVERLAP_MAX_CHARS", 100),
			ReplaceRatio:         envOrDefaultFloat("REPLACE_LENGTH_RATIO", 1.5),
			DispatchQueueSize:    envOrDefaultInt("DISPATCH_QUEUE_SIZE", 32),
			DrainTimeout:         envOrDefaultDuration("DRAIN_TIMEOUT", 5*time.Second),
		},
		ASR: ASRConfig{
			Provider:             envOrDefault("ASR_PROVIDER", "mock"),
			LanguageCode:         envOrDefault("ASR_LANGUAGE_CODE", "en-US"),
			SampleRateHz:         envOrDefaultInt("ASR_SAMPLE_RATE_HZ", 16000),
			InterimResults:       envOrDefaultBool("ASR_INTERIM_RESULTS", true),
			AudioEncoding:        envOrDefault("ASR_AUDIO_ENCODING", "LINEAR16"),
			VoiceActivityTimeout: envOrDefaultDuration("ASR_VOICE_ACTIVITY_TIMEOUT", 0),
		},
		Translator: TranslatorConfig{
			Provider: envOrDefault("TRANSLATOR_PROVIDER", "openai"),
			Model:    envOrDefault("TRANSLATOR_MODEL", "gpt-4o"),
			APIKey:   os.Getenv("OPENAI_API_KEY"),
			Timeout:  envOrDefaultDuration("TRANSLATOR_TIMEOUT", 15*time.Second),
		},
		Kafka: KafkaConfig{
			Enabled:          envOrDefaultBool("KAFKA_ENABLED", false),
			Brokers:          strings.Split(envOrDefault("KAFKA_BROKERS", "localhost:9092"), ","),
			TopicTranscript:  envOrDefault("KAFKA_TOPIC_TRANSCRIPT", "session.transcript.final"),
			TopicTranslation: envOrDefault("KAFKA_TOPIC_TRANSLATION", "session.translation"),
			Principal:        envOrDefault("KAFKA_PRINCIPAL", principal),
		},
		Observability: ObservabilityConfig{
			LogLevel:    envOrDefault("LOG_LEVEL", "info"),
			MetricsPort: envOrDefault("METRICS_PORT", "9090"),
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

func envOrDefaultBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
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

func envOrDefaultFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}
