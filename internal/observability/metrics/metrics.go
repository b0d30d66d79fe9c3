// Package metrics provides Prometheus metrics for observability.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "exbabel"

// Metrics holds all Prometheus metrics for the service.
type Metrics struct {
	// Session metrics
	SessionsTotal   prometheus.Counter
	SessionsActive  prometheus.Gauge
	SessionsClosed  *prometheus.CounterVec
	SessionDuration prometheus.Histogram

	// Transcript event metrics
	EventsPartial prometheus.Counter
	EventsFinal   prometheus.Counter
	EventsDropped *prometheus.CounterVec

	// Reconciliation metrics
	CommitsTotal       prometheus.Counter
	DuplicatesSkipped  prometheus.Counter
	TruncatedRecovered prometheus.Counter
	PartialMerges      prometheus.Counter
	Accumulations      *prometheus.CounterVec

	// Deferred finalization metrics
	PendingScheduled  prometheus.Counter
	PendingSuperseded prometheus.Counter
	PendingExpired    prometheus.Counter

	// Translation metrics
	Translations       *prometheus.CounterVec
	TranslationLatency prometheus.Histogram

	// Emit metrics
	MessagesEmitted *prometheus.CounterVec
	SendErrors      prometheus.Counter

	// Kafka publish metrics
	KafkaPublishTotal   *prometheus.CounterVec
	KafkaPublishErrors  *prometheus.CounterVec
	KafkaPublishLatency *prometheus.HistogramVec

	// ASR metrics
	ASRErrors     *prometheus.CounterVec
	ASRUtterances prometheus.Counter

	// Audio metrics
	AudioBytesReceived  prometheus.Counter
	AudioFramesReceived prometheus.Counter

	// HTTP metrics
	HTTPRequestDuration *prometheus.HistogramVec
}

// DefaultMetrics is the global metrics instance.
var DefaultMetrics = NewMetrics()

// NewMetrics creates and registers all Prometheus metrics.
func NewMetrics() *Metrics {
	return &Metrics{
		// Session metrics
		SessionsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_total",
			Help:      "Total number of sessions started",
		}),
		SessionsActive: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sessions_active",
			Help:      "Number of currently active sessions",
		}),
		SessionsClosed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_closed_total",
			Help:      "Total number of sessions closed",
		}, []string{"reason"}),
		SessionDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "session_duration_seconds",
			Help:      "Duration of sessions in seconds",
			Buckets:   []float64{0.5, 1, 5, 15, 30, 60, 120, 300, 600, 1800},
		}),

		// Transcript event metrics
		EventsPartial: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_partial_total",
			Help:      "Total number of partial transcript events received",
		}),
		EventsFinal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_final_total",
			Help:      "Total number of final transcript events received",
		}),
		EventsDropped: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_dropped_total",
			Help:      "Total number of inbound events dropped",
		}, []string{"reason"}),

		// Reconciliation metrics
		CommitsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commits_total",
			Help:      "Total number of reconciled transcripts committed",
		}),
		DuplicatesSkipped: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "duplicates_skipped_total",
			Help:      "Total number of duplicate finals discarded",
		}),
		TruncatedRecovered: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "truncated_finals_recovered_total",
			Help:      "Total number of truncated finals replaced by a longer partial",
		}),
		PartialMerges: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "partial_merges_total",
			Help:      "Total number of trailing partials merged into a final",
		}),
		Accumulations: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "accumulations_total",
			Help:      "Total number of final accumulations by strategy",
		}, []string{"strategy"}),

		// Deferred finalization metrics
		PendingScheduled: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pending_finalizations_scheduled_total",
			Help:      "Total number of deferred finalizations scheduled",
		}),
		PendingSuperseded: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pending_finalizations_superseded_total",
			Help:      "Total number of pending finalizations cancelled by a newer final",
		}),
		PendingExpired: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pending_finalizations_expired_total",
			Help:      "Total number of pending finalizations committed at deadline",
		}),

		// Translation metrics
		Translations: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "translations_total",
			Help:      "Total number of translation dispatches by result",
		}, []string{"result"}),
		TranslationLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "translation_latency_seconds",
			Help:      "Translation call latency in seconds",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10},
		}),

		// Emit metrics
		MessagesEmitted: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_emitted_total",
			Help:      "Total number of outbound messages emitted",
		}, []string{"kind"}),
		SendErrors: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "send_errors_total",
			Help:      "Total number of transport send failures",
		}),

		// Kafka publish metrics
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

		// ASR metrics
		ASRErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "asr_errors_total",
			Help:      "Total number of ASR adapter errors",
		}, []string{"provider", "error_type"}),
		ASRUtterances: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "asr_utterances_total",
			Help:      "Total number of utterance boundaries detected",
		}),

		// Audio metrics
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

		// HTTP metrics
		HTTPRequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 5, 30, 60, 300},
		}, []string{"path", "code"}),
	}
}

// RecordSessionStart records a new session starting.
func (m *Metrics) RecordSessionStart() {
	m.SessionsTotal.Inc()
	m.SessionsActive.Inc()
}

// RecordSessionEnd records a session ending.
func (m *Metrics) RecordSessionEnd(reason string, durationSeconds float64) {
	m.SessionsActive.Dec()
	m.SessionsClosed.WithLabelValues(reason).Inc()
	m.SessionDuration.Observe(durationSeconds)
}

// RecordPartialEvent records a partial transcript event received.
func (m *Metrics) RecordPartialEvent() {
	m.EventsPartial.Inc()
}

// RecordFinalEvent records a final transcript event received.
func (m *Metrics) RecordFinalEvent() {
	m.EventsFinal.Inc()
}

// RecordEventDropped records an inbound event being dropped.
func (m *Metrics) RecordEventDropped(reason string) {
	m.EventsDropped.WithLabelValues(reason).Inc()
}

// RecordCommit records a reconciled transcript being committed.
func (m *Metrics) RecordCommit() {
	m.CommitsTotal.Inc()
}

// RecordDuplicateSkipped records a duplicate final being discarded.
func (m *Metrics) RecordDuplicateSkipped() {
	m.DuplicatesSkipped.Inc()
}

// RecordTruncatedRecovered records a truncated final replaced by a longer partial.
func (m *Metrics) RecordTruncatedRecovered() {
	m.TruncatedRecovered.Inc()
}

// RecordPartialMerge records a trailing partial merged into a final.
func (m *Metrics) RecordPartialMerge() {
	m.PartialMerges.Inc()
}

// RecordAccumulation records a final accumulation by strategy.
func (m *Metrics) RecordAccumulation(strategy string) {
	m.Accumulations.WithLabelValues(strategy).Inc()
}

// RecordPendingScheduled records a deferred finalization being scheduled.
func (m *Metrics) RecordPendingScheduled() {
	m.PendingScheduled.Inc()
}

// RecordPendingSuperseded records a pending finalization cancelled by a newer final.
func (m *Metrics) RecordPendingSuperseded() {
	m.PendingSuperseded.Inc()
}

// RecordPendingExpired records a pending finalization committed at deadline.
func (m *Metrics) RecordPendingExpired() {
	m.PendingExpired.Inc()
}

// RecordTranslation records a translation dispatch outcome.
func (m *Metrics) RecordTranslation(result string, latencySeconds float64) {
	m.Translations.WithLabelValues(result).Inc()
	if latencySeconds > 0 {
		m.TranslationLatency.Observe(latencySeconds)
	}
}

// RecordMessageEmitted records an outbound message emitted.
func (m *Metrics) RecordMessageEmitted(kind string) {
	m.MessagesEmitted.WithLabelValues(kind).Inc()
}

// RecordSendError records a transport send failure.
func (m *Metrics) RecordSendError() {
	m.SendErrors.Inc()
}

// RecordKafkaPublish records a Kafka publish attempt.
func (m *Metrics) RecordKafkaPublish(topic, eventType string, err error, latencySeconds float64) {
	m.KafkaPublishTotal.WithLabelValues(topic, eventType).Inc()
	m.KafkaPublishLatency.WithLabelValues(topic).Observe(latencySeconds)
	if err != nil {
		m.KafkaPublishErrors.WithLabelValues(topic, eventType).Inc()
	}
}

// RecordASRError records an ASR adapter error.
func (m *Metrics) RecordASRError(provider, errorType string) {
	m.ASRErrors.WithLabelValues(provider, errorType).Inc()
}

// RecordUtterance records an utterance boundary detection.
func (m *Metrics) RecordUtterance() {
	m.ASRUtterances.Inc()
}

// RecordAudioReceived records audio bytes and frames received.
func (m *Metrics) RecordAudioReceived(bytes int) {
	m.AudioBytesReceived.Add(float64(bytes))
	m.AudioFramesReceived.Inc()
}

// RecordHTTPRequest records a completed HTTP request.
func (m *Metrics) RecordHTTPRequest(path, code string, durationSeconds float64) {
	m.HTTPRequestDuration.WithLabelValues(path, code).Observe(durationSeconds)
}
