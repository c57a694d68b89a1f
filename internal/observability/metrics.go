// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the indexer.
type Metrics struct {
	// Consumer metrics
	EventsProcessed *prometheus.CounterVec
	EventsDeduped   prometheus.Counter
	EventsSkipped   *prometheus.CounterVec
	EventErrors     *prometheus.CounterVec
	QueueDepth      *prometheus.GaugeVec

	// Stream metrics
	StreamReconnects  prometheus.Counter
	StreamParseErrors prometheus.Counter

	// Candle metrics
	CandleRebuilds       *prometheus.CounterVec
	CandleRebuildLatency prometheus.Histogram

	// Latency metrics
	EventApplyLatency *prometheus.HistogramVec

	// Health metrics
	LastEventTimestamp prometheus.Gauge
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "launchpad_indexer"
	}

	return &Metrics{
		// Consumer metrics
		EventsProcessed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "consumer",
			Name:      "events_processed_total",
			Help:      "Total number of events applied by kind",
		}, []string{"kind"}),
		EventsDeduped: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "consumer",
			Name:      "events_deduped_total",
			Help:      "Total number of redelivered events skipped by the dedup gate",
		}),
		EventsSkipped: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "consumer",
			Name:      "events_skipped_total",
			Help:      "Total number of events skipped by reason",
		}, []string{"kind", "reason"}),
		EventErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "consumer",
			Name:      "event_errors_total",
			Help:      "Total number of event processing errors by kind",
		}, []string{"kind"}),
		QueueDepth: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "consumer",
			Name:      "queue_depth",
			Help:      "Current number of events queued per worker partition",
		}, []string{"partition"}),

		// Stream metrics
		StreamReconnects: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "stream",
			Name:      "reconnects_total",
			Help:      "Total number of WebSocket reconnects",
		}),
		StreamParseErrors: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "stream",
			Name:      "parse_errors_total",
			Help:      "Total number of undecodable event envelopes",
		}),

		// Candle metrics
		CandleRebuilds: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "candles",
			Name:      "rebuilds_total",
			Help:      "Total number of candle rebuilds by status",
		}, []string{"status"}),
		CandleRebuildLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "candles",
			Name:      "rebuild_latency_seconds",
			Help:      "Candle rebuild latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}),

		// Latency metrics
		EventApplyLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "consumer",
			Name:      "event_apply_latency_seconds",
			Help:      "Event apply latency in seconds by kind",
			Buckets:   prometheus.DefBuckets,
		}, []string{"kind"}),

		// Health metrics
		LastEventTimestamp: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_event_timestamp",
			Help:      "Unix timestamp of the last event applied",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordEventProcessed increments the processed counter for a kind and bumps
// the last-event timestamp.
func RecordEventProcessed(kind string, unixSeconds float64) {
	DefaultMetrics.EventsProcessed.WithLabelValues(kind).Inc()
	DefaultMetrics.LastEventTimestamp.Set(unixSeconds)
}

// RecordEventDeduped increments the dedup counter.
func RecordEventDeduped() {
	DefaultMetrics.EventsDeduped.Inc()
}

// RecordEventSkipped increments the skip counter for a kind and reason.
func RecordEventSkipped(kind, reason string) {
	DefaultMetrics.EventsSkipped.WithLabelValues(kind, reason).Inc()
}

// RecordEventError increments the error counter for a kind.
func RecordEventError(kind string) {
	DefaultMetrics.EventErrors.WithLabelValues(kind).Inc()
}

// RecordEventApplyLatency records how long applying one event took.
func RecordEventApplyLatency(kind string, seconds float64) {
	DefaultMetrics.EventApplyLatency.WithLabelValues(kind).Observe(seconds)
}

// RecordCandleRebuild records one rebuild outcome.
func RecordCandleRebuild(status string, seconds float64) {
	DefaultMetrics.CandleRebuilds.WithLabelValues(status).Inc()
	DefaultMetrics.CandleRebuildLatency.Observe(seconds)
}

// RecordStreamReconnect increments the reconnect counter.
func RecordStreamReconnect() {
	DefaultMetrics.StreamReconnects.Inc()
}

// RecordStreamParseError increments the parse error counter.
func RecordStreamParseError() {
	DefaultMetrics.StreamParseErrors.Inc()
}
