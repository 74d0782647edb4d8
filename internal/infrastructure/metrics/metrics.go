package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/iho/fundsbook/internal/domain"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Ledger metrics
	EntriesAdded     *prometheus.CounterVec
	LedgerDuration   prometheus.Histogram
	LedgerSize       prometheus.Histogram
	LedgerStreams    prometheus.Gauge
	LedgerStreamSent prometheus.Counter

	// API metrics
	HTTPRequests      *prometheus.CounterVec
	HTTPDuration      *prometheus.HistogramVec
	IdempotentReplays prometheus.Counter

	// Authentication metrics
	AuthAttempts *prometheus.CounterVec

	// Rate limiting metrics
	RateLimitHits prometheus.Counter

	// Outbox metrics
	OutboxPublished *prometheus.CounterVec
}

// New creates all Prometheus metrics and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		// Ledger metrics
		EntriesAdded: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fundsbook_entries_added_total",
				Help: "Total entries recorded by kind",
			},
			[]string{"kind"},
		),
		LedgerDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "fundsbook_ledger_compute_duration_seconds",
			Help:    "Time spent computing totals and running balances",
			Buckets: []float64{.00001, .0001, .001, .01, .1, 1},
		}),
		LedgerSize: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "fundsbook_ledger_entries",
			Help:    "Number of entries per computed ledger",
			Buckets: prometheus.ExponentialBuckets(1, 4, 8),
		}),
		LedgerStreams: factory.NewGauge(prometheus.GaugeOpts{
			Name: "fundsbook_ledger_streams",
			Help: "Current number of live ledger streams",
		}),
		LedgerStreamSent: factory.NewCounter(prometheus.CounterOpts{
			Name: "fundsbook_ledger_stream_snapshots_total",
			Help: "Total ledger snapshots pushed to live streams",
		}),

		// API metrics
		HTTPRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fundsbook_http_requests_total",
				Help: "Total HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "fundsbook_http_duration_seconds",
				Help:    "HTTP request duration",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		IdempotentReplays: factory.NewCounter(prometheus.CounterOpts{
			Name: "fundsbook_idempotent_replays_total",
			Help: "Total responses replayed for a repeated idempotency key",
		}),

		// Authentication metrics
		AuthAttempts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fundsbook_auth_attempts_total",
				Help: "Total authentication attempts",
			},
			[]string{"operation", "status"},
		),

		// Rate limiting metrics
		RateLimitHits: factory.NewCounter(prometheus.CounterOpts{
			Name: "fundsbook_rate_limit_hits_total",
			Help: "Total requests rejected by the rate limiter",
		}),

		// Outbox metrics
		OutboxPublished: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fundsbook_outbox_events_total",
				Help: "Total outbox events handled by the publisher",
			},
			[]string{"event_type", "status"},
		),
	}
}

// EntryAdded implements usecase.MetricsRecorder. Custom types share one
// label value.
func (m *Metrics) EntryAdded(entryType domain.EntryType) {
	kind := "custom"
	switch entryType {
	case domain.EntryTypeIn:
		kind = "in"
	case domain.EntryTypeOut:
		kind = "out"
	}
	m.EntriesAdded.WithLabelValues(kind).Inc()
}

// LedgerComputed implements usecase.MetricsRecorder.
func (m *Metrics) LedgerComputed(entries int, duration time.Duration) {
	m.LedgerSize.Observe(float64(entries))
	m.LedgerDuration.Observe(duration.Seconds())
}

// AuthAttempt implements usecase.MetricsRecorder.
func (m *Metrics) AuthAttempt(operation string, success bool) {
	m.AuthAttempts.WithLabelValues(operation, status(success)).Inc()
}

// EventPublished records the outcome of publishing one outbox event.
func (m *Metrics) EventPublished(eventType string, success bool) {
	m.OutboxPublished.WithLabelValues(eventType, status(success)).Inc()
}

// StreamOpened counts a live ledger stream as open.
func (m *Metrics) StreamOpened() {
	m.LedgerStreams.Inc()
}

// StreamClosed counts a live ledger stream as closed.
func (m *Metrics) StreamClosed() {
	m.LedgerStreams.Dec()
}

// SnapshotStreamed records one ledger snapshot sent to a stream.
func (m *Metrics) SnapshotStreamed() {
	m.LedgerStreamSent.Inc()
}

// RequestObserved records one served HTTP request. path must already be a
// route pattern.
func (m *Metrics) RequestObserved(method, path string, statusCode int, duration time.Duration) {
	m.HTTPRequests.WithLabelValues(method, path, strconv.Itoa(statusCode)).Inc()
	m.HTTPDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// IdempotentReplay records a response served from the idempotency store.
func (m *Metrics) IdempotentReplay() {
	m.IdempotentReplays.Inc()
}

// RateLimited records a request rejected by the rate limiter.
func (m *Metrics) RateLimited() {
	m.RateLimitHits.Inc()
}

func status(success bool) string {
	if success {
		return "success"
	}
	return "failure"
}
