// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Ledger metrics
	ConfigsInitialized prometheus.Counter
	UsersInitialized   prometheus.Counter
	TradesLogged       prometheus.Counter
	TradeLogFailures   *prometheus.CounterVec
	SequenceConflicts  prometheus.Counter

	// Event metrics
	EventsEmitted  prometheus.Counter
	EventsDropped  prometheus.Counter
	EventQueueSize prometheus.Gauge
	EventsArchived prometheus.Counter
	ArchiveErrors  prometheus.Counter
	WSSubscribers  prometheus.Gauge

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "swap_ledger"
	}

	return &Metrics{
		ConfigsInitialized: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "configs_initialized_total",
			Help:      "Total number of config records created",
		}),
		UsersInitialized: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "users_initialized_total",
			Help:      "Total number of user state records created",
		}),
		TradesLogged: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "trades_logged_total",
			Help:      "Total number of trade records written",
		}),
		TradeLogFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "trade_log_failures_total",
			Help:      "Total number of rejected log_trade calls by reason",
		}, []string{"reason"}),
		SequenceConflicts: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "sequence_conflicts_total",
			Help:      "Total number of trade logs lost to a concurrent writer",
		}),

		EventsEmitted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "events",
			Name:      "emitted_total",
			Help:      "Total number of trade events emitted",
		}),
		EventsDropped: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "events",
			Name:      "dropped_total",
			Help:      "Total number of trade events dropped by a full emitter buffer",
		}),
		EventQueueSize: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "events",
			Name:      "queue_size",
			Help:      "Current number of events buffered for archiving",
		}),
		EventsArchived: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "events",
			Name:      "archived_total",
			Help:      "Total number of trade events written to the archive",
		}),
		ArchiveErrors: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "events",
			Name:      "archive_errors_total",
			Help:      "Total number of failed archive batch writes",
		}),
		WSSubscribers: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "events",
			Name:      "ws_subscribers",
			Help:      "Current number of websocket event subscribers",
		}),

		DBQueryDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "db",
			Name:      "query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"database", "operation"}),
		DBQueryErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "db",
			Name:      "query_errors_total",
			Help:      "Total number of database query errors",
		}, []string{"database", "operation"}),
	}
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordDBQuery records a database query duration and error.
func RecordDBQuery(database, operation string, seconds float64, err error) {
	DefaultMetrics.DBQueryDuration.WithLabelValues(database, operation).Observe(seconds)
	if err != nil {
		DefaultMetrics.DBQueryErrors.WithLabelValues(database, operation).Inc()
	}
}
