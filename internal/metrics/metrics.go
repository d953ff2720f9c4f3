// Package metrics holds the process-wide Prometheus collectors.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "expenses"

var (
	expensesRecorded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "recorded_total",
			Help:      "Expense records appended to the ledger.",
		},
		[]string{"category"},
	)

	validationFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "form",
			Name:      "validation_failures_total",
			Help:      "Rejected submissions, by offending field.",
		},
		[]string{"field"},
	)

	persistFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "persist_failures_total",
			Help:      "Appends kept in memory because the storage write failed.",
		},
	)

	publishFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "amqp",
			Name:      "publish_failures_total",
			Help:      "Expense events that could not be published.",
		},
	)

	ledgerSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "records",
			Help:      "Records currently held by the ledger.",
		},
	)

	histogramResponseTime = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "histogram_response_time_seconds",
			Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2},
		},
		[]string{"method", "route", "status"},
	)
)

func ExpenseRecorded(category string, size int) {
	expensesRecorded.WithLabelValues(category).Inc()
	ledgerSize.Set(float64(size))
}

func ValidationFailed(fields []string) {
	for _, f := range fields {
		validationFailures.WithLabelValues(f).Inc()
	}
}

func PersistFailed() {
	persistFailures.Inc()
}

func PublishFailed() {
	publishFailures.Inc()
}

// LedgerLoaded sets the size gauge after hydration.
func LedgerLoaded(size int) {
	ledgerSize.Set(float64(size))
}

func ObserveResponse(method, route string, status int, elapsed time.Duration) {
	histogramResponseTime.
		WithLabelValues(method, route, strconv.Itoa(status)).
		Observe(elapsed.Seconds())
}
