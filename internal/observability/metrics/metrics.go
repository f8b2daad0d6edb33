package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricPrefix = "pivtrack_"

	ResultSuccess = "success"
	ResultError   = "error"

	OutcomeAccepted = "accepted"
	OutcomeSkipped  = "skipped"
)

var (
	registerOnce sync.Once

	reconcileBatches *prometheus.CounterVec
	reconcileRecords *prometheus.CounterVec
	reconcileLatency *prometheus.HistogramVec

	billingTotal   *prometheus.CounterVec
	billingLatency *prometheus.HistogramVec

	exportTotal *prometheus.CounterVec
)

// Init registers the service metrics once.
func Init() {
	registerOnce.Do(func() {
		reconcileBatches = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "reconcile_batches_total",
				Help: "Total reconciliation batches by kind and result",
			},
			[]string{"kind", "result"},
		)
		reconcileRecords = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "reconcile_records_total",
				Help: "Total reconciled records by kind and outcome",
			},
			[]string{"kind", "outcome"},
		)
		reconcileLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "reconcile_latency_seconds",
				Help:    "Reconciliation batch latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"kind"},
		)

		billingTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "billing_computations_total",
				Help: "Total monthly billing computations by result",
			},
			[]string{"result"},
		)
		billingLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "billing_latency_seconds",
				Help:    "Monthly billing computation latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		)

		exportTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "statement_exports_total",
				Help: "Total statement exports by format and result",
			},
			[]string{"format", "result"},
		)

		prometheus.MustRegister(
			reconcileBatches,
			reconcileRecords,
			reconcileLatency,
			billingTotal,
			billingLatency,
			exportTotal,
		)
	})
}

// ObserveReconcile records one reconciliation batch.
func ObserveReconcile(kind, result string, accepted, skipped int, duration time.Duration) {
	if reconcileBatches == nil {
		return
	}
	reconcileBatches.WithLabelValues(kind, result).Inc()
	reconcileRecords.WithLabelValues(kind, OutcomeAccepted).Add(float64(accepted))
	reconcileRecords.WithLabelValues(kind, OutcomeSkipped).Add(float64(skipped))
	reconcileLatency.WithLabelValues(kind).Observe(duration.Seconds())
}

// ObserveBilling records one monthly billing computation.
func ObserveBilling(result string, duration time.Duration) {
	if billingTotal == nil {
		return
	}
	billingTotal.WithLabelValues(result).Inc()
	billingLatency.WithLabelValues(result).Observe(duration.Seconds())
}

// ObserveExport records one statement export.
func ObserveExport(format, result string) {
	if exportTotal == nil {
		return
	}
	exportTotal.WithLabelValues(format, result).Inc()
}
