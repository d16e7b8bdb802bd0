// Package metrics exposes Prometheus counters for maintenance writes and
// notifications. Recording functions are no-ops until Init has run, so tests
// and tools that never call Init pay nothing.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricPrefix = "statuspage_"

	ResultSuccess = "success"
	ResultError   = "error"
)

var (
	registerOnce sync.Once

	saveTotal      *prometheus.CounterVec
	saveLatency    *prometheus.HistogramVec
	deleteTotal    *prometheus.CounterVec
	notifyTotal    *prometheus.CounterVec
	validationFail *prometheus.CounterVec
)

// Init registers the metrics with reg. Calling it more than once has no effect.
func Init(reg prometheus.Registerer) {
	registerOnce.Do(func() {
		saveTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "maintenance_saves_total",
				Help: "Maintenance saves by outcome; failed saves are labelled with the step that failed",
			},
			[]string{"result", "step"},
		)
		saveLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "maintenance_save_seconds",
				Help:    "Time spent saving a maintenance across all stores",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		)
		deleteTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "maintenance_deletes_total",
				Help: "Maintenance deletions by outcome",
			},
			[]string{"result"},
		)
		notifyTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "notifications_total",
				Help: "Notifications published by outcome",
			},
			[]string{"result"},
		)
		validationFail = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "validation_failures_total",
				Help: "Rejected maintenances by origin (maintenance or component)",
			},
			[]string{"origin"},
		)

		reg.MustRegister(saveTotal, saveLatency, deleteTotal, notifyTotal, validationFail)
	})
}

// ObserveSave records one save. step is empty for a successful save.
func ObserveSave(result, step string, duration time.Duration) {
	if result == "" {
		result = ResultSuccess
	}
	if step == "" {
		step = "none"
	}
	if saveTotal != nil {
		saveTotal.WithLabelValues(result, step).Inc()
	}
	if saveLatency != nil {
		saveLatency.WithLabelValues(result).Observe(duration.Seconds())
	}
}

// IncDelete records one delete.
func IncDelete(result string) {
	if result == "" {
		result = ResultSuccess
	}
	if deleteTotal != nil {
		deleteTotal.WithLabelValues(result).Inc()
	}
}

// IncNotify records one notification attempt.
func IncNotify(result string) {
	if result == "" {
		result = ResultSuccess
	}
	if notifyTotal != nil {
		notifyTotal.WithLabelValues(result).Inc()
	}
}

// IncValidationFailure records a rejected maintenance.
func IncValidationFailure(origin string) {
	if origin == "" {
		origin = "unknown"
	}
	if validationFail != nil {
		validationFail.WithLabelValues(origin).Inc()
	}
}
