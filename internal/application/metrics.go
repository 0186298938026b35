package application

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ericfisherdev/envpush/internal/domain/model"
)

var (
	runsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "envpush",
			Subsystem: "provision",
			Name:      "runs_total",
			Help:      "Total number of provisioning runs by item kind and final phase",
		},
		[]string{"kind", "phase"},
	)

	runDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "envpush",
			Subsystem: "provision",
			Name:      "run_duration_seconds",
			Help:      "Duration of provisioning runs in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 10), // 100ms to ~50s
		},
		[]string{"kind"},
	)

	itemsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "envpush",
			Subsystem: "provision",
			Name:      "items_total",
			Help:      "Total number of processed items by kind and outcome",
		},
		[]string{"kind", "outcome"},
	)

	runsInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "envpush",
			Subsystem: "provision",
			Name:      "runs_in_flight",
			Help:      "Number of provisioning runs currently executing",
		},
	)
)

func init() {
	prometheus.MustRegister(runsTotal, runDuration, itemsTotal, runsInFlight)
}

func recordRun(kind model.ItemKind, phase model.RunPhase, d time.Duration) {
	runsTotal.WithLabelValues(string(kind), string(phase)).Inc()
	runDuration.WithLabelValues(string(kind)).Observe(d.Seconds())
}

func recordItem(kind model.ItemKind, outcome string) {
	itemsTotal.WithLabelValues(string(kind), outcome).Inc()
}
