// Package metrics exposes Prometheus instrumentation for the rover API.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels for SimulationsTotal.
const (
	OutcomeCompleted = "completed"
	OutcomeBlocked   = "blocked"
)

var (
	// SimulationsTotal counts finished simulations by outcome
	// (completed = command sequence exhausted, blocked = obstacle stop).
	SimulationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rover_simulations_total",
			Help: "Total number of rover simulations, labelled by outcome.",
		},
		[]string{"outcome"},
	)

	// CommandsProcessedTotal counts command characters actually applied.
	CommandsProcessedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "rover_commands_processed_total",
			Help: "Total number of command characters applied to a rover pose.",
		},
	)

	// ValidationFailuresTotal counts rejected requests by validation error code.
	ValidationFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rover_validation_failures_total",
			Help: "Total number of requests rejected by the validator, labelled by error code.",
		},
		[]string{"code"},
	)

	// SimulationDuration observes the wall time of a single simulation run.
	SimulationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "rover_simulation_duration_seconds",
			Help:    "Duration of a single simulation run.",
			Buckets: prometheus.DefBuckets,
		},
	)
)

// Handler returns the HTTP handler serving the metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
