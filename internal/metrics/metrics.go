// Package metrics wires pipeline-observable counters, gauges, and
// histograms into Prometheus's default registry using the package-level
// promauto.NewXVec style.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// mappingsIngested counts mappings pulled from each source (internal/
	// source), labeled by source kind.
	mappingsIngested = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "semra",
		Subsystem: "pipeline",
		Name:      "mappings_ingested_total",
		Help:      "Total mappings ingested from a source adapter",
	}, []string{"source_kind"})

	// mappingsAtStage tracks collection size after each pipeline stage:
	// raw, processed, priority.
	mappingsAtStage = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "semra",
		Subsystem: "pipeline",
		Name:      "mappings_at_stage",
		Help:      "Number of mappings held after a pipeline stage",
	}, []string{"stage"})

	// stageDuration measures wall-clock time per pipeline stage.
	stageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "semra",
		Subsystem: "pipeline",
		Name:      "stage_duration_seconds",
		Help:      "Pipeline stage execution time in seconds",
		Buckets:   prometheus.ExponentialBuckets(0.01, 2, 14),
	}, []string{"stage"})

	// inferenceRounds tracks how many rounds an inference run took. The
	// pipeline driver observes it only for runs that exhausted their round
	// budget, since a run that reaches a fixed point does not report its
	// round count.
	inferenceRounds = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "semra",
		Subsystem: "inference",
		Name:      "rounds",
		Help:      "Number of rounds the inference engine ran per call",
		Buckets:   prometheus.LinearBuckets(1, 1, 10),
	})

	// inferenceCycleBudgetExhausted counts Run calls that returned a
	// CycleBudgetExhausted error.
	inferenceCycleBudgetExhausted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "semra",
		Subsystem: "inference",
		Name:      "cycle_budget_exhausted_total",
		Help:      "Total inference runs that hit the round budget before reaching a fixed point",
	})

	// confidenceDistribution tracks the aggregated confidence of mappings,
	// for monitoring drift in the confidence model. The pipeline driver
	// observes it in the post-filter stage, and only when min_confidence
	// is set.
	confidenceDistribution = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "semra",
		Subsystem: "confidence",
		Name:      "aggregated_distribution",
		Help:      "Distribution of aggregated mapping confidences",
		Buckets:   []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 0.95, 0.99, 1.0},
	})

	// sourceFetchErrors counts adapter failures by kind and error class.
	sourceFetchErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "semra",
		Subsystem: "source",
		Name:      "fetch_errors_total",
		Help:      "Total source adapter fetch errors",
	}, []string{"source_kind", "error_class"})

	// connectedComponents tracks graph-core component count per build.
	connectedComponents = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "semra",
		Subsystem: "graphcore",
		Name:      "components",
		Help:      "Number of connected components in the most recent graph-core build",
	})
)

// IncMappingsIngested records n mappings fetched from a source of the given kind.
func IncMappingsIngested(sourceKind string, n int) {
	mappingsIngested.WithLabelValues(sourceKind).Add(float64(n))
}

// SetMappingsAtStage records the collection size after a pipeline stage.
func SetMappingsAtStage(stage string, n int) {
	mappingsAtStage.WithLabelValues(stage).Set(float64(n))
}

// ObserveStageDuration records how long a pipeline stage took.
func ObserveStageDuration(stage string, d time.Duration) {
	stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

// ObserveInferenceRounds records the round count an inference Run completed in.
func ObserveInferenceRounds(rounds int) {
	inferenceRounds.Observe(float64(rounds))
}

// IncCycleBudgetExhausted records an inference run that exhausted its round budget.
func IncCycleBudgetExhausted() {
	inferenceCycleBudgetExhausted.Inc()
}

// ObserveConfidence records a single mapping's aggregated confidence.
func ObserveConfidence(c float64) {
	confidenceDistribution.Observe(c)
}

// IncSourceFetchError records a source adapter failure.
func IncSourceFetchError(sourceKind, errorClass string) {
	sourceFetchErrors.WithLabelValues(sourceKind, errorClass).Inc()
}

// SetConnectedComponents records the component count from the most recent
// graph-core build.
func SetConnectedComponents(n int) {
	connectedComponents.Set(float64(n))
}
