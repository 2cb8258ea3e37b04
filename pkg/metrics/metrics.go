// Package metrics provides Prometheus observability metrics for the batch
// drivers: how many units each stage processed, how many fell back or failed,
// and how long the stages took.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry is the custom prometheus registry for our application
var Registry = prometheus.NewRegistry()

// factory allows us to register metrics to our custom Registry directly
var factory = promauto.With(Registry)

// ClientsClustered counts clients whose visits were partitioned successfully.
var ClientsClustered = factory.NewCounter(prometheus.CounterOpts{
	Namespace: "rosterkit",
	Name:      "clients_clustered_total",
	Help:      "Number of clients whose visit history was clustered",
})

// ClusterFallbacks counts clients that ended up in the single-cluster
// fallback. A climbing value points at degenerate visit data upstream.
var ClusterFallbacks = factory.NewCounter(prometheus.CounterOpts{
	Namespace: "rosterkit",
	Name:      "cluster_fallbacks_total",
	Help:      "Number of clients resolved to the single-cluster fallback",
})

// ForecastUnitsTrained counts client/cluster units with a trained forecast.
var ForecastUnitsTrained = factory.NewCounter(prometheus.CounterOpts{
	Namespace: "rosterkit",
	Name:      "forecast_units_trained_total",
	Help:      "Number of client/cluster units with a trained forecast table",
})

// ForecastUnitsFailed counts units excluded from the aggregated forecast.
var ForecastUnitsFailed = factory.NewCounter(prometheus.CounterOpts{
	Namespace: "rosterkit",
	Name:      "forecast_units_failed_total",
	Help:      "Number of client/cluster units that failed forecast training",
})

// DiariesBuilt tracks diaries produced by the last projection run.
var DiariesBuilt = factory.NewGauge(prometheus.GaugeOpts{
	Namespace: "rosterkit",
	Name:      "diaries_built",
	Help:      "Diaries produced by the most recent projection run",
})

// CarersSkipped tracks carers filtered out of diary construction because
// their pattern yields nothing in the window.
var CarersSkipped = factory.NewGauge(prometheus.GaugeOpts{
	Namespace: "rosterkit",
	Name:      "carers_skipped",
	Help:      "Carers with no working interval in the projection window",
})

// StageDuration observes wall-clock seconds per batch stage.
var StageDuration = factory.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: "rosterkit",
	Name:      "stage_duration_seconds",
	Help:      "Wall-clock duration of batch stages",
	Buckets:   prometheus.ExponentialBuckets(0.1, 2, 12),
}, []string{"stage"})
