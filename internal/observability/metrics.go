package observability

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

const namespace = "covid_etl"

// Metrics holds the Prometheus counters, histograms, and gauges for source runs.
// Runs are short-lived, so metrics live on a private registry that is pushed
// to a Pushgateway instead of being scraped.
type Metrics struct {
	Registry *prometheus.Registry

	ObservationsMerged  *prometheus.CounterVec // labels: source, outcome={appended,replaced,unchanged}
	ValidationFailures  *prometheus.CounterVec // labels: source
	FormatDriftFailures *prometheus.CounterVec // labels: source
	Regressions         *prometheus.CounterVec // labels: location, metric
	RowsWritten         *prometheus.CounterVec // labels: source, category
	CatalogPublishes    *prometheus.CounterVec // labels: source, outcome={success,error}

	RunDuration    *prometheus.HistogramVec // labels: source
	LastSuccessful *prometheus.GaugeVec     // labels: source

	FetchRequests *prometheus.CounterVec // labels: outcome={success,error}
	FetchDuration prometheus.Histogram
}

// NewMetrics creates all run metrics on a fresh registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		ObservationsMerged: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "observations_merged_total",
			Help:      "Observations merged into a series, by merge outcome.",
		}, []string{"source", "outcome"}),
		ValidationFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "validation_failures_total",
			Help:      "Observations or datasets rejected before any write.",
		}, []string{"source"}),
		FormatDriftFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "format_drift_failures_total",
			Help:      "Runs aborted because a source no longer matched its parser.",
		}, []string{"source"}),
		Regressions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cumulative_regressions_total",
			Help:      "Decreases of a cumulative metric found after a merge.",
		}, []string{"location", "metric"}),
		RowsWritten: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_written_total",
			Help:      "Rows written to output files, by dataset category.",
		}, []string{"source", "category"}),
		CatalogPublishes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "catalog_publishes_total",
			Help:      "Dataset announcements sent to the catalog topic.",
		}, []string{"source", "outcome"}),
		RunDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Duration of a complete source run.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}, []string{"source"}),
		LastSuccessful: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last successful run.",
		}, []string{"source"}),
		FetchRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_requests_total",
			Help:      "Upstream HTTP fetches by outcome.",
		}, []string{"outcome"}),
		FetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "fetch_duration_seconds",
			Help:      "Upstream HTTP fetch duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
	}

	m.Registry.MustRegister(
		m.ObservationsMerged,
		m.ValidationFailures,
		m.FormatDriftFailures,
		m.Regressions,
		m.RowsWritten,
		m.CatalogPublishes,
		m.RunDuration,
		m.LastSuccessful,
		m.FetchRequests,
		m.FetchDuration,
	)

	return m
}

// NewMetricsForTesting creates Metrics on an isolated registry for tests.
func NewMetricsForTesting() *Metrics {
	return NewMetrics()
}

// Push sends every metric to a Pushgateway under the given job name.
func (m *Metrics) Push(ctx context.Context, gatewayURL, job string) error {
	err := push.New(gatewayURL, job).
		Gatherer(m.Registry).
		Grouping("instance", "covid-etl").
		PushContext(ctx)
	if err != nil {
		return fmt.Errorf("push metrics to %s: %w", gatewayURL, err)
	}
	return nil
}
