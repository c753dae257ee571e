package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors for the catalog reconciliation run.
type Metrics struct {
	PeriodsProcessed prometheus.Counter
	RunsCompleted    prometheus.Counter
	RunsFailed       prometheus.Counter
	RunRunning       prometheus.Gauge
	RunDuration      prometheus.Histogram

	// Synchronization metrics.
	StationsCreated     prometheus.Counter
	MeasurementsCreated *prometheus.CounterVec // label: category={10m,1h,dly}
	AssociationsCreated *prometheus.CounterVec // label: category={10m,1h,dly}
	CatalogStations     prometheus.Gauge
	SyncDuration        prometheus.Histogram
}

// NewMetrics creates and registers all reconciliation metrics with the
// default Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		PeriodsProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "chmi_catalog",
			Name:      "periods_processed_total",
			Help:      "Total monthly extract pairs reconciled into catalogs.",
		}),
		RunsCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "chmi_catalog",
			Name:      "runs_completed_total",
			Help:      "Total reconciliation runs that committed successfully.",
		}),
		RunsFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "chmi_catalog",
			Name:      "runs_failed_total",
			Help:      "Total reconciliation runs that aborted.",
		}),
		RunRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "chmi_catalog",
			Name:      "run_running",
			Help:      "1 while a reconciliation run is in progress.",
		}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "chmi_catalog",
			Name:      "run_duration_seconds",
			Help:      "Duration of a complete extract-merge-synchronize run.",
			Buckets:   []float64{0.1, 0.5, 1, 5, 15, 30, 60, 120, 300},
		}),
		StationsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "chmi_catalog",
			Name:      "stations_created_total",
			Help:      "Total new station rows created in the store.",
		}),
		MeasurementsCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "chmi_catalog",
			Name:      "measurements_created_total",
			Help:      "New measurement type rows created, by cadence.",
		}, []string{"category"}),
		AssociationsCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "chmi_catalog",
			Name:      "associations_created_total",
			Help:      "New station-measurement links created, by cadence.",
		}, []string{"category"}),
		CatalogStations: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "chmi_catalog",
			Name:      "catalog_stations",
			Help:      "Stations in the cumulative catalog after the last run.",
		}),
		SyncDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "chmi_catalog",
			Name:      "sync_duration_seconds",
			Help:      "Duration of the store synchronization step.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 15, 60},
		}),
	}

	prometheus.MustRegister(
		m.PeriodsProcessed,
		m.RunsCompleted,
		m.RunsFailed,
		m.RunRunning,
		m.RunDuration,
		m.StationsCreated,
		m.MeasurementsCreated,
		m.AssociationsCreated,
		m.CatalogStations,
		m.SyncDuration,
	)

	return m
}

// NewMetricsForTesting creates Metrics with unregistered collectors to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		PeriodsProcessed:    prometheus.NewCounter(prometheus.CounterOpts{Namespace: "chmi_catalog", Name: "periods_processed_total"}),
		RunsCompleted:       prometheus.NewCounter(prometheus.CounterOpts{Namespace: "chmi_catalog", Name: "runs_completed_total"}),
		RunsFailed:          prometheus.NewCounter(prometheus.CounterOpts{Namespace: "chmi_catalog", Name: "runs_failed_total"}),
		RunRunning:          prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "chmi_catalog", Name: "run_running"}),
		RunDuration:         prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "chmi_catalog", Name: "run_duration_seconds"}),
		StationsCreated:     prometheus.NewCounter(prometheus.CounterOpts{Namespace: "chmi_catalog", Name: "stations_created_total"}),
		MeasurementsCreated: prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "chmi_catalog", Name: "measurements_created_total"}, []string{"category"}),
		AssociationsCreated: prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "chmi_catalog", Name: "associations_created_total"}, []string{"category"}),
		CatalogStations:     prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "chmi_catalog", Name: "catalog_stations"}),
		SyncDuration:        prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "chmi_catalog", Name: "sync_duration_seconds"}),
	}
}
