package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// regularization pipeline and the drought index endpoint.
type Metrics struct {
	BatchesConsumed prometheus.Counter
	BatchesProduced prometheus.Counter
	TransformErrors prometheus.Counter
	PipelineRunning prometheus.Gauge

	ReadingsIn  prometheus.Counter
	ReadingsOut prometheus.Counter

	// Regularization metrics.
	BatchSize               prometheus.Histogram
	BatchProcessingDuration prometheus.Histogram
	WintertimeMerges        prometheus.Counter

	// Drought index metrics.
	IndexRequests     *prometheus.CounterVec // labels: outcome={success,schema_error,not_configured,bad_request}
	IndexValues       prometheus.Counter
	DroughtConfigured prometheus.Gauge
}

// NewMetrics creates and registers all service metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		BatchesConsumed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "hydroseries",
			Name:      "batches_consumed_total",
			Help:      "Total reading batches read from the source topic.",
		}),
		BatchesProduced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "hydroseries",
			Name:      "batches_produced_total",
			Help:      "Total regularized batches written to the sink topic.",
		}),
		TransformErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "hydroseries",
			Name:      "transform_errors_total",
			Help:      "Total batches skipped because of parse or schema failures.",
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "hydroseries",
			Name:      "pipeline_running",
			Help:      "1 when the pipeline is active, 0 when shut down.",
		}),
		ReadingsIn: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "hydroseries",
			Name:      "readings_in_total",
			Help:      "Total raw readings across consumed batches.",
		}),
		ReadingsOut: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "hydroseries",
			Name:      "readings_out_total",
			Help:      "Total grid rows across produced batches.",
		}),
		BatchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "hydroseries",
			Name:      "batch_size",
			Help:      "Number of messages per batch extracted from Kafka.",
			Buckets:   []float64{1, 5, 10, 20, 30, 40, 50, 75, 100},
		}),
		BatchProcessingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "hydroseries",
			Name:      "batch_processing_duration_seconds",
			Help:      "Duration of a complete batch extract-transform-load cycle.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10},
		}),
		WintertimeMerges: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "hydroseries",
			Name:      "wintertime_merges_total",
			Help:      "Total duplicate wintertime rows merged before gridding.",
		}),
		IndexRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hydroseries",
			Name:      "index_requests_total",
			Help:      "Drought index requests by outcome.",
		}, []string{"outcome"}),
		IndexValues: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "hydroseries",
			Name:      "index_values_total",
			Help:      "Total drought index values served.",
		}),
		DroughtConfigured: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "hydroseries",
			Name:      "drought_model_configured",
			Help:      "1 when a drought model is fitted and serving, 0 otherwise.",
		}),
	}

	prometheus.MustRegister(
		m.BatchesConsumed,
		m.BatchesProduced,
		m.TransformErrors,
		m.PipelineRunning,
		m.ReadingsIn,
		m.ReadingsOut,
		m.BatchSize,
		m.BatchProcessingDuration,
		m.WintertimeMerges,
		m.IndexRequests,
		m.IndexValues,
		m.DroughtConfigured,
	)

	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		BatchesConsumed:         prometheus.NewCounter(prometheus.CounterOpts{Namespace: "hydroseries", Name: "batches_consumed_total"}),
		BatchesProduced:         prometheus.NewCounter(prometheus.CounterOpts{Namespace: "hydroseries", Name: "batches_produced_total"}),
		TransformErrors:         prometheus.NewCounter(prometheus.CounterOpts{Namespace: "hydroseries", Name: "transform_errors_total"}),
		PipelineRunning:         prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "hydroseries", Name: "pipeline_running"}),
		ReadingsIn:              prometheus.NewCounter(prometheus.CounterOpts{Namespace: "hydroseries", Name: "readings_in_total"}),
		ReadingsOut:             prometheus.NewCounter(prometheus.CounterOpts{Namespace: "hydroseries", Name: "readings_out_total"}),
		BatchSize:               prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "hydroseries", Name: "batch_size"}),
		BatchProcessingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "hydroseries", Name: "batch_processing_duration_seconds"}),
		WintertimeMerges:        prometheus.NewCounter(prometheus.CounterOpts{Namespace: "hydroseries", Name: "wintertime_merges_total"}),
		IndexRequests:           prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "hydroseries", Name: "index_requests_total"}, []string{"outcome"}),
		IndexValues:             prometheus.NewCounter(prometheus.CounterOpts{Namespace: "hydroseries", Name: "index_values_total"}),
		DroughtConfigured:       prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "hydroseries", Name: "drought_model_configured"}),
	}
}
