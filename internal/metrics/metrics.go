package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ImportMetrics tracks import pipeline outcomes.
type ImportMetrics struct {
	runs     *prometheus.CounterVec
	records  *prometheus.CounterVec
	duration prometheus.Histogram
}

// NewImportMetrics registers the import collectors on reg.
func NewImportMetrics(reg prometheus.Registerer) *ImportMetrics {
	factory := promauto.With(reg)
	return &ImportMetrics{
		runs: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "rollmark_import_runs_total",
			Help: "Completed import runs by result.",
		}, []string{"result"}),
		records: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "rollmark_import_records_total",
			Help: "Records merged per run by kind.",
		}, []string{"kind"}),
		duration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "rollmark_import_duration_seconds",
			Help:    "Import run duration in seconds.",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

// ObserveRun records one completed run.
func (m *ImportMetrics) ObserveRun(result string, imported, absents int, tookSeconds float64) {
	m.runs.WithLabelValues(result).Inc()
	m.records.WithLabelValues("imported").Add(float64(imported))
	m.records.WithLabelValues("absent").Add(float64(absents))
	m.duration.Observe(tookSeconds)
}
