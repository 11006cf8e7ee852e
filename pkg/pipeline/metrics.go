package pipeline

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics are the collectors a Pipeline updates.
type Metrics struct {
	registry *prometheus.Registry

	Documents     *prometheus.CounterVec
	Articles      prometheus.Counter
	Explanations  prometheus.Counter
	Diagnostics   *prometheus.CounterVec
	StageDuration *prometheus.HistogramVec
}

// NewMetrics creates the collectors under namespace and registers them on
// registry. A nil registry gets a fresh one.
func NewMetrics(namespace string, registry *prometheus.Registry) (*Metrics, error) {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	m := &Metrics{
		registry: registry,
		Documents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "documents_total",
			Help:      "Documents processed, by result status.",
		}, []string{"status"}),
		Articles: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "articles_total",
			Help:      "Articles found across all parsed documents.",
		}),
		Explanations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "explanations_total",
			Help:      "Explanatory notes recorded across all parsed documents.",
		}),
		Diagnostics: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "diagnostics_total",
			Help:      "Parser diagnostics, by kind.",
		}, []string{"kind"}),
		StageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Time spent per pipeline stage.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10),
		}, []string{"stage"}),
	}

	for _, c := range []prometheus.Collector{m.Documents, m.Articles, m.Explanations, m.Diagnostics, m.StageDuration} {
		if err := registry.Register(c); err != nil {
			return nil, fmt.Errorf("registering metrics: %w", err)
		}
	}
	return m, nil
}

// Registry returns the registry the collectors live on.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// WriteTextfile writes the current values in the node exporter textfile
// format.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("writing metrics to %s: %w", path, err)
	}
	return nil
}
