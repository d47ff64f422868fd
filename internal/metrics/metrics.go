// Package metrics records the counters of one solve run and exports them in
// the Prometheus textfile format, so a fuzzer farm can scrape run results
// through a node exporter textfile collector.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "segmaker"

// Recorder holds the metrics of one run. Every series carries the run ID.
type Recorder struct {
	registry *prometheus.Registry

	Designs      prometheus.Counter
	Observations *prometheus.CounterVec // by label value
	Suppressed   prometheus.Gauge
	Solved       prometheus.Gauge
	Unsolved     *prometheus.GaugeVec // by reason
	Conflicts    prometheus.Gauge
	Duration     prometheus.Gauge
}

// NewRecorder creates a Recorder on its own registry.
func NewRecorder(runID string) *Recorder {
	labels := prometheus.Labels{"run_id": runID}
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		Designs: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "designs_total",
			Help:        "Designs ingested.",
			ConstLabels: labels,
		}),
		Observations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "observations_total",
			Help:        "Tag observations accumulated, by label.",
			ConstLabels: labels,
		}, []string{"label"}),
		Suppressed: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   namespace,
			Name:        "suppressed_pips",
			Help:        "Pips excluded by the suppression rule table.",
			ConstLabels: labels,
		}),
		Solved: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   namespace,
			Name:        "solved_tags",
			Help:        "Tags written to the database.",
			ConstLabels: labels,
		}),
		Unsolved: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace:   namespace,
			Name:        "unsolved_tags",
			Help:        "Tags without a confident mapping, by reason.",
			ConstLabels: labels,
		}, []string{"reason"}),
		Conflicts: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   namespace,
			Name:        "polarity_conflicts",
			Help:        "Polarity conflicts between solved tags.",
			ConstLabels: labels,
		}),
		Duration: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   namespace,
			Name:        "run_duration_seconds",
			Help:        "Wall time of the run.",
			ConstLabels: labels,
		}),
	}

	r.registry.MustRegister(r.Designs, r.Observations, r.Suppressed, r.Solved, r.Unsolved, r.Conflicts, r.Duration)
	return r
}

// Gatherer exposes the underlying registry.
func (r *Recorder) Gatherer() prometheus.Gatherer {
	return r.registry
}

// WriteTextfile writes every series to path atomically.
func (r *Recorder) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("failed to write metrics to %s: %w", path, err)
	}
	return nil
}
