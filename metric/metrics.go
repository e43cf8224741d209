package metric

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// GenerationMetrics contains all engine-level metrics
type GenerationMetrics struct {
	JobsTotal      *prometheus.CounterVec
	AttemptsTotal  *prometheus.CounterVec
	TierSelected   *prometheus.CounterVec
	StageDuration  *prometheus.HistogramVec
	AIRetriesTotal prometheus.Counter
}

// Registry manages metric registration and exposure
type Registry struct {
	prometheusRegistry *prometheus.Registry
	Generation         *GenerationMetrics
}

// NewRegistry creates a registry with all engine metrics plus Go runtime
// collectors registered
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()

	gen := &GenerationMetrics{
		JobsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "flowbridge",
				Subsystem: "generation",
				Name:      "jobs_total",
				Help:      "Total number of generation jobs by outcome",
			},
			[]string{"outcome"},
		),
		AttemptsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "flowbridge",
				Subsystem: "generation",
				Name:      "attempts_total",
				Help:      "Total number of generation attempts by tier and outcome",
			},
			[]string{"tier", "outcome"},
		),
		TierSelected: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "flowbridge",
				Subsystem: "generation",
				Name:      "tier_selected_total",
				Help:      "Total number of jobs by the tier that produced the accepted output",
			},
			[]string{"tier"},
		),
		StageDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "flowbridge",
				Subsystem: "pipeline",
				Name:      "stage_duration_seconds",
				Help:      "Pipeline stage duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"stage"},
		),
		AIRetriesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "flowbridge",
				Subsystem: "ai",
				Name:      "retries_total",
				Help:      "Total number of failed AI provider attempts that were retried",
			},
		),
	}

	reg.MustRegister(
		gen.JobsTotal,
		gen.AttemptsTotal,
		gen.TierSelected,
		gen.StageDuration,
		gen.AIRetriesTotal,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return &Registry{
		prometheusRegistry: reg,
		Generation:         gen,
	}
}

// PrometheusRegistry returns the underlying prometheus registry
func (r *Registry) PrometheusRegistry() *prometheus.Registry {
	return r.prometheusRegistry
}

// Handler returns the HTTP handler exposing the registry
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.prometheusRegistry, promhttp.HandlerOpts{})
}
