package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Set carries the engine's prometheus collectors. Constructed once at
// process start against an explicit registry, never ambient.
type Set struct {
	RunsTotal        prometheus.Counter
	RunFailures      prometheus.Counter
	RunDuration      prometheus.Histogram
	FindingsTotal    *prometheus.CounterVec
	AnalyzerFailures *prometheus.CounterVec
	AlertsRaised     prometheus.Counter
	CacheHits        prometheus.Counter
	CacheMisses      prometheus.Counter
}

// New registers the engine collectors on reg.
func New(reg prometheus.Registerer) *Set {
	factory := promauto.With(reg)
	return &Set{
		RunsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "sitrep_analysis_runs_total",
			Help: "Completed analysis runs.",
		}),
		RunFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "sitrep_analysis_run_failures_total",
			Help: "Analysis runs that failed before producing a result.",
		}),
		RunDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "sitrep_analysis_run_duration_seconds",
			Help:    "Wall time of a full analysis run.",
			Buckets: prometheus.DefBuckets,
		}),
		FindingsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "sitrep_findings_total",
			Help: "Findings emitted, labelled by analyzer.",
		}, []string{"analyzer"}),
		AnalyzerFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "sitrep_analyzer_failures_total",
			Help: "Analyzer failures tolerated as zero findings.",
		}, []string{"analyzer"}),
		AlertsRaised: factory.NewCounter(prometheus.CounterOpts{
			Name: "sitrep_alerts_raised_total",
			Help: "Alerts raised by monitor evaluation.",
		}),
		CacheHits: factory.NewCounter(prometheus.CounterOpts{
			Name: "sitrep_result_cache_hits_total",
			Help: "Result cache hits.",
		}),
		CacheMisses: factory.NewCounter(prometheus.CounterOpts{
			Name: "sitrep_result_cache_misses_total",
			Help: "Result cache misses.",
		}),
	}
}
