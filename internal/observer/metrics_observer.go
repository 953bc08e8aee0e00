package observer

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsObserver turns analysis events into prometheus metrics
type MetricsObserver struct {
	registry *prometheus.Registry

	analyses *prometheus.CounterVec
	rejected *prometheus.CounterVec
	inFlight *prometheus.GaugeVec
	duration *prometheus.HistogramVec
	entries  *prometheus.HistogramVec
	dropped  *prometheus.CounterVec
}

// NewMetricsObserver registers its collectors on a private registry
func NewMetricsObserver() *MetricsObserver {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	factory := promauto.With(reg)

	return &MetricsObserver{
		registry: reg,
		analyses: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ux_critique",
			Name:      "analyses_total",
			Help:      "Finished analyses by provider and outcome.",
		}, []string{"provider", "outcome"}),
		rejected: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ux_critique",
			Name:      "analyses_rejected_total",
			Help:      "Analyses refused because the session already had one in progress.",
		}, []string{"provider"}),
		inFlight: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "ux_critique",
			Name:      "analyses_in_flight",
			Help:      "Analyses currently waiting on a provider.",
		}, []string{"provider"}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "ux_critique",
			Name:      "analysis_duration_seconds",
			Help:      "End-to-end analysis latency.",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 20, 30, 60},
		}, []string{"provider", "outcome"}),
		entries: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "ux_critique",
			Name:      "critique_entries",
			Help:      "Valid critique entries per successful analysis.",
			Buckets:   []float64{0, 1, 2, 3, 5, 7, 10},
		}, []string{"provider"}),
		dropped: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ux_critique",
			Name:      "critique_entries_dropped_total",
			Help:      "Critique entries discarded by validation.",
		}, []string{"provider"}),
	}
}

// OnEvent handles analysis events by updating metrics
func (o *MetricsObserver) OnEvent(ctx context.Context, event AnalysisEvent) {
	switch event.EventType {
	case AnalysisStarted:
		o.inFlight.WithLabelValues(event.Provider).Inc()
	case AnalysisCompleted:
		o.inFlight.WithLabelValues(event.Provider).Dec()
		o.analyses.WithLabelValues(event.Provider, "success").Inc()
		o.duration.WithLabelValues(event.Provider, "success").Observe(event.ProcessingTime.Seconds())
		o.entries.WithLabelValues(event.Provider).Observe(float64(event.EntryCount))
		o.dropped.WithLabelValues(event.Provider).Add(float64(event.Dropped))
	case AnalysisFailed:
		o.inFlight.WithLabelValues(event.Provider).Dec()
		outcome := event.ErrorType
		if outcome == "" {
			outcome = "error"
		}
		o.analyses.WithLabelValues(event.Provider, outcome).Inc()
		o.duration.WithLabelValues(event.Provider, outcome).Observe(event.ProcessingTime.Seconds())
	case AnalysisRejected:
		o.rejected.WithLabelValues(event.Provider).Inc()
	}
}

// GetObserverName returns the observer name
func (o *MetricsObserver) GetObserverName() string {
	return "metrics_observer"
}

// Registry exposes the collectors, mainly for tests
func (o *MetricsObserver) Registry() *prometheus.Registry {
	return o.registry
}

// Handler serves the registry in the prometheus exposition format
func (o *MetricsObserver) Handler() http.Handler {
	return promhttp.HandlerFor(o.registry, promhttp.HandlerOpts{})
}
