package metrics

import (
	"net/http"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PrometheusRecorder implements Recorder on a Prometheus registry.
type PrometheusRecorder struct {
	buildDuration prom.Histogram
	stageDuration *prom.HistogramVec
	buildOutcome  *prom.CounterVec
	pagesRendered prom.Counter
	issues        prom.Counter
	rebuilds      *prom.CounterVec
}

// NewPrometheusRecorder constructs and registers the rendar metrics on reg.
// A nil reg gets a fresh private registry.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		buildDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: "rendar",
			Name:      "build_duration_seconds",
			Help:      "Total duration of one site build",
			Buckets:   prom.DefBuckets,
		}),
		stageDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "rendar",
			Name:      "stage_duration_seconds",
			Help:      "Duration of individual build stages",
			Buckets:   prom.DefBuckets,
		}, []string{"stage"}),
		buildOutcome: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "rendar",
			Name:      "build_outcomes_total",
			Help:      "Finished builds by outcome",
		}, []string{"outcome"}),
		pagesRendered: prom.NewCounter(prom.CounterOpts{
			Namespace: "rendar",
			Name:      "pages_rendered_total",
			Help:      "Pages written across all builds",
		}),
		issues: prom.NewCounter(prom.CounterOpts{
			Namespace: "rendar",
			Name:      "issues_total",
			Help:      "Advisory issues reported across all builds",
		}),
		rebuilds: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "rendar",
			Name:      "rebuilds_total",
			Help:      "Builds started, by trigger",
		}, []string{"trigger"}),
	}
	reg.MustRegister(pr.buildDuration, pr.stageDuration, pr.buildOutcome,
		pr.pagesRendered, pr.issues, pr.rebuilds)
	return pr
}

func (p *PrometheusRecorder) ObserveBuildDuration(d time.Duration) {
	if p == nil {
		return
	}
	p.buildDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) ObserveStageDuration(stage string, d time.Duration) {
	if p == nil {
		return
	}
	p.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncBuildOutcome(outcome Outcome) {
	if p == nil {
		return
	}
	p.buildOutcome.WithLabelValues(string(outcome)).Inc()
}

func (p *PrometheusRecorder) AddPagesRendered(n int) {
	if p == nil {
		return
	}
	p.pagesRendered.Add(float64(n))
}

func (p *PrometheusRecorder) AddIssues(n int) {
	if p == nil {
		return
	}
	p.issues.Add(float64(n))
}

func (p *PrometheusRecorder) IncRebuild(trigger string) {
	if p == nil {
		return
	}
	p.rebuilds.WithLabelValues(trigger).Inc()
}

// HTTPHandler serves the registry in the Prometheus exposition format. The
// preview server mounts it when metrics are enabled.
func HTTPHandler(reg *prom.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{EnableOpenMetrics: true})
}
