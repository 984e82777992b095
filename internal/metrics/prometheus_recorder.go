package metrics

import (
	"net/http"
	"strconv"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	promhttp "github.com/prometheus/client_golang/prometheus/promhttp"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	cacheLookups    *prom.CounterVec
	diskScans       *prom.CounterVec
	stageDuration   *prom.HistogramVec
	publishDuration prom.Histogram
	publishOutcomes *prom.CounterVec
	pagesPublished  prom.Gauge
}

// NewPrometheusRecorder constructs the collectors and registers them on reg.
// A nil reg gets a fresh registry.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		cacheLookups: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "sitetree",
			Name:      "registry_lookups_total",
			Help:      "Page registry lookups by cache result",
		}, []string{"hit"}),
		diskScans: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "sitetree",
			Name:      "disk_scans_total",
			Help:      "Filesystem scans performed while resolving pages",
		}, []string{"kind"}),
		stageDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "sitetree",
			Name:      "publish_stage_duration_seconds",
			Help:      "Duration of individual publish stages",
			Buckets:   prom.DefBuckets,
		}, []string{"stage"}),
		publishDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: "sitetree",
			Name:      "publish_duration_seconds",
			Help:      "Total publish duration",
			Buckets:   prom.DefBuckets,
		}),
		publishOutcomes: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "sitetree",
			Name:      "publish_outcomes_total",
			Help:      "Publish runs by final status",
		}, []string{"outcome"}),
		pagesPublished: prom.NewGauge(prom.GaugeOpts{
			Namespace: "sitetree",
			Name:      "pages_published",
			Help:      "Pages written by the most recent publish run",
		}),
	}
	reg.MustRegister(pr.cacheLookups, pr.diskScans, pr.stageDuration, pr.publishDuration, pr.publishOutcomes, pr.pagesPublished)
	return pr
}

func (p *PrometheusRecorder) IncCacheLookup(hit bool) {
	p.cacheLookups.WithLabelValues(strconv.FormatBool(hit)).Inc()
}

func (p *PrometheusRecorder) IncDiskScan(kind ScanKind) {
	p.diskScans.WithLabelValues(string(kind)).Inc()
}

func (p *PrometheusRecorder) ObserveStageDuration(stage string, d time.Duration) {
	p.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

func (p *PrometheusRecorder) ObservePublishDuration(d time.Duration) {
	p.publishDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncPublishOutcome(outcome Outcome) {
	p.publishOutcomes.WithLabelValues(string(outcome)).Inc()
}

func (p *PrometheusRecorder) SetPagesPublished(n int) {
	p.pagesPublished.Set(float64(n))
}

// HTTPHandler returns an http.Handler that serves Prometheus metrics for the provided registry.
func HTTPHandler(reg *prom.Registry) http.Handler {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{EnableOpenMetrics: true})
}
