// Package prom implements the observability hooks with Prometheus metrics.
//
//	reg := prometheus.NewRegistry()
//	m := prom.New(reg)
//	observability.SetEngineHooks(m)
//	observability.SetHTTPHooks(m)
//	http.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
package prom

import (
	"context"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/matzehuels/insetkit/pkg/observability"
)

const namespace = "insetkit"

// Metrics records engine and HTTP events as Prometheus metrics.
type Metrics struct {
	// Engine
	Epochs           prometheus.Counter
	ScaleChanges     prometheus.Counter
	IgnoredEvents    *prometheus.CounterVec
	PipelineRuns     *prometheus.CounterVec
	PipelineDuration *prometheus.HistogramVec
	InsetsPlaced     *prometheus.GaugeVec
	CandidatesSeen   prometheus.Histogram
	AnchorsSeen      prometheus.Histogram
	IndexRebuilds    prometheus.Counter
	IndexSize        prometheus.Gauge
	DrawsTotal       *prometheus.CounterVec
	DrawDuration     prometheus.Histogram

	// HTTP
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	HTTPInFlight        prometheus.Gauge
}

var (
	_ observability.EngineHooks = (*Metrics)(nil)
	_ observability.HTTPHooks   = (*Metrics)(nil)
)

// New creates the metrics and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Epochs: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "epochs_total",
			Help: "Zoom epochs started",
		}),
		ScaleChanges: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "scale_changes_total",
			Help: "Epochs that changed the zoom scale",
		}),
		IgnoredEvents: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "ignored_events_total",
			Help: "Events from unregistered sources",
		}, []string{"event"}),
		PipelineRuns: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "pipeline_runs_total",
			Help: "Completed index and layout passes",
		}, []string{"mode"}),
		PipelineDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Name: "pipeline_duration_seconds",
			Help:    "Time spent in one layout pass",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8),
		}, []string{"mode"}),
		InsetsPlaced: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace, Name: "insets_placed",
			Help: "Insets returned by the last layout pass",
		}, []string{"mode"}),
		CandidatesSeen: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Name: "pass_candidates",
			Help:    "Inset candidates per pass",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10),
		}),
		AnchorsSeen: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Name: "pass_anchors",
			Help:    "Plain annotations per pass",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12),
		}),
		IndexRebuilds: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "index_rebuilds_total",
			Help: "Spatial index bulk loads",
		}),
		IndexSize: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "index_size",
			Help: "Loci in the spatial index",
		}),
		DrawsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "draws_total",
			Help: "Per-inset draw operations by outcome",
		}, []string{"outcome"}),
		DrawDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Name: "draw_batch_duration_seconds",
			Help:    "Time until every inset of a batch finished drawing",
			Buckets: prometheus.DefBuckets,
		}),
		HTTPRequestsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "http_requests_total",
			Help: "HTTP requests by route and status",
		}, []string{"method", "route", "status"}),
		HTTPRequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Name: "http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		HTTPInFlight: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "http_requests_in_flight",
			Help: "HTTP requests being served",
		}),
	}
}

func (m *Metrics) OnEpoch(_ context.Context, _ uint64, scaleChanged bool) {
	m.Epochs.Inc()
	if scaleChanged {
		m.ScaleChanges.Inc()
	}
}

func (m *Metrics) OnSourceIgnored(_ context.Context, _, event string) {
	m.IgnoredEvents.WithLabelValues(event).Inc()
}

func (m *Metrics) OnPipelineStart(_ context.Context, _ uint64, candidates, anchors int) {
	m.CandidatesSeen.Observe(float64(candidates))
	m.AnchorsSeen.Observe(float64(anchors))
}

func (m *Metrics) OnIndexRebuild(_ context.Context, size int, _ time.Duration) {
	m.IndexRebuilds.Inc()
	m.IndexSize.Set(float64(size))
}

func (m *Metrics) OnPipelineComplete(_ context.Context, mode string, placed int, d time.Duration) {
	m.PipelineRuns.WithLabelValues(mode).Inc()
	m.PipelineDuration.WithLabelValues(mode).Observe(d.Seconds())
	m.InsetsPlaced.WithLabelValues(mode).Set(float64(placed))
}

func (m *Metrics) OnDrawComplete(_ context.Context, drawn, failed int, d time.Duration) {
	m.DrawsTotal.WithLabelValues("ok").Add(float64(drawn - failed))
	m.DrawsTotal.WithLabelValues("failed").Add(float64(failed))
	m.DrawDuration.Observe(d.Seconds())
}

func (m *Metrics) OnRequest(context.Context, string, string) {
	m.HTTPInFlight.Inc()
}

func (m *Metrics) OnResponse(_ context.Context, method, route string, status int, d time.Duration) {
	m.HTTPInFlight.Dec()
	m.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}
