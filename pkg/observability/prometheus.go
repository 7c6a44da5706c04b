package observability

import (
	"context"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsNamespace = "schemagraph"

// PrometheusHooks implements PipelineHooks, CacheHooks and HTTPHooks on top
// of Prometheus collectors.
type PrometheusHooks struct {
	StageDuration   *prometheus.HistogramVec
	StageErrors     *prometheus.CounterVec
	EntitiesFetched prometheus.Histogram
	GraphNodes      prometheus.Histogram
	GraphEdges      prometheus.Histogram
	Truncated       prometheus.Counter

	CacheEvents *prometheus.CounterVec
	CacheBytes  *prometheus.CounterVec

	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec
	HTTPErrors   *prometheus.CounterVec
}

// NewPrometheusHooks creates and registers all collectors with reg.
// Registering twice with the same registerer panics.
func NewPrometheusHooks(reg prometheus.Registerer) *PrometheusHooks {
	f := promauto.With(reg)
	sizeBuckets := []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000}

	return &PrometheusHooks{
		StageDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Subsystem: "pipeline",
				Name:      "stage_duration_seconds",
				Help:      "Duration of pipeline stages (plan, build, layout) in seconds",
				Buckets:   []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30},
			},
			[]string{"stage"},
		),
		StageErrors: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: "pipeline",
				Name:      "stage_errors_total",
				Help:      "Total pipeline stage failures by stage",
			},
			[]string{"stage"},
		),
		EntitiesFetched: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "pipeline",
			Name:      "entities_planned",
			Help:      "Number of describes collected per traversal",
			Buckets:   sizeBuckets,
		}),
		GraphNodes: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "pipeline",
			Name:      "graph_nodes",
			Help:      "Number of nodes per built graph",
			Buckets:   sizeBuckets,
		}),
		GraphEdges: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "pipeline",
			Name:      "graph_edges",
			Help:      "Number of edges per built graph",
			Buckets:   sizeBuckets,
		}),
		Truncated: f.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "pipeline",
			Name:      "truncated_total",
			Help:      "Total graphs cut short by node or edge caps",
		}),
		CacheEvents: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: "cache",
				Name:      "events_total",
				Help:      "Cache hits, misses and writes by key type",
			},
			[]string{"key_type", "event"},
		),
		CacheBytes: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: "cache",
				Name:      "written_bytes_total",
				Help:      "Bytes written to the cache by key type",
			},
			[]string{"key_type"},
		),
		HTTPRequests: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: "http_client",
				Name:      "requests_total",
				Help:      "Outgoing HTTP requests by host and status",
			},
			[]string{"method", "host", "status"},
		),
		HTTPDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Subsystem: "http_client",
				Name:      "request_duration_seconds",
				Help:      "Outgoing HTTP request latency in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "host"},
		),
		HTTPErrors: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: "http_client",
				Name:      "errors_total",
				Help:      "Outgoing HTTP requests that failed before a response",
			},
			[]string{"method", "host"},
		),
	}
}

func (h *PrometheusHooks) OnPlanStart(context.Context, string, int) {}

func (h *PrometheusHooks) OnPlanComplete(_ context.Context, _ string, fetched int, d time.Duration, err error) {
	h.observeStage("plan", d, err)
	if err == nil {
		h.EntitiesFetched.Observe(float64(fetched))
	}
}

func (h *PrometheusHooks) OnBuildStart(context.Context, string, int) {}

func (h *PrometheusHooks) OnBuildComplete(_ context.Context, _ string, nodes, edges int, truncated bool, d time.Duration, err error) {
	h.observeStage("build", d, err)
	if err != nil {
		return
	}
	h.GraphNodes.Observe(float64(nodes))
	h.GraphEdges.Observe(float64(edges))
	if truncated {
		h.Truncated.Inc()
	}
}

func (h *PrometheusHooks) OnLayoutStart(context.Context, string, int) {}

func (h *PrometheusHooks) OnLayoutComplete(_ context.Context, _ string, d time.Duration, err error) {
	h.observeStage("layout", d, err)
}

func (h *PrometheusHooks) observeStage(stage string, d time.Duration, err error) {
	h.StageDuration.WithLabelValues(stage).Observe(d.Seconds())
	if err != nil {
		h.StageErrors.WithLabelValues(stage).Inc()
	}
}

func (h *PrometheusHooks) OnCacheHit(_ context.Context, keyType string) {
	h.CacheEvents.WithLabelValues(keyType, "hit").Inc()
}

func (h *PrometheusHooks) OnCacheMiss(_ context.Context, keyType string) {
	h.CacheEvents.WithLabelValues(keyType, "miss").Inc()
}

func (h *PrometheusHooks) OnCacheSet(_ context.Context, keyType string, size int) {
	h.CacheEvents.WithLabelValues(keyType, "set").Inc()
	h.CacheBytes.WithLabelValues(keyType).Add(float64(size))
}

func (h *PrometheusHooks) OnRequest(context.Context, string, string, string) {}

func (h *PrometheusHooks) OnResponse(_ context.Context, method, host, _ string, status int, d time.Duration) {
	h.HTTPRequests.WithLabelValues(method, host, strconv.Itoa(status)).Inc()
	h.HTTPDuration.WithLabelValues(method, host).Observe(d.Seconds())
}

func (h *PrometheusHooks) OnError(_ context.Context, method, host, _ string, _ error) {
	h.HTTPErrors.WithLabelValues(method, host).Inc()
}

var (
	_ PipelineHooks = (*PrometheusHooks)(nil)
	_ CacheHooks    = (*PrometheusHooks)(nil)
	_ HTTPHooks     = (*PrometheusHooks)(nil)
)
