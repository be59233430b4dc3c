// Package metrics 将缓存统计与上游请求指标导出为 Prometheus 格式。
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "dashcache"

// Upstream 汇总回源请求相关的指标。
type Upstream struct {
	Requests       *prometheus.CounterVec
	Duration       *prometheus.HistogramVec
	Retries        *prometheus.CounterVec
	RateLimitWaits *prometheus.CounterVec
}

// NewUpstream 在 reg 上注册回源指标；reg 为 nil 时指标只在内存中累计，不对外导出。
func NewUpstream(reg prometheus.Registerer) *Upstream {
	factory := promauto.With(reg)
	return &Upstream{
		Requests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "upstream_requests_total",
				Help:      "Total number of upstream requests by dataset and result",
			},
			[]string{"dataset", "status"}, // status: HTTP code or "error"
		),
		Duration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "upstream_request_duration_seconds",
				Help:      "Duration of upstream requests in seconds",
				Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
			},
			[]string{"dataset"},
		),
		Retries: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "upstream_retries_total",
				Help:      "Total number of upstream request retries",
			},
			[]string{"dataset"},
		),
		RateLimitWaits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "upstream_rate_limit_waits_total",
				Help:      "Total number of times a fetch waited for the upstream rate limiter",
			},
			[]string{"dataset"},
		),
	}
}

// NewRegistry 创建独立的 Registry，包含缓存统计、回源指标以及 Go 运行时指标。
func NewRegistry(source StatsSource) (*prometheus.Registry, *Upstream) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	if source != nil {
		reg.MustRegister(NewCacheCollector(source))
	}
	return reg, NewUpstream(reg)
}
