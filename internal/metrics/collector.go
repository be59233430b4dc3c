package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/dashcache/dashcache/internal/cache"
)

// DatasetStats 是单个数据集在采集时刻的缓存快照。
type DatasetStats struct {
	Dataset string
	Stats   cache.Stats
	Pending int
}

// StatsSource 提供所有数据集的当前统计，通常由 server.DatasetRegistry 实现。
type StatsSource interface {
	CacheStats() []DatasetStats
}

// StatsSourceFunc 允许以函数形式实现 StatsSource。
type StatsSourceFunc func() []DatasetStats

func (f StatsSourceFunc) CacheStats() []DatasetStats { return f() }

// cacheCollector 在每次抓取时读取 Stats()，不维护额外状态。
type cacheCollector struct {
	source StatsSource

	hits      *prometheus.Desc
	misses    *prometheus.Desc
	hitRate   *prometheus.Desc
	sizeBytes *prometheus.Desc
	entries   *prometheus.Desc
	evictions *prometheus.Desc
	pending   *prometheus.Desc
}

// NewCacheCollector 返回按数据集导出缓存统计的 Collector。
func NewCacheCollector(source StatsSource) prometheus.Collector {
	labels := []string{"dataset"}
	desc := func(name, help string) *prometheus.Desc {
		return prometheus.NewDesc(prometheus.BuildFQName(namespace, "cache", name), help, labels, nil)
	}
	return &cacheCollector{
		source:    source,
		hits:      desc("hits_total", "Cache hits since start or last restore"),
		misses:    desc("misses_total", "Cache misses since start or last restore"),
		hitRate:   desc("hit_ratio", "hits / (hits + misses)"),
		sizeBytes: desc("size_bytes", "Estimated size of stored entries in bytes"),
		entries:   desc("entries", "Number of stored entries, including expired ones not yet swept"),
		evictions: desc("evictions_total", "Entries evicted to stay within the size budget"),
		pending:   desc("pending_fetches", "Fetches currently in flight"),
	}
}

func (c *cacheCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.hits
	ch <- c.misses
	ch <- c.hitRate
	ch <- c.sizeBytes
	ch <- c.entries
	ch <- c.evictions
	ch <- c.pending
}

func (c *cacheCollector) Collect(ch chan<- prometheus.Metric) {
	for _, ds := range c.source.CacheStats() {
		s := ds.Stats
		ch <- prometheus.MustNewConstMetric(c.hits, prometheus.CounterValue, float64(s.Hits), ds.Dataset)
		ch <- prometheus.MustNewConstMetric(c.misses, prometheus.CounterValue, float64(s.Misses), ds.Dataset)
		ch <- prometheus.MustNewConstMetric(c.hitRate, prometheus.GaugeValue, s.HitRate, ds.Dataset)
		ch <- prometheus.MustNewConstMetric(c.sizeBytes, prometheus.GaugeValue, float64(s.TotalSize), ds.Dataset)
		ch <- prometheus.MustNewConstMetric(c.entries, prometheus.GaugeValue, float64(s.EntryCount), ds.Dataset)
		ch <- prometheus.MustNewConstMetric(c.evictions, prometheus.CounterValue, float64(s.Evictions), ds.Dataset)
		ch <- prometheus.MustNewConstMetric(c.pending, prometheus.GaugeValue, float64(ds.Pending), ds.Dataset)
	}
}
