package cache

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/dashcache/dashcache/internal/batch"
)

// WarmEntry 是预热的一个 (key, fetcher) 对。
type WarmEntry[T any] struct {
	Key   string
	Fetch Fetcher[T]
}

// WarmReport 汇总一次预热的结果。
type WarmReport struct {
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
}

// Warm 并发地为每个条目调用 Get，单个失败只记录日志，不会中断整批。
func (c *Cache[T]) Warm(ctx context.Context, entries []WarmEntry[T]) WarmReport {
	results := batch.Execute(ctx, entries, c.cfg.WarmConcurrency,
		func(ctx context.Context, e WarmEntry[T]) (T, error) {
			return c.Get(ctx, e.Key, e.Fetch)
		})

	var report WarmReport
	for _, res := range results {
		if res.Err != nil {
			report.Failed++
			c.logger.WithFields(logrus.Fields{
				"action": "cache_warm",
				"key":    entries[res.Index].Key,
			}).WithError(res.Err).Warn("cache_warm_failed")
			continue
		}
		report.Succeeded++
	}
	return report
}

// Preload 触发一次不等待结果的 Get，调用方不会观察到失败。
func (c *Cache[T]) Preload(key string, fetch Fetcher[T]) {
	c.goBackground(func() {
		if _, err := c.Get(c.ctx, key, fetch); err != nil {
			c.logger.WithFields(logrus.Fields{
				"action": "cache_preload",
				"key":    key,
			}).WithError(err).Debug("cache_preload_failed")
		}
	})
}
