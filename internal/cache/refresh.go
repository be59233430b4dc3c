package cache

import (
	"time"

	"github.com/sirupsen/logrus"
)

// shouldRefreshLocked 判断命中的条目是否已越过刷新阈值。
func (c *Cache[T]) shouldRefreshLocked(ent *Entry[T], now time.Time) bool {
	if !c.cfg.BackgroundRefresh || c.closed {
		return false
	}
	threshold := time.Duration(float64(c.cfg.MaxAge) * c.cfg.BackgroundRefreshThreshold)
	return now.Sub(ent.Timestamp) > threshold
}

// refreshAsync 在后台重新 fetch 并覆盖条目，不阻塞触发它的调用方。
// 同一 key 的并发刷新经 singleflight 合并；失败只记录日志，旧条目保持不变。
func (c *Cache[T]) refreshAsync(key string, fetch Fetcher[T]) {
	c.goBackground(func() {
		_, err, shared := c.refreshGroup.Do(key, func() (any, error) {
			val, err := safeFetch(c.ctx, fetch)
			if err != nil {
				return nil, err
			}
			c.Set(key, val)
			return nil, nil
		})
		if err != nil && !shared {
			c.logger.WithFields(logrus.Fields{
				"action": "cache_refresh",
				"key":    key,
			}).WithError(err).Warn("cache_refresh_failed")
		}
	})
}
