package cache

import "time"

// sweepLoop 按固定周期清扫过期条目，与 Get/Set 调用无关。
func (c *Cache[T]) sweepLoop() {
	defer c.wg.Done()

	ticker := time.NewTicker(c.cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.ctx.Done():
			return
		case <-ticker.C:
			c.Sweep()
		}
	}
}

// Sweep 删除所有 ExpiresAt <= now 的条目并返回删除数量，
// 删除走与 Delete 相同的统计与持久化路径。
func (c *Cache[T]) Sweep() int {
	c.mu.Lock()
	now := c.now()
	removed := 0
	for key, ent := range c.entries {
		if ent.expired(now) && c.removeLocked(key) {
			removed++
		}
	}
	var write *snapshotWrite
	if removed > 0 {
		write = c.snapshotLocked(now)
	}
	c.mu.Unlock()

	if removed > 0 {
		c.persist(write)
		c.logger.WithField("removed", removed).Debug("cache_swept")
	}
	return removed
}
