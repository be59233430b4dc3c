package cache

import "sort"

// ensureCapacityLocked 在插入前按 LastAccessed 升序淘汰，直到新条目能放下或条目耗尽。
// 淘汰基于访问时间而非插入时间，过期但未清扫的条目同样参与排序。
func (c *Cache[T]) ensureCapacityLocked(newSize int64) {
	if c.stats.TotalSize+newSize <= c.maxBytes {
		return
	}

	type candidate struct {
		key string
		ent *Entry[T]
	}
	candidates := make([]candidate, 0, len(c.entries))
	for key, ent := range c.entries {
		candidates = append(candidates, candidate{key: key, ent: ent})
	}
	sort.Slice(candidates, func(i, j int) bool {
		a, b := candidates[i].ent.LastAccessed, candidates[j].ent.LastAccessed
		if a.Equal(b) {
			return candidates[i].key < candidates[j].key
		}
		return a.Before(b)
	})

	projected := c.stats.TotalSize
	for _, cand := range candidates {
		if projected+newSize <= c.maxBytes {
			break
		}
		delete(c.entries, cand.key)
		projected -= cand.ent.Size
		c.stats.Evictions++
		c.logger.WithField("key", cand.key).
			WithField("size", cand.ent.Size).
			Debug("cache_evicted")
	}
	c.stats.TotalSize = projected
	c.stats.EntryCount = len(c.entries)
}
