package cache

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/dashcache/dashcache/internal/storage"
)

const persistTimeout = 5 * time.Second

// snapshot 是写入存储的整体快照，每次变更整份覆盖。
type snapshot[T any] struct {
	SavedAt time.Time            `json:"saved_at"`
	Entries map[string]*Entry[T] `json:"entries"`
	Stats   Stats                `json:"stats"`
}

type snapshotWrite struct {
	seq     uint64
	payload []byte
}

// persister 保证快照按生成顺序落盘：较旧的快照不会覆盖较新的。
// seq 由 Cache.mu 保护，written 由 mu 保护。
type persister struct {
	seq uint64

	mu      sync.Mutex
	written uint64
}

// snapshotLocked 在持有 Cache.mu 时编码快照，未启用持久化时返回 nil。
func (c *Cache[T]) snapshotLocked(now time.Time) *snapshotWrite {
	if !c.cfg.PersistToStorage {
		return nil
	}
	payload, err := json.Marshal(snapshot[T]{
		SavedAt: now,
		Entries: c.entries,
		Stats:   c.stats,
	})
	if err != nil {
		c.logger.WithField("action", "cache_persist").
			WithError(err).
			Warn("cache_persist_encode_failed")
		return nil
	}
	c.persister.seq++
	return &snapshotWrite{seq: c.persister.seq, payload: payload}
}

// persist 写入快照；失败只记录日志，缓存继续以纯内存方式工作。
func (c *Cache[T]) persist(w *snapshotWrite) {
	if w == nil || c.store == nil {
		return
	}

	c.persister.mu.Lock()
	defer c.persister.mu.Unlock()

	if w.seq <= c.persister.written {
		return
	}
	c.persister.written = w.seq

	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()
	if err := c.store.Set(ctx, c.cfg.SnapshotKey(), string(w.payload)); err != nil {
		c.logger.WithFields(logrus.Fields{
			"action":      "cache_persist",
			"storage_key": c.cfg.SnapshotKey(),
		}).WithError(err).Warn("cache_persist_failed")
	}
}

// restore 在构造期加载快照。快照过旧、读取或解码失败时一律冷启动。
func (c *Cache[T]) restore() {
	fields := logrus.Fields{
		"action":      "cache_restore",
		"storage_key": c.cfg.SnapshotKey(),
	}

	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()

	raw, err := c.store.Get(ctx, c.cfg.SnapshotKey())
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			c.logger.WithFields(fields).WithError(err).Warn("cache_restore_failed")
		}
		return
	}

	var snap snapshot[T]
	if err := json.Unmarshal([]byte(raw), &snap); err != nil {
		c.logger.WithFields(fields).WithError(err).Warn("cache_restore_decode_failed")
		return
	}

	age := c.now().Sub(snap.SavedAt)
	if snap.SavedAt.IsZero() || age > c.cfg.SnapshotMaxAge {
		fields["snapshot_age"] = age.String()
		c.logger.WithFields(fields).Info("cache_restore_stale")
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	var total int64
	for key, ent := range snap.Entries {
		if ent == nil {
			continue
		}
		c.entries[key] = ent
		total += ent.Size
	}
	c.stats = Stats{
		Hits:       snap.Stats.Hits,
		Misses:     snap.Stats.Misses,
		Evictions:  snap.Stats.Evictions,
		TotalSize:  total,
		EntryCount: len(c.entries),
	}
	c.updateHitRateLocked()
	// 快照可能来自更大的容量配置，按当前预算淘汰最久未访问的条目。
	c.ensureCapacityLocked(0)

	fields["entries"] = len(c.entries)
	c.logger.WithFields(fields).Info("cache_restored")
}
