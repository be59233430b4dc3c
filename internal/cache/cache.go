package cache

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/dashcache/dashcache/internal/storage"
)

// Options 注入缓存的外部依赖，全部可选（启用持久化时 Store 必填）。
type Options struct {
	// Name 仅用于日志字段，通常是数据集名称。
	Name   string
	Store  storage.Store
	Logger logrus.FieldLogger
	// Clock 默认为 time.Now，测试中可替换。
	Clock func() time.Time
}

// Cache 是带去重、LRU 淘汰、后台刷新与快照持久化的缓存引擎。
//
// mu 保护 “检查 pending → 检查条目 → 决策” 这一整段逻辑以及所有统计字段，
// 保证同一个 key 在任意时刻最多只有一个前台 fetch。
type Cache[T any] struct {
	cfg      Config
	maxBytes int64
	store    storage.Store
	logger   logrus.FieldLogger
	now      func() time.Time

	mu      sync.Mutex
	entries map[string]*Entry[T]
	pending map[string]*call[T]
	stats   Stats
	closed  bool

	refreshGroup singleflight.Group
	persister    persister

	// 后台任务（清扫、刷新、预加载）的生命周期。
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New 校验配置、恢复快照（若启用持久化）并启动周期清扫。
func New[T any](cfg Config, opts Options) (*Cache[T], error) {
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.PersistToStorage && opts.Store == nil {
		return nil, fmt.Errorf("%w: Store is required when PersistToStorage is enabled", ErrInvalidConfig)
	}

	logger := opts.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	if opts.Name != "" {
		logger = logger.WithField("dataset", opts.Name)
	}
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := &Cache[T]{
		cfg:      cfg,
		maxBytes: cfg.MaxSizeBytes(),
		store:    opts.Store,
		logger:   logger,
		now:      clock,
		entries:  make(map[string]*Entry[T]),
		pending:  make(map[string]*call[T]),
		ctx:      ctx,
		cancel:   cancel,
	}

	if cfg.PersistToStorage {
		c.restore()
	}

	if cfg.SweepInterval > 0 {
		c.wg.Add(1)
		go c.sweepLoop()
	}

	return c, nil
}

// Config 返回生效中的配置（已填充默认值）。
func (c *Cache[T]) Config() Config {
	return c.cfg
}

// Get 返回 key 对应的值；缓存缺失或过期时调用 fetch 并写入缓存。
func (c *Cache[T]) Get(ctx context.Context, key string, fetch Fetcher[T]) (T, error) {
	val, _, err := c.GetWithOutcome(ctx, key, fetch)
	return val, err
}

// GetWithOutcome 与 Get 相同，并额外返回命中情况。
//
// 同一 key 的并发调用只会触发一次 fetch，所有调用方得到同一个结果或同一个错误。
// fetch 与调用方的 ctx 取消解耦：调用方 ctx 结束时仅停止等待并返回 ctx.Err()，
// fetch 本身继续执行并在成功时写入缓存。
func (c *Cache[T]) GetWithOutcome(ctx context.Context, key string, fetch Fetcher[T]) (T, Outcome, error) {
	c.mu.Lock()

	if p, ok := c.pending[key]; ok {
		p.waiters++
		c.mu.Unlock()
		val, err := c.wait(ctx, p)
		return val, OutcomeShared, err
	}

	now := c.now()
	if ent, ok := c.entries[key]; ok && !ent.expired(now) {
		c.stats.Hits++
		c.updateHitRateLocked()
		ent.LastAccessed = now
		ent.AccessCount++
		data := ent.Data
		refresh := c.shouldRefreshLocked(ent, now)
		c.mu.Unlock()

		if refresh {
			c.refreshAsync(key, fetch)
		}
		return data, OutcomeHit, nil
	}

	// 过期条目与缺失等同处理，但不在此处删除，留给清扫或淘汰。
	c.stats.Misses++
	c.updateHitRateLocked()
	p := &call[T]{started: now, waiters: 1, done: make(chan struct{})}
	c.pending[key] = p
	c.mu.Unlock()

	go c.runFetch(context.WithoutCancel(ctx), key, p, fetch)

	val, err := c.wait(ctx, p)
	return val, OutcomeMiss, err
}

// runFetch 执行共享 fetch：成功时先写入缓存再移除 pending，保证两者之间没有空窗。
func (c *Cache[T]) runFetch(ctx context.Context, key string, p *call[T], fetch Fetcher[T]) {
	val, err := safeFetch(ctx, fetch)
	if err == nil {
		c.Set(key, val)
	}

	c.mu.Lock()
	if c.pending[key] == p {
		delete(c.pending, key)
	}
	c.mu.Unlock()

	p.val, p.err = val, err
	close(p.done)
}

func (c *Cache[T]) wait(ctx context.Context, p *call[T]) (T, error) {
	select {
	case <-p.done:
		return p.val, p.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// safeFetch 将 fetcher 的 panic 转换为错误，避免拖垮共享该 fetch 的所有调用方。
func safeFetch[T any](ctx context.Context, fetch Fetcher[T]) (val T, err error) {
	if fetch == nil {
		return val, errors.New("cache: nil fetcher")
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("cache: fetcher panic: %v", r)
		}
	}()
	return fetch(ctx)
}

// Set 写入或整体替换一个条目。容量检查先于插入，新条目不会在同一轮被淘汰；
// 即便清空后仍超出预算，新条目依旧写入（容量为尽力而为）。
func (c *Cache[T]) Set(key string, data T) {
	size := estimateSize(data)
	now := c.now()
	ent := &Entry[T]{
		Data:         data,
		Timestamp:    now,
		ExpiresAt:    now.Add(c.cfg.MaxAge),
		LastAccessed: now,
		Size:         size,
	}

	c.mu.Lock()
	if old, ok := c.entries[key]; ok {
		delete(c.entries, key)
		c.stats.TotalSize -= old.Size
	}
	c.ensureCapacityLocked(size)
	c.entries[key] = ent
	c.stats.TotalSize += size
	c.stats.EntryCount = len(c.entries)
	write := c.snapshotLocked(now)
	c.mu.Unlock()

	c.persist(write)
}

// Delete 删除单个条目并返回是否确有删除。
func (c *Cache[T]) Delete(key string) bool {
	c.mu.Lock()
	removed := c.removeLocked(key)
	var write *snapshotWrite
	if removed {
		write = c.snapshotLocked(c.now())
	}
	c.mu.Unlock()

	c.persist(write)
	return removed
}

// Clear 清空条目与 pending 记录，保留 Hits/Misses/Evictions 历史计数。
// 仍在进行中的 fetch 会照常完成，并可能在之后写回结果。
func (c *Cache[T]) Clear() {
	c.mu.Lock()
	c.entries = make(map[string]*Entry[T])
	c.pending = make(map[string]*call[T])
	c.stats.TotalSize = 0
	c.stats.EntryCount = 0
	write := c.snapshotLocked(c.now())
	c.mu.Unlock()

	c.persist(write)
}

// Stats 返回当前统计的副本。
func (c *Cache[T]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

// Peek 返回条目副本，不计入命中统计也不更新访问时间。
func (c *Cache[T]) Peek(key string) (Entry[T], bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	ent, ok := c.entries[key]
	if !ok {
		return Entry[T]{}, false
	}
	return *ent, true
}

// Keys 返回排序后的全部 key（包含尚未清扫的过期条目）。
func (c *Cache[T]) Keys() []string {
	c.mu.Lock()
	keys := make([]string, 0, len(c.entries))
	for key := range c.entries {
		keys = append(keys, key)
	}
	c.mu.Unlock()
	sort.Strings(keys)
	return keys
}

// Pending 返回进行中的 fetch 列表，按 key 排序。
func (c *Cache[T]) Pending() []PendingRequest {
	c.mu.Lock()
	result := make([]PendingRequest, 0, len(c.pending))
	for key, p := range c.pending {
		result = append(result, PendingRequest{Key: key, Started: p.started, Waiters: p.waiters})
	}
	c.mu.Unlock()
	sort.Slice(result, func(i, j int) bool {
		return result[i].Key < result[j].Key
	})
	return result
}

// Close 停止周期清扫并等待后台刷新/预加载结束，可重复调用。
func (c *Cache[T]) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()

	c.cancel()
	c.wg.Wait()
	return nil
}

// goBackground 在缓存未关闭时登记并启动后台任务；返回 false 表示已关闭。
func (c *Cache[T]) goBackground(fn func()) bool {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return false
	}
	c.wg.Add(1)
	c.mu.Unlock()

	go func() {
		defer c.wg.Done()
		fn()
	}()
	return true
}

func (c *Cache[T]) removeLocked(key string) bool {
	ent, ok := c.entries[key]
	if !ok {
		return false
	}
	delete(c.entries, key)
	c.stats.TotalSize -= ent.Size
	c.stats.EntryCount = len(c.entries)
	return true
}

func (c *Cache[T]) updateHitRateLocked() {
	total := c.stats.Hits + c.stats.Misses
	if total == 0 {
		c.stats.HitRate = 0
		return
	}
	c.stats.HitRate = float64(c.stats.Hits) / float64(total)
}
