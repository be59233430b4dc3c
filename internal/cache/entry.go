package cache

import (
	"context"
	"encoding/json"
	"time"
)

// Fetcher 产出需要缓存的值，通常是一次上游 HTTP 调用。
type Fetcher[T any] func(ctx context.Context) (T, error)

// Outcome 描述一次 Get 的命中情况，供日志与响应头使用。
type Outcome string

const (
	OutcomeHit    Outcome = "hit"
	OutcomeMiss   Outcome = "miss"
	OutcomeShared Outcome = "shared"
)

// Entry 是单个缓存条目。ExpiresAt 在创建时固定为 Timestamp + MaxAge，
// 之后只有 AccessCount/LastAccessed 会原地更新。
type Entry[T any] struct {
	Data         T         `json:"data"`
	Timestamp    time.Time `json:"timestamp"`
	ExpiresAt    time.Time `json:"expires_at"`
	AccessCount  int64     `json:"access_count"`
	LastAccessed time.Time `json:"last_accessed"`
	Size         int64     `json:"size"`
}

func (e *Entry[T]) expired(now time.Time) bool {
	return !now.Before(e.ExpiresAt)
}

// Stats 是派生统计。Hits/Misses/Evictions 不随 Clear 归零。
type Stats struct {
	Hits       int64   `json:"hits"`
	Misses     int64   `json:"misses"`
	HitRate    float64 `json:"hit_rate"`
	TotalSize  int64   `json:"total_size"`
	EntryCount int     `json:"entry_count"`
	Evictions  int64   `json:"evictions"`
}

// PendingRequest 描述一个正在进行中的 fetch。
type PendingRequest struct {
	Key     string    `json:"key"`
	Started time.Time `json:"started"`
	Waiters int       `json:"waiters"`
}

// call 是被所有并发调用方共享的 fetch；done 关闭后 val/err 只读。
type call[T any] struct {
	started time.Time
	waiters int
	done    chan struct{}
	val     T
	err     error
}

// defaultEntrySize 用于无法 JSON 编码的值。
const defaultEntrySize = 1024

// estimateSize 以 JSON 编码长度近似条目大小，并非精确的内存占用。
func estimateSize(v any) int64 {
	data, err := json.Marshal(v)
	if err != nil {
		return defaultEntrySize
	}
	return int64(len(data))
}
