package cache

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
)

const (
	// DefaultBackgroundRefreshThreshold 表示条目年龄超过 MaxAge 的 80% 后触发后台刷新。
	DefaultBackgroundRefreshThreshold = 0.8
	// DefaultSweepInterval 是过期清扫的默认周期。
	DefaultSweepInterval = time.Minute
	// DefaultSnapshotMaxAge 是持久化快照的可信上限，超过即冷启动。
	DefaultSnapshotMaxAge = 24 * time.Hour
	// DefaultWarmConcurrency 限制预热时的并发 fetch 数。
	DefaultWarmConcurrency = 8

	bytesPerMB = 1024 * 1024
)

// ErrInvalidConfig 包装所有构造期的配置错误。
var ErrInvalidConfig = errors.New("invalid cache config")

// Config 描述单个缓存实例的容量、时效、持久化与刷新策略，构造后不可修改。
type Config struct {
	// MaxSizeMB 是容量预算（MB），使用时换算为字节。
	MaxSizeMB float64
	// MaxAge 是条目自创建起的有效期。
	MaxAge time.Duration

	PersistToStorage bool
	// StorageKey 是快照命名空间，实际写入 StorageKey + "_cache"。
	StorageKey string

	BackgroundRefresh bool
	// BackgroundRefreshThreshold 是 MaxAge 的比例，取值 (0, 1]。
	BackgroundRefreshThreshold float64

	// SweepInterval 为 0 时使用默认值，为负数时关闭周期清扫。
	SweepInterval time.Duration
	// SnapshotMaxAge 为 0 时使用默认值。
	SnapshotMaxAge  time.Duration
	WarmConcurrency int
}

// MaxSizeBytes 返回换算后的字节预算。
func (c Config) MaxSizeBytes() int64 {
	return int64(math.Round(c.MaxSizeMB * bytesPerMB))
}

// SnapshotKey 返回持久化快照在存储中的 key。
func (c Config) SnapshotKey() string {
	return c.StorageKey + "_cache"
}

func (c Config) withDefaults() Config {
	if c.BackgroundRefreshThreshold == 0 {
		c.BackgroundRefreshThreshold = DefaultBackgroundRefreshThreshold
	}
	if c.SweepInterval == 0 {
		c.SweepInterval = DefaultSweepInterval
	}
	if c.SnapshotMaxAge == 0 {
		c.SnapshotMaxAge = DefaultSnapshotMaxAge
	}
	if c.WarmConcurrency <= 0 {
		c.WarmConcurrency = DefaultWarmConcurrency
	}
	c.StorageKey = strings.TrimSpace(c.StorageKey)
	return c
}

// Validate 在构造期拒绝非法配置，错误均包装 ErrInvalidConfig。
func (c Config) Validate() error {
	if c.MaxSizeMB <= 0 || math.IsNaN(c.MaxSizeMB) || math.IsInf(c.MaxSizeMB, 0) {
		return fmt.Errorf("%w: MaxSizeMB must be greater than 0", ErrInvalidConfig)
	}
	if c.MaxSizeBytes() <= 0 {
		return fmt.Errorf("%w: MaxSizeMB is smaller than one byte", ErrInvalidConfig)
	}
	if c.MaxAge <= 0 {
		return fmt.Errorf("%w: MaxAge must be greater than 0", ErrInvalidConfig)
	}
	if c.BackgroundRefreshThreshold < 0 || c.BackgroundRefreshThreshold > 1 {
		return fmt.Errorf("%w: BackgroundRefreshThreshold must be within (0, 1]", ErrInvalidConfig)
	}
	if c.SnapshotMaxAge < 0 {
		return fmt.Errorf("%w: SnapshotMaxAge must not be negative", ErrInvalidConfig)
	}
	if c.PersistToStorage && strings.TrimSpace(c.StorageKey) == "" {
		return fmt.Errorf("%w: StorageKey is required when PersistToStorage is enabled", ErrInvalidConfig)
	}
	return nil
}
