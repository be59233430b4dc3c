package config

import (
	"github.com/dashcache/dashcache/internal/cache"
	"github.com/dashcache/dashcache/internal/datamodule"
)

// DatasetRuntime 将数据集配置与模块元数据合并，方便运行时快速取用缓存参数。
type DatasetRuntime struct {
	Config      DatasetConfig
	Module      datamodule.ModuleMetadata
	CacheConfig cache.Config
	// WarmPaths 优先取数据集的 Warm，未配置时回退到模块的 Resources。
	WarmPaths []string
}

// BuildDatasetRuntime 依次应用模块默认值、数据集覆盖与全局兜底，生成缓存配置。
func BuildDatasetRuntime(ds DatasetConfig, meta datamodule.ModuleMetadata, global GlobalConfig) DatasetRuntime {
	profile := datamodule.ResolveProfile(meta, ds.ProfileOverrides())
	if profile.MaxAge <= 0 {
		profile.MaxAge = global.DefaultMaxAge.DurationValue()
	}
	if profile.MaxSizeMB <= 0 {
		profile.MaxSizeMB = global.DefaultMaxSizeMB
	}

	storageKey := ds.StorageKey
	if storageKey == "" {
		storageKey = ds.Name
	}

	warm := ds.Warm
	if len(warm) == 0 {
		warm = meta.Resources
	}

	return DatasetRuntime{
		Config: ds,
		Module: meta,
		CacheConfig: cache.Config{
			MaxSizeMB:                  profile.MaxSizeMB,
			MaxAge:                     profile.MaxAge,
			PersistToStorage:           profile.PersistToStorage,
			StorageKey:                 storageKey,
			BackgroundRefresh:          profile.BackgroundRefresh,
			BackgroundRefreshThreshold: profile.BackgroundRefreshThreshold,
			SweepInterval:              global.SweepInterval.DurationValue(),
			SnapshotMaxAge:             global.SnapshotMaxAge.DurationValue(),
		},
		WarmPaths: append([]string(nil), warm...),
	}
}
