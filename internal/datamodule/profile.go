package datamodule

import "time"

// ProfileOverrides 描述来自 [[Dataset]] 的覆盖项；零值或 nil 表示不覆盖。
type ProfileOverrides struct {
	MaxAge                     time.Duration
	MaxSizeMB                  float64
	BackgroundRefresh          *bool
	BackgroundRefreshThreshold float64
	PersistToStorage           *bool
}

// ResolveProfile 将模块默认策略与数据集覆盖合并。
func ResolveProfile(meta ModuleMetadata, opts ProfileOverrides) CacheProfile {
	profile := meta.Profile
	if opts.MaxAge > 0 {
		profile.MaxAge = opts.MaxAge
	}
	if opts.MaxSizeMB > 0 {
		profile.MaxSizeMB = opts.MaxSizeMB
	}
	if opts.BackgroundRefresh != nil {
		profile.BackgroundRefresh = *opts.BackgroundRefresh
	}
	if opts.BackgroundRefreshThreshold > 0 {
		profile.BackgroundRefreshThreshold = opts.BackgroundRefreshThreshold
	}
	if opts.PersistToStorage != nil {
		profile.PersistToStorage = *opts.PersistToStorage
	}
	return normalizeProfile(profile)
}

func normalizeProfile(profile CacheProfile) CacheProfile {
	if profile.MaxAge < 0 {
		profile.MaxAge = 0
	}
	if profile.MaxSizeMB < 0 {
		profile.MaxSizeMB = 0
	}
	if profile.BackgroundRefreshThreshold <= 0 || profile.BackgroundRefreshThreshold > 1 {
		profile.BackgroundRefreshThreshold = 0
	}
	return profile
}
