package datamodule

import "time"

// CacheProfile 描述模块推荐的缓存参数，零值字段表示沿用上层默认。
type CacheProfile struct {
	MaxAge                     time.Duration
	MaxSizeMB                  float64
	BackgroundRefresh          bool
	BackgroundRefreshThreshold float64
	PersistToStorage           bool
}

// ModuleMetadata 记录一个业务模块的静态信息，供配置校验和诊断端使用。
type ModuleMetadata struct {
	Key         string
	Description string
	// Resources 是模块常用的上游子路径，未配置 Warm 的数据集会用它们预热。
	Resources []string
	Profile   CacheProfile
}

// DefaultModuleKey 返回未声明 Module 时使用的通用模块键。
func DefaultModuleKey() string {
	return defaultModuleKey
}
