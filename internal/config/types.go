package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dashcache/dashcache/internal/datamodule"
)

// Duration 提供更灵活的反序列化能力，同时兼容纯秒整数与 Go Duration 字符串。
type Duration time.Duration

// UnmarshalText 使 Viper 可以识别诸如 "30s"、"5m" 或纯数字秒值等配置写法。
func (d *Duration) UnmarshalText(text []byte) error {
	raw := strings.TrimSpace(string(text))
	if raw == "" {
		*d = Duration(0)
		return nil
	}

	if parsed, err := time.ParseDuration(raw); err == nil {
		*d = Duration(parsed)
		return nil
	}

	if seconds, err := strconv.ParseInt(raw, 10, 64); err == nil {
		*d = Duration(time.Duration(seconds) * time.Second)
		return nil
	}

	return fmt.Errorf("invalid duration value: %s", raw)
}

// DurationValue 返回真实的 time.Duration，便于调用方计算。
func (d Duration) DurationValue() time.Duration {
	return time.Duration(d)
}

// GlobalConfig 描述全局运行时行为，所有数据集共享同一份参数。
type GlobalConfig struct {
	ListenPort    int    `mapstructure:"ListenPort"`
	LogLevel      string `mapstructure:"LogLevel"`
	LogFilePath   string `mapstructure:"LogFilePath"`
	LogMaxSize    int    `mapstructure:"LogMaxSize"`
	LogMaxBackups int    `mapstructure:"LogMaxBackups"`
	LogCompress   bool   `mapstructure:"LogCompress"`
	StoragePath   string `mapstructure:"StoragePath"`

	// DefaultMaxAge/DefaultMaxSizeMB 在模块与数据集都未声明时生效。
	DefaultMaxAge    Duration `mapstructure:"DefaultMaxAge"`
	DefaultMaxSizeMB float64  `mapstructure:"DefaultMaxSizeMB"`
	SnapshotMaxAge   Duration `mapstructure:"SnapshotMaxAge"`
	// SweepInterval 为负数时关闭周期清扫。
	SweepInterval Duration `mapstructure:"SweepInterval"`
	WarmOnStart   bool     `mapstructure:"WarmOnStart"`

	MaxRetries      int      `mapstructure:"MaxRetries"`
	InitialBackoff  Duration `mapstructure:"InitialBackoff"`
	UpstreamTimeout Duration `mapstructure:"UpstreamTimeout"`
	// UpstreamRPS 为 0 表示不限速。
	UpstreamRPS   float64 `mapstructure:"UpstreamRPS"`
	UpstreamBurst int     `mapstructure:"UpstreamBurst"`
}

// DatasetConfig 描述一个对外暴露的数据集：/api/<Name>/* 映射到 Upstream + Path。
type DatasetConfig struct {
	Name     string `mapstructure:"Name"`
	Module   string `mapstructure:"Module"`
	Upstream string `mapstructure:"Upstream"`
	Path     string `mapstructure:"Path"`
	// Token 以 Bearer 方式转发给上游，支持 ${VAR} 形式引用环境变量。
	Token string `mapstructure:"Token"`

	MaxSizeMB                  float64  `mapstructure:"MaxSizeMB"`
	MaxAge                     Duration `mapstructure:"MaxAge"`
	PersistToStorage           *bool    `mapstructure:"PersistToStorage"`
	StorageKey                 string   `mapstructure:"StorageKey"`
	BackgroundRefresh          *bool    `mapstructure:"BackgroundRefresh"`
	BackgroundRefreshThreshold float64  `mapstructure:"BackgroundRefreshThreshold"`
	Warm                       []string `mapstructure:"Warm"`
}

// Config 是 TOML 文件映射的整体结构。
type Config struct {
	Global   GlobalConfig    `mapstructure:",squash"`
	Datasets []DatasetConfig `mapstructure:"Dataset"`
}

// HasToken 表示数据集是否配置了上游凭证。
func (d DatasetConfig) HasToken() bool {
	return d.Token != ""
}

// AuthMode 输出 `token` 或 `anonymous`，供日志字段使用。
func (d DatasetConfig) AuthMode() string {
	if d.HasToken() {
		return "token"
	}
	return "anonymous"
}

// AuthModes 返回所有数据集的鉴权模式摘要，例如 hr:token。
func AuthModes(datasets []DatasetConfig) []string {
	if len(datasets) == 0 {
		return nil
	}
	result := make([]string, len(datasets))
	for i, ds := range datasets {
		result[i] = fmt.Sprintf("%s:%s", ds.Name, ds.AuthMode())
	}
	return result
}

// ProfileOverrides 将数据集层的缓存配置映射为模块策略覆盖项。
func (d DatasetConfig) ProfileOverrides() datamodule.ProfileOverrides {
	return datamodule.ProfileOverrides{
		MaxAge:                     d.MaxAge.DurationValue(),
		MaxSizeMB:                  d.MaxSizeMB,
		BackgroundRefresh:          d.BackgroundRefresh,
		BackgroundRefreshThreshold: d.BackgroundRefreshThreshold,
		PersistToStorage:           d.PersistToStorage,
	}
}
