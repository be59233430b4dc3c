package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"

	"github.com/dashcache/dashcache/internal/datamodule"
)

// EnvPrefix 是全局字段的环境变量前缀，例如 DASHCACHE_LISTENPORT。
const EnvPrefix = "DASHCACHE"

// LoadDotEnv 加载 .env 文件中的变量，不覆盖已存在的环境变量；文件不存在时忽略。
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, path := range paths {
		if err := godotenv.Load(path); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("加载 %s 失败: %w", path, err)
		}
	}
	return nil
}

// Load 读取并解析 TOML 配置文件，同时注入默认值与校验逻辑。
func Load(path string) (*Config, error) {
	if path == "" {
		path = "config.toml"
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("读取配置失败: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(durationDecodeHook())); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}

	applyGlobalDefaults(&cfg.Global)
	for i := range cfg.Datasets {
		applyDatasetDefaults(&cfg.Datasets[i])
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	absStorage, err := filepath.Abs(cfg.Global.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("无法解析存储目录: %w", err)
	}
	cfg.Global.StoragePath = absStorage

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ListenPort", 5000)
	v.SetDefault("LogLevel", "info")
	v.SetDefault("LogFilePath", "")
	v.SetDefault("LogMaxSize", 100)
	v.SetDefault("LogMaxBackups", 10)
	v.SetDefault("LogCompress", true)
	v.SetDefault("StoragePath", "./storage")
	v.SetDefault("DefaultMaxAge", "5m")
	v.SetDefault("DefaultMaxSizeMB", 10)
	v.SetDefault("SnapshotMaxAge", "24h")
	v.SetDefault("SweepInterval", "1m")
	v.SetDefault("WarmOnStart", true)
	v.SetDefault("MaxRetries", 3)
	v.SetDefault("InitialBackoff", "1s")
	v.SetDefault("UpstreamTimeout", "30s")
	v.SetDefault("UpstreamRPS", 0)
	v.SetDefault("UpstreamBurst", 10)
}

func applyGlobalDefaults(g *GlobalConfig) {
	if g.ListenPort == 0 {
		g.ListenPort = 5000
	}
	if g.DefaultMaxAge.DurationValue() == 0 {
		g.DefaultMaxAge = Duration(5 * time.Minute)
	}
	if g.SnapshotMaxAge.DurationValue() == 0 {
		g.SnapshotMaxAge = Duration(24 * time.Hour)
	}
	if g.InitialBackoff.DurationValue() == 0 {
		g.InitialBackoff = Duration(time.Second)
	}
	if g.UpstreamTimeout.DurationValue() == 0 {
		g.UpstreamTimeout = Duration(30 * time.Second)
	}
	if g.UpstreamRPS > 0 && g.UpstreamBurst <= 0 {
		g.UpstreamBurst = 1
	}
}

func applyDatasetDefaults(d *DatasetConfig) {
	d.Name = strings.TrimSpace(d.Name)
	if module := strings.ToLower(strings.TrimSpace(d.Module)); module != "" {
		d.Module = module
	} else {
		d.Module = datamodule.DefaultModuleKey()
	}
	d.Upstream = strings.TrimRight(strings.TrimSpace(d.Upstream), "/")
	d.Path = normalizeSubPath(d.Path)
	if strings.TrimSpace(d.StorageKey) == "" {
		d.StorageKey = d.Name
	}
	d.Token = os.ExpandEnv(d.Token)
	for i, p := range d.Warm {
		d.Warm[i] = normalizeSubPath(p)
	}
}

// normalizeSubPath 统一为以 "/" 开头且不以 "/" 结尾的形式，空串保持为空。
func normalizeSubPath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" || p == "/" {
		return ""
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return strings.TrimRight(p, "/")
}

func durationDecodeHook() mapstructure.DecodeHookFunc {
	targetType := reflect.TypeOf(Duration(0))

	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != targetType {
			return data, nil
		}

		switch v := data.(type) {
		case string:
			if v == "" {
				return Duration(0), nil
			}
			if parsed, err := time.ParseDuration(v); err == nil {
				return Duration(parsed), nil
			}
			if seconds, err := strconv.ParseFloat(v, 64); err == nil {
				return Duration(time.Duration(seconds * float64(time.Second))), nil
			}
			return nil, fmt.Errorf("无法解析 Duration 字段: %s", v)
		case int:
			return Duration(time.Duration(v) * time.Second), nil
		case int64:
			return Duration(time.Duration(v) * time.Second), nil
		case float64:
			return Duration(time.Duration(v * float64(time.Second))), nil
		case time.Duration:
			return Duration(v), nil
		case Duration:
			return v, nil
		default:
			return nil, fmt.Errorf("不支持的 Duration 类型: %T", v)
		}
	}
}
