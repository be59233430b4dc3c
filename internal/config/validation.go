package config

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/dashcache/dashcache/internal/datamodule"
	"github.com/dashcache/dashcache/internal/upstream"
)

// 数据集名称会出现在 URL 与缓存 key 前缀中，限制为小写字母、数字、- 与 _。
var datasetNamePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`)

// Validate 针对语义级别做进一步校验，防止非法配置启动服务。
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("配置为空")
	}

	g := c.Global
	if g.ListenPort <= 0 || g.ListenPort > 65535 {
		return newFieldError("Global.ListenPort", "必须在 1-65535")
	}
	if g.LogLevel != "" {
		if _, err := logrus.ParseLevel(g.LogLevel); err != nil {
			return newFieldError("Global.LogLevel", "无法识别的日志级别")
		}
	}
	if g.StoragePath == "" {
		return newFieldError("Global.StoragePath", "不能为空")
	}
	if g.DefaultMaxAge.DurationValue() <= 0 {
		return newFieldError("Global.DefaultMaxAge", "必须大于 0")
	}
	if g.DefaultMaxSizeMB <= 0 {
		return newFieldError("Global.DefaultMaxSizeMB", "必须大于 0")
	}
	if g.SnapshotMaxAge.DurationValue() < 0 {
		return newFieldError("Global.SnapshotMaxAge", "不能为负数")
	}
	if g.MaxRetries < 0 || g.MaxRetries > upstream.MaxRetriesLimit {
		return newFieldError("Global.MaxRetries", fmt.Sprintf("必须位于 0-%d", upstream.MaxRetriesLimit))
	}
	if g.InitialBackoff.DurationValue() <= 0 {
		return newFieldError("Global.InitialBackoff", "必须大于 0")
	}
	if g.UpstreamTimeout.DurationValue() <= 0 {
		return newFieldError("Global.UpstreamTimeout", "必须大于 0")
	}
	if g.UpstreamRPS < 0 {
		return newFieldError("Global.UpstreamRPS", "不能为负数")
	}
	if g.UpstreamBurst < 0 {
		return newFieldError("Global.UpstreamBurst", "不能为负数")
	}

	if len(c.Datasets) == 0 {
		return errors.New("至少需要配置一个 Dataset")
	}

	seenNames := map[string]struct{}{}
	seenKeys := map[string]string{}
	for i := range c.Datasets {
		ds := &c.Datasets[i]
		if ds.Name == "" {
			return newFieldError("Dataset[].Name", "不能为空")
		}
		if !datasetNamePattern.MatchString(ds.Name) {
			return newFieldError(datasetField(ds.Name, "Name"), "仅允许小写字母、数字、- 与 _")
		}
		if _, exists := seenNames[ds.Name]; exists {
			return newFieldError(datasetField(ds.Name, "Name"), "重复")
		}
		seenNames[ds.Name] = struct{}{}

		module := strings.ToLower(strings.TrimSpace(ds.Module))
		if module == "" {
			module = datamodule.DefaultModuleKey()
		}
		if _, ok := datamodule.Resolve(module); !ok {
			return newFieldError(datasetField(ds.Name, "Module"),
				fmt.Sprintf("未注册模块: %s（可选 %s）", module, strings.Join(datamodule.Keys(), "|")))
		}
		ds.Module = module

		if err := validateUpstream(ds.Upstream); err != nil {
			return fmt.Errorf("%s: %w", datasetField(ds.Name, "Upstream"), err)
		}
		if ds.Path != "" && !strings.HasPrefix(ds.Path, "/") {
			return newFieldError(datasetField(ds.Name, "Path"), "必须以 / 开头")
		}
		if ds.MaxSizeMB < 0 {
			return newFieldError(datasetField(ds.Name, "MaxSizeMB"), "不能为负数")
		}
		if ds.MaxAge.DurationValue() < 0 {
			return newFieldError(datasetField(ds.Name, "MaxAge"), "不能为负数")
		}
		if ds.BackgroundRefreshThreshold < 0 || ds.BackgroundRefreshThreshold > 1 {
			return newFieldError(datasetField(ds.Name, "BackgroundRefreshThreshold"), "必须在 0-1 之间")
		}
		if ds.StorageKey != "" {
			if other, exists := seenKeys[ds.StorageKey]; exists {
				return newFieldError(datasetField(ds.Name, "StorageKey"), "与 "+other+" 冲突")
			}
			seenKeys[ds.StorageKey] = ds.Name
		}
		for _, p := range ds.Warm {
			if p != "" && !strings.HasPrefix(p, "/") {
				return newFieldError(datasetField(ds.Name, "Warm"), "路径必须以 / 开头: "+p)
			}
		}
	}

	return nil
}

func validateUpstream(raw string) error {
	if raw == "" {
		return errors.New("缺少上游地址")
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("仅支持 http/https，上游: %s", raw)
	}
	if parsed.Host == "" {
		return fmt.Errorf("上游缺少 Host: %s", raw)
	}
	return nil
}
