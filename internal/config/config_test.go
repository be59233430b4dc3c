package config

import (
	"errors"
	"testing"
	"time"

	"github.com/dashcache/dashcache/internal/datamodule"
)

func TestLoadWithDefaults(t *testing.T) {
	t.Setenv("DASHCACHE_TEST_HR_TOKEN", "s3cret")

	cfg, err := Load(testConfigPath(t, "valid.toml"))
	if err != nil {
		t.Fatalf("Load 返回错误: %v", err)
	}
	g := cfg.Global
	if g.ListenPort != 5100 {
		t.Fatalf("ListenPort 应当被解析, got %d", g.ListenPort)
	}
	if g.DefaultMaxAge.DurationValue() != 5*time.Minute {
		t.Fatalf("DefaultMaxAge 应该自动填充默认值, got %s", g.DefaultMaxAge.DurationValue())
	}
	if g.SnapshotMaxAge.DurationValue() != 24*time.Hour {
		t.Fatalf("SnapshotMaxAge 默认应为 24h")
	}
	if g.SweepInterval.DurationValue() != 30*time.Second {
		t.Fatalf("SweepInterval 解析错误: %s", g.SweepInterval.DurationValue())
	}
	if !g.WarmOnStart {
		t.Fatalf("WarmOnStart 默认开启")
	}
	if g.StoragePath == "" || g.StoragePath == "./storage" {
		t.Fatalf("StoragePath 应转换为绝对路径: %s", g.StoragePath)
	}
	if len(cfg.Datasets) != 3 {
		t.Fatalf("expected 3 datasets, got %d", len(cfg.Datasets))
	}

	hr := cfg.Datasets[0]
	if hr.Upstream != "https://erp.example.com" || hr.Path != "/api/v1/hr" {
		t.Fatalf("Upstream/Path 未规范化: %q %q", hr.Upstream, hr.Path)
	}
	if hr.Token != "s3cret" {
		t.Fatalf("Token 应展开环境变量, got %q", hr.Token)
	}
	if hr.StorageKey != "hr" {
		t.Fatalf("StorageKey 默认取名称, got %q", hr.StorageKey)
	}

	crm := cfg.Datasets[1]
	if crm.Module != "crm" {
		t.Fatalf("Module 应转为小写, got %q", crm.Module)
	}
	if crm.MaxAge.DurationValue() != 45*time.Second {
		t.Fatalf("纯数字 MaxAge 应按秒解析, got %s", crm.MaxAge.DurationValue())
	}
	if crm.BackgroundRefresh == nil || *crm.BackgroundRefresh {
		t.Fatalf("BackgroundRefresh=false 应被显式记录")
	}
	if len(crm.Warm) != 2 || crm.Warm[0] != "/leads" || crm.Warm[1] != "/deals" {
		t.Fatalf("Warm 路径未规范化: %v", crm.Warm)
	}

	reports := cfg.Datasets[2]
	if reports.Module != datamodule.DefaultModuleKey() {
		t.Fatalf("未声明 Module 时应使用默认模块, got %q", reports.Module)
	}
	if reports.PersistToStorage == nil || !*reports.PersistToStorage {
		t.Fatalf("PersistToStorage 应被解析")
	}
}

func TestLoadHonoursEnvOverrides(t *testing.T) {
	t.Setenv("DASHCACHE_LISTENPORT", "6200")

	cfg, err := Load(testConfigPath(t, "valid.toml"))
	if err != nil {
		t.Fatalf("Load 返回错误: %v", err)
	}
	if cfg.Global.ListenPort != 6200 {
		t.Fatalf("环境变量应覆盖 ListenPort, got %d", cfg.Global.ListenPort)
	}
}

func TestValidateEnforcesListenPortRange(t *testing.T) {
	cfg := validConfig()
	cfg.Global.ListenPort = 70000
	if err := cfg.Validate(); err == nil {
		t.Fatalf("ListenPort 超出范围应当报错")
	}
}

func TestValidateBoundsMaxRetries(t *testing.T) {
	cfg := validConfig()
	cfg.Global.MaxRetries = 40

	err := cfg.Validate()
	var fieldErr FieldError
	if !errors.As(err, &fieldErr) || fieldErr.Field != "Global.MaxRetries" {
		t.Fatalf("过大的 MaxRetries 应当报错，得到 %v", err)
	}

	cfg.Global.MaxRetries = 10
	if err := cfg.Validate(); err != nil {
		t.Fatalf("MaxRetries=10 应当合法: %v", err)
	}
}

func TestValidateReturnsFieldError(t *testing.T) {
	cfg := validConfig()
	cfg.Datasets[0].MaxSizeMB = -1

	err := cfg.Validate()
	var fieldErr FieldError
	if !errors.As(err, &fieldErr) {
		t.Fatalf("expected FieldError, got %v", err)
	}
	if fieldErr.Field != "Dataset[hr].MaxSizeMB" {
		t.Fatalf("unexpected field path: %s", fieldErr.Field)
	}
}

func TestDatasetValidation(t *testing.T) {
	testCases := []struct {
		name      string
		mutate    func(*Config)
		shouldErr bool
	}{
		{"valid", func(*Config) {}, false},
		{"default module", func(c *Config) { c.Datasets[0].Module = "" }, false},
		{"unknown module", func(c *Config) { c.Datasets[0].Module = "payroll" }, true},
		{"upper case name", func(c *Config) { c.Datasets[0].Name = "HR" }, true},
		{"missing name", func(c *Config) { c.Datasets[0].Name = "" }, true},
		{"bad upstream scheme", func(c *Config) { c.Datasets[0].Upstream = "ftp://erp" }, true},
		{"missing upstream host", func(c *Config) { c.Datasets[0].Upstream = "https://" }, true},
		{"threshold above one", func(c *Config) { c.Datasets[0].BackgroundRefreshThreshold = 1.2 }, true},
		{"negative max age", func(c *Config) { c.Datasets[0].MaxAge = Duration(-time.Second) }, true},
		{"no datasets", func(c *Config) { c.Datasets = nil }, true},
		{"bad log level", func(c *Config) { c.Global.LogLevel = "loud" }, true},
		{"duplicate name", func(c *Config) {
			c.Datasets = append(c.Datasets, c.Datasets[0])
		}, true},
		{"shared storage key", func(c *Config) {
			second := c.Datasets[0]
			second.Name = "hr-archive"
			c.Datasets[0].StorageKey = "shared"
			second.StorageKey = "shared"
			c.Datasets = append(c.Datasets, second)
		}, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(cfg)
			err := cfg.Validate()
			if tc.shouldErr && err == nil {
				t.Fatalf("expected error")
			}
			if !tc.shouldErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestBuildDatasetRuntimeMergesLayers(t *testing.T) {
	global := validConfig().Global
	global.SweepInterval = Duration(-1)
	global.SnapshotMaxAge = Duration(time.Hour)

	meta, ok := datamodule.Resolve("hr")
	if !ok {
		t.Fatalf("hr module should be registered")
	}
	off := false
	ds := DatasetConfig{
		Name:              "hr",
		MaxSizeMB:         3,
		BackgroundRefresh: &off,
	}

	rt := BuildDatasetRuntime(ds, meta, global)
	if rt.CacheConfig.MaxSizeMB != 3 {
		t.Fatalf("dataset size override should win, got %v", rt.CacheConfig.MaxSizeMB)
	}
	if rt.CacheConfig.MaxAge != meta.Profile.MaxAge {
		t.Fatalf("module max age should apply, got %s", rt.CacheConfig.MaxAge)
	}
	if rt.CacheConfig.BackgroundRefresh {
		t.Fatalf("dataset should disable background refresh")
	}
	if !rt.CacheConfig.PersistToStorage || rt.CacheConfig.StorageKey != "hr" {
		t.Fatalf("persistence should follow module default with name as key: %+v", rt.CacheConfig)
	}
	if rt.CacheConfig.SweepInterval != -1 || rt.CacheConfig.SnapshotMaxAge != time.Hour {
		t.Fatalf("global cache settings should propagate: %+v", rt.CacheConfig)
	}
	if len(rt.WarmPaths) != len(meta.Resources) {
		t.Fatalf("warm paths should fall back to module resources: %v", rt.WarmPaths)
	}
}

func TestBuildDatasetRuntimeFallsBackToGlobal(t *testing.T) {
	global := validConfig().Global
	meta := datamodule.ModuleMetadata{Key: "bare"}

	rt := BuildDatasetRuntime(DatasetConfig{Name: "bare", Warm: []string{"/x"}}, meta, global)
	if rt.CacheConfig.MaxAge != global.DefaultMaxAge.DurationValue() {
		t.Fatalf("global max age should apply, got %s", rt.CacheConfig.MaxAge)
	}
	if rt.CacheConfig.MaxSizeMB != global.DefaultMaxSizeMB {
		t.Fatalf("global size should apply, got %v", rt.CacheConfig.MaxSizeMB)
	}
	if len(rt.WarmPaths) != 1 || rt.WarmPaths[0] != "/x" {
		t.Fatalf("dataset warm paths should win: %v", rt.WarmPaths)
	}
	if err := rt.CacheConfig.Validate(); err != nil {
		t.Fatalf("runtime cache config should be valid: %v", err)
	}
}

func TestAuthModes(t *testing.T) {
	modes := AuthModes([]DatasetConfig{{Name: "hr", Token: "t"}, {Name: "crm"}})
	if len(modes) != 2 || modes[0] != "hr:token" || modes[1] != "crm:anonymous" {
		t.Fatalf("unexpected auth modes: %v", modes)
	}
}
