package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadFailsWithMissingFields(t *testing.T) {
	if _, err := Load(testConfigPath(t, "missing.toml")); err == nil {
		t.Fatalf("缺失字段的配置应返回错误")
	}
}

func TestLoadRejectsInvalidDuration(t *testing.T) {
	cfg := `
StoragePath = "./data"
DefaultMaxAge = "boom"

[[Dataset]]
Name = "hr"
Upstream = "https://erp.example.com"
`
	path := writeTempConfig(t, cfg)
	if _, err := Load(path); err == nil {
		t.Fatalf("无效 Duration 应失败")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.toml")); err == nil {
		t.Fatalf("配置文件不存在应返回错误")
	}
}

func TestLoadDotEnvExpandsTokens(t *testing.T) {
	const key = "DASHCACHE_TEST_DOTENV_TOKEN"
	t.Cleanup(func() { _ = os.Unsetenv(key) })

	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env")
	if err := os.WriteFile(envPath, []byte(key+"=from-dotenv\n"), 0o600); err != nil {
		t.Fatalf("写入 .env 失败: %v", err)
	}
	if err := LoadDotEnv(filepath.Join(dir, "missing.env"), envPath); err != nil {
		t.Fatalf("LoadDotEnv 返回错误: %v", err)
	}

	path := writeTempConfig(t, `
StoragePath = "./data"

[[Dataset]]
Name = "finance"
Module = "finance"
Upstream = "https://erp.example.com"
Token = "${`+key+`}"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load 返回错误: %v", err)
	}
	if cfg.Datasets[0].Token != "from-dotenv" {
		t.Fatalf("Token 应来自 .env, got %q", cfg.Datasets[0].Token)
	}
}
