package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func testConfigPath(t *testing.T, name string) string {
	t.Helper()
	return filepath.Join("testdata", name)
}

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("写入临时配置失败: %v", err)
	}
	return path
}

func validConfig() *Config {
	return &Config{
		Global: GlobalConfig{
			ListenPort:       5000,
			StoragePath:      "./data",
			DefaultMaxAge:    Duration(5 * time.Minute),
			DefaultMaxSizeMB: 10,
			MaxRetries:       1,
			InitialBackoff:   Duration(time.Second),
			UpstreamTimeout:  Duration(time.Second),
		},
		Datasets: []DatasetConfig{
			{
				Name:     "hr",
				Module:   "hr",
				Upstream: "https://erp.example.com",
				Path:     "/api/hr",
			},
		},
	}
}
