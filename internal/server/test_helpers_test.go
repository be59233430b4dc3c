package server

import (
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/dashcache/dashcache/internal/config"
	"github.com/dashcache/dashcache/internal/storage"
	"github.com/dashcache/dashcache/internal/upstream"
)

// jsonUpstream 回显请求路径与查询串，并统计请求次数。
type jsonUpstream struct {
	*httptest.Server
	hits atomic.Int64
}

func newJSONUpstream(t *testing.T) *jsonUpstream {
	t.Helper()
	up := &jsonUpstream{}
	up.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		up.hits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"path":"`+r.URL.Path+`","query":"`+r.URL.RawQuery+`"}`)
	}))
	t.Cleanup(up.Close)
	return up
}

func newTestConfig(upstreamURL string) *config.Config {
	return &config.Config{
		Global: config.GlobalConfig{
			ListenPort:       5000,
			DefaultMaxAge:    config.Duration(time.Minute),
			DefaultMaxSizeMB: 4,
			SweepInterval:    config.Duration(-1),
		},
		Datasets: []config.DatasetConfig{
			{Name: "hr", Module: "hr", Upstream: upstreamURL, Path: "/api/hr", Token: "secret"},
			{Name: "crm", Module: "crm", Upstream: upstreamURL, Path: "/api/crm"},
			{Name: "reports", Upstream: upstreamURL, Path: "/api/reports", Warm: []string{"/summary", "/totals?year=2024"}},
		},
	}
}

func newTestRegistry(t *testing.T, up *jsonUpstream) *DatasetRegistry {
	t.Helper()

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	registry, err := NewDatasetRegistry(newTestConfig(up.URL), RegistryOptions{
		Store:   storage.NewMemoryStore(),
		Fetcher: upstream.NewFetcher(upstream.Options{Client: up.Client(), Logger: logger}),
		Logger:  logger,
	})
	if err != nil {
		t.Fatalf("failed to create registry: %v", err)
	}
	t.Cleanup(func() { _ = registry.Close() })
	return registry
}
