package routes

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/sirupsen/logrus"

	"github.com/dashcache/dashcache/internal/config"
	"github.com/dashcache/dashcache/internal/server"
	"github.com/dashcache/dashcache/internal/storage"
	"github.com/dashcache/dashcache/internal/upstream"
)

type routesFixture struct {
	app      *fiber.App
	registry *server.DatasetRegistry
	hits     *atomic.Int64
}

// newRoutesFixture 启动一个返回 JSON 的上游；路径以 /fail 结尾时返回 503。
func newRoutesFixture(t *testing.T) *routesFixture {
	t.Helper()

	hits := &atomic.Int64{}
	up := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if strings.HasSuffix(r.URL.Path, "/fail") {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"path":"`+r.URL.Path+`"}`)
	}))
	t.Cleanup(up.Close)

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	cfg := &config.Config{
		Global: config.GlobalConfig{
			DefaultMaxAge:    config.Duration(time.Minute),
			DefaultMaxSizeMB: 4,
			SweepInterval:    config.Duration(-1),
		},
		Datasets: []config.DatasetConfig{
			{Name: "hr", Module: "hr", Upstream: up.URL, Path: "/hr", Token: "secret"},
			{Name: "crm", Module: "crm", Upstream: up.URL, Path: "/crm"},
		},
	}
	registry, err := server.NewDatasetRegistry(cfg, server.RegistryOptions{
		Store:   storage.NewMemoryStore(),
		Fetcher: upstream.NewFetcher(upstream.Options{Client: up.Client(), Logger: logger}),
		Logger:  logger,
	})
	if err != nil {
		t.Fatalf("failed to create registry: %v", err)
	}
	t.Cleanup(func() { _ = registry.Close() })

	app := fiber.New()
	RegisterModuleRoutes(app, registry)
	RegisterCacheRoutes(app, registry, logger)
	RegisterBatchRoutes(app, registry, logger)

	return &routesFixture{app: app, registry: registry, hits: hits}
}

func doJSON(t *testing.T, app *fiber.App, method, target, body string, out any) int {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("%s %s failed: %v", method, target, err)
	}
	defer resp.Body.Close()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode %s %s: %v", method, target, err)
		}
	}
	return resp.StatusCode
}
