package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/dashcache/dashcache/internal/batch"
	"github.com/dashcache/dashcache/internal/cache"
	"github.com/dashcache/dashcache/internal/config"
	"github.com/dashcache/dashcache/internal/datamodule"
	"github.com/dashcache/dashcache/internal/logging"
	"github.com/dashcache/dashcache/internal/metrics"
	"github.com/dashcache/dashcache/internal/storage"
	"github.com/dashcache/dashcache/internal/upstream"
)

// DatasetRoute 将数据集配置、模块元数据与运行时缓存聚合在一起，供 handler 直接复用。
type DatasetRoute struct {
	// Config 是 config.toml 中 [[Dataset]] 的副本。
	Config    config.DatasetConfig
	ModuleKey string
	Module    datamodule.ModuleMetadata
	// CacheConfig 是模块默认值、数据集覆盖与全局兜底合并后的结果。
	CacheConfig cache.Config
	WarmPaths   []string
	Endpoint    upstream.Endpoint
	Cache       *cache.Cache[json.RawMessage]

	fetcher *upstream.Fetcher
}

// CacheKey 返回 "<dataset>:<subPath>[?query]"。
func (r *DatasetRoute) CacheKey(subPath, rawQuery string) string {
	key := r.Config.Name + ":" + subPath
	if rawQuery != "" {
		key += "?" + rawQuery
	}
	return key
}

// Fetcher 返回该数据集 subPath 的回源函数。
func (r *DatasetRoute) Fetcher(subPath, rawQuery string) cache.Fetcher[json.RawMessage] {
	return r.fetcher.For(r.Endpoint, subPath, rawQuery)
}

// Get 通过缓存读取 subPath，供 /api 与 /-/batch 共用。
func (r *DatasetRoute) Get(ctx context.Context, subPath, rawQuery string) (json.RawMessage, cache.Outcome, error) {
	return r.Cache.GetWithOutcome(ctx, r.CacheKey(subPath, rawQuery), r.Fetcher(subPath, rawQuery))
}

// Warm 预热 WarmPaths 中的全部路径。
func (r *DatasetRoute) Warm(ctx context.Context) cache.WarmReport {
	if len(r.WarmPaths) == 0 {
		return cache.WarmReport{}
	}
	entries := make([]cache.WarmEntry[json.RawMessage], 0, len(r.WarmPaths))
	for _, raw := range r.WarmPaths {
		subPath, rawQuery := SplitWarmPath(raw)
		entries = append(entries, cache.WarmEntry[json.RawMessage]{
			Key:   r.CacheKey(subPath, rawQuery),
			Fetch: r.Fetcher(subPath, rawQuery),
		})
	}
	return r.Cache.Warm(ctx, entries)
}

// SplitWarmPath 拆分 "/path?query" 形式的预热路径，并按与请求相同的规则规范化。
func SplitWarmPath(raw string) (string, string) {
	subPath, rawQuery, _ := strings.Cut(raw, "?")
	return NormalizeSubPath(subPath), NormalizeQuery(rawQuery)
}

// NormalizeSubPath 保证以 "/" 开头且不以 "/" 结尾，根路径为 "/"。
func NormalizeSubPath(p string) string {
	p = "/" + strings.Trim(strings.TrimSpace(p), "/")
	return p
}

// NormalizeQuery 按 key 排序查询参数，使参数顺序不同的请求共享缓存条目。
func NormalizeQuery(rawQuery string) string {
	if rawQuery == "" {
		return ""
	}
	values, err := url.ParseQuery(rawQuery)
	if err != nil {
		return rawQuery
	}
	return values.Encode()
}

// RegistryOptions 注入数据集缓存的共享依赖。
type RegistryOptions struct {
	Store   storage.Store
	Fetcher *upstream.Fetcher
	Logger  logrus.FieldLogger
}

// DatasetRegistry 提供数据集名称到 DatasetRoute 的查询，并统一管理缓存生命周期。
type DatasetRegistry struct {
	routes  map[string]*DatasetRoute
	ordered []*DatasetRoute
	logger  logrus.FieldLogger
}

// NewDatasetRegistry 为每个数据集构建缓存。任何一个构建失败时会关闭已创建的缓存。
func NewDatasetRegistry(cfg *config.Config, opts RegistryOptions) (*DatasetRegistry, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	if opts.Fetcher == nil {
		return nil, errors.New("upstream fetcher is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	registry := &DatasetRegistry{
		routes: make(map[string]*DatasetRoute, len(cfg.Datasets)),
		logger: logger,
	}

	for _, ds := range cfg.Datasets {
		if _, exists := registry.routes[ds.Name]; exists {
			_ = registry.Close()
			return nil, fmt.Errorf("duplicate dataset %s", ds.Name)
		}
		route, err := buildDatasetRoute(cfg.Global, ds, opts, logger)
		if err != nil {
			_ = registry.Close()
			return nil, err
		}
		registry.routes[ds.Name] = route
		registry.ordered = append(registry.ordered, route)
	}

	return registry, nil
}

func buildDatasetRoute(global config.GlobalConfig, ds config.DatasetConfig, opts RegistryOptions, logger logrus.FieldLogger) (*DatasetRoute, error) {
	meta, err := moduleMetadataForDataset(ds)
	if err != nil {
		return nil, fmt.Errorf("dataset %s: %w", ds.Name, err)
	}
	runtime := config.BuildDatasetRuntime(ds, meta, global)

	c, err := cache.New[json.RawMessage](runtime.CacheConfig, cache.Options{
		Name:   ds.Name,
		Store:  opts.Store,
		Logger: logger,
	})
	if err != nil {
		return nil, fmt.Errorf("dataset %s: %w", ds.Name, err)
	}

	return &DatasetRoute{
		Config:      ds,
		ModuleKey:   meta.Key,
		Module:      meta,
		CacheConfig: c.Config(),
		WarmPaths:   runtime.WarmPaths,
		Endpoint: upstream.Endpoint{
			Dataset:  ds.Name,
			Upstream: ds.Upstream,
			Path:     ds.Path,
			Token:    ds.Token,
		},
		Cache:   c,
		fetcher: opts.Fetcher,
	}, nil
}

// Lookup 根据数据集名称查找路由。
func (r *DatasetRegistry) Lookup(name string) (*DatasetRoute, bool) {
	if r == nil {
		return nil, false
	}
	route, ok := r.routes[strings.TrimSpace(name)]
	return route, ok
}

// List 返回配置顺序的路由列表。
func (r *DatasetRegistry) List() []*DatasetRoute {
	if r == nil || len(r.ordered) == 0 {
		return nil
	}
	return append([]*DatasetRoute(nil), r.ordered...)
}

// WarmAll 并发预热全部数据集，返回每个数据集的结果。
func (r *DatasetRegistry) WarmAll(ctx context.Context) map[string]cache.WarmReport {
	routes := r.List()
	results := batch.Execute(ctx, routes, len(routes), func(ctx context.Context, route *DatasetRoute) (cache.WarmReport, error) {
		return route.Warm(ctx), nil
	})

	reports := make(map[string]cache.WarmReport, len(routes))
	for _, res := range results {
		name := routes[res.Index].Config.Name
		reports[name] = res.Value
		fields := logging.CacheFields("cache_warm", name)
		fields["succeeded"] = res.Value.Succeeded
		fields["failed"] = res.Value.Failed
		r.logger.WithFields(fields).Info("dataset_warmed")
	}
	return reports
}

// CacheStats 实现 metrics.StatsSource。
func (r *DatasetRegistry) CacheStats() []metrics.DatasetStats {
	routes := r.List()
	result := make([]metrics.DatasetStats, 0, len(routes))
	for _, route := range routes {
		result = append(result, metrics.DatasetStats{
			Dataset: route.Config.Name,
			Stats:   route.Cache.Stats(),
			Pending: len(route.Cache.Pending()),
		})
	}
	return result
}

// Close 关闭所有数据集缓存，停止清扫与后台刷新。
func (r *DatasetRegistry) Close() error {
	if r == nil {
		return nil
	}
	var errs []error
	for _, route := range r.ordered {
		if err := route.Cache.Close(); err != nil {
			errs = append(errs, fmt.Errorf("dataset %s: %w", route.Config.Name, err))
		}
	}
	return errors.Join(errs...)
}
