package hooks

import (
	"net/url"
	"strings"
)

// CachePolicy 决定单个请求是否经过缓存。
type CachePolicy struct {
	AllowCache bool
}

// RequestContext exposes route/request details without importing server internals.
type RequestContext struct {
	Dataset   string
	ModuleKey string
	Method    string
}

// Hooks describes customization points for module-specific behavior.
type Hooks struct {
	// NormalizeQuery 在计算缓存 key 与回源 URL 之前调整查询参数。
	NormalizeQuery func(ctx *RequestContext, subPath string, query url.Values) url.Values
	CachePolicy    func(ctx *RequestContext, subPath string, current CachePolicy) CachePolicy
}

// DropParams 返回删除指定参数的 NormalizeQuery，用于剔除前端附加的防缓存参数。
func DropParams(names ...string) func(*RequestContext, string, url.Values) url.Values {
	return func(_ *RequestContext, _ string, query url.Values) url.Values {
		for _, name := range names {
			query.Del(name)
		}
		return query
	}
}

// BypassPrefixes 返回对指定前缀关闭缓存的 CachePolicy。
func BypassPrefixes(prefixes ...string) func(*RequestContext, string, CachePolicy) CachePolicy {
	return func(_ *RequestContext, subPath string, current CachePolicy) CachePolicy {
		for _, prefix := range prefixes {
			if subPath == prefix || strings.HasPrefix(subPath, prefix+"/") {
				current.AllowCache = false
				return current
			}
		}
		return current
	}
}
