package proxy

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"

	"github.com/gofiber/fiber/v3"

	"github.com/dashcache/dashcache/internal/proxy/hooks"
	"github.com/dashcache/dashcache/internal/server"
	"github.com/dashcache/dashcache/internal/upstream"
)

// Request 是经过模块 hook 规范化后的一次数据集读取。
type Request struct {
	SubPath    string
	RawQuery   string
	Key        string
	AllowCache bool
}

// Resolve 规范化路径与查询串并应用模块 hook，method 仅透传给 hook。
func Resolve(route *server.DatasetRoute, method, subPath, rawQuery string) (Request, error) {
	subPath = server.NormalizeSubPath(subPath)
	query, err := url.ParseQuery(rawQuery)
	if err != nil {
		return Request{}, err
	}

	hookCtx := &hooks.RequestContext{
		Dataset:   route.Config.Name,
		ModuleKey: route.ModuleKey,
		Method:    method,
	}
	policy := hooks.CachePolicy{AllowCache: true}
	if def, ok := hooks.Fetch(route.ModuleKey); ok {
		if def.NormalizeQuery != nil {
			query = def.NormalizeQuery(hookCtx, subPath, query)
		}
		if def.CachePolicy != nil {
			policy = def.CachePolicy(hookCtx, subPath, policy)
		}
	}

	encoded := query.Encode()
	return Request{
		SubPath:    subPath,
		RawQuery:   encoded,
		Key:        route.CacheKey(subPath, encoded),
		AllowCache: policy.AllowCache,
	}, nil
}

// Fetch 按 CachePolicy 经缓存读取或直接回源，返回数据与 X-Dash-Cache 取值。
func Fetch(ctx context.Context, route *server.DatasetRoute, req Request) (json.RawMessage, string, error) {
	if !req.AllowCache {
		body, err := route.Fetcher(req.SubPath, req.RawQuery)(ctx)
		return body, outcomeBypass, err
	}
	body, outcome, err := route.Get(ctx, req.SubPath, req.RawQuery)
	return body, string(outcome), err
}

// ErrorStatus 将回源错误映射为 HTTP 状态与错误码：上游 4xx/5xx 透传，超时 504，其余 502。
func ErrorStatus(err error) (int, string) {
	if statusErr, ok := upstream.AsStatusError(err); ok {
		if statusErr.Status >= 400 {
			return statusErr.Status, "upstream_status"
		}
		return fiber.StatusBadGateway, "upstream_status"
	}
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return fiber.StatusGatewayTimeout, "upstream_timeout"
	case errors.Is(err, upstream.ErrInvalidBody):
		return fiber.StatusBadGateway, "upstream_invalid_body"
	default:
		return fiber.StatusBadGateway, "upstream_failed"
	}
}
