package routes

import (
	"github.com/gofiber/fiber/v3"
	"github.com/sirupsen/logrus"

	"github.com/dashcache/dashcache/internal/cache"
	"github.com/dashcache/dashcache/internal/logging"
	"github.com/dashcache/dashcache/internal/server"
)

// RegisterCacheRoutes 暴露数据集列表与缓存管理接口：统计、失效与预热。
func RegisterCacheRoutes(app *fiber.App, registry *server.DatasetRegistry, logger *logrus.Logger) {
	if app == nil || registry == nil {
		return
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	app.Get("/-/datasets", func(c fiber.Ctx) error {
		routes := registry.List()
		payload := make([]datasetPayload, 0, len(routes))
		for _, route := range routes {
			payload = append(payload, encodeDataset(route))
		}
		return c.JSON(fiber.Map{"datasets": payload})
	})

	app.Get("/-/cache/:dataset", withDataset(registry, func(c fiber.Ctx, route *server.DatasetRoute) error {
		return c.JSON(fiber.Map{
			"dataset": route.Config.Name,
			"stats":   route.Cache.Stats(),
			"pending": route.Cache.Pending(),
			"keys":    route.Cache.Keys(),
		})
	}))

	// ?pattern= 按正则匹配 key，?literal= 按子串匹配，二者都为空时清空整个数据集。
	app.Delete("/-/cache/:dataset", withDataset(registry, func(c fiber.Ctx, route *server.DatasetRoute) error {
		var (
			removed int
			err     error
		)
		if literal := c.Query("literal"); literal != "" {
			removed = route.Cache.InvalidateLiteral(literal)
		} else {
			removed, err = route.Cache.Invalidate(c.Query("pattern"))
		}
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error":   "invalid_pattern",
				"message": err.Error(),
			})
		}
		fields := logging.CacheFields("cache_invalidate", route.Config.Name)
		fields["pattern"] = c.Query("pattern")
		fields["literal"] = c.Query("literal")
		fields["removed"] = removed
		fields["request_id"] = server.RequestID(c)
		logger.WithFields(fields).Info("cache_invalidated")
		return c.JSON(fiber.Map{"dataset": route.Config.Name, "removed": removed})
	}))

	app.Post("/-/cache/:dataset/warm", withDataset(registry, func(c fiber.Ctx, route *server.DatasetRoute) error {
		report := route.Warm(c.Context())
		return c.JSON(fiber.Map{"dataset": route.Config.Name, "report": report})
	}))

	app.Post("/-/warm", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{"reports": registry.WarmAll(c.Context())})
	})
}

func withDataset(registry *server.DatasetRegistry, fn func(fiber.Ctx, *server.DatasetRoute) error) fiber.Handler {
	return func(c fiber.Ctx) error {
		route, ok := registry.Lookup(c.Params("dataset"))
		if !ok {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "dataset_not_found"})
		}
		return fn(c, route)
	}
}

type datasetPayload struct {
	Dataset   string       `json:"dataset"`
	ModuleKey string       `json:"module_key"`
	Upstream  string       `json:"upstream"`
	Path      string       `json:"path"`
	AuthMode  string       `json:"auth_mode"`
	Cache     cachePayload `json:"cache"`
	WarmPaths []string     `json:"warm_paths"`
	Stats     cache.Stats  `json:"stats"`
}

type cachePayload struct {
	MaxSizeMB                  float64 `json:"max_size_mb"`
	MaxAgeSeconds              int64   `json:"max_age_seconds"`
	PersistToStorage           bool    `json:"persist_to_storage"`
	StorageKey                 string  `json:"storage_key,omitempty"`
	BackgroundRefresh          bool    `json:"background_refresh"`
	BackgroundRefreshThreshold float64 `json:"background_refresh_threshold,omitempty"`
}

func encodeDataset(route *server.DatasetRoute) datasetPayload {
	cfg := route.CacheConfig
	payload := datasetPayload{
		Dataset:   route.Config.Name,
		ModuleKey: route.ModuleKey,
		Upstream:  route.Config.Upstream,
		Path:      route.Config.Path,
		AuthMode:  route.Config.AuthMode(),
		Cache: cachePayload{
			MaxSizeMB:         cfg.MaxSizeMB,
			MaxAgeSeconds:     int64(cfg.MaxAge.Seconds()),
			PersistToStorage:  cfg.PersistToStorage,
			BackgroundRefresh: cfg.BackgroundRefresh,
		},
		WarmPaths: route.WarmPaths,
		Stats:     route.Cache.Stats(),
	}
	if cfg.PersistToStorage {
		payload.Cache.StorageKey = cfg.StorageKey
	}
	if cfg.BackgroundRefresh {
		payload.Cache.BackgroundRefreshThreshold = cfg.BackgroundRefreshThreshold
	}
	if payload.WarmPaths == nil {
		payload.WarmPaths = []string{}
	}
	return payload
}
