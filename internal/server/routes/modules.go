package routes

import (
	"sort"
	"strings"

	"github.com/gofiber/fiber/v3"

	"github.com/dashcache/dashcache/internal/datamodule"
	"github.com/dashcache/dashcache/internal/proxy/hooks"
	"github.com/dashcache/dashcache/internal/server"
)

// RegisterModuleRoutes 暴露 /-/modules 诊断接口，供运维查询模块与数据集绑定关系。
func RegisterModuleRoutes(app *fiber.App, registry *server.DatasetRegistry) {
	if app == nil || registry == nil {
		return
	}

	app.Get("/-/modules", func(c fiber.Ctx) error {
		hookStatus := hooks.Snapshot(datamodule.Keys())
		payload := fiber.Map{
			"modules":       encodeModules(datamodule.List(), hookStatus),
			"datasets":      encodeDatasetBindings(registry.List()),
			"hook_registry": hookStatus,
		}
		return c.JSON(payload)
	})

	app.Get("/-/modules/:key", func(c fiber.Ctx) error {
		key := strings.ToLower(strings.TrimSpace(c.Params("key")))
		if key == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "module_key_required"})
		}
		meta, ok := datamodule.Resolve(key)
		if !ok {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "module_not_found"})
		}
		encoded := encodeModule(meta)
		encoded.HookStatus = hooks.Status(key)
		return c.JSON(encoded)
	})
}

type modulePayload struct {
	Key         string         `json:"key"`
	Description string         `json:"description"`
	Resources   []string       `json:"resources"`
	Profile     profilePayload `json:"cache_profile"`
	HookStatus  string         `json:"hook_status,omitempty"`
}

type profilePayload struct {
	MaxAgeSeconds              int64   `json:"max_age_seconds"`
	MaxSizeMB                  float64 `json:"max_size_mb"`
	BackgroundRefresh          bool    `json:"background_refresh"`
	BackgroundRefreshThreshold float64 `json:"background_refresh_threshold,omitempty"`
	PersistToStorage           bool    `json:"persist_to_storage"`
}

type datasetBindingPayload struct {
	Dataset   string `json:"dataset"`
	ModuleKey string `json:"module_key"`
	Upstream  string `json:"upstream"`
	AuthMode  string `json:"auth_mode"`
}

func encodeModules(mods []datamodule.ModuleMetadata, status map[string]string) []modulePayload {
	if len(mods) == 0 {
		return nil
	}
	sort.Slice(mods, func(i, j int) bool {
		return mods[i].Key < mods[j].Key
	})
	result := make([]modulePayload, 0, len(mods))
	for _, meta := range mods {
		item := encodeModule(meta)
		if status != nil {
			item.HookStatus = status[strings.ToLower(meta.Key)]
		}
		result = append(result, item)
	}
	return result
}

func encodeModule(meta datamodule.ModuleMetadata) modulePayload {
	resources := meta.Resources
	if resources == nil {
		resources = []string{}
	}
	return modulePayload{
		Key:         meta.Key,
		Description: meta.Description,
		Resources:   resources,
		Profile: profilePayload{
			MaxAgeSeconds:              int64(meta.Profile.MaxAge.Seconds()),
			MaxSizeMB:                  meta.Profile.MaxSizeMB,
			BackgroundRefresh:          meta.Profile.BackgroundRefresh,
			BackgroundRefreshThreshold: meta.Profile.BackgroundRefreshThreshold,
			PersistToStorage:           meta.Profile.PersistToStorage,
		},
	}
}

func encodeDatasetBindings(routes []*server.DatasetRoute) []datasetBindingPayload {
	result := make([]datasetBindingPayload, 0, len(routes))
	for _, route := range routes {
		result = append(result, datasetBindingPayload{
			Dataset:   route.Config.Name,
			ModuleKey: route.ModuleKey,
			Upstream:  route.Config.Upstream,
			AuthMode:  route.Config.AuthMode(),
		})
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Dataset < result[j].Dataset
	})
	return result
}
