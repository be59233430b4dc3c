package routes

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/gofiber/fiber/v3"
	"github.com/sirupsen/logrus"

	"github.com/dashcache/dashcache/internal/batch"
	"github.com/dashcache/dashcache/internal/proxy"
	"github.com/dashcache/dashcache/internal/server"
)

const (
	maxBatchRequests   = 50
	defaultBatchLimit  = 6
	maxBatchConcurrent = 16
)

type batchRequest struct {
	Dataset string `json:"dataset"`
	Path    string `json:"path"`
}

type batchBody struct {
	Requests    []batchRequest `json:"requests"`
	Concurrency int            `json:"concurrency"`
}

type batchItem struct {
	Dataset string          `json:"dataset"`
	Path    string          `json:"path"`
	Status  int             `json:"status"`
	Cache   string          `json:"cache,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// RegisterBatchRoutes 暴露 POST /-/batch：一次请求读取多个数据集路径，
// 每一项独立成功或失败，整体始终返回 200。
func RegisterBatchRoutes(app *fiber.App, registry *server.DatasetRegistry, logger *logrus.Logger) {
	if app == nil || registry == nil {
		return
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	app.Post("/-/batch", func(c fiber.Ctx) error {
		var body batchBody
		if err := json.Unmarshal(c.Body(), &body); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_body"})
		}
		if len(body.Requests) == 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "requests_required"})
		}
		if len(body.Requests) > maxBatchRequests {
			return c.Status(fiber.StatusRequestEntityTooLarge).JSON(fiber.Map{
				"error": "batch_too_large",
				"limit": maxBatchRequests,
			})
		}

		limit := body.Concurrency
		if limit <= 0 {
			limit = defaultBatchLimit
		}
		if limit > maxBatchConcurrent {
			limit = maxBatchConcurrent
		}

		results := batch.Execute(c.Context(), body.Requests, limit, func(ctx context.Context, req batchRequest) (batchItem, error) {
			return runBatchItem(ctx, registry, req), nil
		})

		items := make([]batchItem, len(results))
		succeeded, failed := 0, 0
		for i, res := range results {
			item := res.Value
			if res.Err != nil {
				status, code := proxy.ErrorStatus(res.Err)
				item = batchItem{
					Dataset: body.Requests[i].Dataset,
					Path:    body.Requests[i].Path,
					Status:  status,
					Error:   code,
				}
			}
			if item.Error == "" {
				succeeded++
			} else {
				failed++
			}
			items[i] = item
		}

		logger.WithFields(logrus.Fields{
			"action":     "batch",
			"requests":   len(items),
			"succeeded":  succeeded,
			"failed":     failed,
			"request_id": server.RequestID(c),
		}).Info("batch_completed")

		return c.JSON(fiber.Map{
			"results":   items,
			"succeeded": succeeded,
			"failed":    failed,
		})
	})
}

func runBatchItem(ctx context.Context, registry *server.DatasetRegistry, req batchRequest) batchItem {
	item := batchItem{Dataset: req.Dataset, Path: req.Path}

	route, ok := registry.Lookup(req.Dataset)
	if !ok {
		item.Status = fiber.StatusNotFound
		item.Error = "dataset_not_found"
		return item
	}

	subPath, rawQuery, _ := strings.Cut(req.Path, "?")
	resolved, err := proxy.Resolve(route, fiber.MethodGet, subPath, rawQuery)
	if err != nil {
		item.Status = fiber.StatusBadRequest
		item.Error = "invalid_query"
		return item
	}

	data, outcome, err := proxy.Fetch(ctx, route, resolved)
	if err != nil {
		item.Status, item.Error = proxy.ErrorStatus(err)
		item.Cache = outcome
		return item
	}
	item.Status = fiber.StatusOK
	item.Cache = outcome
	item.Data = data
	return item
}
