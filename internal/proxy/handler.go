package proxy

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/sirupsen/logrus"

	"github.com/dashcache/dashcache/internal/logging"
	"github.com/dashcache/dashcache/internal/server"
)

// CacheHeader 标记响应来自缓存命中、回源、共享的进行中请求或绕过缓存。
const CacheHeader = "X-Dash-Cache"

const outcomeBypass = "bypass"

// Handler 负责 “模块 hook → 缓存 → 回源” 的全流程，对外暴露 Fiber handler。
type Handler struct {
	logger *logrus.Logger
}

// NewHandler constructs a dataset handler with a shared logger.
func NewHandler(logger *logrus.Logger) *Handler {
	return &Handler{logger: logger}
}

// Handle 处理 GET /api/:dataset/*，任何阶段出错都会输出结构化日志。
func (h *Handler) Handle(c fiber.Ctx, route *server.DatasetRoute) error {
	started := time.Now()
	requestID := server.RequestID(c)

	req, err := Resolve(route, c.Method(), c.Params("*"), string(c.Request().URI().QueryString()))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_query"})
	}

	ctx := c.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	body, outcome, err := Fetch(ctx, route, req)
	if err != nil {
		status, code := ErrorStatus(err)
		fields := h.requestFields(route, req.Key, outcome, requestID, status, started)
		h.logger.WithFields(fields).WithError(err).Warn("dataset_request_failed")
		c.Set(CacheHeader, outcome)
		return c.Status(status).JSON(fiber.Map{"error": code})
	}

	h.logger.WithFields(h.requestFields(route, req.Key, outcome, requestID, fiber.StatusOK, started)).
		Info("dataset_request")
	c.Set(CacheHeader, outcome)
	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.Status(fiber.StatusOK).Send(body)
}

func (h *Handler) requestFields(route *server.DatasetRoute, key, outcome, requestID string, status int, started time.Time) logrus.Fields {
	fields := logging.RequestFields(route.Config.Name, route.ModuleKey, key, outcome)
	fields["action"] = "dataset_request"
	fields["auth_mode"] = route.Config.AuthMode()
	fields["status"] = status
	fields["elapsed_ms"] = time.Since(started).Milliseconds()
	if requestID != "" {
		fields["request_id"] = requestID
	}
	return fields
}
