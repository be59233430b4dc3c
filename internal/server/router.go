package server

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// ProxyHandler serves a dataset request through the cache. It allows
// injecting fake handlers during tests.
type ProxyHandler interface {
	Handle(fiber.Ctx, *DatasetRoute) error
}

// ProxyHandlerFunc adapts a function to the ProxyHandler interface.
type ProxyHandlerFunc func(fiber.Ctx, *DatasetRoute) error

// Handle makes ProxyHandlerFunc satisfy ProxyHandler.
func (f ProxyHandlerFunc) Handle(c fiber.Ctx, route *DatasetRoute) error {
	return f(c, route)
}

// AppOptions controls how the Fiber application should behave.
type AppOptions struct {
	Logger   *logrus.Logger
	Registry *DatasetRegistry
	Proxy    ProxyHandler
}

const (
	contextKeyRoute     = "_dashcache_route"
	contextKeyRequestID = "_dashcache_request_id"
)

// NewApp builds a Fiber application with request-id middleware, panic
// recovery and the /api/:dataset/* routes. Diagnostics are registered
// separately by the routes package.
func NewApp(opts AppOptions) (*fiber.App, error) {
	if opts.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if opts.Registry == nil {
		return nil, errors.New("dataset registry is required")
	}
	if opts.Proxy == nil {
		return nil, errors.New("proxy handler is required")
	}

	app := fiber.New(fiber.Config{
		CaseSensitive: true,
	})

	app.Use(recover.New())
	app.Use(requestIDMiddleware)

	api := app.Group("/api")
	serve := func(c fiber.Ctx) error {
		route, _ := getRouteFromContext(c)
		return opts.Proxy.Handle(c, route)
	}
	lookup := datasetLookupMiddleware(opts)
	api.Get("/:dataset", lookup, serve)
	api.Get("/:dataset/*", lookup, serve)

	return app, nil
}

func requestIDMiddleware(c fiber.Ctx) error {
	reqID := strings.TrimSpace(c.Get("X-Request-ID"))
	if reqID == "" || len(reqID) > 128 {
		reqID = uuid.NewString()
	}
	c.Locals(contextKeyRequestID, reqID)
	c.Set("X-Request-ID", reqID)
	return c.Next()
}

// datasetLookupMiddleware 根据 :dataset 查找 DatasetRoute，未配置时返回 404。
func datasetLookupMiddleware(opts AppOptions) fiber.Handler {
	return func(c fiber.Ctx) error {
		name := c.Params("dataset")
		route, ok := opts.Registry.Lookup(name)
		if !ok {
			return renderDatasetNotFound(c, opts.Logger, name)
		}
		c.Locals(contextKeyRoute, route)
		return c.Next()
	}
}

func renderDatasetNotFound(c fiber.Ctx, logger *logrus.Logger, name string) error {
	logger.WithFields(logrus.Fields{
		"action":     "dataset_lookup",
		"dataset":    name,
		"request_id": RequestID(c),
	}).Warn("dataset not found")

	return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
		"error": "dataset_not_found",
	})
}

func getRouteFromContext(c fiber.Ctx) (*DatasetRoute, bool) {
	if value := c.Locals(contextKeyRoute); value != nil {
		if route, ok := value.(*DatasetRoute); ok {
			return route, true
		}
	}
	return nil, false
}

// RequestID returns the request identifier stored by the router middleware.
func RequestID(c fiber.Ctx) string {
	if value := c.Locals(contextKeyRequestID); value != nil {
		if reqID, ok := value.(string); ok {
			return reqID
		}
	}
	return ""
}
