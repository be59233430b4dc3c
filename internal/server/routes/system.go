package routes

import (
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dashcache/dashcache/internal/version"
)

// RegisterSystemRoutes 暴露 /-/healthz、/-/version 以及 Prometheus 抓取端点。
// reg 为 nil 时不注册 /-/metrics。
func RegisterSystemRoutes(app *fiber.App, reg *prometheus.Registry) {
	if app == nil {
		return
	}

	app.Get("/-/healthz", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	app.Get("/-/version", func(c fiber.Ctx) error {
		return c.JSON(version.Current())
	})

	if reg != nil {
		handler := promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
		app.Get("/-/metrics", adaptor.HTTPHandler(handler))
	}
}
