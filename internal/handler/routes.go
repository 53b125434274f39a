// Package handler wires the HTTP surface of the fan-out forwarder.
package handler

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"fanout-proxy-go/internal/config"
	"fanout-proxy-go/internal/metrics"
)

// RegisterRoutes wires all route handlers onto the Echo instance. Reserved
// routes go first; everything else, any method and any path, is forwarded.
func RegisterRoutes(e *echo.Echo, forward *ForwardHandler, health *HealthHandler, cfg *config.Config, m *metrics.Metrics) {
	e.GET("/healthz", health.Healthz)
	e.GET("/fanout/status", health.Status)

	if cfg.Metrics.Enabled {
		e.GET(cfg.Metrics.Path, echo.WrapHandler(
			promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{}),
		))
	}

	e.Any("/", forward.Handle)
	e.Any("/*", forward.Handle)
}
