package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"fanout-proxy-go/internal/service"
)

// Version is a string type for dependency injection of the build version.
type Version string

// HealthHandler serves health and status endpoints.
type HealthHandler struct {
	fanout  *service.Fanout
	version Version
}

// NewHealthHandler creates a HealthHandler.
func NewHealthHandler(f *service.Fanout, v Version) *HealthHandler {
	return &HealthHandler{fanout: f, version: v}
}

// Healthz returns a simple OK response for liveness probes.
func (h *HealthHandler) Healthz(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": "ok",
	})
}

// Status returns forwarder status information: version, resolved targets and
// the active response policy.
func (h *HealthHandler) Status(c echo.Context) error {
	targets := make([]string, 0, len(h.fanout.Targets()))
	for _, o := range h.fanout.Targets() {
		targets = append(targets, o.String())
	}

	policy := h.fanout.Policy()
	mode := "fixed"
	if policy.Mode == service.ModeAwaitForward {
		mode = "await-forward"
	}

	return c.JSON(http.StatusOK, map[string]any{
		"status":             "ok",
		"version":            string(h.version),
		"targets":            targets,
		"policy":             mode,
		"policy_status":      policy.StatusCode,
		"prioritize_success": policy.PrioritizeSuccess,
	})
}
