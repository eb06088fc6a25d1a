package http

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/labstack/echo/v4"
)

// Check probes one backing service for the health endpoint.
type Check func(ctx context.Context) error

type Handler struct {
	checks map[string]Check
}

func NewHandler() *Handler { return &Handler{checks: map[string]Check{}} }

// WithCheck registers a named dependency probe.
func (h *Handler) WithCheck(name string, fn Check) *Handler {
	h.checks[name] = fn
	return h
}

// Health reports "ok", or "degraded" with 503 when any probe fails.
func (h *Handler) Health(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	status, code := "ok", http.StatusOK
	components := make(map[string]string, len(names))
	for _, name := range names {
		if err := h.checks[name](ctx); err != nil {
			components[name] = err.Error()
			status, code = "degraded", http.StatusServiceUnavailable
			continue
		}
		components[name] = "ok"
	}

	body := map[string]any{
		"status": status,
		"time":   time.Now().UTC().Format(time.RFC3339Nano),
	}
	if len(components) > 0 {
		body["components"] = components
	}
	return c.JSON(code, body)
}
