package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

const readinessTimeout = 2 * time.Second

// Pinger reports the reachability of named backends.
type Pinger interface {
	Ping(ctx context.Context) map[string]error
}

// HealthHandler serves liveness and readiness probes.
type HealthHandler struct {
	databases Pinger
}

// NewHealthHandler creates a health handler.
func NewHealthHandler(databases Pinger) *HealthHandler {
	return &HealthHandler{databases: databases}
}

// ReadinessResponse lists each database with "ok" or "unavailable".
type ReadinessResponse struct {
	Status    string            `json:"status"`
	Databases map[string]string `json:"databases"`
}

// Live godoc
// @Summary Liveness probe
// @Tags health
// @Produce plain
// @Success 200 {string} string "ok"
// @Router /healthz [get]
func (h *HealthHandler) Live(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

// Ready godoc
// @Summary Readiness probe
// @Tags health
// @Produce json
// @Success 200 {object} ReadinessResponse
// @Failure 503 {object} ReadinessResponse
// @Router /readyz [get]
func (h *HealthHandler) Ready(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), readinessTimeout)
	defer cancel()

	resp := ReadinessResponse{Status: "ok", Databases: map[string]string{}}
	for name, err := range h.databases.Ping(ctx) {
		if err != nil {
			slog.WarnContext(ctx, "readiness check failed", "database", name, "error", err)
			resp.Databases[name] = "unavailable"
			resp.Status = "unavailable"
			continue
		}
		resp.Databases[name] = "ok"
	}

	if resp.Status != "ok" {
		return c.JSON(http.StatusServiceUnavailable, resp)
	}
	return c.JSON(http.StatusOK, resp)
}
