package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/deppfellow/bookshelf/internal/middleware"
	"github.com/deppfellow/bookshelf/internal/server"
	"github.com/labstack/echo/v4"
)

const (
	statusHealthy   = "healthy"
	statusUnhealthy = "unhealthy"
)

// HealthHandler serves GET /status for load balancers and uptime monitors.
type HealthHandler struct {
	Handler
}

func NewHealthHandler(s *server.Server) *HealthHandler {
	return &HealthHandler{
		Handler: NewHandler(s),
	}
}

type dependencyCheck struct {
	name     string
	required bool
	ping     func(ctx context.Context) error
}

// checks lists the connected stores. The store backing the configured
// driver is required; a Redis connection next to postgres is reported
// but does not fail the check.
func (h *HealthHandler) checks() []dependencyCheck {
	var checks []dependencyCheck

	if h.server.DB != nil {
		checks = append(checks, dependencyCheck{
			name:     "database",
			required: true,
			ping:     h.server.DB.Pool.Ping,
		})
	}

	if h.server.Redis != nil {
		checks = append(checks, dependencyCheck{
			name:     "redis",
			required: h.server.DB == nil,
			ping: func(ctx context.Context) error {
				return h.server.Redis.Ping(ctx).Err()
			},
		})
	}

	return checks
}

// CheckHealth answers 200 when every required dependency responds and
// 503 otherwise.
func (h *HealthHandler) CheckHealth(c echo.Context) error {
	start := time.Now()
	cfg := h.server.Config

	logger := middleware.GetLogger(c).With().
		Str("operation", "health_check").
		Logger()

	results := make(map[string]any)
	response := map[string]any{
		"status":      statusHealthy,
		"timestamp":   time.Now().UTC(),
		"environment": cfg.Primary.Env,
		"driver":      cfg.Storage.Driver,
		"checks":      results,
	}

	isHealthy := true

	if cfg.Observability.HealthChecks.Enabled {
		for _, check := range h.checks() {
			ctx, cancel := context.WithTimeout(c.Request().Context(), cfg.Observability.HealthChecks.Timeout)
			checkStart := time.Now()
			err := check.ping(ctx)
			elapsed := time.Since(checkStart)
			cancel()

			if err != nil {
				results[check.name] = map[string]any{
					"status":        statusUnhealthy,
					"response_time": elapsed.String(),
					"error":         err.Error(),
				}
				if check.required {
					isHealthy = false
				}

				logger.Error().
					Err(err).
					Str("check", check.name).
					Dur("response_time", elapsed).
					Msg("health check failed")

				h.recordFailure(check.name, elapsed, err)
				continue
			}

			results[check.name] = map[string]any{
				"status":        statusHealthy,
				"response_time": elapsed.String(),
			}
		}
	}

	if !isHealthy {
		response["status"] = statusUnhealthy

		logger.Warn().
			Dur("total_duration", time.Since(start)).
			Msg("health check failed")

		return c.JSON(http.StatusServiceUnavailable, response)
	}

	logger.Debug().
		Dur("total_duration", time.Since(start)).
		Msg("health check passed")

	return c.JSON(http.StatusOK, response)
}

func (h *HealthHandler) recordFailure(check string, elapsed time.Duration, err error) {
	app := h.server.LoggerService.GetApplication()
	if app == nil {
		return
	}

	app.RecordCustomEvent("HealthCheckError", map[string]any{
		"check_type":       check,
		"operation":        "health_check",
		"error_type":       check + "_unhealthy",
		"response_time_ms": elapsed.Milliseconds(),
		"error_message":    err.Error(),
	})
}
