package handler

import (
	"context"
	"database/sql"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/viajora/leadnotify/internal/provider"
)

const readinessTimeout = 2 * time.Second

// RegisterHealthRoutes wires liveness and readiness probes. sqlDB and rdb are
// optional; their checks are skipped when the backing store is not
// configured.
func RegisterHealthRoutes(app fiber.Router, sqlDB *sql.DB, rdb *redis.Client, pool *provider.Pool) {
	app.Get("/livez", LivezHandler())
	app.Get("/readyz", ReadyzHandler(sqlDB, rdb, pool))
}

func LivezHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status": "ok",
		})
	}
}

func ReadyzHandler(sqlDB *sql.DB, rdb *redis.Client, pool *provider.Pool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.Context(), readinessTimeout)
		defer cancel()

		checks := fiber.Map{}
		ready := true

		if sqlDB != nil {
			status := "ok"
			if err := sqlDB.PingContext(ctx); err != nil {
				status = "down"
				ready = false
			}
			checks["postgres"] = status
		}

		if rdb != nil {
			status := "ok"
			if err := rdb.Ping(ctx).Err(); err != nil {
				status = "down"
				ready = false
			}
			checks["redis"] = status
		}

		if pool != nil {
			providers := fiber.Map{}
			anyHealthy := false
			for _, adapter := range pool.Adapters() {
				name := adapter.Descriptor().Name
				if pool.IsHealthy(name) {
					providers[name] = "healthy"
					anyHealthy = true
				} else {
					providers[name] = "unhealthy"
				}
			}
			checks["providers"] = providers
			// No healthy provider means sends will stall, but the process
			// itself still accepts and queues work.
			checks["anyProviderHealthy"] = anyHealthy
		}

		status := "ready"
		statusCode := fiber.StatusOK
		if !ready {
			status = "not_ready"
			statusCode = fiber.StatusServiceUnavailable
		}

		return c.Status(statusCode).JSON(fiber.Map{
			"status": status,
			"checks": checks,
		})
	}
}
