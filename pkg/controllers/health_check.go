package controllers

import (
	"github.com/TaskTrial/realtime-server/pkg/config"
	"github.com/gofiber/fiber/v2"
)

// HealthCheckController answers readiness probes by touching the
// database and Redis.
type HealthCheckController struct {
	app *config.AppConfig
}

func NewHealthCheckController(app *config.AppConfig) *HealthCheckController {
	return &HealthCheckController{app: app}
}

func (hc *HealthCheckController) HandleHealthCheck(c *fiber.Ctx) error {
	sqlDB, err := hc.app.DB.DB()
	if err != nil {
		return c.Status(fiber.StatusServiceUnavailable).SendString("database connection unavailable")
	}
	if err = sqlDB.Ping(); err != nil {
		return c.Status(fiber.StatusServiceUnavailable).SendString("database unreachable")
	}

	if err = hc.app.RDS.Ping(c.Context()).Err(); err != nil {
		return c.Status(fiber.StatusServiceUnavailable).SendString("redis unreachable")
	}

	return c.Status(fiber.StatusOK).SendString("Healthy")
}
