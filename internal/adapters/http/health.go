package http

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
)

// Version is reported by the health endpoint; set at build time with
// -ldflags "-X .../internal/adapters/http.Version=...".
var Version = "dev"

// HealthHandler returns a liveness check with the size of the marker set.
func HealthHandler(deps *Dependencies) fiber.Handler {
	startedAt := time.Now()

	return func(c *fiber.Ctx) error {
		store := deps.Views.Store()
		return c.JSON(fiber.Map{
			"status":  "healthy",
			"uptime":  time.Since(startedAt).String(),
			"version": Version,
			"slot":    store.Config().SlotKey,
			"markers": len(store.Markers()),
			"fading":  len(store.FadingIDs()),
		})
	}
}

// ReadyHandler runs every configured backend check.
func ReadyHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 3*time.Second)
		defer cancel()

		checks := make(map[string]string, len(deps.Checks))
		allOK := true

		for _, rc := range deps.Checks {
			if err := rc.Check(ctx); err != nil {
				checks[rc.Name] = "error: " + err.Error()
				allOK = false
			} else {
				checks[rc.Name] = "ok"
			}
		}

		status := "ready"
		code := fiber.StatusOK
		if !allOK {
			status = "not ready"
			code = fiber.StatusServiceUnavailable
		}

		return c.Status(code).JSON(fiber.Map{
			"status": status,
			"checks": checks,
		})
	}
}
