package routes

import (
	"github.com/gofiber/fiber/v2"

	"face-service/interfaces/api/handlers"
	"face-service/pkg/config"
)

func SetupRoutes(app *fiber.App, h *handlers.Handlers, cfg *config.Config) {
	SetupHealthRoutes(app, h.Health)

	// Recognition endpoints live at the root to stay compatible with the
	// capture frontends.
	SetupFaceRoutes(app, h, &cfg.RateLimit)

	SetupLogRoutes(app, h)
}
