package routes

import (
	"github.com/gofiber/fiber/v2"

	"face-service/interfaces/api/handlers"
)

func SetupLogRoutes(app *fiber.App, h *handlers.Handlers) {
	admin := app.Group("/admin")

	admin.Get("/logs", h.Log.GetLogs)
	admin.Get("/logs/files", h.Log.GetLogFiles)
}
