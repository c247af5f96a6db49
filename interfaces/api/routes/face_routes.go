package routes

import (
	"github.com/gofiber/fiber/v2"

	"face-service/interfaces/api/handlers"
	"face-service/interfaces/api/middleware"
	"face-service/pkg/config"
)

func SetupFaceRoutes(app *fiber.App, h *handlers.Handlers, rateCfg *config.RateLimitConfig) {
	limited := middleware.RateLimiter(rateCfg)

	// Enrollment
	app.Post("/register-face", limited, h.Enrollment.RegisterFace)
	app.Get("/enrollments", h.Enrollment.ListEnrollments)

	// Training
	app.Post("/train-model", limited, h.Training.TrainModel)
	app.Get("/training-runs", h.Training.ListTrainingRuns)
	app.Get("/training-runs/:id", h.Training.GetTrainingRun)

	// Verification
	app.Post("/recognize-face", limited, h.Recognition.RecognizeFace)
}
