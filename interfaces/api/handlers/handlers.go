package handlers

import (
	"face-service/domain/services"
	"face-service/pkg/config"
)

// Services contains all the services needed for handlers
type Services struct {
	EnrollmentService  services.EnrollmentService
	TrainingService    services.TrainingService
	RecognitionService services.RecognitionService
}

// Handlers contains all HTTP handlers
type Handlers struct {
	EnrollmentHandler  *EnrollmentHandler
	TrainingHandler    *TrainingHandler
	RecognitionHandler *RecognitionHandler
	HealthHandler      *HealthHandler
	LogHandler         *LogHandler

	// Short accessors for routes
	Enrollment  *EnrollmentHandler
	Training    *TrainingHandler
	Recognition *RecognitionHandler
	Health      *HealthHandler
	Log         *LogHandler
}

// NewHandlers creates a new instance of Handlers with all dependencies
func NewHandlers(services *Services, healthHandler *HealthHandler, cfg *config.Config) *Handlers {
	enrollmentHandler := NewEnrollmentHandler(services.EnrollmentService)
	trainingHandler := NewTrainingHandler(services.TrainingService)
	recognitionHandler := NewRecognitionHandler(services.RecognitionService)
	logHandler := NewLogHandler(cfg)

	return &Handlers{
		EnrollmentHandler:  enrollmentHandler,
		TrainingHandler:    trainingHandler,
		RecognitionHandler: recognitionHandler,
		HealthHandler:      healthHandler,
		LogHandler:         logHandler,

		// Short accessors
		Enrollment:  enrollmentHandler,
		Training:    trainingHandler,
		Recognition: recognitionHandler,
		Health:      healthHandler,
		Log:         logHandler,
	}
}
