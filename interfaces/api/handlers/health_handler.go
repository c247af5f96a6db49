package handlers

import (
	"context"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"face-service/domain/repositories"
	"face-service/infrastructure/faceapi"
	"face-service/infrastructure/redis"
)

// HealthHandler handles health check endpoints
type HealthHandler struct {
	db          *gorm.DB
	redisClient *redis.Client
	faceClient  *faceapi.FaceClient
	runs        repositories.TrainingRunRepository
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(
	db *gorm.DB,
	redisClient *redis.Client,
	faceClient *faceapi.FaceClient,
	runs repositories.TrainingRunRepository,
) *HealthHandler {
	return &HealthHandler{
		db:          db,
		redisClient: redisClient,
		faceClient:  faceClient,
		runs:        runs,
	}
}

// ComponentHealth represents health status of a component
type ComponentHealth struct {
	Status  string `json:"status"` // "ok", "error", "unavailable"
	Message string `json:"message,omitempty"`
	Latency string `json:"latency,omitempty"`
}

// DetailedHealthResponse represents detailed health check response
type DetailedHealthResponse struct {
	Status     string                     `json:"status"` // "healthy", "degraded", "unhealthy"
	Timestamp  time.Time                  `json:"timestamp"`
	Components map[string]ComponentHealth `json:"components"`
	Model      *ModelStatus               `json:"model,omitempty"`
}

// ModelStatus summarizes the most recent completed training run
type ModelStatus struct {
	LogKey     string  `json:"log_key"`
	NumClasses int     `json:"num_classes"`
	Accuracy   float64 `json:"accuracy"`
	TrainedAt  string  `json:"trained_at"`
}

// DetailedHealth godoc
// @Summary Get detailed system health
// @Description Returns health status of the database, redis and the face API
// @Tags Health
// @Produce json
// @Success 200 {object} DetailedHealthResponse
// @Router /health/detailed [get]
func (h *HealthHandler) DetailedHealth(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 10*time.Second)
	defer cancel()

	components := map[string]ComponentHealth{
		"database": h.checkDatabase(ctx),
		"redis":    h.checkRedis(ctx),
		"face_api": h.checkFaceAPI(ctx),
	}

	status := "healthy"
	for _, component := range components {
		if component.Status == "error" {
			status = "unhealthy"
			break
		}
		if component.Status == "unavailable" {
			status = "degraded"
		}
	}

	response := DetailedHealthResponse{
		Status:     status,
		Timestamp:  time.Now().UTC(),
		Components: components,
	}

	if h.runs != nil {
		if run, err := h.runs.Latest(ctx); err == nil {
			response.Model = &ModelStatus{
				LogKey:     run.LogKey,
				NumClasses: run.NumClasses,
				Accuracy:   run.Accuracy,
				TrainedAt:  run.UpdatedAt.UTC().Format(time.RFC3339),
			}
		}
	}

	code := fiber.StatusOK
	if status == "unhealthy" {
		code = fiber.StatusServiceUnavailable
	}
	return c.Status(code).JSON(response)
}

func (h *HealthHandler) checkDatabase(ctx context.Context) ComponentHealth {
	if h.db == nil {
		return ComponentHealth{Status: "unavailable", Message: "not configured"}
	}
	start := time.Now()
	sqlDB, err := h.db.DB()
	if err != nil {
		return ComponentHealth{Status: "error", Message: err.Error()}
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return ComponentHealth{Status: "error", Message: err.Error()}
	}
	return ComponentHealth{Status: "ok", Latency: fmt.Sprintf("%dms", time.Since(start).Milliseconds())}
}

func (h *HealthHandler) checkRedis(ctx context.Context) ComponentHealth {
	if h.redisClient == nil {
		return ComponentHealth{Status: "unavailable", Message: "not configured"}
	}
	start := time.Now()
	if _, err := h.redisClient.GetModelVersion(ctx); err != nil {
		return ComponentHealth{Status: "error", Message: err.Error()}
	}
	return ComponentHealth{Status: "ok", Latency: fmt.Sprintf("%dms", time.Since(start).Milliseconds())}
}

func (h *HealthHandler) checkFaceAPI(ctx context.Context) ComponentHealth {
	if h.faceClient == nil {
		return ComponentHealth{Status: "unavailable", Message: "not configured"}
	}
	start := time.Now()
	if !h.faceClient.IsAvailable(ctx) {
		return ComponentHealth{Status: "error", Message: "face API unreachable"}
	}
	return ComponentHealth{Status: "ok", Latency: fmt.Sprintf("%dms", time.Since(start).Milliseconds())}
}
