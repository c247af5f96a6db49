package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"face-service/domain/dto"
	"face-service/domain/services"
	"face-service/pkg/utils"
)

// TrainingHandler handles classifier training requests
type TrainingHandler struct {
	trainingService services.TrainingService
}

// NewTrainingHandler creates a new training handler
func NewTrainingHandler(trainingService services.TrainingService) *TrainingHandler {
	return &TrainingHandler{trainingService: trainingService}
}

// TrainModel retrains the classifier from all stored enrollments
// @Summary Train the recognition model
// @Tags Training
// @Produce json
// @Success 200 {object} utils.Response
// @Router /train-model [post]
func (h *TrainingHandler) TrainModel(c *fiber.Ctx) error {
	report, err := h.trainingService.Train(c.Context())
	if err != nil {
		switch {
		case errors.Is(err, services.ErrNoEnrolledUsers):
			return utils.ErrorResponse(c, fiber.StatusBadRequest, "No registered users found", err)
		case errors.Is(err, services.ErrInsufficientTrainingData):
			return utils.ErrorResponse(c, fiber.StatusBadRequest, "Not enough training data", err)
		case errors.Is(err, services.ErrTrainingInProgress):
			return utils.ErrorResponse(c, fiber.StatusConflict, "Training already in progress", err)
		default:
			return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Model training failed", err)
		}
	}

	return utils.SuccessResponse(c, "KNN model trained successfully", fiber.Map{
		"run_id":        report.RunID,
		"accuracy":      report.Accuracy,
		"precision":     report.Precision,
		"recall":        report.Recall,
		"f1_score":      report.F1,
		"num_classes":   report.NumClasses,
		"num_samples":   report.NumSamples,
		"class_names":   report.ClassNames,
		"optimal_k":     report.OptimalK,
		"log_timestamp": report.LogKey,
	})
}

// GetTrainingRun returns one training run with its archived metrics
// @Summary Get a training run
// @Tags Training
// @Produce json
// @Param id path string true "Training run ID"
// @Success 200 {object} utils.Response
// @Router /training-runs/{id} [get]
func (h *TrainingHandler) GetTrainingRun(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid training run ID", err)
	}

	run, metrics, err := h.trainingService.GetRun(c.Context(), id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.ErrorResponse(c, fiber.StatusNotFound, "Training run not found", err)
		}
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to get training run", err)
	}

	return utils.SuccessResponse(c, "Training run retrieved", fiber.Map{
		"run":     dto.TrainingRunToResponse(run),
		"metrics": metrics,
	})
}

// ListTrainingRuns returns past training runs with their headline metrics
// @Summary List training runs
// @Tags Training
// @Produce json
// @Param offset query int false "Pagination offset" default(0)
// @Param limit query int false "Page size" default(20)
// @Success 200 {object} utils.Response
// @Router /training-runs [get]
func (h *TrainingHandler) ListTrainingRuns(c *fiber.Ctx) error {
	offset := c.QueryInt("offset", 0)
	limit := c.QueryInt("limit", 20)
	if limit < 1 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	runs, total, err := h.trainingService.ListRuns(c.Context(), offset, limit)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to list training runs", err)
	}

	return utils.SuccessResponse(c, "Training runs retrieved", dto.TrainingRunsToListResponse(runs, total, offset, limit))
}
