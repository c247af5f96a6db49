package handlers

import (
	"errors"
	"io"

	"github.com/gofiber/fiber/v2"

	"face-service/domain/services"
	"face-service/pkg/utils"
)

// RecognitionHandler handles face verification requests
type RecognitionHandler struct {
	recognitionService services.RecognitionService
}

// NewRecognitionHandler creates a new recognition handler
func NewRecognitionHandler(recognitionService services.RecognitionService) *RecognitionHandler {
	return &RecognitionHandler{recognitionService: recognitionService}
}

// RecognizeFace verifies an uploaded face against the trained model
// @Summary Recognize and verify a face
// @Tags Recognition
// @Accept multipart/form-data
// @Produce json
// @Param image formData file true "Image file"
// @Success 200 {object} map[string]interface{}
// @Router /recognize-face [post]
func (h *RecognitionHandler) RecognizeFace(c *fiber.Ctx) error {
	file, err := c.FormFile("image")
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Image missing", err)
	}

	f, err := file.Open()
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to read file", err)
	}
	imageData, err := io.ReadAll(f)
	f.Close()
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to read file", err)
	}

	result, err := h.recognitionService.Verify(c.Context(), imageData)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrNoFaceDetected):
			return utils.ErrorResponse(c, fiber.StatusBadRequest, "No face detected", err)
		case errors.Is(err, services.ErrNoLandmarks):
			return utils.ErrorResponse(c, fiber.StatusBadRequest, "Could not extract facial landmarks", err)
		case errors.Is(err, services.ErrModelNotTrained):
			return utils.ErrorResponse(c, fiber.StatusNotFound, "Model not trained yet", err)
		default:
			return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Face recognition failed", err)
		}
	}

	// A prediction pointing at an identity with no stored profile is a
	// valid negative, not an error.
	if !result.KnownUser {
		return c.JSON(fiber.Map{
			"success": true,
			"match":   false,
			"message": "Unknown user predicted",
		})
	}

	message := "Face not recognized"
	var predictedLabel interface{}
	if result.Match {
		message = "Face recognized successfully"
		predictedLabel = result.PredictedLabel
	}

	return c.JSON(fiber.Map{
		"success":            true,
		"match":              result.Match,
		"predicted_label":    predictedLabel,
		"confidence":         result.Confidence,
		"cosine_distance":    result.CosineDistance,
		"euclidean_distance": result.EuclideanDistance,
		"user_threshold":     result.UserThreshold,
		"message":            message,
	})
}
