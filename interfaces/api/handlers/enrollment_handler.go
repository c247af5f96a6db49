package handlers

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"

	"github.com/gofiber/fiber/v2"

	"face-service/domain/dto"
	"face-service/domain/services"
	"face-service/pkg/utils"
)

// EnrollmentHandler handles face registration requests
type EnrollmentHandler struct {
	enrollmentService services.EnrollmentService
}

type registerFaceForm struct {
	NIM  string `validate:"required,max=32"`
	Pose string `validate:"omitempty,alphanum,max=16"`
}

// NewEnrollmentHandler creates a new enrollment handler
func NewEnrollmentHandler(enrollmentService services.EnrollmentService) *EnrollmentHandler {
	return &EnrollmentHandler{enrollmentService: enrollmentService}
}

// RegisterFace enrolls a user from a batch of uploaded face images
// @Summary Register face images for a user
// @Tags Enrollment
// @Accept multipart/form-data
// @Produce json
// @Param images formData file true "Face images (up to 20 used)"
// @Param nim formData string true "Student identification number"
// @Param pose formData string false "Capture pose label" default(front)
// @Success 200 {object} utils.Response
// @Router /register-face [post]
func (h *EnrollmentHandler) RegisterFace(c *fiber.Ctx) error {
	form, err := c.MultipartForm()
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Images or NIM missing", err)
	}

	files := form.File["images"]
	nim := c.FormValue("nim")
	pose := c.FormValue("pose", "front")

	if len(files) == 0 || nim == "" {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Images or NIM missing", nil)
	}

	if err := utils.ValidateStruct(registerFaceForm{NIM: nim, Pose: pose}); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid registration input", err)
	}

	images := make([]services.ImageUpload, 0, len(files))
	for _, file := range files {
		data, err := readUpload(file)
		if err != nil {
			return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to read file", err)
		}
		images = append(images, services.ImageUpload{Filename: file.Filename, Data: data})
	}

	result, err := h.enrollmentService.Register(c.Context(), nim, pose, images)
	if err != nil {
		if errors.Is(err, services.ErrMissingInput) {
			return utils.ErrorResponse(c, fiber.StatusBadRequest, "Images or NIM missing", err)
		}
		if errors.Is(err, services.ErrInsufficientSamples) {
			// The per-image feedback goes back with the rejection.
			return utils.ErrorResponseWithData(c, fiber.StatusBadRequest, err.Error(), fiber.Map{
				"details": result.Details,
			})
		}
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Face registration failed", err)
	}

	return utils.SuccessResponse(c, fmt.Sprintf("Registered %d images for %s", result.UploadedCount, nim), fiber.Map{
		"uploaded_count": result.UploadedCount,
		"skipped_count":  result.SkippedCount,
		"details":        result.Details,
	})
}

// ListEnrollments returns the registered users
// @Summary List enrollments
// @Tags Enrollment
// @Produce json
// @Param offset query int false "Pagination offset" default(0)
// @Param limit query int false "Page size" default(20)
// @Success 200 {object} utils.Response
// @Router /enrollments [get]
func (h *EnrollmentHandler) ListEnrollments(c *fiber.Ctx) error {
	offset := c.QueryInt("offset", 0)
	limit := c.QueryInt("limit", 20)
	if limit < 1 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	enrollments, total, err := h.enrollmentService.List(c.Context(), offset, limit)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to list enrollments", err)
	}

	return utils.SuccessResponse(c, "Enrollments retrieved", dto.EnrollmentsToListResponse(enrollments, total, offset, limit))
}

func readUpload(file *multipart.FileHeader) ([]byte, error) {
	f, err := file.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}
