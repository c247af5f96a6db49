package services

import (
	"context"
	"errors"

	"face-service/domain/models"
)

var (
	ErrMissingInput        = errors.New("images or user id missing")
	ErrInsufficientSamples = errors.New("not enough usable face images")
)

// Per-image outcomes reported back to the enrollment caller.
const (
	SampleStatusSuccess              = "success"
	SampleStatusSkippedMaxReached    = "skipped_max_reached"
	SampleStatusFaceNotDetected      = "face_not_detected"
	SampleStatusLandmarksNotDetected = "landmarks_not_detected"
)

// ImageUpload is one uploaded image with its original filename.
type ImageUpload struct {
	Filename string
	Data     []byte
}

// SampleFeedback describes what happened to one uploaded image. Index is
// 1-based. For accepted images Filename is the stored dataset name.
type SampleFeedback struct {
	Index    int    `json:"index"`
	Filename string `json:"filename"`
	Status   string `json:"status"`
}

// EnrollmentResult summarizes a registration attempt. Details always covers
// every uploaded image, including the ones that failed, so it is returned
// even when the attempt is rejected for too few usable samples.
type EnrollmentResult struct {
	UserID        string           `json:"user_id"`
	UploadedCount int              `json:"uploaded_count"`
	SkippedCount  int              `json:"skipped_count"`
	Details       []SampleFeedback `json:"details"`
}

type EnrollmentService interface {
	// Register processes the uploaded images for one user, stores the
	// accepted face crops and their embeddings, and refreshes the user's
	// centroid and dynamic threshold. On ErrInsufficientSamples the
	// result still carries the per-image feedback.
	Register(ctx context.Context, userID, pose string, images []ImageUpload) (*EnrollmentResult, error)

	List(ctx context.Context, offset, limit int) ([]models.Enrollment, int64, error)
}
