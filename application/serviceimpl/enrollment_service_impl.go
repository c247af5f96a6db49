package serviceimpl

import (
	"context"
	"errors"
	"fmt"

	"github.com/pgvector/pgvector-go"

	"face-service/domain/models"
	"face-service/domain/repositories"
	"face-service/domain/services"
	"face-service/infrastructure/imaging"
	"face-service/pkg/config"
	"face-service/pkg/embedding"
	"face-service/pkg/logger"
)

type EnrollmentServiceImpl struct {
	detector    services.FaceDetector
	embedder    services.FaceEmbedder
	embeddings  repositories.EmbeddingRepository
	enrollments repositories.EnrollmentRepository
	cfg         *config.RecognitionConfig
}

func NewEnrollmentService(
	detector services.FaceDetector,
	embedder services.FaceEmbedder,
	embeddings repositories.EmbeddingRepository,
	enrollments repositories.EnrollmentRepository,
	cfg *config.RecognitionConfig,
) services.EnrollmentService {
	return &EnrollmentServiceImpl{
		detector:    detector,
		embedder:    embedder,
		embeddings:  embeddings,
		enrollments: enrollments,
		cfg:         cfg,
	}
}

// Register runs every uploaded image through detect, crop, normalize and
// embed, keeping at most MaxEnrollmentFaces accepted samples. Images after
// the cap are reported as skipped without counting as failures.
func (s *EnrollmentServiceImpl) Register(ctx context.Context, userID, pose string, images []services.ImageUpload) (*services.EnrollmentResult, error) {
	if userID == "" || len(images) == 0 {
		return nil, services.ErrMissingInput
	}
	if pose == "" {
		pose = "front"
	}

	logger.Enroll("register_start", "Processing enrollment images", map[string]interface{}{
		"user_id": userID,
		"pose":    pose,
		"images":  len(images),
	})

	result := &services.EnrollmentResult{UserID: userID}
	var samples [][]float64

	for i, img := range images {
		if result.UploadedCount >= s.cfg.MaxEnrollmentFaces {
			result.Details = append(result.Details, services.SampleFeedback{
				Index:    i + 1,
				Filename: img.Filename,
				Status:   services.SampleStatusSkippedMaxReached,
			})
			continue
		}

		vector, storedName, err := s.processImage(ctx, userID, pose, result.UploadedCount+1, img.Data)
		if err != nil {
			result.SkippedCount++
			result.Details = append(result.Details, services.SampleFeedback{
				Index:    i + 1,
				Filename: img.Filename,
				Status:   sampleStatus(err),
			})
			continue
		}

		samples = append(samples, vector)
		result.UploadedCount++
		result.Details = append(result.Details, services.SampleFeedback{
			Index:    i + 1,
			Filename: storedName,
			Status:   services.SampleStatusSuccess,
		})
	}

	if result.UploadedCount < s.cfg.MinEnrollmentFaces {
		logger.EnrollError("register_rejected", "Too few usable images", services.ErrInsufficientSamples, map[string]interface{}{
			"user_id":  userID,
			"accepted": result.UploadedCount,
			"required": s.cfg.MinEnrollmentFaces,
		})
		return result, fmt.Errorf("%w: minimum %d images required (got %d)",
			services.ErrInsufficientSamples, s.cfg.MinEnrollmentFaces, result.UploadedCount)
	}

	if err := s.saveUserData(ctx, userID, pose, samples); err != nil {
		return result, err
	}

	logger.Enroll("register_complete", "Enrollment stored", map[string]interface{}{
		"user_id":  userID,
		"accepted": result.UploadedCount,
		"skipped":  result.SkippedCount,
	})
	return result, nil
}

// processImage turns one upload into an embedding vector and archives the
// normalized face crop. Returns the stored dataset filename.
func (s *EnrollmentServiceImpl) processImage(ctx context.Context, userID, pose string, index int, data []byte) ([]float64, string, error) {
	img, err := imaging.Decode(data)
	if err != nil {
		return nil, "", err
	}

	faces, err := s.detector.Detect(ctx, data)
	if err != nil {
		return nil, "", err
	}
	if len(faces) == 0 {
		return nil, "", services.ErrNoFaceDetected
	}

	face := imaging.LargestFace(faces)
	crop, err := imaging.CropWithMargin(img, face.Box, s.cfg.CropMargin)
	if err != nil {
		return nil, "", err
	}

	normalized := imaging.Normalize(crop)
	cropJPEG, err := imaging.EncodeJPEG(normalized)
	if err != nil {
		return nil, "", err
	}

	vector, err := s.embedder.Embed(ctx, cropJPEG)
	if err != nil {
		return nil, "", err
	}
	// Catch a misconfigured face service before anything is persisted.
	if s.cfg.EmbeddingDim > 0 && len(vector) != s.cfg.EmbeddingDim {
		return nil, "", fmt.Errorf("embedding has %d dimensions, expected %d", len(vector), s.cfg.EmbeddingDim)
	}

	if err := s.embeddings.SaveDatasetImage(ctx, userID, pose, index, cropJPEG); err != nil {
		return nil, "", err
	}
	return vector, fmt.Sprintf("%s_%d.jpg", pose, index), nil
}

// saveUserData overwrites the user's sample matrix and refreshes the derived
// threshold, centroid and enrollment record.
func (s *EnrollmentServiceImpl) saveUserData(ctx context.Context, userID, pose string, samples [][]float64) error {
	if err := s.embeddings.SaveSamples(ctx, userID, samples); err != nil {
		return fmt.Errorf("save samples: %w", err)
	}

	threshold, err := embedding.DynamicThreshold(samples, s.cfg.DefaultThreshold, s.cfg.ThresholdSigma)
	if err != nil {
		return fmt.Errorf("compute threshold: %w", err)
	}
	if err := s.embeddings.SaveThreshold(ctx, userID, threshold); err != nil {
		return fmt.Errorf("save threshold: %w", err)
	}

	centroid, err := embedding.Centroid(samples)
	if err != nil {
		return fmt.Errorf("compute centroid: %w", err)
	}
	if err := s.embeddings.SaveCentroid(ctx, userID, centroid); err != nil {
		return fmt.Errorf("save centroid: %w", err)
	}

	enrollment := &models.Enrollment{
		UserID:      userID,
		Pose:        pose,
		SampleCount: len(samples),
		Threshold:   threshold,
		Centroid:    pgvector.NewVector(embedding.ToFloat32(centroid)),
	}
	if err := s.enrollments.Upsert(ctx, enrollment); err != nil {
		return fmt.Errorf("save enrollment: %w", err)
	}
	return nil
}

func (s *EnrollmentServiceImpl) List(ctx context.Context, offset, limit int) ([]models.Enrollment, int64, error) {
	return s.enrollments.List(ctx, offset, limit)
}

// sampleStatus maps a per-image failure to its feedback status string.
func sampleStatus(err error) string {
	switch {
	case errors.Is(err, services.ErrNoFaceDetected):
		return services.SampleStatusFaceNotDetected
	case errors.Is(err, services.ErrNoLandmarks):
		return services.SampleStatusLandmarksNotDetected
	default:
		return fmt.Sprintf("error: %v", err)
	}
}
