package serviceimpl

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"face-service/domain/models"
	"face-service/domain/repositories"
	"face-service/domain/services"
	"face-service/infrastructure/imaging"
	"face-service/infrastructure/storage"
	"face-service/pkg/config"
	"face-service/pkg/embedding"
	"face-service/pkg/logger"
)

// ModelVersionReader reports the run id of the currently published model.
type ModelVersionReader interface {
	GetModelVersion(ctx context.Context) (string, error)
}

type RecognitionServiceImpl struct {
	detector  services.FaceDetector
	embedder  services.FaceEmbedder
	modelRepo repositories.ModelRepository
	versions  ModelVersionReader
	cfg       *config.RecognitionConfig

	mu            sync.RWMutex
	cachedBundle  *models.ModelBundle
	cachedVersion string
}

// NewRecognitionService builds the verifier. versions may be nil, in which
// case the bundle is reloaded from storage on every request.
func NewRecognitionService(
	detector services.FaceDetector,
	embedder services.FaceEmbedder,
	modelRepo repositories.ModelRepository,
	versions ModelVersionReader,
	cfg *config.RecognitionConfig,
) services.RecognitionService {
	return &RecognitionServiceImpl{
		detector:  detector,
		embedder:  embedder,
		modelRepo: modelRepo,
		versions:  versions,
		cfg:       cfg,
	}
}

func (s *RecognitionServiceImpl) Verify(ctx context.Context, imageData []byte) (*services.VerificationResult, error) {
	img, err := imaging.Decode(imageData)
	if err != nil {
		return nil, err
	}

	faces, err := s.detector.Detect(ctx, imageData)
	if err != nil {
		return nil, err
	}
	if len(faces) == 0 {
		return nil, services.ErrNoFaceDetected
	}

	face := imaging.LargestFace(faces)
	crop, err := imaging.CropWithMargin(img, face.Box, s.cfg.CropMargin)
	if err != nil {
		return nil, err
	}
	cropJPEG, err := imaging.EncodeJPEG(imaging.Normalize(crop))
	if err != nil {
		return nil, err
	}

	query, err := s.embedder.Embed(ctx, cropJPEG)
	if err != nil {
		return nil, err
	}

	bundle, err := s.loadBundle(ctx)
	if err != nil {
		return nil, err
	}

	classIdx, confidence, err := bundle.Classifier.Predict(query)
	if err != nil {
		return nil, fmt.Errorf("prediction failed: %w", err)
	}
	label, err := knnDecode(bundle, classIdx)
	if err != nil {
		return nil, fmt.Errorf("prediction failed: %w", err)
	}

	profile, known := bundle.Profiles[label]
	if !known {
		logger.Verify("unknown_user", "Classifier predicted a user with no profile", map[string]interface{}{
			"predicted":  label,
			"confidence": confidence,
		})
		return &services.VerificationResult{
			Match:      false,
			KnownUser:  false,
			Confidence: confidence,
		}, nil
	}

	cosineDist, err := embedding.CosineDistance(query, profile.Centroid)
	if err != nil {
		return nil, err
	}
	euclideanDist, err := embedding.EuclideanDistance(query, profile.Centroid)
	if err != nil {
		return nil, err
	}

	// Two-stage gate: the tightened distance check against the user's own
	// threshold, plus a classifier confidence floor.
	verified := cosineDist < profile.Threshold*s.cfg.DistanceGateFactor &&
		confidence > s.cfg.ConfidenceGate

	result := &services.VerificationResult{
		Match:             verified,
		KnownUser:         true,
		Confidence:        confidence,
		CosineDistance:    cosineDist,
		EuclideanDistance: euclideanDist,
		UserThreshold:     profile.Threshold,
	}
	if verified {
		result.PredictedLabel = label
	}

	logger.Verify("verify_result", "Verification decided", map[string]interface{}{
		"predicted":       label,
		"match":           verified,
		"confidence":      confidence,
		"cosine_distance": cosineDist,
		"user_threshold":  profile.Threshold,
	})
	return result, nil
}

// loadBundle returns the cached model bundle, reloading it when the
// published version moves. Without a version reader the bundle is fetched
// from storage every time.
func (s *RecognitionServiceImpl) loadBundle(ctx context.Context) (*models.ModelBundle, error) {
	var version string
	if s.versions != nil {
		v, err := s.versions.GetModelVersion(ctx)
		if err != nil {
			logger.VerifyError("model_version", "Failed to read model version", err, nil)
		} else {
			version = v
		}

		s.mu.RLock()
		if s.cachedBundle != nil && version != "" && version == s.cachedVersion {
			bundle := s.cachedBundle
			s.mu.RUnlock()
			return bundle, nil
		}
		s.mu.RUnlock()
	}

	bundle, err := s.modelRepo.LoadBundle(ctx)
	if errors.Is(err, storage.ErrObjectNotFound) {
		return nil, services.ErrModelNotTrained
	}
	if err != nil {
		return nil, err
	}
	if bundle.Classifier == nil || len(bundle.Classifier.Samples) == 0 {
		return nil, services.ErrModelNotTrained
	}

	if s.versions != nil {
		s.mu.Lock()
		s.cachedBundle = bundle
		s.cachedVersion = version
		if version == "" {
			s.cachedVersion = bundle.RunID
		}
		s.mu.Unlock()
	}
	return bundle, nil
}

func knnDecode(bundle *models.ModelBundle, classIdx int) (string, error) {
	if classIdx < 0 || classIdx >= len(bundle.Classifier.Classes) {
		return "", fmt.Errorf("class index %d out of range", classIdx)
	}
	return bundle.Classifier.Classes[classIdx], nil
}
