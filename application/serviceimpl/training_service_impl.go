package serviceimpl

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"face-service/domain/models"
	"face-service/domain/repositories"
	"face-service/domain/services"
	"face-service/infrastructure/storage"
	"face-service/pkg/config"
	"face-service/pkg/knn"
	"face-service/pkg/logger"
)

// TrainingCoordinator serializes training across service instances and
// stamps the published model version so verifiers drop their cached bundle.
type TrainingCoordinator interface {
	AcquireTrainingLock(ctx context.Context, ttl time.Duration) (bool, error)
	ReleaseTrainingLock(ctx context.Context) error
	SetModelVersion(ctx context.Context, runID string) error
}

const trainingLockTTL = 10 * time.Minute

type TrainingServiceImpl struct {
	embeddings  repositories.EmbeddingRepository
	modelRepo   repositories.ModelRepository
	runs        repositories.TrainingRunRepository
	coordinator TrainingCoordinator
	cfg         *config.RecognitionConfig

	mu sync.Mutex
}

// NewTrainingService builds the training pipeline. coordinator may be nil,
// in which case only the in-process lock guards concurrent training.
func NewTrainingService(
	embeddings repositories.EmbeddingRepository,
	modelRepo repositories.ModelRepository,
	runs repositories.TrainingRunRepository,
	coordinator TrainingCoordinator,
	cfg *config.RecognitionConfig,
) services.TrainingService {
	return &TrainingServiceImpl{
		embeddings:  embeddings,
		modelRepo:   modelRepo,
		runs:        runs,
		coordinator: coordinator,
		cfg:         cfg,
	}
}

func (s *TrainingServiceImpl) Train(ctx context.Context) (*services.TrainingReport, error) {
	if !s.mu.TryLock() {
		return nil, services.ErrTrainingInProgress
	}
	defer s.mu.Unlock()

	if s.coordinator != nil {
		acquired, err := s.coordinator.AcquireTrainingLock(ctx, trainingLockTTL)
		if err != nil {
			return nil, fmt.Errorf("acquire training lock: %w", err)
		}
		if !acquired {
			return nil, services.ErrTrainingInProgress
		}
		defer func() {
			if err := s.coordinator.ReleaseTrainingLock(context.Background()); err != nil {
				logger.TrainWarn("lock_release", "Failed to release training lock", map[string]interface{}{"error": err.Error()})
			}
		}()
	}

	vectors, labels, profiles, err := s.collectTrainingData(ctx)
	if err != nil {
		return nil, err
	}

	logKey := time.Now().UTC().Format("20060102_150405")
	run := &models.TrainingRun{
		ID:         uuid.New(),
		LogKey:     logKey,
		NumSamples: len(vectors),
		Status:     models.TrainingRunStatusRunning,
	}
	if err := s.runs.Create(ctx, run); err != nil {
		return nil, fmt.Errorf("record training run: %w", err)
	}

	report, trainErr := s.trainAndPublish(ctx, run, vectors, labels, profiles)
	if trainErr != nil {
		run.Status = models.TrainingRunStatusFailed
		run.Error = trainErr.Error()
		if err := s.runs.Update(ctx, run.ID, run); err != nil {
			logger.TrainError("run_update", "Failed to mark run as failed", err, nil)
		}
		return nil, trainErr
	}
	return report, nil
}

// collectTrainingData loads every enrolled user's sample matrix and profile.
// Users whose sample matrix is missing are skipped with a warning, matching
// the store being the source of truth over the enrollment table.
func (s *TrainingServiceImpl) collectTrainingData(ctx context.Context) ([][]float64, []string, map[string]models.UserProfile, error) {
	userIDs, err := s.embeddings.ListUserIDs(ctx)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("list enrolled users: %w", err)
	}
	if len(userIDs) == 0 {
		return nil, nil, nil, services.ErrNoEnrolledUsers
	}

	var vectors [][]float64
	var labels []string
	profiles := make(map[string]models.UserProfile)

	for _, userID := range userIDs {
		samples, err := s.embeddings.GetSamples(ctx, userID)
		if errors.Is(err, storage.ErrObjectNotFound) {
			logger.TrainWarn("load_samples", "Sample matrix missing, skipping user", map[string]interface{}{"user_id": userID})
			continue
		}
		if err != nil {
			return nil, nil, nil, fmt.Errorf("load samples for %s: %w", userID, err)
		}

		threshold, err := s.embeddings.GetThreshold(ctx, userID)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("load threshold for %s: %w", userID, err)
		}
		centroid, err := s.embeddings.GetCentroid(ctx, userID)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("load centroid for %s: %w", userID, err)
		}

		for _, sample := range samples {
			vectors = append(vectors, sample)
			labels = append(labels, userID)
		}
		profiles[userID] = models.UserProfile{
			Centroid:    centroid,
			Threshold:   threshold,
			SampleCount: len(samples),
		}
	}

	if len(vectors) < s.cfg.MinTrainingSamples {
		return nil, nil, nil, fmt.Errorf("%w: have %d samples, need %d",
			services.ErrInsufficientTrainingData, len(vectors), s.cfg.MinTrainingSamples)
	}
	return vectors, labels, profiles, nil
}

func (s *TrainingServiceImpl) trainAndPublish(ctx context.Context, run *models.TrainingRun, vectors [][]float64, labels []string, profiles map[string]models.UserProfile) (*services.TrainingReport, error) {
	table := knn.NewLabelTable(labels)
	encoded, err := table.Encode(labels)
	if err != nil {
		return nil, err
	}
	classes := table.Classes()
	k := knn.OptimalK(len(classes))

	logger.Train("train_start", "Fitting classifier", map[string]interface{}{
		"num_classes": len(classes),
		"num_samples": len(vectors),
		"k":           k,
	})

	trainIdx, testIdx := knn.StratifiedSplit(encoded, s.cfg.TestFraction, s.cfg.SplitSeed)
	trainVectors, trainLabels := subset(vectors, encoded, trainIdx)
	testVectors, testLabels := subset(vectors, encoded, testIdx)

	clf := knn.Fit(trainVectors, trainLabels, classes, k)
	evalReport, err := clf.Evaluate(testVectors, testLabels)
	if err != nil {
		return nil, fmt.Errorf("evaluate classifier: %w", err)
	}

	bundle := &models.ModelBundle{
		SchemaVersion: models.ModelBundleSchemaVersion,
		TrainedAt:     time.Now().UTC(),
		RunID:         run.ID.String(),
		Classifier:    clf,
		Profiles:      profiles,
	}
	if err := s.modelRepo.PublishBundle(ctx, bundle); err != nil {
		return nil, fmt.Errorf("publish model bundle: %w", err)
	}

	if err := s.saveRunReport(ctx, run.LogKey, classes, k, evalReport); err != nil {
		logger.TrainWarn("run_report", "Failed to archive training report", map[string]interface{}{
			"log_key": run.LogKey,
			"error":   err.Error(),
		})
	}

	if s.coordinator != nil {
		if err := s.coordinator.SetModelVersion(ctx, bundle.RunID); err != nil {
			logger.TrainWarn("model_version", "Failed to stamp model version", map[string]interface{}{"error": err.Error()})
		}
	}

	run.NumClasses = len(classes)
	run.K = k
	run.Accuracy = evalReport.Accuracy
	run.Precision = evalReport.MacroPrecision
	run.Recall = evalReport.MacroRecall
	run.F1 = evalReport.MacroF1
	run.Status = models.TrainingRunStatusCompleted
	if err := s.runs.Update(ctx, run.ID, run); err != nil {
		logger.TrainError("run_update", "Failed to mark run as completed", err, nil)
	}

	logger.Train("train_complete", "Model published", map[string]interface{}{
		"run_id":   bundle.RunID,
		"log_key":  run.LogKey,
		"accuracy": evalReport.Accuracy,
	})

	return &services.TrainingReport{
		RunID:      bundle.RunID,
		LogKey:     run.LogKey,
		Accuracy:   evalReport.Accuracy,
		Precision:  evalReport.MacroPrecision,
		Recall:     evalReport.MacroRecall,
		F1:         evalReport.MacroF1,
		NumClasses: len(classes),
		NumSamples: len(vectors),
		OptimalK:   k,
		ClassNames: classes,
	}, nil
}

// saveRunReport archives the evaluation as machine-readable metrics plus a
// human-readable summary under the run's log key.
func (s *TrainingServiceImpl) saveRunReport(ctx context.Context, logKey string, classes []string, k int, report *knn.Report) error {
	metrics := map[string]interface{}{
		"accuracy":          report.Accuracy,
		"precision":         report.MacroPrecision,
		"recall":            report.MacroRecall,
		"f1_score":          report.MacroF1,
		"per_class":         report.PerClass,
		"confusion_matrix":  report.Confusion,
		"confidence_scores": report.Confidences,
		"threshold_sweep":   report.Sweep,
		"num_classes":       len(classes),
		"class_names":       classes,
		"optimal_k":         k,
	}
	metricsJSON, err := json.Marshal(metrics)
	if err != nil {
		return err
	}
	return s.modelRepo.SaveRunReport(ctx, logKey, metricsJSON, formatSummary(logKey, classes, k, report))
}

func formatSummary(logKey string, classes []string, k int, report *knn.Report) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Training Summary - %s\n", logKey)
	b.WriteString(strings.Repeat("=", 50) + "\n")
	fmt.Fprintf(&b, "Number of classes: %d\n", len(classes))
	fmt.Fprintf(&b, "Optimal K value: %d\n", k)
	fmt.Fprintf(&b, "Accuracy: %.4f\n", report.Accuracy)
	fmt.Fprintf(&b, "Precision (macro): %.4f\n", report.MacroPrecision)
	fmt.Fprintf(&b, "Recall (macro): %.4f\n", report.MacroRecall)
	fmt.Fprintf(&b, "F1 Score (macro): %.4f\n", report.MacroF1)
	b.WriteString("\nClass-wise metrics:\n")
	for _, m := range report.PerClass {
		fmt.Fprintf(&b, "%s:\n", m.Label)
		fmt.Fprintf(&b, "  Precision: %.4f\n", m.Precision)
		fmt.Fprintf(&b, "  Recall: %.4f\n", m.Recall)
		fmt.Fprintf(&b, "  F1: %.4f\n", m.F1)
	}
	return b.String()
}

func (s *TrainingServiceImpl) ListRuns(ctx context.Context, offset, limit int) ([]models.TrainingRun, int64, error) {
	return s.runs.List(ctx, offset, limit)
}

// GetRun pairs the run record with its archived metrics document. Runs that
// failed before publishing have no archive, so a missing object is not an
// error.
func (s *TrainingServiceImpl) GetRun(ctx context.Context, id uuid.UUID) (*models.TrainingRun, json.RawMessage, error) {
	run, err := s.runs.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	metrics, err := s.modelRepo.LoadRunReport(ctx, run.LogKey)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return run, nil, nil
		}
		return nil, nil, fmt.Errorf("load run report: %w", err)
	}

	return run, json.RawMessage(metrics), nil
}

func subset(vectors [][]float64, labels []int, idx []int) ([][]float64, []int) {
	outV := make([][]float64, len(idx))
	outL := make([]int, len(idx))
	for i, j := range idx {
		outV[i] = vectors[j]
		outL[i] = labels[j]
	}
	return outV, outL
}
