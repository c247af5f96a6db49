package services

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"

	"face-service/domain/models"
)

var (
	ErrNoEnrolledUsers          = errors.New("no registered users found")
	ErrInsufficientTrainingData = errors.New("not enough training data")
	ErrTrainingInProgress       = errors.New("training already in progress")
)

// TrainingReport is the outcome of one successful training run.
type TrainingReport struct {
	RunID      string   `json:"run_id"`
	LogKey     string   `json:"log_timestamp"`
	Accuracy   float64  `json:"accuracy"`
	Precision  float64  `json:"precision"`
	Recall     float64  `json:"recall"`
	F1         float64  `json:"f1_score"`
	NumClasses int      `json:"num_classes"`
	NumSamples int      `json:"num_samples"`
	OptimalK   int      `json:"optimal_k"`
	ClassNames []string `json:"class_names"`
}

type TrainingService interface {
	// Train gathers every enrolled user's embeddings, fits and evaluates
	// a classifier, publishes the model bundle and archives the metrics
	// under a fresh timestamped log key.
	Train(ctx context.Context) (*TrainingReport, error)

	ListRuns(ctx context.Context, offset, limit int) ([]models.TrainingRun, int64, error)

	// GetRun returns one run's record plus its archived metrics document.
	// Metrics is nil when the archive object is missing.
	GetRun(ctx context.Context, id uuid.UUID) (*models.TrainingRun, json.RawMessage, error)
}
