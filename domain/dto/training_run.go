package dto

import (
	"time"

	"github.com/google/uuid"
)

// TrainingRunResponse is the DTO for training run API responses
type TrainingRunResponse struct {
	ID         uuid.UUID `json:"id"`
	LogKey     string    `json:"log_timestamp"`
	Status     string    `json:"status"`
	NumClasses int       `json:"num_classes"`
	NumSamples int       `json:"num_samples"`
	K          int       `json:"optimal_k"`
	Accuracy   float64   `json:"accuracy"`
	Precision  float64   `json:"precision"`
	Recall     float64   `json:"recall"`
	F1         float64   `json:"f1_score"`
	Error      string    `json:"error,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// TrainingRunListResponse is the DTO for a paginated training run list
type TrainingRunListResponse struct {
	Runs   []TrainingRunResponse `json:"runs"`
	Total  int64                 `json:"total"`
	Offset int                   `json:"offset"`
	Limit  int                   `json:"limit"`
}
