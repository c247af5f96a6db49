package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	TrainingRunStatusRunning   = "running"
	TrainingRunStatusCompleted = "completed"
	TrainingRunStatusFailed    = "failed"
)

// TrainingRun records one classifier training attempt and its headline
// metrics. The full report is stored alongside the model artifacts under
// the run's log key.
type TrainingRun struct {
	ID uuid.UUID `gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`

	// Storage prefix of the run's metrics files (a UTC timestamp)
	LogKey string `gorm:"uniqueIndex;not null"`

	NumClasses int `gorm:"not null"`
	NumSamples int `gorm:"not null"`
	K          int `gorm:"not null"`

	Accuracy  float64
	Precision float64
	Recall    float64
	F1        float64

	Status string `gorm:"not null;default:running"`
	Error  string

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (TrainingRun) TableName() string {
	return "training_runs"
}
