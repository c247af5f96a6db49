package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
)

// Enrollment tracks one registered user: how many face samples were captured,
// the identity-specific verification threshold and the centroid of the
// stored embeddings. The embeddings themselves live in object storage.
type Enrollment struct {
	ID     uuid.UUID `gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	UserID string    `gorm:"uniqueIndex;not null"`
	Pose   string    `gorm:"not null;default:front"`

	SampleCount int     `gorm:"not null"`
	Threshold   float64 `gorm:"not null"`

	// Mean of the user's embedding vectors. The column carries no fixed
	// dimension; EMBEDDING_DIM is enforced when samples are accepted.
	Centroid pgvector.Vector `gorm:"type:vector"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Enrollment) TableName() string {
	return "enrollments"
}
