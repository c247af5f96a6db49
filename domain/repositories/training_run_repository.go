package repositories

import (
	"context"

	"github.com/google/uuid"

	"face-service/domain/models"
)

type TrainingRunRepository interface {
	Create(ctx context.Context, run *models.TrainingRun) error
	Update(ctx context.Context, id uuid.UUID, run *models.TrainingRun) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.TrainingRun, error)
	List(ctx context.Context, offset, limit int) ([]models.TrainingRun, int64, error)
	Latest(ctx context.Context) (*models.TrainingRun, error)
}
