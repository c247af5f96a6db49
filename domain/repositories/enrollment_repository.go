package repositories

import (
	"context"

	"face-service/domain/models"
)

type EnrollmentRepository interface {
	Upsert(ctx context.Context, enrollment *models.Enrollment) error
	GetByUserID(ctx context.Context, userID string) (*models.Enrollment, error)
	List(ctx context.Context, offset, limit int) ([]models.Enrollment, int64, error)
	Delete(ctx context.Context, userID string) error
}
