package postgres

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"face-service/domain/models"
	"face-service/domain/repositories"
)

type TrainingRunRepositoryImpl struct {
	db *gorm.DB
}

func NewTrainingRunRepository(db *gorm.DB) repositories.TrainingRunRepository {
	return &TrainingRunRepositoryImpl{db: db}
}

func (r *TrainingRunRepositoryImpl) Create(ctx context.Context, run *models.TrainingRun) error {
	return r.db.WithContext(ctx).Create(run).Error
}

func (r *TrainingRunRepositoryImpl) Update(ctx context.Context, id uuid.UUID, run *models.TrainingRun) error {
	return r.db.WithContext(ctx).Model(&models.TrainingRun{}).Where("id = ?", id).Updates(trainingRunUpdates(run)).Error
}

// trainingRunUpdates lists the mutable columns explicitly. A struct update
// would skip zero values, silently keeping stale metrics on runs that score
// exactly zero.
func trainingRunUpdates(run *models.TrainingRun) map[string]interface{} {
	return map[string]interface{}{
		"num_classes": run.NumClasses,
		"num_samples": run.NumSamples,
		"k":           run.K,
		"accuracy":    run.Accuracy,
		"precision":   run.Precision,
		"recall":      run.Recall,
		"f1":          run.F1,
		"status":      run.Status,
		"error":       run.Error,
	}
}

func (r *TrainingRunRepositoryImpl) GetByID(ctx context.Context, id uuid.UUID) (*models.TrainingRun, error) {
	var run models.TrainingRun
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&run).Error
	if err != nil {
		return nil, err
	}
	return &run, nil
}

func (r *TrainingRunRepositoryImpl) List(ctx context.Context, offset, limit int) ([]models.TrainingRun, int64, error) {
	var runs []models.TrainingRun
	var total int64

	if err := r.db.WithContext(ctx).Model(&models.TrainingRun{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&runs).Error

	return runs, total, err
}

func (r *TrainingRunRepositoryImpl) Latest(ctx context.Context) (*models.TrainingRun, error) {
	var run models.TrainingRun
	err := r.db.WithContext(ctx).
		Where("status = ?", models.TrainingRunStatusCompleted).
		Order("created_at DESC").
		First(&run).Error
	if err != nil {
		return nil, err
	}
	return &run, nil
}
