package objectstore

import (
	"context"
	"encoding/json"
	"fmt"

	"face-service/domain/models"
	"face-service/domain/repositories"
	"face-service/infrastructure/storage"
)

const (
	modelBundleKey     = "models/classifier.json"
	trainingLogsPrefix = "training_logs/"
)

type modelRepository struct {
	store storage.ObjectStorage
}

func NewModelRepository(store storage.ObjectStorage) repositories.ModelRepository {
	return &modelRepository{store: store}
}

// PublishBundle writes the classifier and profiles as one object, so readers
// always see a consistent pair.
func (r *modelRepository) PublishBundle(ctx context.Context, bundle *models.ModelBundle) error {
	data, err := json.Marshal(bundle)
	if err != nil {
		return fmt.Errorf("encode model bundle: %w", err)
	}
	return r.store.Upload(ctx, modelBundleKey, data, "application/json")
}

func (r *modelRepository) LoadBundle(ctx context.Context) (*models.ModelBundle, error) {
	data, err := r.store.Download(ctx, modelBundleKey)
	if err != nil {
		return nil, err
	}
	var bundle models.ModelBundle
	if err := json.Unmarshal(data, &bundle); err != nil {
		return nil, fmt.Errorf("decode model bundle: %w", err)
	}
	if bundle.SchemaVersion != models.ModelBundleSchemaVersion {
		return nil, fmt.Errorf("unsupported model bundle schema %d", bundle.SchemaVersion)
	}
	return &bundle, nil
}

// SaveRunReport archives the metrics of one training run under its log key.
// Keys are timestamps, so a run's report is written exactly once and never
// overwritten by a later run.
func (r *modelRepository) SaveRunReport(ctx context.Context, logKey string, metricsJSON []byte, summary string) error {
	prefix := trainingLogsPrefix + logKey + "/"
	if err := r.store.Upload(ctx, prefix+"metrics.json", metricsJSON, "application/json"); err != nil {
		return err
	}
	return r.store.Upload(ctx, prefix+"summary.txt", []byte(summary), "text/plain")
}

func (r *modelRepository) LoadRunReport(ctx context.Context, logKey string) ([]byte, error) {
	return r.store.Download(ctx, trainingLogsPrefix+logKey+"/metrics.json")
}
