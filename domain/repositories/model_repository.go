package repositories

import (
	"context"

	"face-service/domain/models"
)

// ModelRepository publishes and loads the trained model bundle, and archives
// per-run training reports under a timestamped log key.
type ModelRepository interface {
	PublishBundle(ctx context.Context, bundle *models.ModelBundle) error
	LoadBundle(ctx context.Context) (*models.ModelBundle, error)

	SaveRunReport(ctx context.Context, logKey string, metricsJSON []byte, summary string) error
	LoadRunReport(ctx context.Context, logKey string) ([]byte, error)
}
