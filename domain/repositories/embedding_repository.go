package repositories

import "context"

// EmbeddingRepository persists per-user face data in object storage:
// the raw embedding matrix, the derived centroid and threshold, and the
// captured dataset images.
type EmbeddingRepository interface {
	SaveSamples(ctx context.Context, userID string, samples [][]float64) error
	GetSamples(ctx context.Context, userID string) ([][]float64, error)

	SaveThreshold(ctx context.Context, userID string, threshold float64) error
	GetThreshold(ctx context.Context, userID string) (float64, error)

	SaveCentroid(ctx context.Context, userID string, centroid []float64) error
	GetCentroid(ctx context.Context, userID string) ([]float64, error)

	// ListUserIDs enumerates every user with a stored sample matrix.
	ListUserIDs(ctx context.Context) ([]string, error)

	SaveDatasetImage(ctx context.Context, userID, pose string, index int, jpegData []byte) error
}
