// Package objectstore implements the embedding and model repositories on top
// of a flat object storage backend, using the numpy-compatible key layout
// shared with the embedding service.
package objectstore

import (
	"context"
	"fmt"
	"strings"

	"face-service/domain/repositories"
	"face-service/infrastructure/storage"
	"face-service/pkg/npy"
)

const (
	embeddingKeyPrefix = "embeddings/"
	datasetKeyPrefix   = "dataset/"
	octetStream        = "application/octet-stream"
)

type embeddingRepository struct {
	store storage.ObjectStorage
}

func NewEmbeddingRepository(store storage.ObjectStorage) repositories.EmbeddingRepository {
	return &embeddingRepository{store: store}
}

func samplesKey(userID string) string   { return embeddingKeyPrefix + userID + ".npy" }
func thresholdKey(userID string) string { return embeddingKeyPrefix + "threshold_" + userID + ".npy" }
func centroidKey(userID string) string  { return embeddingKeyPrefix + "avg_" + userID + ".npy" }

func (r *embeddingRepository) SaveSamples(ctx context.Context, userID string, samples [][]float64) error {
	data, err := npy.Marshal2D(samples)
	if err != nil {
		return fmt.Errorf("encode samples for %s: %w", userID, err)
	}
	return r.store.Upload(ctx, samplesKey(userID), data, octetStream)
}

func (r *embeddingRepository) GetSamples(ctx context.Context, userID string) ([][]float64, error) {
	data, err := r.store.Download(ctx, samplesKey(userID))
	if err != nil {
		return nil, err
	}
	samples, err := npy.Unmarshal2D(data)
	if err != nil {
		return nil, fmt.Errorf("decode samples for %s: %w", userID, err)
	}
	return samples, nil
}

func (r *embeddingRepository) SaveThreshold(ctx context.Context, userID string, threshold float64) error {
	return r.store.Upload(ctx, thresholdKey(userID), npy.MarshalScalar(threshold), octetStream)
}

func (r *embeddingRepository) GetThreshold(ctx context.Context, userID string) (float64, error) {
	data, err := r.store.Download(ctx, thresholdKey(userID))
	if err != nil {
		return 0, err
	}
	threshold, err := npy.UnmarshalScalar(data)
	if err != nil {
		return 0, fmt.Errorf("decode threshold for %s: %w", userID, err)
	}
	return threshold, nil
}

func (r *embeddingRepository) SaveCentroid(ctx context.Context, userID string, centroid []float64) error {
	return r.store.Upload(ctx, centroidKey(userID), npy.Marshal1D(centroid), octetStream)
}

func (r *embeddingRepository) GetCentroid(ctx context.Context, userID string) ([]float64, error) {
	data, err := r.store.Download(ctx, centroidKey(userID))
	if err != nil {
		return nil, err
	}
	centroid, err := npy.Unmarshal1D(data)
	if err != nil {
		return nil, fmt.Errorf("decode centroid for %s: %w", userID, err)
	}
	return centroid, nil
}

// ListUserIDs enumerates the centroid objects, since a centroid is written
// for every completed enrollment.
func (r *embeddingRepository) ListUserIDs(ctx context.Context) ([]string, error) {
	keys, err := r.store.List(ctx, embeddingKeyPrefix+"avg_")
	if err != nil {
		return nil, err
	}
	var ids []string
	for _, key := range keys {
		if !strings.HasSuffix(key, ".npy") {
			continue
		}
		id := strings.TrimSuffix(strings.TrimPrefix(key, embeddingKeyPrefix+"avg_"), ".npy")
		if id != "" {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (r *embeddingRepository) SaveDatasetImage(ctx context.Context, userID, pose string, index int, jpegData []byte) error {
	key := fmt.Sprintf("%s%s/%s_%d.jpg", datasetKeyPrefix, userID, pose, index)
	return r.store.Upload(ctx, key, jpegData, "image/jpeg")
}
