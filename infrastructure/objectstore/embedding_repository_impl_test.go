package objectstore

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"face-service/domain/models"
	"face-service/infrastructure/storage"
	"face-service/pkg/knn"
)

func newTestStore(t *testing.T) storage.ObjectStorage {
	t.Helper()
	s, err := storage.NewLocalStorage(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalStorage: %v", err)
	}
	return s
}

func TestSamplesRoundTrip(t *testing.T) {
	repo := NewEmbeddingRepository(newTestStore(t))
	ctx := context.Background()

	samples := [][]float64{
		{0.1, 0.2, 0.3},
		{0.4, 0.5, 0.6},
	}
	if err := repo.SaveSamples(ctx, "2101234567", samples); err != nil {
		t.Fatalf("SaveSamples: %v", err)
	}
	got, err := repo.GetSamples(ctx, "2101234567")
	if err != nil {
		t.Fatalf("GetSamples: %v", err)
	}
	if len(got) != 2 || len(got[0]) != 3 {
		t.Fatalf("shape [%d %d], want [2 3]", len(got), len(got[0]))
	}
	if got[1][2] != 0.6 {
		t.Errorf("element [1][2] = %v, want 0.6", got[1][2])
	}
}

func TestThresholdAndCentroidRoundTrip(t *testing.T) {
	repo := NewEmbeddingRepository(newTestStore(t))
	ctx := context.Background()

	if err := repo.SaveThreshold(ctx, "u1", 0.91); err != nil {
		t.Fatalf("SaveThreshold: %v", err)
	}
	threshold, err := repo.GetThreshold(ctx, "u1")
	if err != nil {
		t.Fatalf("GetThreshold: %v", err)
	}
	if threshold != 0.91 {
		t.Errorf("threshold = %v, want 0.91", threshold)
	}

	centroid := []float64{0.5, -0.25, 1}
	if err := repo.SaveCentroid(ctx, "u1", centroid); err != nil {
		t.Fatalf("SaveCentroid: %v", err)
	}
	got, err := repo.GetCentroid(ctx, "u1")
	if err != nil {
		t.Fatalf("GetCentroid: %v", err)
	}
	for i := range centroid {
		if got[i] != centroid[i] {
			t.Errorf("centroid[%d] = %v, want %v", i, got[i], centroid[i])
		}
	}
}

func TestGetSamplesMissingUser(t *testing.T) {
	repo := NewEmbeddingRepository(newTestStore(t))
	if _, err := repo.GetSamples(context.Background(), "ghost"); !errors.Is(err, storage.ErrObjectNotFound) {
		t.Errorf("expected ErrObjectNotFound, got %v", err)
	}
}

func TestListUserIDs(t *testing.T) {
	repo := NewEmbeddingRepository(newTestStore(t))
	ctx := context.Background()

	for _, id := range []string{"u1", "u2"} {
		if err := repo.SaveCentroid(ctx, id, []float64{1}); err != nil {
			t.Fatalf("SaveCentroid(%s): %v", id, err)
		}
	}
	// Samples alone must not make a user visible.
	if err := repo.SaveSamples(ctx, "u3", [][]float64{{1}}); err != nil {
		t.Fatalf("SaveSamples: %v", err)
	}

	ids, err := repo.ListUserIDs(ctx)
	if err != nil {
		t.Fatalf("ListUserIDs: %v", err)
	}
	sort.Strings(ids)
	if len(ids) != 2 || ids[0] != "u1" || ids[1] != "u2" {
		t.Errorf("ids = %v, want [u1 u2]", ids)
	}
}

func TestModelBundleRoundTrip(t *testing.T) {
	repo := NewModelRepository(newTestStore(t))
	ctx := context.Background()

	bundle := &models.ModelBundle{
		SchemaVersion: models.ModelBundleSchemaVersion,
		TrainedAt:     time.Now().UTC().Truncate(time.Second),
		RunID:         "run-1",
		Classifier: &knn.Classifier{
			K:       4,
			Classes: []string{"u1", "u2"},
			Samples: []knn.Sample{
				{LabelIndex: 0, Vector: []float64{1, 0}},
				{LabelIndex: 1, Vector: []float64{0, 1}},
			},
		},
		Profiles: map[string]models.UserProfile{
			"u1": {Centroid: []float64{1, 0}, Threshold: 0.85, SampleCount: 10},
		},
	}
	if err := repo.PublishBundle(ctx, bundle); err != nil {
		t.Fatalf("PublishBundle: %v", err)
	}
	got, err := repo.LoadBundle(ctx)
	if err != nil {
		t.Fatalf("LoadBundle: %v", err)
	}
	if got.RunID != "run-1" || got.Classifier.K != 4 {
		t.Errorf("bundle = %+v", got)
	}
	if got.Profiles["u1"].Threshold != 0.85 {
		t.Errorf("profile threshold = %v", got.Profiles["u1"].Threshold)
	}
}

func TestLoadBundleMissing(t *testing.T) {
	repo := NewModelRepository(newTestStore(t))
	if _, err := repo.LoadBundle(context.Background()); !errors.Is(err, storage.ErrObjectNotFound) {
		t.Errorf("expected ErrObjectNotFound, got %v", err)
	}
}

func TestSaveRunReport(t *testing.T) {
	store := newTestStore(t)
	repo := NewModelRepository(store)
	ctx := context.Background()

	if err := repo.SaveRunReport(ctx, "20260901_120000", []byte(`{"accuracy":1}`), "summary"); err != nil {
		t.Fatalf("SaveRunReport: %v", err)
	}
	data, err := store.Download(ctx, "training_logs/20260901_120000/metrics.json")
	if err != nil {
		t.Fatalf("Download metrics: %v", err)
	}
	if string(data) != `{"accuracy":1}` {
		t.Errorf("metrics = %s", data)
	}
	if _, err := store.Download(ctx, "training_logs/20260901_120000/summary.txt"); err != nil {
		t.Fatalf("Download summary: %v", err)
	}
}
