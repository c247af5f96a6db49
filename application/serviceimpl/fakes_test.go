package serviceimpl

import (
	"context"
	"image"
	"image/color"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"face-service/domain/models"
	"face-service/domain/repositories"
	"face-service/domain/services"
	"face-service/infrastructure/imaging"
	"face-service/infrastructure/objectstore"
	"face-service/infrastructure/storage"
	"face-service/pkg/config"
)

func testRecognitionConfig() *config.RecognitionConfig {
	return &config.RecognitionConfig{
		DefaultThreshold:   0.85,
		ThresholdSigma:     1.5,
		DistanceGateFactor: 0.8,
		ConfidenceGate:     0.85,
		MinEnrollmentFaces: 10,
		MaxEnrollmentFaces: 20,
		MinTrainingSamples: 10,
		TestFraction:       0.2,
		SplitSeed:          42,
		CropMargin:         0.2,
	}
}

// testJPEG renders a decodable image for enrollment and verification inputs.
func testJPEG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 64, 64))
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			img.SetRGBA(x, y, color.RGBA{R: uint8(x * 4), G: uint8(y * 4), B: 128, A: 255})
		}
	}
	data, err := imaging.EncodeJPEG(img)
	if err != nil {
		t.Fatalf("encode test image: %v", err)
	}
	return data
}

// fakeDetector returns a fixed detection, or none when noFace is set.
type fakeDetector struct {
	noFace bool
	err    error
}

func (d *fakeDetector) Detect(ctx context.Context, imageData []byte) ([]services.DetectedFace, error) {
	if d.err != nil {
		return nil, d.err
	}
	if d.noFace {
		return nil, nil
	}
	return []services.DetectedFace{
		{Box: services.BoundingBox{X: 10, Y: 10, Width: 40, Height: 40}, Confidence: 0.99},
	}, nil
}

// fakeEmbedder hands out queued vectors, one per call, then repeats the last.
type fakeEmbedder struct {
	vectors [][]float64
	calls   int
	err     error
}

func (e *fakeEmbedder) Embed(ctx context.Context, faceImage []byte) ([]float64, error) {
	if e.err != nil {
		return nil, e.err
	}
	i := e.calls
	if i >= len(e.vectors) {
		i = len(e.vectors) - 1
	}
	e.calls++
	return e.vectors[i], nil
}

// constEmbedder always returns the same vector.
func constEmbedder(vector []float64, n int) *fakeEmbedder {
	vectors := make([][]float64, n)
	for i := range vectors {
		vectors[i] = vector
	}
	return &fakeEmbedder{vectors: vectors}
}

// memEnrollmentRepo is an in-memory stand-in for the postgres repository.
type memEnrollmentRepo struct {
	mu   sync.Mutex
	rows map[string]*models.Enrollment
}

func newMemEnrollmentRepo() *memEnrollmentRepo {
	return &memEnrollmentRepo{rows: make(map[string]*models.Enrollment)}
}

func (r *memEnrollmentRepo) Upsert(ctx context.Context, enrollment *models.Enrollment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *enrollment
	r.rows[enrollment.UserID] = &copied
	return nil
}

func (r *memEnrollmentRepo) GetByUserID(ctx context.Context, userID string) (*models.Enrollment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[userID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return row, nil
}

func (r *memEnrollmentRepo) List(ctx context.Context, offset, limit int) ([]models.Enrollment, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Enrollment
	for _, row := range r.rows {
		out = append(out, *row)
	}
	return out, int64(len(r.rows)), nil
}

func (r *memEnrollmentRepo) Delete(ctx context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.rows, userID)
	return nil
}

type memTrainingRunRepo struct {
	mu   sync.Mutex
	rows []*models.TrainingRun
}

func (r *memTrainingRunRepo) Create(ctx context.Context, run *models.TrainingRun) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *run
	r.rows = append(r.rows, &copied)
	return nil
}

func (r *memTrainingRunRepo) Update(ctx context.Context, id uuid.UUID, run *models.TrainingRun) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, row := range r.rows {
		if row.ID == id {
			copied := *run
			r.rows[i] = &copied
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (r *memTrainingRunRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.TrainingRun, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, row := range r.rows {
		if row.ID == id {
			return row, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memTrainingRunRepo) List(ctx context.Context, offset, limit int) ([]models.TrainingRun, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.TrainingRun
	for _, row := range r.rows {
		out = append(out, *row)
	}
	return out, int64(len(out)), nil
}

func (r *memTrainingRunRepo) Latest(ctx context.Context) (*models.TrainingRun, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.rows) - 1; i >= 0; i-- {
		if r.rows[i].Status == models.TrainingRunStatusCompleted {
			return r.rows[i], nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

// fakeCoordinator simulates the redis training lock and version stamp.
type fakeCoordinator struct {
	denyLock bool
	version  string
	released bool
}

func (c *fakeCoordinator) AcquireTrainingLock(ctx context.Context, ttl time.Duration) (bool, error) {
	return !c.denyLock, nil
}

func (c *fakeCoordinator) ReleaseTrainingLock(ctx context.Context) error {
	c.released = true
	return nil
}

func (c *fakeCoordinator) SetModelVersion(ctx context.Context, runID string) error {
	c.version = runID
	return nil
}

func (c *fakeCoordinator) GetModelVersion(ctx context.Context) (string, error) {
	return c.version, nil
}

func testObjectRepos(t *testing.T) (repositories.EmbeddingRepository, repositories.ModelRepository) {
	t.Helper()
	store, err := storage.NewLocalStorage(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalStorage: %v", err)
	}
	return objectstore.NewEmbeddingRepository(store), objectstore.NewModelRepository(store)
}
