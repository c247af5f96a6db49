package serviceimpl

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"face-service/domain/services"
)

func uploads(t *testing.T, n int) []services.ImageUpload {
	t.Helper()
	data := testJPEG(t)
	out := make([]services.ImageUpload, n)
	for i := range out {
		out[i] = services.ImageUpload{Filename: fmt.Sprintf("img_%d.jpg", i+1), Data: data}
	}
	return out
}

// distinctVectors spreads unit vectors so pairwise distances are non-trivial.
func distinctVectors(n, dim int) [][]float64 {
	out := make([][]float64, n)
	for i := range out {
		v := make([]float64, dim)
		v[i%dim] = 1
		v[(i+1)%dim] = 0.2 * float64(i%3)
		out[i] = v
	}
	return out
}

func TestRegisterSuccess(t *testing.T) {
	embRepo, _ := testObjectRepos(t)
	enrollRepo := newMemEnrollmentRepo()
	svc := NewEnrollmentService(
		&fakeDetector{},
		&fakeEmbedder{vectors: distinctVectors(12, 8)},
		embRepo, enrollRepo, testRecognitionConfig(),
	)

	result, err := svc.Register(context.Background(), "2101234567", "front", uploads(t, 12))
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if result.UploadedCount != 12 || result.SkippedCount != 0 {
		t.Errorf("counts = %d/%d, want 12/0", result.UploadedCount, result.SkippedCount)
	}
	if len(result.Details) != 12 {
		t.Fatalf("details = %d entries, want 12", len(result.Details))
	}
	if result.Details[0].Status != services.SampleStatusSuccess {
		t.Errorf("first status = %q", result.Details[0].Status)
	}
	if result.Details[0].Filename != "front_1.jpg" {
		t.Errorf("stored name = %q, want front_1.jpg", result.Details[0].Filename)
	}

	samples, err := embRepo.GetSamples(context.Background(), "2101234567")
	if err != nil {
		t.Fatalf("GetSamples: %v", err)
	}
	if len(samples) != 12 {
		t.Errorf("stored %d samples, want 12", len(samples))
	}

	threshold, err := embRepo.GetThreshold(context.Background(), "2101234567")
	if err != nil {
		t.Fatalf("GetThreshold: %v", err)
	}
	if threshold < 0.85 {
		t.Errorf("threshold %v below floor", threshold)
	}

	row, err := enrollRepo.GetByUserID(context.Background(), "2101234567")
	if err != nil {
		t.Fatalf("GetByUserID: %v", err)
	}
	if row.SampleCount != 12 || row.Threshold != threshold {
		t.Errorf("enrollment row = %+v", row)
	}
}

func TestRegisterCapsAtMaxFaces(t *testing.T) {
	embRepo, _ := testObjectRepos(t)
	svc := NewEnrollmentService(
		&fakeDetector{},
		&fakeEmbedder{vectors: distinctVectors(25, 8)},
		embRepo, newMemEnrollmentRepo(), testRecognitionConfig(),
	)

	result, err := svc.Register(context.Background(), "u1", "front", uploads(t, 25))
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if result.UploadedCount != 20 {
		t.Errorf("uploaded = %d, want 20", result.UploadedCount)
	}
	// Overflow images are skipped, not failed.
	if result.SkippedCount != 0 {
		t.Errorf("skipped = %d, want 0", result.SkippedCount)
	}
	capped := 0
	for _, d := range result.Details {
		if d.Status == services.SampleStatusSkippedMaxReached {
			capped++
		}
	}
	if capped != 5 {
		t.Errorf("skipped_max_reached entries = %d, want 5", capped)
	}

	samples, err := embRepo.GetSamples(context.Background(), "u1")
	if err != nil {
		t.Fatalf("GetSamples: %v", err)
	}
	if len(samples) != 20 {
		t.Errorf("stored %d samples, want 20", len(samples))
	}
}

func TestRegisterMinimumBoundary(t *testing.T) {
	// Nine accepted images miss the minimum by one; ten is exactly enough.
	cases := []struct {
		name     string
		accepted int
		wantErr  bool
	}{
		{"nine_rejected", 9, true},
		{"ten_accepted", 10, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			embRepo, _ := testObjectRepos(t)
			svc := NewEnrollmentService(
				&fakeDetector{},
				&fakeEmbedder{vectors: distinctVectors(tc.accepted, 8)},
				embRepo, newMemEnrollmentRepo(), testRecognitionConfig(),
			)

			result, err := svc.Register(context.Background(), "u1", "front", uploads(t, tc.accepted))
			if tc.wantErr {
				if !errors.Is(err, services.ErrInsufficientSamples) {
					t.Fatalf("err = %v, want ErrInsufficientSamples", err)
				}
				if result == nil || result.UploadedCount != tc.accepted {
					t.Fatalf("result = %+v", result)
				}
				if _, err := embRepo.GetSamples(context.Background(), "u1"); err == nil {
					t.Error("samples stored despite rejection")
				}
				return
			}

			if err != nil {
				t.Fatalf("Register: %v", err)
			}
			if result.UploadedCount != tc.accepted {
				t.Errorf("uploaded = %d, want %d", result.UploadedCount, tc.accepted)
			}
			samples, err := embRepo.GetSamples(context.Background(), "u1")
			if err != nil {
				t.Fatalf("GetSamples: %v", err)
			}
			if len(samples) != tc.accepted {
				t.Errorf("stored %d samples, want %d", len(samples), tc.accepted)
			}
		})
	}
}

func TestRegisterRejectsTooFewUsable(t *testing.T) {
	embRepo, _ := testObjectRepos(t)
	svc := NewEnrollmentService(
		&fakeDetector{noFace: true},
		constEmbedder([]float64{1, 0}, 5),
		embRepo, newMemEnrollmentRepo(), testRecognitionConfig(),
	)

	result, err := svc.Register(context.Background(), "u1", "front", uploads(t, 5))
	if !errors.Is(err, services.ErrInsufficientSamples) {
		t.Fatalf("err = %v, want ErrInsufficientSamples", err)
	}
	// Per-image feedback still comes back with the rejection.
	if result == nil || len(result.Details) != 5 {
		t.Fatalf("result = %+v", result)
	}
	for _, d := range result.Details {
		if d.Status != services.SampleStatusFaceNotDetected {
			t.Errorf("status = %q, want face_not_detected", d.Status)
		}
	}
	if _, err := embRepo.GetSamples(context.Background(), "u1"); err == nil {
		t.Error("samples stored despite rejection")
	}
}

func TestRegisterRejectsWrongEmbeddingDim(t *testing.T) {
	embRepo, _ := testObjectRepos(t)
	cfg := testRecognitionConfig()
	cfg.EmbeddingDim = 8

	// The embedder answers with 4-dim vectors against a configured 8.
	svc := NewEnrollmentService(
		&fakeDetector{},
		constEmbedder([]float64{1, 0, 0, 0}, 12),
		embRepo, newMemEnrollmentRepo(), cfg,
	)

	result, err := svc.Register(context.Background(), "u1", "front", uploads(t, 12))
	if !errors.Is(err, services.ErrInsufficientSamples) {
		t.Fatalf("err = %v, want ErrInsufficientSamples", err)
	}
	for _, d := range result.Details {
		if !strings.HasPrefix(d.Status, "error: embedding has") {
			t.Errorf("status = %q, want a dimension error", d.Status)
		}
	}
	if _, err := embRepo.GetSamples(context.Background(), "u1"); err == nil {
		t.Error("samples stored despite dimension mismatch")
	}
}

func TestRegisterLandmarkFailures(t *testing.T) {
	embRepo, _ := testObjectRepos(t)
	svc := NewEnrollmentService(
		&fakeDetector{},
		&fakeEmbedder{err: services.ErrNoLandmarks},
		embRepo, newMemEnrollmentRepo(), testRecognitionConfig(),
	)

	result, err := svc.Register(context.Background(), "u1", "front", uploads(t, 3))
	if !errors.Is(err, services.ErrInsufficientSamples) {
		t.Fatalf("err = %v, want ErrInsufficientSamples", err)
	}
	for _, d := range result.Details {
		if d.Status != services.SampleStatusLandmarksNotDetected {
			t.Errorf("status = %q, want landmarks_not_detected", d.Status)
		}
	}
	if result.SkippedCount != 3 {
		t.Errorf("skipped = %d, want 3", result.SkippedCount)
	}
}

func TestRegisterMissingInput(t *testing.T) {
	embRepo, _ := testObjectRepos(t)
	svc := NewEnrollmentService(&fakeDetector{}, constEmbedder([]float64{1}, 1), embRepo, newMemEnrollmentRepo(), testRecognitionConfig())

	if _, err := svc.Register(context.Background(), "", "front", uploads(t, 1)); !errors.Is(err, services.ErrMissingInput) {
		t.Errorf("empty user id: err = %v", err)
	}
	if _, err := svc.Register(context.Background(), "u1", "front", nil); !errors.Is(err, services.ErrMissingInput) {
		t.Errorf("no images: err = %v", err)
	}
}

func TestRegisterDefaultsPose(t *testing.T) {
	embRepo, _ := testObjectRepos(t)
	svc := NewEnrollmentService(
		&fakeDetector{},
		&fakeEmbedder{vectors: distinctVectors(10, 8)},
		embRepo, newMemEnrollmentRepo(), testRecognitionConfig(),
	)

	result, err := svc.Register(context.Background(), "u1", "", uploads(t, 10))
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if result.Details[0].Filename != "front_1.jpg" {
		t.Errorf("stored name = %q, want front_1.jpg", result.Details[0].Filename)
	}
}
