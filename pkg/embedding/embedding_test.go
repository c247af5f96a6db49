package embedding

import (
	"errors"
	"math"
	"testing"
)

func TestCosineDistance(t *testing.T) {
	tests := []struct {
		name string
		a, b []float64
		want float64
	}{
		{"identical", []float64{1, 0, 0}, []float64{1, 0, 0}, 0},
		{"colinear", []float64{1, 2, 3}, []float64{2, 4, 6}, 0},
		{"orthogonal", []float64{1, 0}, []float64{0, 1}, 1},
		{"opposite", []float64{1, 0}, []float64{-1, 0}, 2},
		{"zero vector", []float64{0, 0}, []float64{1, 0}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CosineDistance(tt.a, tt.b)
			if err != nil {
				t.Fatalf("CosineDistance: %v", err)
			}
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCosineDistanceDimensionMismatch(t *testing.T) {
	_, err := CosineDistance([]float64{1, 2}, []float64{1, 2, 3})
	if !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("expected ErrDimensionMismatch, got %v", err)
	}
}

func TestEuclideanDistance(t *testing.T) {
	got, err := EuclideanDistance([]float64{0, 3}, []float64{4, 0})
	if err != nil {
		t.Fatalf("EuclideanDistance: %v", err)
	}
	if math.Abs(got-5) > 1e-9 {
		t.Errorf("got %v, want 5", got)
	}
}

func TestCentroid(t *testing.T) {
	samples := [][]float64{
		{1, 0, 2},
		{3, 2, 4},
	}
	got, err := Centroid(samples)
	if err != nil {
		t.Fatalf("Centroid: %v", err)
	}
	want := []float64{2, 1, 3}
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-9 {
			t.Errorf("component %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestDynamicThresholdFloorForFewSamples(t *testing.T) {
	for _, samples := range [][][]float64{
		nil,
		{{1, 0}},
	} {
		got, err := DynamicThreshold(samples, 0.85, 1.5)
		if err != nil {
			t.Fatalf("DynamicThreshold: %v", err)
		}
		if got != 0.85 {
			t.Errorf("got %v, want floor 0.85", got)
		}
	}
}

func TestDynamicThresholdTightCluster(t *testing.T) {
	// Near-identical samples produce tiny intra-user distances, so the
	// floor dominates.
	samples := [][]float64{
		{1, 0, 0},
		{0.999, 0.001, 0},
		{0.998, 0.002, 0},
	}
	got, err := DynamicThreshold(samples, 0.85, 1.5)
	if err != nil {
		t.Fatalf("DynamicThreshold: %v", err)
	}
	if got != 0.85 {
		t.Errorf("got %v, want floor 0.85", got)
	}
}

func TestDynamicThresholdSpreadCluster(t *testing.T) {
	// Orthogonal samples give pairwise distance 1 everywhere, so the
	// estimate is mean 1 with zero deviation, above the floor.
	samples := [][]float64{
		{1, 0, 0},
		{0, 1, 0},
		{0, 0, 1},
	}
	got, err := DynamicThreshold(samples, 0.85, 1.5)
	if err != nil {
		t.Fatalf("DynamicThreshold: %v", err)
	}
	if math.Abs(got-1) > 1e-9 {
		t.Errorf("got %v, want 1", got)
	}
}

func TestFloatConversions(t *testing.T) {
	src := []float64{0.25, -1.5, 3}
	f32 := ToFloat32(src)
	back := ToFloat64(f32)
	for i := range src {
		if back[i] != src[i] {
			t.Errorf("component %d = %v, want %v", i, back[i], src[i])
		}
	}
}
