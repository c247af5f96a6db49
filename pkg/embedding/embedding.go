// Package embedding provides vector math over face embeddings: the distance
// measures used for identity confirmation, centroid aggregation, and the
// per-user dynamic acceptance threshold derived from enrollment variance.
package embedding

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// ErrDimensionMismatch is returned when two vectors of different lengths are compared.
var ErrDimensionMismatch = errors.New("embedding dimension mismatch")

// CosineDistance returns 1 - cos(a, b). Zero-norm inputs are maximally distant.
func CosineDistance(a, b []float64) (float64, error) {
	if len(a) != len(b) {
		return 0, ErrDimensionMismatch
	}
	na := floats.Norm(a, 2)
	nb := floats.Norm(b, 2)
	if na == 0 || nb == 0 {
		return 1, nil
	}
	return 1 - floats.Dot(a, b)/(na*nb), nil
}

// EuclideanDistance returns the L2 distance between two vectors.
func EuclideanDistance(a, b []float64) (float64, error) {
	if len(a) != len(b) {
		return 0, ErrDimensionMismatch
	}
	diff := make([]float64, len(a))
	floats.SubTo(diff, a, b)
	return floats.Norm(diff, 2), nil
}

// Centroid returns the element-wise mean of a non-empty sample set.
func Centroid(samples [][]float64) ([]float64, error) {
	if len(samples) == 0 {
		return nil, errors.New("no samples")
	}
	dim := len(samples[0])
	sum := make([]float64, dim)
	for _, s := range samples {
		if len(s) != dim {
			return nil, ErrDimensionMismatch
		}
		floats.Add(sum, s)
	}
	floats.Scale(1/float64(len(samples)), sum)
	return sum, nil
}

// DynamicThreshold derives a per-user acceptance threshold from the cosine
// distances between every unordered pair of the user's own samples:
// max(floor, mu + sigmaMultiplier*sigma). A user whose enrollment images vary
// more gets a looser band; the floor keeps low-variance enrollments from
// becoming unreasonably strict. Fewer than two samples yields the floor.
func DynamicThreshold(samples [][]float64, floor, sigmaMultiplier float64) (float64, error) {
	if len(samples) < 2 {
		return floor, nil
	}

	var distances []float64
	for i := 0; i < len(samples); i++ {
		for j := i + 1; j < len(samples); j++ {
			d, err := CosineDistance(samples[i], samples[j])
			if err != nil {
				return 0, err
			}
			distances = append(distances, d)
		}
	}

	mu := stat.Mean(distances, nil)
	sigma := stat.PopStdDev(distances, nil)

	return math.Max(mu+sigmaMultiplier*sigma, floor), nil
}

// ToFloat32 converts a float64 vector to float32, for the pgvector column type.
func ToFloat32(v []float64) []float32 {
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(x)
	}
	return out
}

// ToFloat64 converts a float32 vector to float64.
func ToFloat64(v []float32) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = float64(x)
	}
	return out
}
