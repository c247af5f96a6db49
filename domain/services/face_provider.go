package services

import (
	"context"
	"errors"
)

// ErrNoLandmarks is returned by embedders when facial landmarks cannot be
// extracted from the given crop.
var ErrNoLandmarks = errors.New("could not extract facial landmarks")

// BoundingBox is a face location in pixel coordinates.
type BoundingBox struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// DetectedFace is one detection returned by the face provider.
type DetectedFace struct {
	Box        BoundingBox `json:"box"`
	Confidence float64     `json:"confidence"`
}

// FaceDetector locates faces in an encoded image.
type FaceDetector interface {
	Detect(ctx context.Context, imageData []byte) ([]DetectedFace, error)
}

// FaceEmbedder extracts an embedding vector from an already cropped and
// normalized face image. Returns ErrNoLandmarks when extraction fails.
type FaceEmbedder interface {
	Embed(ctx context.Context, faceImage []byte) ([]float64, error)
}
