package services

import (
	"context"
	"errors"
)

var (
	ErrNoFaceDetected  = errors.New("no face detected")
	ErrModelNotTrained = errors.New("model not trained yet")
)

// VerificationResult is the outcome of a two-stage verification: a classifier
// prediction followed by a distance check against the predicted user's
// profile. KnownUser is false when the classifier points at an identity with
// no stored profile, which is a valid negative result rather than an error.
type VerificationResult struct {
	Match             bool    `json:"match"`
	KnownUser         bool    `json:"-"`
	PredictedLabel    string  `json:"predicted_label,omitempty"`
	Confidence        float64 `json:"confidence"`
	CosineDistance    float64 `json:"cosine_distance"`
	EuclideanDistance float64 `json:"euclidean_distance"`
	UserThreshold     float64 `json:"user_threshold"`
}

type RecognitionService interface {
	// Verify detects the largest face in the image, embeds it and decides
	// whether it matches an enrolled identity.
	Verify(ctx context.Context, imageData []byte) (*VerificationResult, error)
}
