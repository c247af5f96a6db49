package models

import (
	"time"

	"face-service/pkg/knn"
)

// ModelBundleSchemaVersion is bumped whenever the bundle layout changes.
const ModelBundleSchemaVersion = 1

// UserProfile is the per-identity state the verifier needs: the centroid of
// the user's enrolled embeddings and their dynamic distance threshold.
type UserProfile struct {
	Centroid    []float64 `json:"centroid"`
	Threshold   float64   `json:"threshold"`
	SampleCount int       `json:"sample_count"`
}

// ModelBundle is the complete published model: the classifier and every user
// profile, serialized as one object so verification never observes a
// classifier paired with stale profiles.
type ModelBundle struct {
	SchemaVersion int                    `json:"schema_version"`
	TrainedAt     time.Time              `json:"trained_at"`
	RunID         string                 `json:"run_id"`
	Classifier    *knn.Classifier        `json:"classifier"`
	Profiles      map[string]UserProfile `json:"profiles"`
}
