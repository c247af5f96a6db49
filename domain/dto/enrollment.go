package dto

import (
	"time"

	"github.com/google/uuid"
)

// EnrollmentResponse is the DTO for enrollment API responses. The stored
// centroid vector stays server side.
type EnrollmentResponse struct {
	ID          uuid.UUID `json:"id"`
	UserID      string    `json:"user_id"`
	Pose        string    `json:"pose"`
	SampleCount int       `json:"sample_count"`
	Threshold   float64   `json:"threshold"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// EnrollmentListResponse is the DTO for a paginated enrollment list
type EnrollmentListResponse struct {
	Enrollments []EnrollmentResponse `json:"enrollments"`
	Total       int64                `json:"total"`
	Offset      int                  `json:"offset"`
	Limit       int                  `json:"limit"`
}
