package dto

import (
	"face-service/domain/models"
)

func EnrollmentToResponse(enrollment *models.Enrollment) *EnrollmentResponse {
	if enrollment == nil {
		return nil
	}

	return &EnrollmentResponse{
		ID:          enrollment.ID,
		UserID:      enrollment.UserID,
		Pose:        enrollment.Pose,
		SampleCount: enrollment.SampleCount,
		Threshold:   enrollment.Threshold,
		CreatedAt:   enrollment.CreatedAt,
		UpdatedAt:   enrollment.UpdatedAt,
	}
}

func EnrollmentsToListResponse(enrollments []models.Enrollment, total int64, offset, limit int) *EnrollmentListResponse {
	items := make([]EnrollmentResponse, 0, len(enrollments))
	for i := range enrollments {
		items = append(items, *EnrollmentToResponse(&enrollments[i]))
	}

	return &EnrollmentListResponse{
		Enrollments: items,
		Total:       total,
		Offset:      offset,
		Limit:       limit,
	}
}

func TrainingRunToResponse(run *models.TrainingRun) *TrainingRunResponse {
	if run == nil {
		return nil
	}

	return &TrainingRunResponse{
		ID:         run.ID,
		LogKey:     run.LogKey,
		Status:     run.Status,
		NumClasses: run.NumClasses,
		NumSamples: run.NumSamples,
		K:          run.K,
		Accuracy:   run.Accuracy,
		Precision:  run.Precision,
		Recall:     run.Recall,
		F1:         run.F1,
		Error:      run.Error,
		CreatedAt:  run.CreatedAt,
	}
}

func TrainingRunsToListResponse(runs []models.TrainingRun, total int64, offset, limit int) *TrainingRunListResponse {
	items := make([]TrainingRunResponse, 0, len(runs))
	for i := range runs {
		items = append(items, *TrainingRunToResponse(&runs[i]))
	}

	return &TrainingRunListResponse{
		Runs:   items,
		Total:  total,
		Offset: offset,
		Limit:  limit,
	}
}
