package service

import (
	"context"
	"lms_backend/internal/model"
	"lms_backend/internal/repository"
	"lms_backend/pkg/logger"
	"time"

	"go.uber.org/zap"
)

type EnrollmentService struct {
	EnrollmentRepo *repository.EnrollmentRepository
	CourseRepo     *repository.CourseRepository
	ProgressRepo   *repository.ProgressRepository
}

func NewEnrollmentService(enrollmentRepo *repository.EnrollmentRepository, courseRepo *repository.CourseRepository, progressRepo *repository.ProgressRepository) *EnrollmentService {
	return &EnrollmentService{
		EnrollmentRepo: enrollmentRepo,
		CourseRepo:     courseRepo,
		ProgressRepo:   progressRepo,
	}
}

func (s *EnrollmentService) Enroll(ctx context.Context, userID, courseID uint, now time.Time) (*model.Enrollment, error) {
	if _, err := s.CourseRepo.Course(ctx, courseID); err != nil {
		return nil, err
	}
	return s.EnrollmentRepo.Enroll(ctx, userID, courseID, now)
}

// Unenroll drops the enrollment and cascades to the user's progress
// records for that course. This is the only path that deletes progress.
func (s *EnrollmentService) Unenroll(ctx context.Context, userID, courseID uint) error {
	if _, err := s.CourseRepo.Course(ctx, courseID); err != nil {
		return err
	}
	if err := s.EnrollmentRepo.Unenroll(ctx, userID, courseID); err != nil {
		return err
	}
	if err := s.ProgressRepo.DeleteForCourse(ctx, userID, courseID); err != nil {
		return err
	}
	logger.Log.Info("user unenrolled, progress removed",
		zap.Uint("user", userID),
		zap.Uint("course", courseID))
	return nil
}

func (s *EnrollmentService) EnrolledAt(ctx context.Context, userID, courseID uint) (*time.Time, error) {
	return s.EnrollmentRepo.EnrolledAt(ctx, userID, courseID)
}
