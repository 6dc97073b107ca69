package repository

import (
	"context"
	"errors"
	"fmt"
	"lms_backend/internal/model"
	"lms_backend/internal/util"
	"time"

	"gorm.io/gorm"
)

type EnrollmentRepository struct {
	DB *gorm.DB
}

func NewEnrollmentRepository(db *gorm.DB) *EnrollmentRepository {
	return &EnrollmentRepository{DB: db}
}

func (r *EnrollmentRepository) Enroll(ctx context.Context, userID, courseID uint, at time.Time) (*model.Enrollment, error) {
	var enrollment model.Enrollment
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("user_id = ? AND course_id = ?", userID, courseID).First(&enrollment).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			enrollment = model.Enrollment{UserID: userID, CourseID: courseID, EnrolledAt: at}
			return tx.Create(&enrollment).Error
		}
		// already enrolled, keep the original enrollment date
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", util.ErrStorage, err)
	}
	return &enrollment, nil
}

func (r *EnrollmentRepository) Unenroll(ctx context.Context, userID, courseID uint) error {
	err := r.DB.WithContext(ctx).
		Where("user_id = ? AND course_id = ?", userID, courseID).
		Delete(&model.Enrollment{}).Error
	if err != nil {
		return fmt.Errorf("%w: %v", util.ErrStorage, err)
	}
	return nil
}

// EnrolledAt returns nil when the user is not enrolled.
func (r *EnrollmentRepository) EnrolledAt(ctx context.Context, userID, courseID uint) (*time.Time, error) {
	var enrollment model.Enrollment
	err := r.DB.WithContext(ctx).Where("user_id = ? AND course_id = ?", userID, courseID).First(&enrollment).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", util.ErrStorage, err)
	}
	return &enrollment.EnrolledAt, nil
}
