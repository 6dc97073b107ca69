package repository

import (
	"context"
	"errors"
	"fmt"
	"lms_backend/internal/model"
	"lms_backend/internal/util"

	"gorm.io/gorm"
)

// CourseRepository is the read projection over course structure. Ordering
// is fixed at query time: order_index ascending, primary key as tie-break
// so equal indexes resolve by creation order.
type CourseRepository struct {
	DB *gorm.DB
}

func NewCourseRepository(db *gorm.DB) *CourseRepository {
	return &CourseRepository{DB: db}
}

func (r *CourseRepository) Course(ctx context.Context, courseID uint) (*model.Course, error) {
	var course model.Course
	err := r.DB.WithContext(ctx).First(&course, courseID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrCourseNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", util.ErrStorage, err)
	}
	return &course, nil
}

func (r *CourseRepository) OrderedItems(ctx context.Context, courseID uint) ([]model.CourseContentItem, error) {
	if _, err := r.Course(ctx, courseID); err != nil {
		return nil, err
	}

	var items []model.CourseContentItem
	err := r.DB.WithContext(ctx).
		Where("course_id = ?", courseID).
		Order("order_index ASC, id ASC").
		Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("%w: %v", util.ErrStorage, err)
	}
	return items, nil
}

func (r *CourseRepository) List(ctx context.Context, publishedOnly bool) ([]model.Course, error) {
	var courses []model.Course
	q := r.DB.WithContext(ctx)
	if publishedOnly {
		q = q.Where("published = ?", true)
	}
	if err := q.Order("id ASC").Find(&courses).Error; err != nil {
		return nil, fmt.Errorf("%w: %v", util.ErrStorage, err)
	}
	return courses, nil
}

func (r *CourseRepository) Create(ctx context.Context, course *model.Course) error {
	if err := r.DB.WithContext(ctx).Create(course).Error; err != nil {
		return fmt.Errorf("%w: %v", util.ErrStorage, err)
	}
	return nil
}

func (r *CourseRepository) CreateItem(ctx context.Context, item *model.CourseContentItem) error {
	if _, err := r.Course(ctx, item.CourseID); err != nil {
		return err
	}
	if err := r.DB.WithContext(ctx).Create(item).Error; err != nil {
		return fmt.Errorf("%w: %v", util.ErrStorage, err)
	}
	return nil
}
