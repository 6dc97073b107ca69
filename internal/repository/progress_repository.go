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

// ProgressRepository is the durable progress store for authenticated
// users. It knows nothing about flow modes; all it guarantees is one row
// per (user, item) and atomic per-row writes.
type ProgressRepository struct {
	DB *gorm.DB
}

func NewProgressRepository(db *gorm.DB) *ProgressRepository {
	return &ProgressRepository{DB: db}
}

func (r *ProgressRepository) Get(ctx context.Context, userID, itemID uint) (*model.ProgressRecord, error) {
	var rec model.ProgressRecord
	err := r.DB.WithContext(ctx).Where("user_id = ? AND item_id = ?", userID, itemID).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", util.ErrStorage, err)
	}
	return &rec, nil
}

// Upsert is idempotent. CompletedAt is set only on the false→true
// transition and never touched by repeat calls, so "completed twice"
// leaves the record byte-identical to "completed once".
func (r *ProgressRepository) Upsert(ctx context.Context, userID, itemID uint, completed bool, now time.Time) (*model.ProgressRecord, error) {
	var rec model.ProgressRecord
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("user_id = ? AND item_id = ?", userID, itemID).First(&rec).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			rec = model.ProgressRecord{
				UserID:    userID,
				ItemID:    itemID,
				Completed: completed,
				StartedAt: now,
			}
			if completed {
				rec.CompletedAt = &now
			}
			return tx.Create(&rec).Error
		}
		if err != nil {
			return err
		}
		if completed && !rec.Completed {
			rec.Completed = true
			rec.CompletedAt = &now
			return tx.Save(&rec).Error
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", util.ErrStorage, err)
	}
	return &rec, nil
}

// ListForCourse loads the whole completion map in one query so the
// evaluator never issues per-item lookups.
func (r *ProgressRepository) ListForCourse(ctx context.Context, userID, courseID uint) (map[uint]*model.ProgressRecord, error) {
	var records []model.ProgressRecord
	err := r.DB.WithContext(ctx).
		Joins("JOIN course_content_items ON course_content_items.id = progress_records.item_id").
		Where("progress_records.user_id = ? AND course_content_items.course_id = ?", userID, courseID).
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("%w: %v", util.ErrStorage, err)
	}

	byItem := make(map[uint]*model.ProgressRecord, len(records))
	for i := range records {
		byItem[records[i].ItemID] = &records[i]
	}
	return byItem, nil
}

// DeleteForCourse removes every record for the user's items in the course
// in a single statement, so concurrent readers never observe a partial
// deletion. Used on unenrollment only.
func (r *ProgressRepository) DeleteForCourse(ctx context.Context, userID, courseID uint) error {
	itemIDs := r.DB.Model(&model.CourseContentItem{}).Select("id").Where("course_id = ?", courseID)
	err := r.DB.WithContext(ctx).
		Unscoped().
		Where("user_id = ? AND item_id IN (?)", userID, itemIDs).
		Delete(&model.ProgressRecord{}).Error
	if err != nil {
		return fmt.Errorf("%w: %v", util.ErrStorage, err)
	}
	return nil
}
