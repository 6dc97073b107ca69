package model

import "time"

// ProgressRecord is one user's completion state for one content item.
// The unique index gives upsert semantics: never two rows per (user, item).
type ProgressRecord struct {
	BaseModel
	UserID      uint       `gorm:"index:idx_user_item,unique;not null" json:"userId"`
	ItemID      uint       `gorm:"index:idx_user_item,unique;not null" json:"itemId"`
	Completed   bool       `gorm:"default:false" json:"completed"`
	StartedAt   time.Time  `json:"startedAt"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

func (ProgressRecord) TableName() string {
	return "progress_records"
}
