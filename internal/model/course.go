package model

import (
	"fmt"
	"time"
)

// CourseFlowMode governs when a course's items become accessible.
type CourseFlowMode string

const (
	FlowSequential CourseFlowMode = "sequential"
	FlowFree       CourseFlowMode = "free-flow"
	FlowDate       CourseFlowMode = "date"
	FlowDays       CourseFlowMode = "days"
)

// ParseFlowMode validates flow mode input at the model boundary so that
// evaluation never has to second-guess stored values.
func ParseFlowMode(s string) (CourseFlowMode, error) {
	switch CourseFlowMode(s) {
	case FlowSequential, FlowFree, FlowDate, FlowDays:
		return CourseFlowMode(s), nil
	}
	return "", fmt.Errorf("unknown flow mode %q", s)
}

type Course struct {
	BaseModel
	Title       string         `gorm:"size:255;not null" json:"title"`
	Description string         `gorm:"type:text" json:"description"`
	FlowMode    CourseFlowMode `gorm:"type:enum('sequential','free-flow','date','days');default:'free-flow'" json:"flowMode"`
	Published   bool           `gorm:"default:false" json:"published"`
	AuthorID    uint           `gorm:"index" json:"authorId"`

	Items []CourseContentItem `gorm:"foreignKey:CourseID" json:"items,omitempty"`
}

func (Course) TableName() string {
	return "courses"
}

type ItemType string

const (
	ItemLesson  ItemType = "lesson"
	ItemQuiz    ItemType = "quiz"
	ItemSection ItemType = "section"
)

func ParseItemType(s string) (ItemType, error) {
	switch ItemType(s) {
	case ItemLesson, ItemQuiz, ItemSection:
		return ItemType(s), nil
	}
	return "", fmt.Errorf("unknown item type %q", s)
}

// CourseContentItem is one gatable unit of a course. Sections are kept in
// the ordered list for display but never carry completion state.
type CourseContentItem struct {
	BaseModel
	CourseID   uint     `gorm:"index;not null" json:"courseId"`
	Title      string   `gorm:"size:255;not null" json:"title"`
	ItemType   ItemType `gorm:"type:enum('lesson','quiz','section');not null" json:"itemType"`
	OrderIndex int      `gorm:"index;default:0" json:"orderIndex"`

	// Date-gated flow only.
	AvailableFrom *time.Time `json:"availableFrom,omitempty"`
	// Days-gated flow only, counted from enrollment.
	AvailableAfterDays *int `json:"availableAfterDays,omitempty"`
}

func (CourseContentItem) TableName() string {
	return "course_content_items"
}

// Gatable reports whether the item participates in lock evaluation.
func (i CourseContentItem) Gatable() bool {
	return i.ItemType != ItemSection
}
