package model

import "time"

type Enrollment struct {
	BaseModel
	UserID     uint      `gorm:"index:idx_user_course,unique" json:"userId"`
	CourseID   uint      `gorm:"index:idx_user_course,unique" json:"courseId"`
	EnrolledAt time.Time `gorm:"not null" json:"enrolledAt"`
}

func (Enrollment) TableName() string {
	return "enrollments"
}
