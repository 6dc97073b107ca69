package util

import "errors"

var (
	ErrUserNotFound     = errors.New("user not found")
	ErrEmailRegistered  = errors.New("email already registered")
	ErrPermissionDenied = errors.New("permission denied")

	ErrCourseNotFound = errors.New("course not found")
	ErrItemNotFound   = errors.New("content item not found in course")
	ErrNotGatable     = errors.New("section markers carry no completion state")
	ErrNotEnrolled    = errors.New("user not enrolled in course")

	// ErrStorage wraps transient storage failures. Callers may retry; the
	// engine itself never does.
	ErrStorage = errors.New("storage error")

	// ErrMigrationPartial signals that some guest progress entries could
	// not be copied to the durable store. The remaining session entries
	// are kept so the migration can be replayed.
	ErrMigrationPartial = errors.New("guest progress migration incomplete")
)
