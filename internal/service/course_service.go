package service

import (
	"context"
	"lms_backend/internal/model"
	"lms_backend/internal/repository"
	"time"
)

type CourseService struct {
	CourseRepo *repository.CourseRepository
}

func NewCourseService(courseRepo *repository.CourseRepository) *CourseService {
	return &CourseService{CourseRepo: courseRepo}
}

type CreateCourseRequest struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
	FlowMode    string `json:"flowMode" binding:"required"`
	Published   bool   `json:"published"`
}

type CreateItemRequest struct {
	Title              string     `json:"title" binding:"required"`
	ItemType           string     `json:"itemType" binding:"required"`
	OrderIndex         int        `json:"orderIndex"`
	AvailableFrom      *time.Time `json:"availableFrom"`
	AvailableAfterDays *int       `json:"availableAfterDays"`
}

func (s *CourseService) ListCourses(ctx context.Context, publishedOnly bool) ([]model.Course, error) {
	return s.CourseRepo.List(ctx, publishedOnly)
}

func (s *CourseService) GetCourse(ctx context.Context, courseID uint) (*model.Course, error) {
	return s.CourseRepo.Course(ctx, courseID)
}

// CreateCourse validates the flow mode at the boundary; evaluation never
// re-validates stored modes.
func (s *CourseService) CreateCourse(ctx context.Context, authorID uint, req CreateCourseRequest) (*model.Course, error) {
	mode, err := model.ParseFlowMode(req.FlowMode)
	if err != nil {
		return nil, err
	}

	course := &model.Course{
		Title:       req.Title,
		Description: req.Description,
		FlowMode:    mode,
		Published:   req.Published,
		AuthorID:    authorID,
	}
	if err := s.CourseRepo.Create(ctx, course); err != nil {
		return nil, err
	}
	return course, nil
}

func (s *CourseService) AddItem(ctx context.Context, courseID uint, req CreateItemRequest) (*model.CourseContentItem, error) {
	itemType, err := model.ParseItemType(req.ItemType)
	if err != nil {
		return nil, err
	}

	item := &model.CourseContentItem{
		CourseID:           courseID,
		Title:              req.Title,
		ItemType:           itemType,
		OrderIndex:         req.OrderIndex,
		AvailableFrom:      req.AvailableFrom,
		AvailableAfterDays: req.AvailableAfterDays,
	}
	if err := s.CourseRepo.CreateItem(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}
