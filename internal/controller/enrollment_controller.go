package controller

import (
	"errors"
	"lms_backend/internal/service"
	"lms_backend/internal/util"
	"time"

	"github.com/gin-gonic/gin"
)

type EnrollmentController struct {
	EnrollmentService *service.EnrollmentService
}

func NewEnrollmentController(enrollmentService *service.EnrollmentService) *EnrollmentController {
	return &EnrollmentController{EnrollmentService: enrollmentService}
}

// @Summary Enroll in a course
// @Produce json
// @Security BearerAuth
// @Success 201 {object} util.Response
// @Router /api/courses/{courseId}/enroll [post]
func (c *EnrollmentController) Enroll(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}
	courseID, ok := pathID(ctx, "courseId")
	if !ok {
		return
	}

	enrollment, err := c.EnrollmentService.Enroll(ctx.Request.Context(), user.UserID, courseID, time.Now())
	if err != nil {
		if errors.Is(err, util.ErrCourseNotFound) {
			util.NotFound(ctx, err.Error())
			return
		}
		util.LogInternalError(ctx, err)
		return
	}
	util.Created(ctx, enrollment)
}

// @Summary Unenroll from a course
// @Description Removes the enrollment and every progress record the user
// @Description holds for the course.
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response
// @Router /api/courses/{courseId}/enroll [delete]
func (c *EnrollmentController) Unenroll(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}
	courseID, ok := pathID(ctx, "courseId")
	if !ok {
		return
	}

	if err := c.EnrollmentService.Unenroll(ctx.Request.Context(), user.UserID, courseID); err != nil {
		if errors.Is(err, util.ErrCourseNotFound) {
			util.NotFound(ctx, err.Error())
			return
		}
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"message": "unenrolled"})
}
