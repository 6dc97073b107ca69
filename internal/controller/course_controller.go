package controller

import (
	"errors"
	"lms_backend/internal/model"
	"lms_backend/internal/service"
	"lms_backend/internal/util"
	"strconv"

	"github.com/gin-gonic/gin"
)

type CourseController struct {
	CourseService *service.CourseService
}

func NewCourseController(courseService *service.CourseService) *CourseController {
	return &CourseController{CourseService: courseService}
}

func pathID(ctx *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(ctx.Param(name), 10, 64)
	if err != nil {
		util.BadRequest(ctx, "invalid "+name)
		return 0, false
	}
	return uint(id), true
}

// @Summary List published courses
// @Produce json
// @Success 200 {object} util.Response
// @Router /api/courses [get]
func (c *CourseController) ListCourses(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	publishedOnly := user == nil || (user.Role != model.Teacher && user.Role != model.Admin)

	courses, err := c.CourseService.ListCourses(ctx.Request.Context(), publishedOnly)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, courses)
}

// @Summary Get one course
// @Produce json
// @Success 200 {object} util.Response
// @Router /api/courses/{courseId} [get]
func (c *CourseController) GetCourse(ctx *gin.Context) {
	courseID, ok := pathID(ctx, "courseId")
	if !ok {
		return
	}

	course, err := c.CourseService.GetCourse(ctx.Request.Context(), courseID)
	if err != nil {
		if errors.Is(err, util.ErrCourseNotFound) {
			util.NotFound(ctx, err.Error())
			return
		}
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, course)
}

// @Summary Create a course
// @Description Teacher/admin only. Flow mode is validated here, not at
// @Description evaluation time.
// @Accept json
// @Produce json
// @Success 201 {object} util.Response
// @Router /api/admin/courses [post]
func (c *CourseController) CreateCourse(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	var req service.CreateCourseRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	course, err := c.CourseService.CreateCourse(ctx.Request.Context(), user.UserID, req)
	if err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	util.Created(ctx, course)
}

// @Summary Add a content item to a course
// @Accept json
// @Produce json
// @Success 201 {object} util.Response
// @Router /api/admin/courses/{courseId}/items [post]
func (c *CourseController) AddItem(ctx *gin.Context) {
	courseID, ok := pathID(ctx, "courseId")
	if !ok {
		return
	}

	var req service.CreateItemRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	item, err := c.CourseService.AddItem(ctx.Request.Context(), courseID, req)
	if err != nil {
		if errors.Is(err, util.ErrCourseNotFound) {
			util.NotFound(ctx, err.Error())
			return
		}
		util.BadRequest(ctx, err.Error())
		return
	}
	util.Created(ctx, item)
}
