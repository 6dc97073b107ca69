package controller

import (
	"errors"
	"lms_backend/internal/middleware"
	"lms_backend/internal/service"
	"lms_backend/internal/util"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

type ProgressController struct {
	ProgressService *service.ProgressService
}

func NewProgressController(progressService *service.ProgressService) *ProgressController {
	return &ProgressController{ProgressService: progressService}
}

// identityFrom resolves the completion-state key for this request: the
// authenticated user when a token is present, the guest session handle
// otherwise.
func identityFrom(ctx *gin.Context) service.Identity {
	if user := util.GetUserFromContext(ctx); user != nil {
		return service.Identity{UserID: user.UserID}
	}
	return service.Identity{SessionID: middleware.GuestSessionID(ctx)}
}

func (c *ProgressController) respondProgressError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, util.ErrCourseNotFound), errors.Is(err, util.ErrItemNotFound):
		util.NotFound(ctx, err.Error())
	case errors.Is(err, util.ErrNotGatable):
		util.BadRequest(ctx, err.Error())
	case errors.Is(err, util.ErrStorage):
		util.Error(ctx, http.StatusServiceUnavailable, "storage unavailable, retry later")
	default:
		util.LogInternalError(ctx, err)
	}
}

// @Summary Course outline with lock state
// @Description Ordered items zipped with per-item lock decisions and the
// @Description caller's completion flags.
// @Produce json
// @Success 200 {object} util.Response
// @Router /api/courses/{courseId}/content [get]
func (c *ProgressController) GetCourseContent(ctx *gin.Context) {
	courseID, ok := pathID(ctx, "courseId")
	if !ok {
		return
	}

	outline, err := c.ProgressService.CourseOutline(ctx.Request.Context(), courseID, identityFrom(ctx), time.Now())
	if err != nil {
		c.respondProgressError(ctx, err)
		return
	}
	util.Success(ctx, outline)
}

// @Summary Lock decision for one item
// @Produce json
// @Success 200 {object} util.Response
// @Router /api/courses/{courseId}/items/{itemId}/lock [get]
func (c *ProgressController) GetLockState(ctx *gin.Context) {
	courseID, ok := pathID(ctx, "courseId")
	if !ok {
		return
	}
	itemID, ok := pathID(ctx, "itemId")
	if !ok {
		return
	}

	decision, err := c.ProgressService.IsLocked(ctx.Request.Context(), courseID, itemID, identityFrom(ctx), time.Now())
	if err != nil {
		c.respondProgressError(ctx, err)
		return
	}
	util.Success(ctx, decision)
}

// @Summary Next actionable item
// @Description First unlocked, not-yet-completed item; null when the
// @Description course is finished or has no gatable items.
// @Produce json
// @Success 200 {object} util.Response
// @Router /api/courses/{courseId}/next [get]
func (c *ProgressController) GetNextItem(ctx *gin.Context) {
	courseID, ok := pathID(ctx, "courseId")
	if !ok {
		return
	}

	item, err := c.ProgressService.NextUnlockedItem(ctx.Request.Context(), courseID, identityFrom(ctx), time.Now())
	if err != nil {
		c.respondProgressError(ctx, err)
		return
	}
	util.Success(ctx, item)
}

// @Summary Mark an item started
// @Produce json
// @Success 200 {object} util.Response
// @Router /api/courses/{courseId}/items/{itemId}/start [post]
func (c *ProgressController) StartItem(ctx *gin.Context) {
	courseID, ok := pathID(ctx, "courseId")
	if !ok {
		return
	}
	itemID, ok := pathID(ctx, "itemId")
	if !ok {
		return
	}

	if err := c.ProgressService.MarkStarted(ctx.Request.Context(), courseID, itemID, identityFrom(ctx), time.Now()); err != nil {
		c.respondProgressError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"message": "item started"})
}

// @Summary Mark an item completed
// @Description Idempotent; downstream items unlock on the next query, not
// @Description eagerly.
// @Produce json
// @Success 200 {object} util.Response
// @Router /api/courses/{courseId}/items/{itemId}/complete [post]
func (c *ProgressController) CompleteItem(ctx *gin.Context) {
	courseID, ok := pathID(ctx, "courseId")
	if !ok {
		return
	}
	itemID, ok := pathID(ctx, "itemId")
	if !ok {
		return
	}

	if err := c.ProgressService.MarkCompleted(ctx.Request.Context(), courseID, itemID, identityFrom(ctx), time.Now()); err != nil {
		c.respondProgressError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"message": "item completed"})
}
