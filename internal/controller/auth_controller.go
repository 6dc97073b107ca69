package controller

import (
	"errors"
	"lms_backend/internal/middleware"
	"lms_backend/internal/service"
	"lms_backend/internal/util"
	"net/http"

	"github.com/gin-gonic/gin"
)

type AuthController struct {
	AuthService *service.AuthService
}

func NewAuthController(authService *service.AuthService) *AuthController {
	return &AuthController{AuthService: authService}
}

// @Summary Register a new account
// @Accept json
// @Produce json
// @Success 201 {object} util.Response
// @Router /api/register [post]
func (c *AuthController) Register(ctx *gin.Context) {
	var req service.RegisterRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	user, err := c.AuthService.Register(ctx.Request.Context(), req)
	if err != nil {
		if errors.Is(err, util.ErrEmailRegistered) {
			util.Error(ctx, http.StatusConflict, err.Error())
			return
		}
		util.LogInternalError(ctx, err)
		return
	}

	util.Created(ctx, user)
}

// @Summary Log in
// @Description Issues a JWT. A guest session handle in X-Guest-Session
// @Description triggers migration of that session's progress.
// @Accept json
// @Produce json
// @Success 200 {object} util.Response
// @Router /api/login [post]
func (c *AuthController) Login(ctx *gin.Context) {
	var req service.LoginRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	guestSession := ctx.GetHeader(middleware.GuestSessionHeader)
	result, err := c.AuthService.Login(ctx.Request.Context(), req, guestSession)
	if err != nil {
		if errors.Is(err, util.ErrUserNotFound) {
			util.Error(ctx, http.StatusUnauthorized, "invalid credentials")
			return
		}
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, result)
}
