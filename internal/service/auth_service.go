package service

import (
	"context"
	"errors"
	"lms_backend/internal/config"
	"lms_backend/internal/model"
	"lms_backend/internal/repository"
	"lms_backend/internal/util"
	"lms_backend/pkg/logger"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type AuthService struct {
	UserRepo *repository.UserRepository
	Progress *ProgressService
	Config   *config.Config
}

func NewAuthService(userRepo *repository.UserRepository, progress *ProgressService, cfg *config.Config) *AuthService {
	return &AuthService{UserRepo: userRepo, Progress: progress, Config: cfg}
}

type RegisterRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type AuthResult struct {
	Token string      `json:"token"`
	User  *model.User `json:"user"`
}

func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*model.User, error) {
	existing, err := s.UserRepo.FindByEmail(ctx, req.Email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, util.ErrEmailRegistered
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Name:     req.Name,
		Email:    req.Email,
		Password: string(hash),
		Role:     model.Student,
	}
	if err := s.UserRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Login verifies credentials and, when the request carried a guest
// session handle, folds that session's progress into the user's durable
// records. A partial migration is logged but does not block the login;
// the surviving session entries are retried on a later call.
func (s *AuthService) Login(ctx context.Context, req LoginRequest, guestSessionID string) (*AuthResult, error) {
	user, err := s.UserRepo.FindByEmail(ctx, req.Email)
	if err != nil {
		return nil, err
	}
	if user == nil || user.Disabled {
		return nil, util.ErrUserNotFound
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, util.ErrUserNotFound
	}

	token, err := util.GenerateJWT(user, s.Config.JWT.Secret, s.Config.JWT.ExpireTime)
	if err != nil {
		return nil, err
	}

	if guestSessionID != "" {
		if err := s.Progress.MigrateGuestProgress(ctx, guestSessionID, user.ID); err != nil {
			if errors.Is(err, util.ErrMigrationPartial) {
				logger.Log.Warn("guest progress migration incomplete, session retained",
					zap.String("session", guestSessionID),
					zap.Uint("user", user.ID),
					zap.Error(err))
			} else {
				logger.Log.Error("guest progress migration failed",
					zap.String("session", guestSessionID),
					zap.Uint("user", user.ID),
					zap.Error(err))
			}
		}
	}

	if err := s.UserRepo.UpdateLastLogin(ctx, user.ID, time.Now()); err != nil {
		logger.Log.Warn("failed to update last login", zap.Uint("user", user.ID), zap.Error(err))
	}

	return &AuthResult{Token: token, User: user}, nil
}
