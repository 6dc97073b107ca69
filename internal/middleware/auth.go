package middleware

import (
	"lms_backend/internal/config"
	"lms_backend/internal/model"
	"lms_backend/internal/util"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const GuestSessionHeader = "X-Guest-Session"

func bearerToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader != "" {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}
	return c.Query("token")
}

func AuthMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := bearerToken(c)
		if tokenString == "" {
			util.Unauthorized(c)
			c.Abort()
			return
		}

		claims, err := util.ParseJWT(tokenString, cfg.JWT.Secret)
		if err != nil {
			util.Unauthorized(c)
			c.Abort()
			return
		}

		c.Set("user", claims)
		c.Next()
	}
}

// TryAuthMiddleware attaches claims when a valid token is present but
// lets guests through, so the same endpoints can serve both.
func TryAuthMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := bearerToken(c)
		if tokenString != "" {
			if claims, err := util.ParseJWT(tokenString, cfg.JWT.Secret); err == nil {
				c.Set("user", claims)
			}
		}
		c.Next()
	}
}

// GuestSessionMiddleware gives unauthenticated requests a stable session
// handle for the progress cache. The handle is issued once and echoed
// back so the client can persist it.
func GuestSessionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := c.GetHeader(GuestSessionHeader)
		if sessionID == "" && util.GetUserFromContext(c) == nil {
			sessionID = uuid.New().String()
		}
		if sessionID != "" {
			c.Set("guest_session", sessionID)
			c.Header(GuestSessionHeader, sessionID)
		}
		c.Next()
	}
}

// GuestSessionID returns the session handle bound to the request, empty
// for authenticated-only flows.
func GuestSessionID(c *gin.Context) string {
	if v, ok := c.Get("guest_session"); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return c.GetHeader(GuestSessionHeader)
}

func RoleMiddleware(roles ...model.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := util.GetUserFromContext(c)
		if user == nil {
			util.Unauthorized(c)
			c.Abort()
			return
		}

		hasRole := false
		for _, role := range roles {
			// admins hold every permission
			if user.Role == model.Admin || user.Role == role {
				hasRole = true
				break
			}
		}

		if !hasRole {
			util.Forbidden(c)
			c.Abort()
			return
		}
		c.Next()
	}
}
