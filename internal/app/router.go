package app

import (
	"lms_backend/internal/config"
	"lms_backend/internal/middleware"
	"lms_backend/internal/model"
	"lms_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	router.GET("/metrics", monitoring.PrometheusHandler())

	// Public, no identity needed
	public := router.Group("/api")
	{
		public.GET("/health", c.health.HealthCheck)
		public.POST("/register", c.auth.Register)
		public.POST("/login", c.auth.Login)
	}

	// Course browsing and progress: optional auth, guests get a session
	// handle so their progress has a key.
	courses := router.Group("/api/courses")
	courses.Use(middleware.TryAuthMiddleware(cfg), middleware.GuestSessionMiddleware())
	{
		courses.GET("", c.course.ListCourses)
		courses.GET("/:courseId", c.course.GetCourse)
		courses.GET("/:courseId/content", c.progress.GetCourseContent)
		courses.GET("/:courseId/next", c.progress.GetNextItem)
		courses.GET("/:courseId/items/:itemId/lock", c.progress.GetLockState)
		courses.POST("/:courseId/items/:itemId/start", c.progress.StartItem)
		courses.POST("/:courseId/items/:itemId/complete", c.progress.CompleteItem)

		// Enrollment requires a real account
		enrolled := courses.Group("")
		enrolled.Use(middleware.AuthMiddleware(cfg))
		{
			enrolled.POST("/:courseId/enroll", c.enrollment.Enroll)
			enrolled.DELETE("/:courseId/enroll", c.enrollment.Unenroll)
		}
	}

	// Authoring
	admin := router.Group("/api/admin")
	admin.Use(middleware.AuthMiddleware(cfg), middleware.RoleMiddleware(model.Teacher, model.Admin))
	{
		admin.POST("/courses", c.course.CreateCourse)
		admin.POST("/courses/:courseId/items", c.course.AddItem)
	}
}
