package http

import (
	"net/http"

	"onlearn-client/internal/domain"
	"onlearn-client/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	staff  = []domain.Role{domain.RoleExpert, domain.RoleAdmin, domain.RoleSuperAdmin}
	admins = []domain.Role{domain.RoleAdmin, domain.RoleSuperAdmin}
)

func InitRouter(handler *Handler, log *logger.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), RequestLogger(log))

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"success": true, "status": "ok"})
	})
	r.NoRoute(func(c *gin.Context) {
		fail(c, http.StatusNotFound, "Route not found")
	})

	// Public Routes
	api := r.Group("/api")
	{
		api.POST("/auth/dev-token", handler.IssueDevToken)
	}

	// Protected Routes (any logged-in user)
	protected := api.Group("/")
	protected.Use(AuthMiddleware())
	{
		protected.GET("/courses", handler.ListCourses)
		protected.GET("/courses/:id", handler.GetCourse)
		protected.GET("/categories", handler.ListCategories)

		protected.GET("/enrollments/my", handler.MyEnrollments)
		protected.POST("/enrollments", handler.Enroll)
		protected.GET("/enrollments/check/:courseId", handler.CheckEnrollment)
		protected.DELETE("/enrollments/:courseId", handler.Unenroll)

		protected.GET("/progress/my", handler.MyProgress)
		protected.POST("/progress/:courseId/topics/:topicId/complete", handler.CompleteTopic)

		protected.GET("/notifications", handler.ListNotifications)
		protected.PATCH("/notifications/:id/read", handler.MarkNotificationRead)
		protected.DELETE("/notifications/:id", handler.DeleteNotification)
		protected.GET("/certificates/my", handler.MyCertificates)
		protected.GET("/quizzes", handler.ListQuizzes)

		protected.POST("/ai-chat/sessions", handler.CreateChatSession)
		protected.GET("/ai-chat/sessions", handler.ListChatSessions)
		protected.GET("/ai-chat/sessions/:id", handler.GetChatSession)
		protected.DELETE("/ai-chat/sessions/:id", handler.DeleteChatSession)
		protected.POST("/ai-chat/sessions/:id/messages", handler.SendChatMessage)
	}

	// Expert & Admin Only
	authoring := api.Group("/")
	authoring.Use(AuthMiddleware(staff...))
	{
		authoring.POST("/courses", handler.CreateCourse)
		authoring.PUT("/courses/:id", handler.UpdateCourse)
		authoring.PATCH("/courses/:id/status", handler.UpdateCourseStatus)
		authoring.DELETE("/courses/:id", handler.DeleteCourse)
		authoring.POST("/courses/:id/topics", handler.AddTopic)
		authoring.PUT("/courses/:id/topics/:topicId", handler.UpdateTopic)
		authoring.DELETE("/courses/:id/topics/:topicId", handler.DeleteTopic)
	}

	// Admin Only
	admin := api.Group("/")
	admin.Use(AuthMiddleware(admins...))
	{
		admin.POST("/categories", handler.CreateCategory)
		admin.PUT("/categories/:id", handler.UpdateCategory)
		admin.DELETE("/categories/:id", handler.DeleteCategory)
		admin.GET("/users", handler.ListUsers)
	}

	return r
}
