package http

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"onlearn-client/internal/domain"
	"onlearn-client/internal/usecase"
	"onlearn-client/pkg/logger"
	"onlearn-client/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// Handler serves the REST contract the client consumes. Every response is a
// JSON object with a boolean "success"; failures carry a user-facing "error".
type Handler struct {
	Users       domain.UserRepository
	Courses     domain.CourseRepository
	Categories  domain.CategoryRepository
	Enrollments domain.EnrollmentRepository
	Progress    domain.ProgressRepository
	Inbox       domain.InboxRepository
	Chats       domain.ChatRepository

	Learning  *usecase.ProgressService
	Assistant *usecase.AssistantService

	log *logger.Logger
}

type Repositories struct {
	Users       domain.UserRepository
	Courses     domain.CourseRepository
	Categories  domain.CategoryRepository
	Enrollments domain.EnrollmentRepository
	Progress    domain.ProgressRepository
	Inbox       domain.InboxRepository
	Chats       domain.ChatRepository
}

func NewHandler(repos Repositories, log *logger.Logger) *Handler {
	return &Handler{
		Users:       repos.Users,
		Courses:     repos.Courses,
		Categories:  repos.Categories,
		Enrollments: repos.Enrollments,
		Progress:    repos.Progress,
		Inbox:       repos.Inbox,
		Chats:       repos.Chats,
		Learning:    usecase.NewProgressService(repos.Courses, repos.Enrollments, repos.Progress, repos.Inbox, log),
		Assistant:   usecase.NewAssistantService(repos.Chats, log),
		log:         log.With("component", "handler"),
	}
}

// ========== UTILITY FUNCTIONS ==========

func ok(c *gin.Context, status int, payload gin.H) {
	body := gin.H{"success": true}
	for k, v := range payload {
		body[k] = v
	}
	c.JSON(status, body)
}

func fail(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"success": false, "error": msg})
}

func formatValidationErrors(c *gin.Context, err error) {
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		details := make(map[string]string)
		for _, f := range ve {
			details[f.Field()] = fmt.Sprintf("Field validation for '%s' failed on the '%s' tag", f.Field(), f.Tag())
		}
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"success": false, "error": "Validation failed", "details": details})
		return
	}
	fail(c, http.StatusBadRequest, "Invalid request: "+err.Error())
}

// respondError maps storage and service errors onto HTTP statuses.
func (h *Handler) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrNotEnrolled):
		fail(c, http.StatusNotFound, err.Error())
	case errors.Is(err, usecase.ErrAlreadyEnrolled), errors.Is(err, usecase.ErrTopicLocked):
		fail(c, http.StatusConflict, err.Error())
	case errors.Is(err, usecase.ErrTopicNotInCourse):
		fail(c, http.StatusBadRequest, err.Error())
	default:
		h.log.Error("request failed", "path", c.Request.URL.Path, "error", err)
		fail(c, http.StatusInternalServerError, "Internal server error")
	}
}

func getUserID(c *gin.Context) string {
	return c.GetString("user_id")
}

// ========== DEV TOKENS ==========

// IssueDevToken hands out a token for a seeded user. Password login is not
// part of the dev backend.
func (h *Handler) IssueDevToken(c *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required,email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		formatValidationErrors(c, err)
		return
	}
	user, err := h.Users.GetByEmail(c.Request.Context(), req.Email)
	if err != nil {
		h.respondError(c, err)
		return
	}
	token, err := utils.GenerateJWT(user.ID, string(user.Role), 24*time.Hour)
	if err != nil {
		h.respondError(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{"token": token, "user": user})
}

// ========== COURSE HANDLERS ==========

func (h *Handler) ListCourses(c *gin.Context) {
	courses, err := h.Courses.GetAll(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{"courses": courses})
}

func (h *Handler) GetCourse(c *gin.Context) {
	course, err := h.Courses.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{"course": course})
}

func applyCourseInput(course *domain.Course, in domain.CourseInput) {
	course.Name = in.Name
	course.Description = in.Description
	course.Level = in.Level
	course.Language = in.Language
	course.CategoryID = in.CategoryID
	course.Duration = in.Duration
	course.Thumbnail = in.Thumbnail
	course.NeedsReview = in.NeedsReview
	if in.Status != "" {
		course.Status = in.Status
	}
}

func (h *Handler) CreateCourse(c *gin.Context) {
	var in domain.CourseInput
	if err := c.ShouldBindJSON(&in); err != nil {
		formatValidationErrors(c, err)
		return
	}
	course := &domain.Course{OwnerID: getUserID(c), Status: domain.CourseDraft}
	applyCourseInput(course, in)
	if err := h.Courses.Create(c.Request.Context(), course); err != nil {
		h.respondError(c, err)
		return
	}
	ok(c, http.StatusCreated, gin.H{"course": course})
}

func (h *Handler) UpdateCourse(c *gin.Context) {
	var in domain.CourseInput
	if err := c.ShouldBindJSON(&in); err != nil {
		formatValidationErrors(c, err)
		return
	}
	ctx := c.Request.Context()
	course, err := h.Courses.GetByID(ctx, c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	applyCourseInput(course, in)
	if err := h.Courses.Update(ctx, course); err != nil {
		h.respondError(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{"course": course})
}

func (h *Handler) UpdateCourseStatus(c *gin.Context) {
	var in domain.StatusInput
	if err := c.ShouldBindJSON(&in); err != nil {
		formatValidationErrors(c, err)
		return
	}
	ctx := c.Request.Context()
	course, err := h.Courses.GetByID(ctx, c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	course.Status = in.Status
	if err := h.Courses.Update(ctx, course); err != nil {
		h.respondError(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{"course": course})
}

func (h *Handler) DeleteCourse(c *gin.Context) {
	if err := h.Courses.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{"message": "Course deleted"})
}

// ========== TOPIC HANDLERS ==========
// Topic changes answer with the whole course so the client can replace it.

func (h *Handler) courseReply(c *gin.Context, status int, courseID string) {
	course, err := h.Courses.GetByID(c.Request.Context(), courseID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	ok(c, status, gin.H{"course": course})
}

func (h *Handler) AddTopic(c *gin.Context) {
	var in domain.TopicInput
	if err := c.ShouldBindJSON(&in); err != nil {
		formatValidationErrors(c, err)
		return
	}
	ctx := c.Request.Context()
	courseID := c.Param("id")
	if _, err := h.Courses.GetByID(ctx, courseID); err != nil {
		h.respondError(c, err)
		return
	}
	topic := &domain.Topic{CourseID: courseID, Title: in.Title, Materials: in.Materials}
	if err := h.Courses.AddTopic(ctx, topic); err != nil {
		h.respondError(c, err)
		return
	}
	h.courseReply(c, http.StatusCreated, courseID)
}

func (h *Handler) UpdateTopic(c *gin.Context) {
	var in domain.TopicInput
	if err := c.ShouldBindJSON(&in); err != nil {
		formatValidationErrors(c, err)
		return
	}
	courseID := c.Param("id")
	topic := &domain.Topic{ID: c.Param("topicId"), CourseID: courseID, Title: in.Title, Materials: in.Materials}
	if err := h.Courses.UpdateTopic(c.Request.Context(), topic); err != nil {
		h.respondError(c, err)
		return
	}
	h.courseReply(c, http.StatusOK, courseID)
}

func (h *Handler) DeleteTopic(c *gin.Context) {
	courseID := c.Param("id")
	if err := h.Courses.DeleteTopic(c.Request.Context(), courseID, c.Param("topicId")); err != nil {
		h.respondError(c, err)
		return
	}
	h.courseReply(c, http.StatusOK, courseID)
}

// ========== CATEGORY HANDLERS ==========

func (h *Handler) ListCategories(c *gin.Context) {
	categories, err := h.Categories.GetAll(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{"categories": categories})
}

func (h *Handler) CreateCategory(c *gin.Context) {
	var in domain.CategoryInput
	if err := c.ShouldBindJSON(&in); err != nil {
		formatValidationErrors(c, err)
		return
	}
	category := &domain.Category{Name: in.Name}
	if err := h.Categories.Create(c.Request.Context(), category); err != nil {
		h.respondError(c, err)
		return
	}
	ok(c, http.StatusCreated, gin.H{"category": category})
}

func (h *Handler) UpdateCategory(c *gin.Context) {
	var in domain.CategoryInput
	if err := c.ShouldBindJSON(&in); err != nil {
		formatValidationErrors(c, err)
		return
	}
	category := &domain.Category{ID: c.Param("id"), Name: in.Name}
	if err := h.Categories.Update(c.Request.Context(), category); err != nil {
		h.respondError(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{"category": category})
}

func (h *Handler) DeleteCategory(c *gin.Context) {
	if err := h.Categories.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{"message": "Category deleted"})
}

// ========== ENROLLMENT HANDLERS ==========

func (h *Handler) MyEnrollments(c *gin.Context) {
	enrollments, err := h.Enrollments.GetByStudentID(c.Request.Context(), getUserID(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{"enrollments": enrollments})
}

func (h *Handler) Enroll(c *gin.Context) {
	var in domain.EnrollInput
	if err := c.ShouldBindJSON(&in); err != nil {
		formatValidationErrors(c, err)
		return
	}
	enrollment, err := h.Learning.Enroll(c.Request.Context(), getUserID(c), in.CourseID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	ok(c, http.StatusCreated, gin.H{"enrollment": enrollment})
}

func (h *Handler) CheckEnrollment(c *gin.Context) {
	enrollment, err := h.Enrollments.GetByStudentAndCourse(c.Request.Context(), getUserID(c), c.Param("courseId"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{"enrolled": enrollment != nil, "enrollment": enrollment})
}

func (h *Handler) Unenroll(c *gin.Context) {
	if err := h.Enrollments.Delete(c.Request.Context(), getUserID(c), c.Param("courseId")); err != nil {
		h.respondError(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{"message": "Unenrolled"})
}

// ========== PROGRESS HANDLERS ==========

func (h *Handler) MyProgress(c *gin.Context) {
	progress, err := h.Progress.GetByStudentID(c.Request.Context(), getUserID(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{"progress": progress})
}

func (h *Handler) CompleteTopic(c *gin.Context) {
	progress, enrollment, err := h.Learning.CompleteTopic(c.Request.Context(), getUserID(c), c.Param("courseId"), c.Param("topicId"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{"progress": progress, "enrollment": enrollment})
}

// ========== INBOX HANDLERS ==========

func (h *Handler) ListNotifications(c *gin.Context) {
	notifications, err := h.Inbox.NotificationsByUser(c.Request.Context(), getUserID(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{"notifications": notifications})
}

func (h *Handler) MarkNotificationRead(c *gin.Context) {
	n, err := h.Inbox.MarkNotificationRead(c.Request.Context(), getUserID(c), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{"notification": n})
}

func (h *Handler) DeleteNotification(c *gin.Context) {
	if err := h.Inbox.DeleteNotification(c.Request.Context(), getUserID(c), c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{"message": "Notification deleted"})
}

func (h *Handler) MyCertificates(c *gin.Context) {
	certs, err := h.Inbox.CertificatesByStudent(c.Request.Context(), getUserID(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{"certificates": certs})
}

func (h *Handler) ListQuizzes(c *gin.Context) {
	quizzes, err := h.Inbox.ListQuizzes(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{"quizzes": quizzes})
}

// ========== USER HANDLERS ==========

func (h *Handler) ListUsers(c *gin.Context) {
	role := domain.Role(c.DefaultQuery("role", string(domain.RoleStudent)))
	users, err := h.Users.GetByRole(c.Request.Context(), role)
	if err != nil {
		h.respondError(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{"users": users})
}

// ========== AI CHAT HANDLERS ==========

func (h *Handler) CreateChatSession(c *gin.Context) {
	session, err := h.Assistant.CreateSession(c.Request.Context(), getUserID(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	ok(c, http.StatusCreated, gin.H{"session": session})
}

func (h *Handler) ListChatSessions(c *gin.Context) {
	sessions, err := h.Chats.SessionsByUser(c.Request.Context(), getUserID(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{"sessions": sessions})
}

func (h *Handler) GetChatSession(c *gin.Context) {
	session, err := h.Chats.GetSession(c.Request.Context(), getUserID(c), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{"session": session})
}

func (h *Handler) DeleteChatSession(c *gin.Context) {
	if err := h.Chats.DeleteSession(c.Request.Context(), getUserID(c), c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{"message": "Session deleted"})
}

func (h *Handler) SendChatMessage(c *gin.Context) {
	var in domain.MessageInput
	if err := c.ShouldBindJSON(&in); err != nil {
		formatValidationErrors(c, err)
		return
	}
	userMsg, aiMsg, err := h.Assistant.Reply(c.Request.Context(), getUserID(c), c.Param("id"), in.Content)
	if err != nil {
		h.respondError(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{"userMessage": userMsg, "aiMessage": aiMsg})
}
