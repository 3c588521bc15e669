package repository

import (
	"context"
	"errors"
	"fmt"

	"onlearn-client/internal/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Gorm repositories backing the dev backend. They work on both postgres and
// sqlite.

func ensureID(id *string) {
	if *id == "" {
		*id = uuid.NewString()
	}
}

func notFound(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s %w", what, domain.ErrNotFound)
	}
	return err
}

// ========== USER REPOSITORY ==========

type userRepo struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) domain.UserRepository {
	return &userRepo{db}
}

func (r *userRepo) Create(ctx context.Context, user *domain.User) error {
	ensureID(&user.ID)
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *userRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	var user domain.User
	err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if err != nil {
		return nil, notFound(err, "user")
	}
	return &user, nil
}

func (r *userRepo) GetByRole(ctx context.Context, role domain.Role) ([]domain.User, error) {
	var users []domain.User
	err := r.db.WithContext(ctx).Where("role = ?", role).Order("name ASC").Find(&users).Error
	return users, err
}

// ========== COURSE REPOSITORY ==========

type courseRepo struct {
	db *gorm.DB
}

func NewCourseRepository(db *gorm.DB) domain.CourseRepository {
	return &courseRepo{db}
}

func (r *courseRepo) withTopics(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("Topics", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Preload("Materials")
}

func (r *courseRepo) Create(ctx context.Context, course *domain.Course) error {
	ensureID(&course.ID)
	for i := range course.Topics {
		ensureID(&course.Topics[i].ID)
		course.Topics[i].CourseID = course.ID
		course.Topics[i].Position = i
	}
	return r.db.WithContext(ctx).Create(course).Error
}

func (r *courseRepo) GetAll(ctx context.Context) ([]domain.Course, error) {
	var courses []domain.Course
	err := r.withTopics(ctx).Order("created_at DESC").Find(&courses).Error
	return courses, err
}

func (r *courseRepo) GetByID(ctx context.Context, id string) (*domain.Course, error) {
	var course domain.Course
	err := r.withTopics(ctx).Where("id = ?", id).First(&course).Error
	if err != nil {
		return nil, notFound(err, "course")
	}
	return &course, nil
}

// Update saves the course columns only; topics are edited through the topic
// methods.
func (r *courseRepo) Update(ctx context.Context, course *domain.Course) error {
	return r.db.WithContext(ctx).Omit("Topics", "Materials").Save(course).Error
}

func (r *courseRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("course_id = ?", id).Delete(&domain.Topic{}).Error; err != nil {
			return err
		}
		if err := tx.Where("course_id = ?", id).Delete(&domain.Material{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&domain.Course{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("course %w", domain.ErrNotFound)
		}
		return nil
	})
}

func (r *courseRepo) AddTopic(ctx context.Context, topic *domain.Topic) error {
	ensureID(&topic.ID)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&domain.Topic{}).Where("course_id = ?", topic.CourseID).Count(&count).Error; err != nil {
			return err
		}
		topic.Position = int(count)
		return tx.Create(topic).Error
	})
}

func (r *courseRepo) UpdateTopic(ctx context.Context, topic *domain.Topic) error {
	res := r.db.WithContext(ctx).Model(&domain.Topic{}).
		Where("id = ? AND course_id = ?", topic.ID, topic.CourseID).
		Select("title", "materials").
		Updates(&domain.Topic{Title: topic.Title, Materials: topic.Materials})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("topic %w", domain.ErrNotFound)
	}
	return nil
}

// DeleteTopic removes the topic and closes the gap in the position sequence.
func (r *courseRepo) DeleteTopic(ctx context.Context, courseID, topicID string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var topic domain.Topic
		if err := tx.Where("id = ? AND course_id = ?", topicID, courseID).First(&topic).Error; err != nil {
			return notFound(err, "topic")
		}
		if err := tx.Delete(&topic).Error; err != nil {
			return err
		}
		return tx.Model(&domain.Topic{}).
			Where("course_id = ? AND position > ?", courseID, topic.Position).
			Update("position", gorm.Expr("position - 1")).Error
	})
}

// ========== CATEGORY REPOSITORY ==========

type categoryRepo struct {
	db *gorm.DB
}

func NewCategoryRepository(db *gorm.DB) domain.CategoryRepository {
	return &categoryRepo{db}
}

func (r *categoryRepo) Create(ctx context.Context, category *domain.Category) error {
	ensureID(&category.ID)
	return r.db.WithContext(ctx).Create(category).Error
}

func (r *categoryRepo) GetAll(ctx context.Context) ([]domain.Category, error) {
	var categories []domain.Category
	err := r.db.WithContext(ctx).Order("name ASC").Find(&categories).Error
	return categories, err
}

func (r *categoryRepo) Update(ctx context.Context, category *domain.Category) error {
	res := r.db.WithContext(ctx).Model(&domain.Category{}).Where("id = ?", category.ID).Update("name", category.Name)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("category %w", domain.ErrNotFound)
	}
	return nil
}

func (r *categoryRepo) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&domain.Category{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("category %w", domain.ErrNotFound)
	}
	return nil
}

// ========== ENROLLMENT REPOSITORY ==========

type enrollmentRepo struct {
	db *gorm.DB
}

func NewEnrollmentRepository(db *gorm.DB) domain.EnrollmentRepository {
	return &enrollmentRepo{db}
}

func (r *enrollmentRepo) Create(ctx context.Context, enrollment *domain.Enrollment) error {
	ensureID(&enrollment.ID)
	return r.db.WithContext(ctx).Create(enrollment).Error
}

// GetByStudentAndCourse returns nil, nil when the student is not enrolled.
func (r *enrollmentRepo) GetByStudentAndCourse(ctx context.Context, studentID, courseID string) (*domain.Enrollment, error) {
	var enrollment domain.Enrollment
	err := r.db.WithContext(ctx).Where("student_id = ? AND course_id = ?", studentID, courseID).First(&enrollment).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &enrollment, err
}

func (r *enrollmentRepo) GetByStudentID(ctx context.Context, studentID string) ([]domain.Enrollment, error) {
	var enrollments []domain.Enrollment
	err := r.db.WithContext(ctx).Where("student_id = ?", studentID).Order("updated_at DESC").Find(&enrollments).Error
	return enrollments, err
}

func (r *enrollmentRepo) Update(ctx context.Context, enrollment *domain.Enrollment) error {
	return r.db.WithContext(ctx).Save(enrollment).Error
}

func (r *enrollmentRepo) Delete(ctx context.Context, studentID, courseID string) error {
	res := r.db.WithContext(ctx).Where("student_id = ? AND course_id = ?", studentID, courseID).Delete(&domain.Enrollment{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotEnrolled
	}
	return nil
}

// ========== PROGRESS REPOSITORY ==========

type progressRepo struct {
	db *gorm.DB
}

func NewProgressRepository(db *gorm.DB) domain.ProgressRepository {
	return &progressRepo{db}
}

func (r *progressRepo) GetByStudentID(ctx context.Context, studentID string) ([]domain.Progress, error) {
	var progress []domain.Progress
	err := r.db.WithContext(ctx).Where("student_id = ?", studentID).Find(&progress).Error
	return progress, err
}

// GetByStudentAndCourse returns nil, nil when no topic has been completed yet.
func (r *progressRepo) GetByStudentAndCourse(ctx context.Context, studentID, courseID string) (*domain.Progress, error) {
	var progress domain.Progress
	err := r.db.WithContext(ctx).Where("student_id = ? AND course_id = ?", studentID, courseID).First(&progress).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &progress, err
}

func (r *progressRepo) Save(ctx context.Context, progress *domain.Progress) error {
	ensureID(&progress.ID)
	return r.db.WithContext(ctx).Save(progress).Error
}

// ========== INBOX REPOSITORY ==========

type inboxRepo struct {
	db *gorm.DB
}

func NewInboxRepository(db *gorm.DB) domain.InboxRepository {
	return &inboxRepo{db}
}

func (r *inboxRepo) CreateNotification(ctx context.Context, n *domain.Notification) error {
	ensureID(&n.ID)
	return r.db.WithContext(ctx).Create(n).Error
}

func (r *inboxRepo) NotificationsByUser(ctx context.Context, userID string) ([]domain.Notification, error) {
	var notifications []domain.Notification
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at DESC").Find(&notifications).Error
	return notifications, err
}

func (r *inboxRepo) MarkNotificationRead(ctx context.Context, userID, id string) (*domain.Notification, error) {
	var n domain.Notification
	if err := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&n).Error; err != nil {
		return nil, notFound(err, "notification")
	}
	n.Read = true
	if err := r.db.WithContext(ctx).Save(&n).Error; err != nil {
		return nil, err
	}
	return &n, nil
}

func (r *inboxRepo) DeleteNotification(ctx context.Context, userID, id string) error {
	res := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).Delete(&domain.Notification{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("notification %w", domain.ErrNotFound)
	}
	return nil
}

func (r *inboxRepo) CreateCertificate(ctx context.Context, cert *domain.Certificate) error {
	ensureID(&cert.ID)
	return r.db.WithContext(ctx).Create(cert).Error
}

func (r *inboxRepo) CertificatesByStudent(ctx context.Context, studentID string) ([]domain.Certificate, error) {
	var certs []domain.Certificate
	err := r.db.WithContext(ctx).Where("student_id = ?", studentID).Order("issued_at DESC").Find(&certs).Error
	return certs, err
}

func (r *inboxRepo) CreateQuiz(ctx context.Context, quiz *domain.Quiz) error {
	ensureID(&quiz.ID)
	return r.db.WithContext(ctx).Create(quiz).Error
}

func (r *inboxRepo) ListQuizzes(ctx context.Context) ([]domain.Quiz, error) {
	var quizzes []domain.Quiz
	err := r.db.WithContext(ctx).Find(&quizzes).Error
	return quizzes, err
}

// ========== CHAT REPOSITORY ==========

type chatRepo struct {
	db *gorm.DB
}

func NewChatRepository(db *gorm.DB) domain.ChatRepository {
	return &chatRepo{db}
}

func (r *chatRepo) CreateSession(ctx context.Context, session *domain.ChatSession) error {
	ensureID(&session.ID)
	for i := range session.Messages {
		ensureID(&session.Messages[i].ID)
		session.Messages[i].SessionID = session.ID
	}
	return r.db.WithContext(ctx).Create(session).Error
}

// SessionsByUser lists sessions without their messages, most recent first.
func (r *chatRepo) SessionsByUser(ctx context.Context, userID string) ([]domain.ChatSession, error) {
	var sessions []domain.ChatSession
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("last_message_at DESC").Find(&sessions).Error
	return sessions, err
}

func (r *chatRepo) GetSession(ctx context.Context, userID, id string) (*domain.ChatSession, error) {
	var session domain.ChatSession
	err := r.db.WithContext(ctx).
		Preload("Messages", func(db *gorm.DB) *gorm.DB { return db.Order(clause.OrderByColumn{Column: clause.Column{Name: "timestamp"}}) }).
		Where("id = ? AND user_id = ?", id, userID).
		First(&session).Error
	if err != nil {
		return nil, notFound(err, "chat session")
	}
	return &session, nil
}

func (r *chatRepo) DeleteSession(ctx context.Context, userID, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ? AND user_id = ?", id, userID).Delete(&domain.ChatSession{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("chat session %w", domain.ErrNotFound)
		}
		return tx.Where("session_id = ?", id).Delete(&domain.ChatMessage{}).Error
	})
}

// AppendMessages stores msgs and bumps the session's last activity and, when
// given, its title.
func (r *chatRepo) AppendMessages(ctx context.Context, session *domain.ChatSession, msgs ...*domain.ChatMessage) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, m := range msgs {
			ensureID(&m.ID)
			m.SessionID = session.ID
			if err := tx.Create(m).Error; err != nil {
				return err
			}
		}
		return tx.Model(&domain.ChatSession{}).Where("id = ?", session.ID).
			Updates(map[string]interface{}{"last_message_at": session.LastMessageAt, "title": session.Title}).Error
	})
}
