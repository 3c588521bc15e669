package usecase

import (
	"context"

	"onlearn-client/internal/domain"

	"github.com/stretchr/testify/mock"
)

type MockBackend struct {
	mock.Mock
}

var _ domain.Backend = (*MockBackend)(nil)

func ptrOrNil[T any](v interface{}) *T {
	if v == nil {
		return nil
	}
	return v.(*T)
}

func (m *MockBackend) ListCourses(ctx context.Context) ([]domain.Course, error) {
	args := m.Called(ctx)
	courses, _ := args.Get(0).([]domain.Course)
	return courses, args.Error(1)
}

func (m *MockBackend) GetCourse(ctx context.Context, id string) (*domain.Course, error) {
	args := m.Called(ctx, id)
	return ptrOrNil[domain.Course](args.Get(0)), args.Error(1)
}

func (m *MockBackend) CreateCourse(ctx context.Context, in domain.CourseInput) (*domain.Course, error) {
	args := m.Called(ctx, in)
	return ptrOrNil[domain.Course](args.Get(0)), args.Error(1)
}

func (m *MockBackend) UpdateCourse(ctx context.Context, id string, in domain.CourseInput) (*domain.Course, error) {
	args := m.Called(ctx, id, in)
	return ptrOrNil[domain.Course](args.Get(0)), args.Error(1)
}

func (m *MockBackend) UpdateCourseStatus(ctx context.Context, id string, status domain.CourseStatus) (*domain.Course, error) {
	args := m.Called(ctx, id, status)
	return ptrOrNil[domain.Course](args.Get(0)), args.Error(1)
}

func (m *MockBackend) DeleteCourse(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockBackend) AddTopic(ctx context.Context, courseID string, in domain.TopicInput) (*domain.Course, error) {
	args := m.Called(ctx, courseID, in)
	return ptrOrNil[domain.Course](args.Get(0)), args.Error(1)
}

func (m *MockBackend) UpdateTopic(ctx context.Context, courseID, topicID string, in domain.TopicInput) (*domain.Course, error) {
	args := m.Called(ctx, courseID, topicID, in)
	return ptrOrNil[domain.Course](args.Get(0)), args.Error(1)
}

func (m *MockBackend) DeleteTopic(ctx context.Context, courseID, topicID string) (*domain.Course, error) {
	args := m.Called(ctx, courseID, topicID)
	return ptrOrNil[domain.Course](args.Get(0)), args.Error(1)
}

func (m *MockBackend) ListCategories(ctx context.Context) ([]domain.Category, error) {
	args := m.Called(ctx)
	categories, _ := args.Get(0).([]domain.Category)
	return categories, args.Error(1)
}

func (m *MockBackend) CreateCategory(ctx context.Context, in domain.CategoryInput) (*domain.Category, error) {
	args := m.Called(ctx, in)
	return ptrOrNil[domain.Category](args.Get(0)), args.Error(1)
}

func (m *MockBackend) UpdateCategory(ctx context.Context, id string, in domain.CategoryInput) (*domain.Category, error) {
	args := m.Called(ctx, id, in)
	return ptrOrNil[domain.Category](args.Get(0)), args.Error(1)
}

func (m *MockBackend) DeleteCategory(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockBackend) MyEnrollments(ctx context.Context) ([]domain.Enrollment, error) {
	args := m.Called(ctx)
	enrollments, _ := args.Get(0).([]domain.Enrollment)
	return enrollments, args.Error(1)
}

func (m *MockBackend) Enroll(ctx context.Context, courseID string) (*domain.Enrollment, error) {
	args := m.Called(ctx, courseID)
	return ptrOrNil[domain.Enrollment](args.Get(0)), args.Error(1)
}

func (m *MockBackend) CheckEnrollment(ctx context.Context, courseID string) (bool, *domain.Enrollment, error) {
	args := m.Called(ctx, courseID)
	return args.Bool(0), ptrOrNil[domain.Enrollment](args.Get(1)), args.Error(2)
}

func (m *MockBackend) Unenroll(ctx context.Context, courseID string) error {
	return m.Called(ctx, courseID).Error(0)
}

func (m *MockBackend) MyProgress(ctx context.Context) ([]domain.Progress, error) {
	args := m.Called(ctx)
	progress, _ := args.Get(0).([]domain.Progress)
	return progress, args.Error(1)
}

func (m *MockBackend) CompleteTopic(ctx context.Context, courseID, topicID string) (*domain.Progress, *domain.Enrollment, error) {
	args := m.Called(ctx, courseID, topicID)
	return ptrOrNil[domain.Progress](args.Get(0)), ptrOrNil[domain.Enrollment](args.Get(1)), args.Error(2)
}

func (m *MockBackend) ListNotifications(ctx context.Context) ([]domain.Notification, error) {
	args := m.Called(ctx)
	items, _ := args.Get(0).([]domain.Notification)
	return items, args.Error(1)
}

func (m *MockBackend) MarkNotificationRead(ctx context.Context, id string) (*domain.Notification, error) {
	args := m.Called(ctx, id)
	return ptrOrNil[domain.Notification](args.Get(0)), args.Error(1)
}

func (m *MockBackend) DeleteNotification(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockBackend) MyCertificates(ctx context.Context) ([]domain.Certificate, error) {
	args := m.Called(ctx)
	items, _ := args.Get(0).([]domain.Certificate)
	return items, args.Error(1)
}

func (m *MockBackend) ListQuizzes(ctx context.Context) ([]domain.Quiz, error) {
	args := m.Called(ctx)
	items, _ := args.Get(0).([]domain.Quiz)
	return items, args.Error(1)
}

func (m *MockBackend) ListUsers(ctx context.Context, role domain.Role) ([]domain.User, error) {
	args := m.Called(ctx, role)
	users, _ := args.Get(0).([]domain.User)
	return users, args.Error(1)
}

func (m *MockBackend) CreateChatSession(ctx context.Context) (*domain.ChatSession, error) {
	args := m.Called(ctx)
	return ptrOrNil[domain.ChatSession](args.Get(0)), args.Error(1)
}

func (m *MockBackend) ListChatSessions(ctx context.Context) ([]domain.ChatSession, error) {
	args := m.Called(ctx)
	sessions, _ := args.Get(0).([]domain.ChatSession)
	return sessions, args.Error(1)
}

func (m *MockBackend) GetChatSession(ctx context.Context, id string) (*domain.ChatSession, error) {
	args := m.Called(ctx, id)
	return ptrOrNil[domain.ChatSession](args.Get(0)), args.Error(1)
}

func (m *MockBackend) DeleteChatSession(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockBackend) SendChatMessage(ctx context.Context, sessionID, content string) (*domain.ChatMessage, *domain.ChatMessage, error) {
	args := m.Called(ctx, sessionID, content)
	return ptrOrNil[domain.ChatMessage](args.Get(0)), ptrOrNil[domain.ChatMessage](args.Get(1)), args.Error(2)
}
