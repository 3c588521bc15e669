package domain

import "context"

// ========== BACKEND CONTRACT (client side) ==========

type CourseAPI interface {
	ListCourses(ctx context.Context) ([]Course, error)
	GetCourse(ctx context.Context, id string) (*Course, error)
	CreateCourse(ctx context.Context, in CourseInput) (*Course, error)
	UpdateCourse(ctx context.Context, id string, in CourseInput) (*Course, error)
	UpdateCourseStatus(ctx context.Context, id string, status CourseStatus) (*Course, error)
	DeleteCourse(ctx context.Context, id string) error

	// Topic mutations return the owning course with its updated topic order.
	AddTopic(ctx context.Context, courseID string, in TopicInput) (*Course, error)
	UpdateTopic(ctx context.Context, courseID, topicID string, in TopicInput) (*Course, error)
	DeleteTopic(ctx context.Context, courseID, topicID string) (*Course, error)
}

type CategoryAPI interface {
	ListCategories(ctx context.Context) ([]Category, error)
	CreateCategory(ctx context.Context, in CategoryInput) (*Category, error)
	UpdateCategory(ctx context.Context, id string, in CategoryInput) (*Category, error)
	DeleteCategory(ctx context.Context, id string) error
}

type EnrollmentAPI interface {
	MyEnrollments(ctx context.Context) ([]Enrollment, error)
	Enroll(ctx context.Context, courseID string) (*Enrollment, error)
	CheckEnrollment(ctx context.Context, courseID string) (bool, *Enrollment, error)
	Unenroll(ctx context.Context, courseID string) error
}

type ProgressAPI interface {
	MyProgress(ctx context.Context) ([]Progress, error)
	CompleteTopic(ctx context.Context, courseID, topicID string) (*Progress, *Enrollment, error)
}

type InboxAPI interface {
	ListNotifications(ctx context.Context) ([]Notification, error)
	MarkNotificationRead(ctx context.Context, id string) (*Notification, error)
	DeleteNotification(ctx context.Context, id string) error
	MyCertificates(ctx context.Context) ([]Certificate, error)
	ListQuizzes(ctx context.Context) ([]Quiz, error)
}

type UserAPI interface {
	ListUsers(ctx context.Context, role Role) ([]User, error)
}

type ChatAPI interface {
	CreateChatSession(ctx context.Context) (*ChatSession, error)
	ListChatSessions(ctx context.Context) ([]ChatSession, error)
	GetChatSession(ctx context.Context, id string) (*ChatSession, error)
	DeleteChatSession(ctx context.Context, id string) error
	SendChatMessage(ctx context.Context, sessionID, content string) (userMsg, aiMsg *ChatMessage, err error)
}

// Backend is the full REST contract the client core consumes. Every error it
// returns is a *RequestError.
type Backend interface {
	CourseAPI
	CategoryAPI
	EnrollmentAPI
	ProgressAPI
	InboxAPI
	UserAPI
	ChatAPI
}

// TokenStore is the persisted local storage holding the bearer token.
type TokenStore interface {
	Token(ctx context.Context) (string, error)
	SaveToken(ctx context.Context, token string) error
	ClearToken(ctx context.Context) error
}

// ========== DEV BACKEND STORAGE ==========

type CourseRepository interface {
	Create(ctx context.Context, course *Course) error
	GetAll(ctx context.Context) ([]Course, error)
	GetByID(ctx context.Context, id string) (*Course, error)
	Update(ctx context.Context, course *Course) error
	Delete(ctx context.Context, id string) error
	AddTopic(ctx context.Context, topic *Topic) error
	UpdateTopic(ctx context.Context, topic *Topic) error
	DeleteTopic(ctx context.Context, courseID, topicID string) error
}

type CategoryRepository interface {
	Create(ctx context.Context, category *Category) error
	GetAll(ctx context.Context) ([]Category, error)
	Update(ctx context.Context, category *Category) error
	Delete(ctx context.Context, id string) error
}

type EnrollmentRepository interface {
	Create(ctx context.Context, enrollment *Enrollment) error
	GetByStudentAndCourse(ctx context.Context, studentID, courseID string) (*Enrollment, error)
	GetByStudentID(ctx context.Context, studentID string) ([]Enrollment, error)
	Update(ctx context.Context, enrollment *Enrollment) error
	Delete(ctx context.Context, studentID, courseID string) error
}

type ProgressRepository interface {
	GetByStudentID(ctx context.Context, studentID string) ([]Progress, error)
	GetByStudentAndCourse(ctx context.Context, studentID, courseID string) (*Progress, error)
	Save(ctx context.Context, progress *Progress) error
}

type InboxRepository interface {
	CreateNotification(ctx context.Context, n *Notification) error
	NotificationsByUser(ctx context.Context, userID string) ([]Notification, error)
	MarkNotificationRead(ctx context.Context, userID, id string) (*Notification, error)
	DeleteNotification(ctx context.Context, userID, id string) error
	CreateCertificate(ctx context.Context, cert *Certificate) error
	CertificatesByStudent(ctx context.Context, studentID string) ([]Certificate, error)
	CreateQuiz(ctx context.Context, quiz *Quiz) error
	ListQuizzes(ctx context.Context) ([]Quiz, error)
}

type UserRepository interface {
	Create(ctx context.Context, user *User) error
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByRole(ctx context.Context, role Role) ([]User, error)
}

type ChatRepository interface {
	CreateSession(ctx context.Context, session *ChatSession) error
	SessionsByUser(ctx context.Context, userID string) ([]ChatSession, error)
	GetSession(ctx context.Context, userID, id string) (*ChatSession, error)
	DeleteSession(ctx context.Context, userID, id string) error
	AppendMessages(ctx context.Context, session *ChatSession, msgs ...*ChatMessage) error
}
