package domain

import (
	"time"

	"gorm.io/datatypes"
)

type Role string

const (
	RoleStudent    Role = "student"
	RoleExpert     Role = "expert"
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "superadmin"
)

type User struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(64)"`
	Name      string    `json:"name" gorm:"not null"`
	Email     string    `json:"email" gorm:"uniqueIndex;not null"`
	Role      Role      `json:"role" gorm:"type:varchar(20);default:'student'"`
	CreatedAt time.Time `json:"createdAt" gorm:"autoCreateTime"`
}

type CourseStatus string

const (
	CourseDraft        CourseStatus = "draft"
	CourseAIGenerating CourseStatus = "ai_generating"
	CoursePublished    CourseStatus = "published"
)

type Course struct {
	ID          string       `json:"id" gorm:"primaryKey;type:varchar(64)"`
	Name        string       `json:"name" gorm:"not null"`
	Description string       `json:"description" gorm:"type:text"`
	Level       string       `json:"level"`
	Language    string       `json:"language"`
	CategoryID  string       `json:"categoryId" gorm:"index"`
	Duration    string       `json:"duration"`
	Topics      []Topic      `json:"topics" gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE"`
	Materials   []Material   `json:"materials" gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE"`
	Thumbnail   string       `json:"thumbnail"`
	Status      CourseStatus `json:"status" gorm:"type:varchar(20);default:'draft'"`
	OwnerID     string       `json:"ownerId" gorm:"index"`
	NeedsReview bool         `json:"needsReview" gorm:"default:false"`
	CreatedAt   time.Time    `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt   time.Time    `json:"updatedAt" gorm:"autoUpdateTime"`
}

type TopicStatus string

const (
	TopicPending   TopicStatus = "pending"
	TopicUnlocked  TopicStatus = "unlocked"
	TopicCompleted TopicStatus = "completed"
)

// Topic order is the index inside Course.Topics. Position only exists so the
// dev backend can persist that order.
type Topic struct {
	ID        string      `json:"id" gorm:"primaryKey;type:varchar(64)"`
	CourseID  string      `json:"courseId,omitempty" gorm:"index;not null"`
	Title     string      `json:"title" gorm:"not null"`
	Position  int         `json:"-" gorm:"not null;default:0"`
	Status    TopicStatus `json:"status,omitempty" gorm:"type:varchar(20);default:'pending'"`
	Materials []string    `json:"materials,omitempty" gorm:"serializer:json"`
}

type Material struct {
	ID       string `json:"id" gorm:"primaryKey;type:varchar(64)"`
	CourseID string `json:"courseId,omitempty" gorm:"index;not null"`
	Title    string `json:"title"`
	Type     string `json:"type"` // pdf, video, link
	URL      string `json:"url"`
}

// Enrollment links one student to one course. (StudentID, CourseID) is unique.
type Enrollment struct {
	ID             string     `json:"id" gorm:"primaryKey;type:varchar(64)"`
	StudentID      string     `json:"studentId" gorm:"not null;uniqueIndex:idx_enrollment_student_course"`
	CourseID       string     `json:"courseId" gorm:"not null;uniqueIndex:idx_enrollment_student_course"`
	Progress       int        `json:"progress" gorm:"default:0"` // 0-100
	Status         string     `json:"status" gorm:"type:varchar(20);default:'active'"`
	LastAccessedAt *time.Time `json:"lastAccessedAt,omitempty"`
	CreatedAt      time.Time  `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt      time.Time  `json:"updatedAt" gorm:"autoUpdateTime"`
}

// LastAccessed falls back to UpdatedAt when the backend never recorded an access.
func (e Enrollment) LastAccessed() time.Time {
	if e.LastAccessedAt != nil {
		return *e.LastAccessedAt
	}
	return e.UpdatedAt
}

type Category struct {
	ID   string `json:"id" gorm:"primaryKey;type:varchar(64)"`
	Name string `json:"name" gorm:"uniqueIndex;not null"`
}

type Notification struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(64)"`
	UserID    string    `json:"userId" gorm:"index"`
	Title     string    `json:"title"`
	Message   string    `json:"message" gorm:"type:text"`
	Read      bool      `json:"read" gorm:"default:false"`
	CreatedAt time.Time `json:"createdAt" gorm:"autoCreateTime"`
}

type Certificate struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(64)"`
	StudentID string    `json:"studentId" gorm:"index;not null"`
	CourseID  string    `json:"courseId" gorm:"index;not null"`
	Title     string    `json:"title"`
	URL       string    `json:"url"`
	IssuedAt  time.Time `json:"issuedAt" gorm:"autoCreateTime"`
}

type Quiz struct {
	ID        string         `json:"id" gorm:"primaryKey;type:varchar(64)"`
	CourseID  string         `json:"courseId" gorm:"index;not null"`
	TopicID   string         `json:"topicId,omitempty" gorm:"index"`
	Title     string         `json:"title"`
	Questions datatypes.JSON `json:"questions"`
}

// Progress is the per-student completion record for one course.
type Progress struct {
	ID              string    `json:"id" gorm:"primaryKey;type:varchar(64)"`
	StudentID       string    `json:"studentId" gorm:"not null;uniqueIndex:idx_progress_student_course"`
	CourseID        string    `json:"courseId" gorm:"not null;uniqueIndex:idx_progress_student_course"`
	CompletedTopics []string  `json:"completedTopics" gorm:"serializer:json"`
	UpdatedAt       time.Time `json:"updatedAt" gorm:"autoUpdateTime"`
}

// ========== AI CHAT ==========

const DefaultChatTitle = "New Chat"

type Sender string

const (
	SenderUser Sender = "user"
	SenderAI   Sender = "ai"
)

type ChatSession struct {
	ID            string        `json:"id" gorm:"primaryKey;type:varchar(64)"`
	UserID        string        `json:"userId,omitempty" gorm:"index"`
	Title         string        `json:"title" gorm:"not null"`
	Messages      []ChatMessage `json:"messages,omitempty" gorm:"foreignKey:SessionID;constraint:OnDelete:CASCADE"`
	LastMessageAt time.Time     `json:"lastMessageAt"`
	CreatedAt     time.Time     `json:"createdAt" gorm:"autoCreateTime"`
}

type ChatMessage struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(64)"`
	SessionID string    `json:"sessionId,omitempty" gorm:"index;not null"`
	Sender    Sender    `json:"sender" gorm:"type:varchar(10)"`
	Content   string    `json:"content" gorm:"type:text"`
	Timestamp time.Time `json:"timestamp"`

	// Pending is set while the send carrying this message is in flight. A
	// message that keeps its temporary id after that was never delivered.
	Pending bool `json:"-" gorm:"-"`
}

// ========== VIEW MODELS ==========

type TopicViewStatus string

const (
	TopicViewCompleted TopicViewStatus = "completed"
	TopicViewUnlocked  TopicViewStatus = "unlocked"
	TopicViewLocked    TopicViewStatus = "locked"
)

type TopicView struct {
	ID     string          `json:"id"`
	Title  string          `json:"title"`
	Status TopicViewStatus `json:"status"`
}

// CourseTopicState is the derived, per-student lock state of a course.
type CourseTopicState struct {
	CourseID       string      `json:"courseId"`
	Topics         []TopicView `json:"topics"`
	CompletedCount int         `json:"completedCount"`
	TotalCount     int         `json:"totalCount"`
	Percent        int         `json:"percent"`
}

// LearningCard is one "My Learning" entry: an enrollment joined with its course.
type LearningCard struct {
	Enrollment   Enrollment `json:"enrollment"`
	Course       Course     `json:"course"`
	Progress     int        `json:"progress"`
	Completed    bool       `json:"completed"`
	LastAccessed time.Time  `json:"lastAccessed"`
}

type LearningSummary struct {
	TotalEnrollments  int `json:"totalEnrollments"`
	CompletedCourses  int `json:"completedCourses"`
	InProgressCourses int `json:"inProgressCourses"`
	AverageProgress   int `json:"averageProgress"`
}

// ========== REQUEST DTOs ==========

type CourseInput struct {
	Name        string       `json:"name" validate:"required,max=200" binding:"required,max=200"`
	Description string       `json:"description" validate:"max=5000" binding:"max=5000"`
	Level       string       `json:"level" validate:"omitempty,oneof=beginner intermediate advanced" binding:"omitempty,oneof=beginner intermediate advanced"`
	Language    string       `json:"language"`
	CategoryID  string       `json:"categoryId"`
	Duration    string       `json:"duration"`
	Thumbnail   string       `json:"thumbnail"`
	Status      CourseStatus `json:"status,omitempty" validate:"omitempty,oneof=draft ai_generating published" binding:"omitempty,oneof=draft ai_generating published"`
	NeedsReview bool         `json:"needsReview"`
}

type TopicInput struct {
	Title     string   `json:"title" validate:"required,max=200" binding:"required,max=200"`
	Materials []string `json:"materials"`
}

type CategoryInput struct {
	Name string `json:"name" validate:"required,max=100" binding:"required,max=100"`
}

type MessageInput struct {
	Content string `json:"content" validate:"required,max=4000" binding:"required,max=4000"`
}

type EnrollInput struct {
	CourseID string `json:"courseId" validate:"required" binding:"required"`
}

type StatusInput struct {
	Status CourseStatus `json:"status" validate:"required,oneof=draft ai_generating published" binding:"required,oneof=draft ai_generating published"`
}
