package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"onlearn-client/internal/domain"
	"onlearn-client/pkg/logger"
	"onlearn-client/pkg/utils"
)

// The services below back the dev server. They hold the server-side rules
// the client relies on: enrollment progress is derived from completed
// topics and a certificate is issued when a course reaches 100%.

var (
	ErrTopicLocked      = errors.New("topic is locked")
	ErrTopicNotInCourse = errors.New("topic does not belong to this course")
	ErrAlreadyEnrolled  = errors.New("already enrolled in this course")
)

type ProgressService struct {
	courses     domain.CourseRepository
	enrollments domain.EnrollmentRepository
	progress    domain.ProgressRepository
	inbox       domain.InboxRepository
	log         *logger.Logger
}

func NewProgressService(
	courses domain.CourseRepository,
	enrollments domain.EnrollmentRepository,
	progress domain.ProgressRepository,
	inbox domain.InboxRepository,
	log *logger.Logger,
) *ProgressService {
	return &ProgressService{
		courses:     courses,
		enrollments: enrollments,
		progress:    progress,
		inbox:       inbox,
		log:         log.With("component", "progress"),
	}
}

// Enroll creates the enrollment, refusing a second one for the same course.
func (s *ProgressService) Enroll(ctx context.Context, studentID, courseID string) (*domain.Enrollment, error) {
	if _, err := s.courses.GetByID(ctx, courseID); err != nil {
		return nil, err
	}
	existing, err := s.enrollments.GetByStudentAndCourse(ctx, studentID, courseID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrAlreadyEnrolled
	}
	now := time.Now()
	e := &domain.Enrollment{StudentID: studentID, CourseID: courseID, Status: "active", LastAccessedAt: &now}
	if err := s.enrollments.Create(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

// CompleteTopic records topicID as done and recomputes the enrollment. The
// same unlock rule as the client applies: only completed or unlocked topics
// may be completed.
func (s *ProgressService) CompleteTopic(ctx context.Context, studentID, courseID, topicID string) (*domain.Progress, *domain.Enrollment, error) {
	enrollment, err := s.enrollments.GetByStudentAndCourse(ctx, studentID, courseID)
	if err != nil {
		return nil, nil, err
	}
	if enrollment == nil {
		return nil, nil, domain.ErrNotEnrolled
	}
	course, err := s.courses.GetByID(ctx, courseID)
	if err != nil {
		return nil, nil, err
	}

	progress, err := s.progress.GetByStudentAndCourse(ctx, studentID, courseID)
	if err != nil {
		return nil, nil, err
	}
	if progress == nil {
		progress = &domain.Progress{StudentID: studentID, CourseID: courseID}
	}

	completion := CompletedTopics(progress.CompletedTopics...)
	state := DeriveTopicState(*course, completion)
	if !containsTopic(course, topicID) {
		return nil, nil, ErrTopicNotInCourse
	}
	if !CanOpenTopic(state, topicID) {
		return nil, nil, ErrTopicLocked
	}

	if !completion.Has(topicID) {
		progress.CompletedTopics = append(progress.CompletedTopics, topicID)
		if err := s.progress.Save(ctx, progress); err != nil {
			return nil, nil, err
		}
	}

	if err := s.updateEnrollmentProgress(ctx, enrollment, course, progress); err != nil {
		return nil, nil, err
	}
	return progress, enrollment, nil
}

func (s *ProgressService) updateEnrollmentProgress(ctx context.Context, enrollment *domain.Enrollment, course *domain.Course, progress *domain.Progress) error {
	state := DeriveTopicState(*course, CompletedTopics(progress.CompletedTopics...))
	wasComplete := enrollment.Progress >= completedThreshold

	now := time.Now()
	enrollment.Progress = state.Percent
	enrollment.LastAccessedAt = &now
	if state.Percent >= completedThreshold {
		enrollment.Status = "completed"
	}
	if err := s.enrollments.Update(ctx, enrollment); err != nil {
		return err
	}

	if state.Percent >= completedThreshold && !wasComplete {
		cert := &domain.Certificate{
			StudentID: enrollment.StudentID,
			CourseID:  course.ID,
			Title:     "Certificate of Completion: " + course.Name,
			URL:       fmt.Sprintf("/certificates/%s/%s.pdf", course.ID, enrollment.StudentID),
		}
		if err := s.inbox.CreateCertificate(ctx, cert); err != nil {
			// the progress is already saved, a missing certificate is not fatal
			s.log.Error("certificate issue failed", "course_id", course.ID, "student_id", enrollment.StudentID, "error", err)
			return nil
		}
		s.log.Info("certificate issued", "course_id", course.ID, "student_id", enrollment.StudentID)
		_ = s.inbox.CreateNotification(ctx, &domain.Notification{
			UserID:  enrollment.StudentID,
			Title:   "Course completed",
			Message: "You completed " + course.Name + ". Your certificate is ready.",
		})
	}
	return nil
}

func containsTopic(course *domain.Course, topicID string) bool {
	for _, t := range course.Topics {
		if t.ID == topicID {
			return true
		}
	}
	return false
}

// ========== AI ASSISTANT ==========

const (
	AssistantGreeting = "Hello! I'm your learning assistant. What would you like to study today?"
	cannedReplyPrefix = "Here is a short answer to help you along: "
)

// AssistantService stores chat sessions for the dev server and answers
// every message with a canned reply.
type AssistantService struct {
	chats domain.ChatRepository
	log   *logger.Logger
	now   func() time.Time
}

func NewAssistantService(chats domain.ChatRepository, log *logger.Logger) *AssistantService {
	return &AssistantService{chats: chats, log: log.With("component", "assistant"), now: time.Now}
}

// CreateSession starts a session with the assistant's greeting.
func (s *AssistantService) CreateSession(ctx context.Context, userID string) (*domain.ChatSession, error) {
	now := s.now()
	session := &domain.ChatSession{
		UserID:        userID,
		Title:         domain.DefaultChatTitle,
		LastMessageAt: now,
		Messages:      []domain.ChatMessage{{Sender: domain.SenderAI, Content: AssistantGreeting, Timestamp: now}},
	}
	if err := s.chats.CreateSession(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// Reply stores the user's message and the assistant's answer. The first
// exchange of a "New Chat" session also renames it.
func (s *AssistantService) Reply(ctx context.Context, userID, sessionID, content string) (*domain.ChatMessage, *domain.ChatMessage, error) {
	session, err := s.chats.GetSession(ctx, userID, sessionID)
	if err != nil {
		return nil, nil, err
	}

	now := s.now()
	userMsg := &domain.ChatMessage{Sender: domain.SenderUser, Content: content, Timestamp: now}
	aiMsg := &domain.ChatMessage{Sender: domain.SenderAI, Content: cannedReplyPrefix + utils.TruncateTitle(content), Timestamp: now.Add(time.Millisecond)}

	session.LastMessageAt = aiMsg.Timestamp
	if session.Title == domain.DefaultChatTitle {
		session.Title = utils.TruncateTitle(content)
	}
	if err := s.chats.AppendMessages(ctx, session, userMsg, aiMsg); err != nil {
		return nil, nil, err
	}
	s.log.Debug("assistant replied", "session_id", sessionID)
	return userMsg, aiMsg, nil
}
