package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"onlearn-client/internal/domain"
	"onlearn-client/pkg/logger"

	"github.com/go-resty/resty/v2"
)

// APIClient speaks the backend's resource-oriented JSON contract. Every
// response must be a JSON object with a boolean "success" field; anything
// else is a parse failure.
type APIClient struct {
	http   *resty.Client
	tokens domain.TokenStore
	log    *logger.Logger
}

func NewAPIClient(baseURL string, timeout time.Duration, tokens domain.TokenStore, log *logger.Logger) *APIClient {
	c := &APIClient{
		http: resty.New().
			SetBaseURL(baseURL).
			SetTimeout(timeout).
			SetHeader("Accept", "application/json"),
		tokens: tokens,
		log:    log.With("component", "api"),
	}
	c.http.OnBeforeRequest(c.attachToken)
	return c
}

// attachToken adds the bearer token when one is stored. A missing token just
// omits the header and lets the server decide.
func (c *APIClient) attachToken(_ *resty.Client, r *resty.Request) error {
	if c.tokens == nil {
		return nil
	}
	tok, err := c.tokens.Token(r.Context())
	if err != nil {
		c.log.Warn("read token failed, sending request without it", "error", err)
		return nil
	}
	if tok != "" {
		r.SetAuthToken(tok)
	}
	return nil
}

type envelope map[string]json.RawMessage

func (c *APIClient) do(ctx context.Context, method, path string, body interface{}) (envelope, int, error) {
	req := c.http.R().SetContext(ctx)
	if body != nil {
		req.SetBody(body)
	}
	resp, err := req.Execute(method, path)
	if err != nil {
		c.log.Debug("request failed", "method", method, "path", path, "error", err)
		return nil, 0, domain.NewNetworkError(err)
	}
	status := resp.StatusCode()

	var env envelope
	if err := json.Unmarshal(resp.Body(), &env); err != nil || env == nil {
		if err == nil {
			err = errors.New("response is not a JSON object")
		}
		return nil, status, domain.NewParseError(status, err)
	}

	var success interface{}
	raw, ok := env["success"]
	if ok {
		_ = json.Unmarshal(raw, &success)
	}
	ok, isBool := success.(bool)
	if !isBool {
		return nil, status, domain.NewParseError(status, errors.New(`missing or non-boolean "success" field`))
	}
	if !ok {
		var msg string
		if r, has := env["error"]; has {
			_ = json.Unmarshal(r, &msg)
		}
		return nil, status, domain.NewBusinessError(status, msg)
	}
	return env, status, nil
}

func field[T any](env envelope, status int, key string) (T, error) {
	var out T
	raw, ok := env[key]
	if !ok {
		return out, domain.NewParseError(status, fmt.Errorf("missing %q in response", key))
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, domain.NewParseError(status, fmt.Errorf("decode %q: %w", key, err))
	}
	return out, nil
}

func fetch[T any](c *APIClient, ctx context.Context, method, path string, body interface{}, key string) (T, error) {
	env, status, err := c.do(ctx, method, path, body)
	if err != nil {
		var zero T
		return zero, err
	}
	return field[T](env, status, key)
}

// fetchOne is fetch for single-item responses; a null item is a parse failure.
func fetchOne[T any](c *APIClient, ctx context.Context, method, path string, body interface{}, key string) (*T, error) {
	env, status, err := c.do(ctx, method, path, body)
	if err != nil {
		return nil, err
	}
	return one[T](env, status, key)
}

func one[T any](env envelope, status int, key string) (*T, error) {
	out, err := field[*T](env, status, key)
	if err != nil {
		return nil, err
	}
	if out == nil {
		return nil, domain.NewParseError(status, fmt.Errorf("%q is null", key))
	}
	return out, nil
}

// present reports whether key exists and is not JSON null.
func present(env envelope, key string) bool {
	raw, ok := env[key]
	return ok && string(raw) != "null"
}

func (c *APIClient) exec(ctx context.Context, method, path string, body interface{}) error {
	_, _, err := c.do(ctx, method, path, body)
	return err
}

func p(format string, ids ...string) string {
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		args[i] = url.PathEscape(id)
	}
	return fmt.Sprintf(format, args...)
}

// ========== COURSES ==========

func (c *APIClient) ListCourses(ctx context.Context) ([]domain.Course, error) {
	return fetch[[]domain.Course](c, ctx, http.MethodGet, "/courses", nil, "courses")
}

func (c *APIClient) GetCourse(ctx context.Context, id string) (*domain.Course, error) {
	return fetchOne[domain.Course](c, ctx, http.MethodGet, p("/courses/%s", id), nil, "course")
}

func (c *APIClient) CreateCourse(ctx context.Context, in domain.CourseInput) (*domain.Course, error) {
	return fetchOne[domain.Course](c, ctx, http.MethodPost, "/courses", in, "course")
}

func (c *APIClient) UpdateCourse(ctx context.Context, id string, in domain.CourseInput) (*domain.Course, error) {
	return fetchOne[domain.Course](c, ctx, http.MethodPut, p("/courses/%s", id), in, "course")
}

func (c *APIClient) UpdateCourseStatus(ctx context.Context, id string, status domain.CourseStatus) (*domain.Course, error) {
	return fetchOne[domain.Course](c, ctx, http.MethodPatch, p("/courses/%s/status", id), domain.StatusInput{Status: status}, "course")
}

func (c *APIClient) DeleteCourse(ctx context.Context, id string) error {
	return c.exec(ctx, http.MethodDelete, p("/courses/%s", id), nil)
}

func (c *APIClient) AddTopic(ctx context.Context, courseID string, in domain.TopicInput) (*domain.Course, error) {
	return fetchOne[domain.Course](c, ctx, http.MethodPost, p("/courses/%s/topics", courseID), in, "course")
}

func (c *APIClient) UpdateTopic(ctx context.Context, courseID, topicID string, in domain.TopicInput) (*domain.Course, error) {
	return fetchOne[domain.Course](c, ctx, http.MethodPut, p("/courses/%s/topics/%s", courseID, topicID), in, "course")
}

func (c *APIClient) DeleteTopic(ctx context.Context, courseID, topicID string) (*domain.Course, error) {
	return fetchOne[domain.Course](c, ctx, http.MethodDelete, p("/courses/%s/topics/%s", courseID, topicID), nil, "course")
}

// ========== CATEGORIES ==========

func (c *APIClient) ListCategories(ctx context.Context) ([]domain.Category, error) {
	return fetch[[]domain.Category](c, ctx, http.MethodGet, "/categories", nil, "categories")
}

func (c *APIClient) CreateCategory(ctx context.Context, in domain.CategoryInput) (*domain.Category, error) {
	return fetchOne[domain.Category](c, ctx, http.MethodPost, "/categories", in, "category")
}

func (c *APIClient) UpdateCategory(ctx context.Context, id string, in domain.CategoryInput) (*domain.Category, error) {
	return fetchOne[domain.Category](c, ctx, http.MethodPut, p("/categories/%s", id), in, "category")
}

func (c *APIClient) DeleteCategory(ctx context.Context, id string) error {
	return c.exec(ctx, http.MethodDelete, p("/categories/%s", id), nil)
}

// ========== ENROLLMENTS ==========

func (c *APIClient) MyEnrollments(ctx context.Context) ([]domain.Enrollment, error) {
	return fetch[[]domain.Enrollment](c, ctx, http.MethodGet, "/enrollments/my", nil, "enrollments")
}

func (c *APIClient) Enroll(ctx context.Context, courseID string) (*domain.Enrollment, error) {
	return fetchOne[domain.Enrollment](c, ctx, http.MethodPost, "/enrollments", domain.EnrollInput{CourseID: courseID}, "enrollment")
}

func (c *APIClient) CheckEnrollment(ctx context.Context, courseID string) (bool, *domain.Enrollment, error) {
	env, status, err := c.do(ctx, http.MethodGet, p("/enrollments/check/%s", courseID), nil)
	if err != nil {
		return false, nil, err
	}
	enrolled, err := field[bool](env, status, "enrolled")
	if err != nil {
		return false, nil, err
	}
	if !present(env, "enrollment") {
		return enrolled, nil, nil
	}
	enrollment, err := one[domain.Enrollment](env, status, "enrollment")
	if err != nil {
		return false, nil, err
	}
	return enrolled, enrollment, nil
}

func (c *APIClient) Unenroll(ctx context.Context, courseID string) error {
	return c.exec(ctx, http.MethodDelete, p("/enrollments/%s", courseID), nil)
}

// ========== PROGRESS ==========

func (c *APIClient) MyProgress(ctx context.Context) ([]domain.Progress, error) {
	return fetch[[]domain.Progress](c, ctx, http.MethodGet, "/progress/my", nil, "progress")
}

func (c *APIClient) CompleteTopic(ctx context.Context, courseID, topicID string) (*domain.Progress, *domain.Enrollment, error) {
	env, status, err := c.do(ctx, http.MethodPost, p("/progress/%s/topics/%s/complete", courseID, topicID), nil)
	if err != nil {
		return nil, nil, err
	}
	progress, err := one[domain.Progress](env, status, "progress")
	if err != nil {
		return nil, nil, err
	}
	// enrollment is optional: admins previewing a course have none
	var enrollment *domain.Enrollment
	if present(env, "enrollment") {
		if enrollment, err = one[domain.Enrollment](env, status, "enrollment"); err != nil {
			return nil, nil, err
		}
	}
	return progress, enrollment, nil
}

// ========== NOTIFICATIONS, CERTIFICATES, QUIZZES ==========

func (c *APIClient) ListNotifications(ctx context.Context) ([]domain.Notification, error) {
	return fetch[[]domain.Notification](c, ctx, http.MethodGet, "/notifications", nil, "notifications")
}

func (c *APIClient) MarkNotificationRead(ctx context.Context, id string) (*domain.Notification, error) {
	return fetchOne[domain.Notification](c, ctx, http.MethodPatch, p("/notifications/%s/read", id), nil, "notification")
}

func (c *APIClient) DeleteNotification(ctx context.Context, id string) error {
	return c.exec(ctx, http.MethodDelete, p("/notifications/%s", id), nil)
}

func (c *APIClient) MyCertificates(ctx context.Context) ([]domain.Certificate, error) {
	return fetch[[]domain.Certificate](c, ctx, http.MethodGet, "/certificates/my", nil, "certificates")
}

func (c *APIClient) ListQuizzes(ctx context.Context) ([]domain.Quiz, error) {
	return fetch[[]domain.Quiz](c, ctx, http.MethodGet, "/quizzes", nil, "quizzes")
}

// ========== USERS ==========

func (c *APIClient) ListUsers(ctx context.Context, role domain.Role) ([]domain.User, error) {
	return fetch[[]domain.User](c, ctx, http.MethodGet, "/users?role="+url.QueryEscape(string(role)), nil, "users")
}

// ========== AI CHAT ==========

func (c *APIClient) CreateChatSession(ctx context.Context) (*domain.ChatSession, error) {
	return fetchOne[domain.ChatSession](c, ctx, http.MethodPost, "/ai-chat/sessions", struct{}{}, "session")
}

func (c *APIClient) ListChatSessions(ctx context.Context) ([]domain.ChatSession, error) {
	return fetch[[]domain.ChatSession](c, ctx, http.MethodGet, "/ai-chat/sessions", nil, "sessions")
}

func (c *APIClient) GetChatSession(ctx context.Context, id string) (*domain.ChatSession, error) {
	return fetchOne[domain.ChatSession](c, ctx, http.MethodGet, p("/ai-chat/sessions/%s", id), nil, "session")
}

func (c *APIClient) DeleteChatSession(ctx context.Context, id string) error {
	return c.exec(ctx, http.MethodDelete, p("/ai-chat/sessions/%s", id), nil)
}

func (c *APIClient) SendChatMessage(ctx context.Context, sessionID, content string) (*domain.ChatMessage, *domain.ChatMessage, error) {
	env, status, err := c.do(ctx, http.MethodPost, p("/ai-chat/sessions/%s/messages", sessionID), domain.MessageInput{Content: content})
	if err != nil {
		return nil, nil, err
	}
	userMsg, err := one[domain.ChatMessage](env, status, "userMessage")
	if err != nil {
		return nil, nil, err
	}
	aiMsg, err := one[domain.ChatMessage](env, status, "aiMessage")
	if err != nil {
		return nil, nil, err
	}
	return userMsg, aiMsg, nil
}

var _ domain.Backend = (*APIClient)(nil)
