package usecase

import (
	"context"
	"errors"

	"onlearn-client/internal/cache"
	"onlearn-client/internal/domain"
	"onlearn-client/pkg/logger"

	"github.com/go-playground/validator/v10"
)

// Dispatcher is the only writer of the resource cache. Each method performs
// one backend call and, on success, applies the matching cache mutation
// before returning. On failure the cache is left untouched and the returned
// error is always a *domain.RequestError.
//
// Concurrent mutations of the same entity resolve last-response-wins.
type Dispatcher struct {
	api      domain.Backend
	store    *cache.Store
	log      *logger.Logger
	validate *validator.Validate
}

func NewDispatcher(api domain.Backend, store *cache.Store, log *logger.Logger) *Dispatcher {
	return &Dispatcher{
		api:      api,
		store:    store,
		log:      log.With("component", "dispatcher"),
		validate: validator.New(),
	}
}

func (d *Dispatcher) Store() *cache.Store {
	return d.store
}

// normalize guarantees the RequestError contract even for errors that did
// not come from the transport (context cancellation, test doubles).
func normalize(err error) error {
	if err == nil {
		return nil
	}
	var re *domain.RequestError
	if errors.As(err, &re) {
		return re
	}
	return domain.NewNetworkError(err)
}

func (d *Dispatcher) finish(collection, op string, err error) error {
	if err == nil {
		mutationsTotal.WithLabelValues(collection, op, "success").Inc()
		return nil
	}
	err = normalize(err)
	kind := domain.KindOf(err)
	mutationsTotal.WithLabelValues(collection, op, string(kind)).Inc()
	d.log.Warn("mutation failed", "collection", collection, "op", op, "kind", kind, "error", err)
	return err
}

func (d *Dispatcher) check(collection, op string, in interface{}) error {
	if err := d.validate.Struct(in); err != nil {
		return d.finish(collection, op, domain.NewValidationError(err))
	}
	return nil
}

func replaceWith[T any](v T) func(T) T {
	return func(T) T { return v }
}

// ========== COURSES ==========

func (d *Dispatcher) LoadCourses(ctx context.Context) error {
	courses, err := d.api.ListCourses(ctx)
	if err != nil {
		return d.finish("courses", "list", err)
	}
	d.store.Courses.ReplaceAll(courses)
	return d.finish("courses", "list", nil)
}

// RefreshCourse re-fetches one course, e.g. after opening its detail page.
func (d *Dispatcher) RefreshCourse(ctx context.Context, id string) (domain.Course, error) {
	course, err := d.api.GetCourse(ctx, id)
	if err != nil {
		return domain.Course{}, d.finish("courses", "get", err)
	}
	d.store.Courses.Upsert(*course)
	return *course, d.finish("courses", "get", nil)
}

func (d *Dispatcher) CreateCourse(ctx context.Context, in domain.CourseInput) (domain.Course, error) {
	if err := d.check("courses", "create", in); err != nil {
		return domain.Course{}, err
	}
	course, err := d.api.CreateCourse(ctx, in)
	if err != nil {
		return domain.Course{}, d.finish("courses", "create", err)
	}
	d.store.Courses.Insert(*course)
	return *course, d.finish("courses", "create", nil)
}

func (d *Dispatcher) UpdateCourse(ctx context.Context, id string, in domain.CourseInput) (domain.Course, error) {
	if err := d.check("courses", "update", in); err != nil {
		return domain.Course{}, err
	}
	course, err := d.api.UpdateCourse(ctx, id, in)
	if err != nil {
		return domain.Course{}, d.finish("courses", "update", err)
	}
	d.store.Courses.UpdateByID(id, replaceWith(*course))
	return *course, d.finish("courses", "update", nil)
}

func (d *Dispatcher) SetCourseStatus(ctx context.Context, id string, status domain.CourseStatus) (domain.Course, error) {
	if err := d.check("courses", "status", domain.StatusInput{Status: status}); err != nil {
		return domain.Course{}, err
	}
	course, err := d.api.UpdateCourseStatus(ctx, id, status)
	if err != nil {
		return domain.Course{}, d.finish("courses", "status", err)
	}
	d.store.Courses.UpdateByID(id, replaceWith(*course))
	return *course, d.finish("courses", "status", nil)
}

func (d *Dispatcher) DeleteCourse(ctx context.Context, id string) error {
	if err := d.api.DeleteCourse(ctx, id); err != nil {
		return d.finish("courses", "delete", err)
	}
	d.store.Courses.RemoveByID(id)
	return d.finish("courses", "delete", nil)
}

// ========== TOPICS ==========
// The course owns its topic order, so every topic mutation replaces the
// owning course with the backend's copy.

func (d *Dispatcher) AddTopic(ctx context.Context, courseID string, in domain.TopicInput) (domain.Course, error) {
	if err := d.check("topics", "create", in); err != nil {
		return domain.Course{}, err
	}
	course, err := d.api.AddTopic(ctx, courseID, in)
	if err != nil {
		return domain.Course{}, d.finish("topics", "create", err)
	}
	d.store.Courses.UpdateByID(courseID, replaceWith(*course))
	return *course, d.finish("topics", "create", nil)
}

func (d *Dispatcher) UpdateTopic(ctx context.Context, courseID, topicID string, in domain.TopicInput) (domain.Course, error) {
	if err := d.check("topics", "update", in); err != nil {
		return domain.Course{}, err
	}
	course, err := d.api.UpdateTopic(ctx, courseID, topicID, in)
	if err != nil {
		return domain.Course{}, d.finish("topics", "update", err)
	}
	d.store.Courses.UpdateByID(courseID, replaceWith(*course))
	return *course, d.finish("topics", "update", nil)
}

func (d *Dispatcher) RemoveTopic(ctx context.Context, courseID, topicID string) (domain.Course, error) {
	course, err := d.api.DeleteTopic(ctx, courseID, topicID)
	if err != nil {
		return domain.Course{}, d.finish("topics", "delete", err)
	}
	d.store.Courses.UpdateByID(courseID, replaceWith(*course))
	return *course, d.finish("topics", "delete", nil)
}

// ========== CATEGORIES ==========

func (d *Dispatcher) LoadCategories(ctx context.Context) error {
	categories, err := d.api.ListCategories(ctx)
	if err != nil {
		return d.finish("categories", "list", err)
	}
	d.store.Categories.ReplaceAll(categories)
	return d.finish("categories", "list", nil)
}

func (d *Dispatcher) CreateCategory(ctx context.Context, in domain.CategoryInput) (domain.Category, error) {
	if err := d.check("categories", "create", in); err != nil {
		return domain.Category{}, err
	}
	category, err := d.api.CreateCategory(ctx, in)
	if err != nil {
		return domain.Category{}, d.finish("categories", "create", err)
	}
	d.store.Categories.Insert(*category)
	return *category, d.finish("categories", "create", nil)
}

func (d *Dispatcher) UpdateCategory(ctx context.Context, id string, in domain.CategoryInput) (domain.Category, error) {
	if err := d.check("categories", "update", in); err != nil {
		return domain.Category{}, err
	}
	category, err := d.api.UpdateCategory(ctx, id, in)
	if err != nil {
		return domain.Category{}, d.finish("categories", "update", err)
	}
	d.store.Categories.UpdateByID(id, replaceWith(*category))
	return *category, d.finish("categories", "update", nil)
}

func (d *Dispatcher) DeleteCategory(ctx context.Context, id string) error {
	if err := d.api.DeleteCategory(ctx, id); err != nil {
		return d.finish("categories", "delete", err)
	}
	d.store.Categories.RemoveByID(id)
	return d.finish("categories", "delete", nil)
}

// ========== ENROLLMENTS ==========

func (d *Dispatcher) LoadMyEnrollments(ctx context.Context) error {
	enrollments, err := d.api.MyEnrollments(ctx)
	if err != nil {
		return d.finish("enrollments", "list", err)
	}
	d.store.Enrollments.ReplaceAll(enrollments)
	return d.finish("enrollments", "list", nil)
}

// Enroll is idempotent on the cache: an enrollment already cached for the
// same course is replaced rather than duplicated.
func (d *Dispatcher) Enroll(ctx context.Context, courseID string) (domain.Enrollment, error) {
	if err := d.check("enrollments", "create", domain.EnrollInput{CourseID: courseID}); err != nil {
		return domain.Enrollment{}, err
	}
	enrollment, err := d.api.Enroll(ctx, courseID)
	if err != nil {
		return domain.Enrollment{}, d.finish("enrollments", "create", err)
	}
	d.putEnrollment(*enrollment)
	return *enrollment, d.finish("enrollments", "create", nil)
}

func (d *Dispatcher) putEnrollment(e domain.Enrollment) {
	existing, ok := d.store.Enrollments.Find(func(x domain.Enrollment) bool {
		return x.CourseID == e.CourseID && x.StudentID == e.StudentID
	})
	if ok && existing.ID != e.ID {
		d.store.Enrollments.RemoveByID(existing.ID)
	}
	d.store.Enrollments.Upsert(e)
}

// CheckEnrollment asks the backend whether the current user is enrolled and
// refreshes the cached record when one comes back.
func (d *Dispatcher) CheckEnrollment(ctx context.Context, courseID string) (bool, error) {
	enrolled, enrollment, err := d.api.CheckEnrollment(ctx, courseID)
	if err != nil {
		return false, d.finish("enrollments", "check", err)
	}
	if enrolled && enrollment != nil {
		d.putEnrollment(*enrollment)
	}
	return enrolled, d.finish("enrollments", "check", nil)
}

func (d *Dispatcher) Unenroll(ctx context.Context, courseID string) error {
	if err := d.api.Unenroll(ctx, courseID); err != nil {
		return d.finish("enrollments", "delete", err)
	}
	for _, e := range d.store.Enrollments.All() {
		if e.CourseID == courseID {
			d.store.Enrollments.RemoveByID(e.ID)
		}
	}
	return d.finish("enrollments", "delete", nil)
}

// ========== PROGRESS ==========

func (d *Dispatcher) LoadMyProgress(ctx context.Context) error {
	progress, err := d.api.MyProgress(ctx)
	if err != nil {
		return d.finish("progress", "list", err)
	}
	d.store.Progress.ReplaceAll(progress)
	return d.finish("progress", "list", nil)
}

// CompleteTopic marks a topic done. Locked topics are refused locally, so a
// student can never skip past the unlock frontier from this client.
func (d *Dispatcher) CompleteTopic(ctx context.Context, courseID, topicID string) (domain.Progress, error) {
	course, ok := d.store.Courses.Get(courseID)
	if !ok {
		return domain.Progress{}, d.finish("progress", "complete", domain.NewBusinessError(0, "Course not found"))
	}
	state := DeriveTopicState(course, CompletionForCourse(d.store, courseID))
	if !CanOpenTopic(state, topicID) {
		return domain.Progress{}, d.finish("progress", "complete", domain.NewValidationError(errors.New("topic is locked")))
	}

	progress, enrollment, err := d.api.CompleteTopic(ctx, courseID, topicID)
	if err != nil {
		return domain.Progress{}, d.finish("progress", "complete", err)
	}
	d.store.Progress.Upsert(*progress)
	if enrollment != nil {
		d.putEnrollment(*enrollment)
	}
	return *progress, d.finish("progress", "complete", nil)
}

// ========== NOTIFICATIONS, CERTIFICATES, QUIZZES ==========

func (d *Dispatcher) LoadNotifications(ctx context.Context) error {
	notifications, err := d.api.ListNotifications(ctx)
	if err != nil {
		return d.finish("notifications", "list", err)
	}
	d.store.Notifications.ReplaceAll(notifications)
	return d.finish("notifications", "list", nil)
}

func (d *Dispatcher) MarkNotificationRead(ctx context.Context, id string) (domain.Notification, error) {
	n, err := d.api.MarkNotificationRead(ctx, id)
	if err != nil {
		return domain.Notification{}, d.finish("notifications", "read", err)
	}
	d.store.Notifications.UpdateByID(id, replaceWith(*n))
	return *n, d.finish("notifications", "read", nil)
}

func (d *Dispatcher) DeleteNotification(ctx context.Context, id string) error {
	if err := d.api.DeleteNotification(ctx, id); err != nil {
		return d.finish("notifications", "delete", err)
	}
	d.store.Notifications.RemoveByID(id)
	return d.finish("notifications", "delete", nil)
}

// UnreadCount is a convenience read over the cached notifications.
func (d *Dispatcher) UnreadCount() int {
	n := 0
	for _, it := range d.store.Notifications.All() {
		if !it.Read {
			n++
		}
	}
	return n
}

func (d *Dispatcher) LoadMyCertificates(ctx context.Context) error {
	certs, err := d.api.MyCertificates(ctx)
	if err != nil {
		return d.finish("certificates", "list", err)
	}
	d.store.Certificates.ReplaceAll(certs)
	return d.finish("certificates", "list", nil)
}

func (d *Dispatcher) LoadQuizzes(ctx context.Context) error {
	quizzes, err := d.api.ListQuizzes(ctx)
	if err != nil {
		return d.finish("quizzes", "list", err)
	}
	d.store.Quizzes.ReplaceAll(quizzes)
	return d.finish("quizzes", "list", nil)
}

// ========== USERS ==========

func (d *Dispatcher) LoadStudents(ctx context.Context) error {
	users, err := d.api.ListUsers(ctx, domain.RoleStudent)
	if err != nil {
		return d.finish("students", "list", err)
	}
	d.store.Students.ReplaceAll(users)
	return d.finish("students", "list", nil)
}

func (d *Dispatcher) LoadExperts(ctx context.Context) error {
	users, err := d.api.ListUsers(ctx, domain.RoleExpert)
	if err != nil {
		return d.finish("experts", "list", err)
	}
	d.store.Experts.ReplaceAll(users)
	return d.finish("experts", "list", nil)
}
