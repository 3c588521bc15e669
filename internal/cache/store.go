package cache

import "onlearn-client/internal/domain"

// Store is the session-scoped resource cache. It is created once per login,
// shared by pointer, and written only by the mutation dispatcher.
type Store struct {
	Courses       *Collection[domain.Course]
	Categories    *Collection[domain.Category]
	Enrollments   *Collection[domain.Enrollment]
	Notifications *Collection[domain.Notification]
	Certificates  *Collection[domain.Certificate]
	Quizzes       *Collection[domain.Quiz]
	Progress      *Collection[domain.Progress]
	Students      *Collection[domain.User]
	Experts       *Collection[domain.User]
}

func NewStore() *Store {
	return &Store{
		Courses:       NewCollection(func(c domain.Course) string { return c.ID }),
		Categories:    NewCollection(func(c domain.Category) string { return c.ID }),
		Enrollments:   NewCollection(func(e domain.Enrollment) string { return e.ID }),
		Notifications: NewCollection(func(n domain.Notification) string { return n.ID }),
		Certificates:  NewCollection(func(c domain.Certificate) string { return c.ID }),
		Quizzes:       NewCollection(func(q domain.Quiz) string { return q.ID }),
		Progress:      NewCollection(func(p domain.Progress) string { return p.ID }),
		Students:      NewCollection(func(u domain.User) string { return u.ID }),
		Experts:       NewCollection(func(u domain.User) string { return u.ID }),
	}
}

// Reset drops every collection. Called on logout.
func (s *Store) Reset() {
	s.Courses.Clear()
	s.Categories.Clear()
	s.Enrollments.Clear()
	s.Notifications.Clear()
	s.Certificates.Clear()
	s.Quizzes.Clear()
	s.Progress.Clear()
	s.Students.Clear()
	s.Experts.Clear()
}

// CourseLookup resolves a course by id against the current snapshot.
func (s *Store) CourseLookup() func(id string) (domain.Course, bool) {
	byID := make(map[string]domain.Course)
	for _, c := range s.Courses.All() {
		byID[c.ID] = c
	}
	return func(id string) (domain.Course, bool) {
		c, ok := byID[id]
		return c, ok
	}
}
