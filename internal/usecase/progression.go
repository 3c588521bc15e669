package usecase

import (
	"onlearn-client/internal/cache"
	"onlearn-client/internal/domain"
	"onlearn-client/pkg/utils"
)

// Completion is the set of topics a student has completed in one course.
// An unavailable Completion (the progress fetch failed or never ran) makes
// every topic locked.
type Completion struct {
	topics    map[string]struct{}
	available bool
}

func CompletedTopics(ids ...string) Completion {
	c := Completion{topics: make(map[string]struct{}, len(ids)), available: true}
	for _, id := range ids {
		c.topics[id] = struct{}{}
	}
	return c
}

func UnavailableCompletion() Completion {
	return Completion{}
}

func (c Completion) Available() bool {
	return c.available
}

func (c Completion) Has(topicID string) bool {
	_, ok := c.topics[topicID]
	return ok
}

// CompletionForCourse reads the cached progress records for courseID.
func CompletionForCourse(store *cache.Store, courseID string) Completion {
	if !store.Progress.Loaded() {
		return UnavailableCompletion()
	}
	p, ok := store.Progress.Find(func(p domain.Progress) bool { return p.CourseID == courseID })
	if !ok {
		return CompletedTopics()
	}
	return CompletedTopics(p.CompletedTopics...)
}

// DeriveTopicState walks the topics in course order. A topic in the
// completion set is completed, the first topic that is not is unlocked, and
// every other non-completed topic is locked. Completing topics out of order
// never moves the unlock frontier past a gap.
func DeriveTopicState(course domain.Course, completion Completion) domain.CourseTopicState {
	state := domain.CourseTopicState{
		CourseID:   course.ID,
		Topics:     make([]domain.TopicView, 0, len(course.Topics)),
		TotalCount: len(course.Topics),
	}

	if !completion.Available() {
		for _, t := range course.Topics {
			state.Topics = append(state.Topics, domain.TopicView{ID: t.ID, Title: t.Title, Status: domain.TopicViewLocked})
		}
		return state
	}

	gap := false
	for _, t := range course.Topics {
		view := domain.TopicView{ID: t.ID, Title: t.Title}
		switch {
		case completion.Has(t.ID):
			view.Status = domain.TopicViewCompleted
			state.CompletedCount++
		case !gap:
			view.Status = domain.TopicViewUnlocked
			gap = true
		default:
			view.Status = domain.TopicViewLocked
		}
		state.Topics = append(state.Topics, view)
	}
	state.Percent = utils.Percent(state.CompletedCount, state.TotalCount)
	return state
}

// CurrentTopic is the single unlocked topic, if any.
func CurrentTopic(state domain.CourseTopicState) (domain.TopicView, bool) {
	for _, t := range state.Topics {
		if t.Status == domain.TopicViewUnlocked {
			return t, true
		}
	}
	return domain.TopicView{}, false
}

// CanOpenTopic reports whether the student may view topicID.
func CanOpenTopic(state domain.CourseTopicState, topicID string) bool {
	for _, t := range state.Topics {
		if t.ID == topicID {
			return t.Status != domain.TopicViewLocked
		}
	}
	return false
}
