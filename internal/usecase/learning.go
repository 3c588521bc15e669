package usecase

import (
	"sort"
	"strings"

	"onlearn-client/internal/domain"
)

type SortKey string

const (
	SortRecent       SortKey = "recent"
	SortNameAsc      SortKey = "name_asc"
	SortNameDesc     SortKey = "name_desc"
	SortProgressAsc  SortKey = "progress_asc"
	SortProgressDesc SortKey = "progress_desc"
)

type LearningFilter string

const (
	FilterAll        LearningFilter = "all"
	FilterInProgress LearningFilter = "in_progress"
	FilterCompleted  LearningFilter = "completed"
)

const completedThreshold = 100

// BuildLearningView joins enrollments with their courses. Enrollments whose
// course cannot be resolved are dropped: the two collections are fetched
// independently and may briefly disagree. Sorting is stable, so ties keep
// input order. An empty or unknown key sorts by most recent access.
func BuildLearningView(enrollments []domain.Enrollment, lookup func(string) (domain.Course, bool), key SortKey) []domain.LearningCard {
	cards := make([]domain.LearningCard, 0, len(enrollments))
	for _, e := range enrollments {
		course, ok := lookup(e.CourseID)
		if !ok {
			continue
		}
		cards = append(cards, domain.LearningCard{
			Enrollment:   e,
			Course:       course,
			Progress:     e.Progress,
			Completed:    e.Progress >= completedThreshold,
			LastAccessed: e.LastAccessed(),
		})
	}

	var less func(a, b domain.LearningCard) bool
	switch key {
	case SortNameAsc:
		less = func(a, b domain.LearningCard) bool { return lowerName(a) < lowerName(b) }
	case SortNameDesc:
		less = func(a, b domain.LearningCard) bool { return lowerName(a) > lowerName(b) }
	case SortProgressAsc:
		less = func(a, b domain.LearningCard) bool { return a.Progress < b.Progress }
	case SortProgressDesc:
		less = func(a, b domain.LearningCard) bool { return a.Progress > b.Progress }
	default:
		less = func(a, b domain.LearningCard) bool { return a.LastAccessed.After(b.LastAccessed) }
	}
	sort.SliceStable(cards, func(i, j int) bool { return less(cards[i], cards[j]) })
	return cards
}

func lowerName(c domain.LearningCard) string {
	return strings.ToLower(c.Course.Name)
}

// FilterLearning keeps the cards matching f. Completion is decided by the
// progress threshold only.
func FilterLearning(cards []domain.LearningCard, f LearningFilter) []domain.LearningCard {
	if f == "" || f == FilterAll {
		return cards
	}
	out := make([]domain.LearningCard, 0, len(cards))
	for _, c := range cards {
		if (f == FilterCompleted) == c.Completed {
			out = append(out, c)
		}
	}
	return out
}

func SummarizeLearning(cards []domain.LearningCard) domain.LearningSummary {
	s := domain.LearningSummary{TotalEnrollments: len(cards)}
	total := 0
	for _, c := range cards {
		if c.Completed {
			s.CompletedCourses++
		} else {
			s.InProgressCourses++
		}
		total += c.Progress
	}
	if len(cards) > 0 {
		s.AverageProgress = total / len(cards)
	}
	return s
}
