package usecase

import (
	"testing"
	"time"

	"onlearn-client/internal/domain"

	"github.com/stretchr/testify/assert"
)

func lookupOf(courses ...domain.Course) func(string) (domain.Course, bool) {
	byID := make(map[string]domain.Course, len(courses))
	for _, c := range courses {
		byID[c.ID] = c
	}
	return func(id string) (domain.Course, bool) {
		c, ok := byID[id]
		return c, ok
	}
}

func at(minutes int) *time.Time {
	t := time.Date(2024, 1, 1, 0, minutes, 0, 0, time.UTC)
	return &t
}

func cardCourseIDs(cards []domain.LearningCard) []string {
	out := make([]string, 0, len(cards))
	for _, c := range cards {
		out = append(out, c.Course.ID)
	}
	return out
}

func sampleLearning() ([]domain.Enrollment, func(string) (domain.Course, bool)) {
	enrollments := []domain.Enrollment{
		{ID: "e1", CourseID: "go", Progress: 40, LastAccessedAt: at(10)},
		{ID: "e2", CourseID: "gone", Progress: 90, LastAccessedAt: at(30)},
		{ID: "e3", CourseID: "algo", Progress: 100, LastAccessedAt: at(20)},
		{ID: "e4", CourseID: "Basics", Progress: 40, UpdatedAt: *at(5)},
	}
	lookup := lookupOf(
		domain.Course{ID: "go", Name: "Go"},
		domain.Course{ID: "algo", Name: "algorithms"},
		domain.Course{ID: "Basics", Name: "Basics"},
	)
	return enrollments, lookup
}

func TestBuildLearningViewDropsUnknownCourses(t *testing.T) {
	enrollments := []domain.Enrollment{{ID: "e1", CourseID: "a"}, {ID: "e2", CourseID: "missing"}, {ID: "e3", CourseID: "b"}}
	cards := BuildLearningView(enrollments, lookupOf(domain.Course{ID: "a"}, domain.Course{ID: "b"}), "")
	assert.Len(t, cards, 2)
}

func TestBuildLearningViewSorts(t *testing.T) {
	enrollments, lookup := sampleLearning()

	tests := []struct {
		key  SortKey
		want []string
	}{
		{"", []string{"algo", "go", "Basics"}},
		{SortRecent, []string{"algo", "go", "Basics"}},
		{SortNameAsc, []string{"algo", "Basics", "go"}},
		{SortNameDesc, []string{"go", "Basics", "algo"}},
		{SortProgressAsc, []string{"go", "Basics", "algo"}},
		{SortProgressDesc, []string{"algo", "go", "Basics"}},
	}
	for _, tt := range tests {
		t.Run(string(tt.key), func(t *testing.T) {
			assert.Equal(t, tt.want, cardCourseIDs(BuildLearningView(enrollments, lookup, tt.key)))
		})
	}
}

func TestBuildLearningViewCompletedThreshold(t *testing.T) {
	enrollments := []domain.Enrollment{{ID: "e1", CourseID: "a", Progress: 99}, {ID: "e2", CourseID: "b", Progress: 100}}
	cards := BuildLearningView(enrollments, lookupOf(domain.Course{ID: "a"}, domain.Course{ID: "b"}), SortNameAsc)
	assert.False(t, cards[0].Completed)
	assert.True(t, cards[1].Completed)
}

func TestFilterAndSummarizeLearning(t *testing.T) {
	enrollments, lookup := sampleLearning()
	cards := BuildLearningView(enrollments, lookup, SortRecent)

	assert.Len(t, FilterLearning(cards, FilterAll), 3)
	assert.Equal(t, []string{"algo"}, cardCourseIDs(FilterLearning(cards, FilterCompleted)))
	assert.Equal(t, []string{"go", "Basics"}, cardCourseIDs(FilterLearning(cards, FilterInProgress)))

	summary := SummarizeLearning(cards)
	assert.Equal(t, domain.LearningSummary{TotalEnrollments: 3, CompletedCourses: 1, InProgressCourses: 2, AverageProgress: 60}, summary)
	assert.Equal(t, domain.LearningSummary{}, SummarizeLearning(nil))
}
