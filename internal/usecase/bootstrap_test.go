package usecase

import (
	"context"
	"errors"
	"testing"

	"onlearn-client/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestBootstrapFailureDoesNotBlockSibling(t *testing.T) {
	d, api := newTestDispatcher()
	api.On("ListCategories", mock.Anything).Return(nil, domain.NewNetworkError(errors.New("refused"))).Once()
	api.On("ListCourses", mock.Anything).Return([]domain.Course{{ID: "c1"}}, nil).Once()

	report := d.Bootstrap(context.Background())

	assert.Equal(t, []string{"categories"}, report.Failed())
	assert.Error(t, report.Err())
	assert.Contains(t, report.Err().Error(), "categories")
	assert.True(t, d.Store().Courses.Loaded())
	assert.False(t, d.Store().Categories.Loaded())
	api.AssertExpectations(t)
}

func TestLoadLearnerDataAllSucceed(t *testing.T) {
	d, api := newTestDispatcher()
	api.On("MyEnrollments", mock.Anything).Return([]domain.Enrollment{{ID: "e1"}}, nil)
	api.On("MyProgress", mock.Anything).Return([]domain.Progress{}, nil)
	api.On("ListNotifications", mock.Anything).Return([]domain.Notification{}, nil)
	api.On("MyCertificates", mock.Anything).Return([]domain.Certificate{}, nil)
	api.On("ListQuizzes", mock.Anything).Return([]domain.Quiz{}, nil)

	report := d.LoadLearnerData(context.Background())

	assert.Empty(t, report.Failed())
	assert.NoError(t, report.Err())
	assert.Equal(t, 1, d.Store().Enrollments.Len())
	assert.True(t, d.Store().Progress.Loaded())
}
