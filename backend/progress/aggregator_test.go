package progress

import (
	"context"
	"testing"

	"coursestream/backend/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAggRepo struct {
	lessonTotal     int
	courseTotal     int
	lessonCompleted int
	courseCompleted int
	watchedSeconds  int

	savedLesson *models.LessonProgress
	savedCourse *models.CourseProgress
}

func (r *fakeAggRepo) LessonFileCount(_ context.Context, _ string) (int, error) {
	return r.lessonTotal, nil
}

func (r *fakeAggRepo) CourseFileCount(_ context.Context, _ string) (int, error) {
	return r.courseTotal, nil
}

func (r *fakeAggRepo) CompletedInLesson(_ context.Context, _, _ string) (int, error) {
	return r.lessonCompleted, nil
}

func (r *fakeAggRepo) CourseWatchStats(_ context.Context, _, _ string) (int, int, error) {
	return r.courseCompleted, r.watchedSeconds, nil
}

func (r *fakeAggRepo) UpsertLessonProgress(_ context.Context, agg *models.LessonProgress) error {
	r.savedLesson = agg
	return nil
}

func (r *fakeAggRepo) UpsertCourseProgress(_ context.Context, agg *models.CourseProgress) error {
	r.savedCourse = agg
	return nil
}

func TestLessonAggregateIsCountBased(t *testing.T) {
	repo := &fakeAggRepo{lessonTotal: 4, lessonCompleted: 3, courseTotal: 10, courseCompleted: 3}
	agg := NewAggregator(repo, nil)

	lessonAgg, _, err := agg.OnProgressChange(context.Background(), "u1", "lesson-1", "course-1")
	require.NoError(t, err)
	require.NotNil(t, lessonAgg)

	assert.Equal(t, 4, lessonAgg.TotalFiles)
	assert.Equal(t, 3, lessonAgg.CompletedFiles)
	assert.Equal(t, 75.0, lessonAgg.ProgressPercentage)
}

func TestCourseAggregateCarriesWatchedDuration(t *testing.T) {
	repo := &fakeAggRepo{lessonTotal: 2, lessonCompleted: 1, courseTotal: 10, courseCompleted: 5, watchedSeconds: 1234}
	agg := NewAggregator(repo, nil)

	_, courseAgg, err := agg.OnProgressChange(context.Background(), "u1", "lesson-1", "course-1")
	require.NoError(t, err)
	require.NotNil(t, courseAgg)

	assert.Equal(t, 50.0, courseAgg.ProgressPercentage)
	assert.Equal(t, 1234, courseAgg.WatchedDuration)
}

func TestAggregatesArePersisted(t *testing.T) {
	repo := &fakeAggRepo{lessonTotal: 1, lessonCompleted: 1, courseTotal: 1, courseCompleted: 1}
	agg := NewAggregator(repo, nil)

	_, _, err := agg.OnProgressChange(context.Background(), "u1", "lesson-1", "course-1")
	require.NoError(t, err)

	require.NotNil(t, repo.savedLesson)
	require.NotNil(t, repo.savedCourse)
	assert.Equal(t, "u1", repo.savedLesson.UserID)
	assert.Equal(t, "course-1", repo.savedCourse.CourseID)
}

func TestEmptyLessonPercentageIsZero(t *testing.T) {
	repo := &fakeAggRepo{}
	agg := NewAggregator(repo, nil)

	lessonAgg, courseAgg, err := agg.OnProgressChange(context.Background(), "u1", "lesson-1", "course-1")
	require.NoError(t, err)

	assert.Equal(t, 0.0, lessonAgg.ProgressPercentage)
	assert.Equal(t, 0.0, courseAgg.ProgressPercentage)
}
