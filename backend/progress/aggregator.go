package progress

import (
	"context"
	"log"
	"time"

	"coursestream/backend/models"
)

// AggregateRepo exposes the queries and upserts the aggregator needs.
type AggregateRepo interface {
	LessonFileCount(ctx context.Context, lessonID string) (int, error)
	CourseFileCount(ctx context.Context, courseID string) (int, error)
	CompletedInLesson(ctx context.Context, userID, lessonID string) (int, error)
	CourseWatchStats(ctx context.Context, userID, courseID string) (completed int, watchedSeconds int, err error)
	UpsertLessonProgress(ctx context.Context, agg *models.LessonProgress) error
	UpsertCourseProgress(ctx context.Context, agg *models.CourseProgress) error
}

// Aggregator recomputes lesson- and course-level completion aggregates.
//
// Every recompute is a full pass over the sibling rows rather than an
// incremental delta, so a missed update or a reordered catalog can never
// leave the aggregates drifted; the next checkpoint repairs everything.
//
// Aggregate percentages are count-based (completed_files / total_files)
// while file-level percentages are time-based. The mismatch is intentional.
type Aggregator struct {
	repo   AggregateRepo
	logger *log.Logger
}

func NewAggregator(repo AggregateRepo, logger *log.Logger) *Aggregator {
	if logger == nil {
		logger = log.Default()
	}
	return &Aggregator{repo: repo, logger: logger}
}

// OnProgressChange recomputes and stores both aggregates for the lesson and
// course owning a just-written file checkpoint.
func (a *Aggregator) OnProgressChange(ctx context.Context, userID, lessonID, courseID string) (*models.LessonProgress, *models.CourseProgress, error) {
	now := time.Now().UTC()

	var lessonAgg *models.LessonProgress
	if lessonID != "" {
		total, err := a.repo.LessonFileCount(ctx, lessonID)
		if err != nil {
			return nil, nil, err
		}
		completed, err := a.repo.CompletedInLesson(ctx, userID, lessonID)
		if err != nil {
			return nil, nil, err
		}
		lessonAgg = &models.LessonProgress{
			UserID:             userID,
			LessonID:           lessonID,
			CourseID:           courseID,
			TotalFiles:         total,
			CompletedFiles:     completed,
			ProgressPercentage: percentage(completed, total),
			LastUpdated:        now,
		}
		if err := a.repo.UpsertLessonProgress(ctx, lessonAgg); err != nil {
			return nil, nil, err
		}
	}

	var courseAgg *models.CourseProgress
	if courseID != "" {
		total, err := a.repo.CourseFileCount(ctx, courseID)
		if err != nil {
			return nil, nil, err
		}
		completed, watched, err := a.repo.CourseWatchStats(ctx, userID, courseID)
		if err != nil {
			return nil, nil, err
		}
		courseAgg = &models.CourseProgress{
			UserID:             userID,
			CourseID:           courseID,
			TotalFiles:         total,
			CompletedFiles:     completed,
			WatchedDuration:    watched,
			ProgressPercentage: percentage(completed, total),
			LastUpdated:        now,
		}
		if err := a.repo.UpsertCourseProgress(ctx, courseAgg); err != nil {
			return nil, nil, err
		}
	}

	return lessonAgg, courseAgg, nil
}

func percentage(completed, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(completed) / float64(total) * 100
}
