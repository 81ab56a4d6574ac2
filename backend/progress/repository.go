package progress

import (
	"context"
	"errors"

	"coursestream/backend/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormRepository is the PostgreSQL durable tier. It also serves the
// aggregator's queries and resolves file ids for writes.
type GormRepository struct {
	DB *gorm.DB
}

func NewGormRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{DB: db}
}

func (r *GormRepository) Upsert(ctx context.Context, entry *models.ProgressEntry) error {
	return r.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "file_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"lesson_id", "course_id", "progress_seconds",
			"progress_percentage", "completed", "last_watched", "updated_at",
		}),
	}).Create(entry).Error
}

func (r *GormRepository) Get(ctx context.Context, userID, fileID string) (*models.ProgressEntry, error) {
	var entry models.ProgressEntry
	err := r.DB.WithContext(ctx).
		Where("user_id = ? AND file_id = ?", userID, fileID).
		First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *GormRepository) FileByID(ctx context.Context, fileID string) (*models.File, error) {
	var file models.File
	err := r.DB.WithContext(ctx).First(&file, "id = ?", fileID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &file, nil
}

func (r *GormRepository) LessonFileCount(ctx context.Context, lessonID string) (int, error) {
	var count int64
	err := r.DB.WithContext(ctx).Model(&models.File{}).
		Where("lesson_id = ?", lessonID).
		Count(&count).Error
	return int(count), err
}

func (r *GormRepository) CourseFileCount(ctx context.Context, courseID string) (int, error) {
	var count int64
	err := r.DB.WithContext(ctx).Model(&models.File{}).
		Where("course_id = ?", courseID).
		Count(&count).Error
	return int(count), err
}

func (r *GormRepository) CompletedInLesson(ctx context.Context, userID, lessonID string) (int, error) {
	var count int64
	err := r.DB.WithContext(ctx).Model(&models.ProgressEntry{}).
		Where("user_id = ? AND lesson_id = ? AND completed = ?", userID, lessonID, true).
		Count(&count).Error
	return int(count), err
}

func (r *GormRepository) CourseWatchStats(ctx context.Context, userID, courseID string) (int, int, error) {
	var completed int64
	err := r.DB.WithContext(ctx).Model(&models.ProgressEntry{}).
		Where("user_id = ? AND course_id = ? AND completed = ?", userID, courseID, true).
		Count(&completed).Error
	if err != nil {
		return 0, 0, err
	}

	var watched struct {
		Total int
	}
	err = r.DB.WithContext(ctx).Model(&models.ProgressEntry{}).
		Select("COALESCE(SUM(progress_seconds), 0) AS total").
		Where("user_id = ? AND course_id = ?", userID, courseID).
		Scan(&watched).Error
	if err != nil {
		return 0, 0, err
	}

	return int(completed), watched.Total, nil
}

func (r *GormRepository) UpsertLessonProgress(ctx context.Context, agg *models.LessonProgress) error {
	return r.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "lesson_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"course_id", "total_files", "completed_files",
			"progress_percentage", "last_updated",
		}),
	}).Create(agg).Error
}

func (r *GormRepository) UpsertCourseProgress(ctx context.Context, agg *models.CourseProgress) error {
	return r.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "course_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"total_files", "completed_files", "watched_duration",
			"progress_percentage", "last_updated",
		}),
	}).Create(agg).Error
}

// LessonProgressFor returns the stored lesson aggregate, or nil when the
// user has no progress in the lesson yet.
func (r *GormRepository) LessonProgressFor(ctx context.Context, userID, lessonID string) (*models.LessonProgress, error) {
	var agg models.LessonProgress
	err := r.DB.WithContext(ctx).
		Where("user_id = ? AND lesson_id = ?", userID, lessonID).
		First(&agg).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &agg, nil
}

// CourseProgressFor returns the stored course aggregate, or nil when the
// user has no progress in the course yet.
func (r *GormRepository) CourseProgressFor(ctx context.Context, userID, courseID string) (*models.CourseProgress, error) {
	var agg models.CourseProgress
	err := r.DB.WithContext(ctx).
		Where("user_id = ? AND course_id = ?", userID, courseID).
		First(&agg).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &agg, nil
}
