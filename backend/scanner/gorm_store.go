package scanner

import (
	"context"
	"errors"

	"coursestream/backend/models"

	"gorm.io/gorm"
)

// GormCatalogStore is the PostgreSQL-backed CatalogStore.
type GormCatalogStore struct {
	DB *gorm.DB
}

func NewGormCatalogStore(db *gorm.DB) *GormCatalogStore {
	return &GormCatalogStore{DB: db}
}

func (s *GormCatalogStore) CourseByFolderPath(ctx context.Context, folderPath string) (*models.Course, error) {
	var course models.Course
	err := s.DB.WithContext(ctx).Where("folder_path = ?", folderPath).First(&course).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &course, nil
}

func (s *GormCatalogStore) AllCourses(ctx context.Context) ([]models.Course, error) {
	var courses []models.Course
	if err := s.DB.WithContext(ctx).Order("title").Find(&courses).Error; err != nil {
		return nil, err
	}
	return courses, nil
}

func (s *GormCatalogStore) SaveCourse(ctx context.Context, course *models.Course) error {
	return s.DB.WithContext(ctx).Save(course).Error
}

func (s *GormCatalogStore) LessonByFolderPath(ctx context.Context, courseID, folderPath string) (*models.Lesson, error) {
	var lesson models.Lesson
	err := s.DB.WithContext(ctx).
		Where("course_id = ? AND folder_path = ?", courseID, folderPath).
		First(&lesson).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &lesson, nil
}

func (s *GormCatalogStore) SaveLesson(ctx context.Context, lesson *models.Lesson) error {
	return s.DB.WithContext(ctx).Save(lesson).Error
}

func (s *GormCatalogStore) FileByPath(ctx context.Context, lessonID, filePath string) (*models.File, error) {
	var file models.File
	err := s.DB.WithContext(ctx).
		Where("lesson_id = ? AND file_path = ?", lessonID, filePath).
		First(&file).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &file, nil
}

func (s *GormCatalogStore) FilesByCourse(ctx context.Context, courseID string) ([]models.File, error) {
	var files []models.File
	err := s.DB.WithContext(ctx).
		Where("course_id = ?", courseID).
		Order("order_index").
		Find(&files).Error
	if err != nil {
		return nil, err
	}
	return files, nil
}

func (s *GormCatalogStore) SaveFile(ctx context.Context, file *models.File) error {
	return s.DB.WithContext(ctx).Save(file).Error
}

func (s *GormCatalogStore) PurgeMissing(ctx context.Context, threshold int) (int64, error) {
	result := s.DB.WithContext(ctx).
		Where("missing = ? AND missing_scans >= ?", true, threshold).
		Delete(&models.File{})
	return result.RowsAffected, result.Error
}

func (s *GormCatalogStore) RecordScan(ctx context.Context, record *models.ScanRecord) error {
	return s.DB.WithContext(ctx).Create(record).Error
}

func (s *GormCatalogStore) ScanHistory(ctx context.Context, limit int) ([]models.ScanRecord, error) {
	var records []models.ScanRecord
	err := s.DB.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}
