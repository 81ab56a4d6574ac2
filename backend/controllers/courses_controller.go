package controllers

import (
	"errors"

	"coursestream/backend/config"
	"coursestream/backend/middleware"
	"coursestream/backend/models"
	"coursestream/backend/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type CoursesController struct {
	DB  *gorm.DB
	Cfg *config.Config
}

func NewCoursesController(db *gorm.DB, cfg *config.Config) *CoursesController {
	return &CoursesController{DB: db, Cfg: cfg}
}

// GetCourses returns every catalog course with the caller's aggregate
// progress attached.
func (cc *CoursesController) GetCourses(c *fiber.Ctx) error {
	userID := middleware.UserID(c)

	var courses []models.Course
	if err := cc.DB.Order("title").Find(&courses).Error; err != nil {
		return utils.InternalServerError(c, "Could not query courses")
	}

	result := make([]fiber.Map, 0, len(courses))
	for _, course := range courses {
		var agg models.CourseProgress
		err := cc.DB.Where("user_id = ? AND course_id = ?", userID, course.ID).First(&agg).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.InternalServerError(c, "Could not query course progress")
		}

		result = append(result, fiber.Map{
			"id":              course.ID,
			"title":           course.Title,
			"description":     course.Description,
			"instructor":      course.Instructor,
			"folder_path":     course.FolderPath,
			"total_files":     course.TotalFiles,
			"completed_files": agg.CompletedFiles,
			"progress":        agg.ProgressPercentage,
		})
	}

	return c.JSON(result)
}

// GetCourseDetails returns one course with its ordered lessons and files.
func (cc *CoursesController) GetCourseDetails(c *fiber.Ctx) error {
	userID := middleware.UserID(c)
	courseID := c.Params("id")

	var course models.Course
	if err := cc.DB.First(&course, "id = ?", courseID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NotFound(c, "Course not found")
		}
		return utils.InternalServerError(c, "Could not query database")
	}

	var lessons []models.Lesson
	if err := cc.DB.Preload("Files", func(db *gorm.DB) *gorm.DB {
		return db.Order("order_index")
	}).Where("course_id = ?", courseID).Order("order_index").Find(&lessons).Error; err != nil {
		return utils.InternalServerError(c, "Could not query lessons")
	}

	var agg models.CourseProgress
	err := cc.DB.Where("user_id = ? AND course_id = ?", userID, courseID).First(&agg).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return utils.InternalServerError(c, "Could not query course progress")
	}

	return c.JSON(fiber.Map{
		"course": fiber.Map{
			"id":          course.ID,
			"title":       course.Title,
			"description": course.Description,
			"instructor":  course.Instructor,
			"folder_path": course.FolderPath,
			"total_files": course.TotalFiles,
		},
		"lessons":  lessons,
		"progress": agg,
	})
}

// GetLessonDetails returns one lesson with its files and the caller's
// per-file progress entries side by side.
func (cc *CoursesController) GetLessonDetails(c *fiber.Ctx) error {
	userID := middleware.UserID(c)
	lessonID := c.Params("id")

	var lesson models.Lesson
	if err := cc.DB.First(&lesson, "id = ?", lessonID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NotFound(c, "Lesson not found")
		}
		return utils.InternalServerError(c, "Could not query database")
	}

	var files []models.File
	if err := cc.DB.Where("lesson_id = ?", lessonID).Order("order_index").Find(&files).Error; err != nil {
		return utils.InternalServerError(c, "Could not query files")
	}

	var entries []models.ProgressEntry
	if err := cc.DB.Where("user_id = ? AND lesson_id = ?", userID, lessonID).Find(&entries).Error; err != nil {
		return utils.InternalServerError(c, "Could not query progress")
	}
	progressByFile := make(map[string]models.ProgressEntry, len(entries))
	for _, entry := range entries {
		progressByFile[entry.FileID] = entry
	}

	fileViews := make([]fiber.Map, 0, len(files))
	for _, file := range files {
		view := fiber.Map{
			"id":           file.ID,
			"filename":     file.Filename,
			"title":        file.Title,
			"display_path": file.DisplayPath,
			"file_path":    file.FilePath,
			"file_type":    file.FileType,
			"file_size":    file.FileSize,
			"order_index":  file.OrderIndex,
			"missing":      file.Missing,
		}
		if file.ThumbnailBase64 != "" {
			view["thumbnail"] = file.ThumbnailBase64
		}
		if entry, ok := progressByFile[file.ID]; ok {
			view["progress"] = entry
		}
		fileViews = append(fileViews, view)
	}

	return c.JSON(fiber.Map{
		"lesson": lesson,
		"files":  fileViews,
	})
}
