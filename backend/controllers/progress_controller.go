package controllers

import (
	"errors"

	"coursestream/backend/config"
	"coursestream/backend/middleware"
	"coursestream/backend/models"
	"coursestream/backend/progress"
	"coursestream/backend/utils"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type ProgressController struct {
	DB       *gorm.DB
	Cfg      *config.Config
	Store    *progress.Store
	validate *validator.Validate
}

func NewProgressController(db *gorm.DB, cfg *config.Config, store *progress.Store) *ProgressController {
	return &ProgressController{
		DB:       db,
		Cfg:      cfg,
		Store:    store,
		validate: validator.New(),
	}
}

type progressInput struct {
	FileID             string  `json:"file_id" validate:"required"`
	ProgressSeconds    int     `json:"progress_seconds" validate:"gte=0"`
	ProgressPercentage float64 `json:"progress_percentage" validate:"gte=0,lte=100"`
	Completed          bool    `json:"completed"`
}

// UpdateProgress godoc
// @Summary Record a playback checkpoint
// @Description Writes the caller's position for a file through the tiered store and returns recomputed aggregates
// @Tags progress
// @Accept json
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /progress [post]
func (pc *ProgressController) UpdateProgress(c *fiber.Ctx) error {
	userID := middleware.UserID(c)

	var input progressInput
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}
	if err := pc.validate.Struct(input); err != nil {
		fields := map[string]string{}
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				fields[fe.Field()] = fe.Tag()
			}
		}
		return utils.ValidationError(c, fields)
	}

	entry, lessonAgg, courseAgg, err := pc.Store.Write(
		c.UserContext(), userID, input.FileID,
		input.ProgressSeconds, input.ProgressPercentage, input.Completed,
	)
	if err != nil {
		if errors.Is(err, progress.ErrNotFound) {
			return utils.NotFound(c, "File not found")
		}
		return utils.InternalServerError(c, "Could not save progress")
	}

	return c.JSON(fiber.Map{
		"progress":        entry,
		"lesson_progress": lessonAgg,
		"course_progress": courseAgg,
	})
}

// GetProgress godoc
// @Summary Get progress for a file
// @Description Returns the caller's latest checkpoint for a file; an empty default when none exists
// @Tags progress
// @Produce json
// @Success 200 {object} models.ProgressEntry
// @Security ApiKeyAuth
// @Router /progress/{fileId} [get]
func (pc *ProgressController) GetProgress(c *fiber.Ctx) error {
	userID := middleware.UserID(c)
	fileID := c.Params("fileId")
	if fileID == "" {
		return utils.BadRequest(c, "Missing file ID")
	}

	entry, err := pc.Store.Read(c.UserContext(), userID, fileID)
	if err != nil {
		return utils.InternalServerError(c, "Could not read progress")
	}
	return c.JSON(entry)
}

// GetCourseProgress returns the caller's aggregate for one course; a
// zero-value aggregate when the user has not started it.
func (pc *ProgressController) GetCourseProgress(c *fiber.Ctx) error {
	userID := middleware.UserID(c)
	courseID := c.Params("id")

	var course models.Course
	if err := pc.DB.First(&course, "id = ?", courseID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NotFound(c, "Course not found")
		}
		return utils.InternalServerError(c, "Could not query database")
	}

	var agg models.CourseProgress
	err := pc.DB.Where("user_id = ? AND course_id = ?", userID, courseID).First(&agg).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		agg = models.CourseProgress{
			UserID:     userID,
			CourseID:   courseID,
			TotalFiles: course.TotalFiles,
		}
	} else if err != nil {
		return utils.InternalServerError(c, "Could not query course progress")
	}

	return c.JSON(agg)
}
