package controllers

import (
	"errors"
	"path/filepath"

	"coursestream/backend/config"
	"coursestream/backend/middleware"
	"coursestream/backend/models"
	"coursestream/backend/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type MediaController struct {
	DB  *gorm.DB
	Cfg *config.Config
}

func NewMediaController(db *gorm.DB, cfg *config.Config) *MediaController {
	return &MediaController{DB: db, Cfg: cfg}
}

// SignURL issues a short-lived token URL for direct media fetches, so the
// player can stream without attaching the session header to every range
// request.
func (mc *MediaController) SignURL(c *fiber.Ctx) error {
	userID := middleware.UserID(c)
	fileID := c.Params("fileId")

	var file models.File
	if err := mc.DB.First(&file, "id = ?", fileID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NotFound(c, "File not found")
		}
		return utils.InternalServerError(c, "Could not query database")
	}
	if file.Missing {
		return utils.NotFound(c, "File is missing from disk")
	}

	token, err := utils.SignMediaURL(userID, fileID, mc.Cfg)
	if err != nil {
		return utils.InternalServerError(c, "Could not sign URL")
	}

	return c.JSON(fiber.Map{
		"url":        "/api/media/stream?token=" + token,
		"expires_in": 900,
	})
}

// Stream serves the media bytes for a previously signed token. The token is
// the only credential; fiber handles range requests for seeking.
func (mc *MediaController) Stream(c *fiber.Ctx) error {
	token := c.Query("token")
	if token == "" {
		return utils.Unauthorized(c, "Missing media token")
	}

	fileID, err := utils.VerifyMediaToken(token, mc.Cfg)
	if err != nil {
		return utils.Unauthorized(c, "Invalid media token")
	}

	var file models.File
	if err := mc.DB.First(&file, "id = ?", fileID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NotFound(c, "File not found")
		}
		return utils.InternalServerError(c, "Could not query database")
	}

	path := filepath.Join(mc.Cfg.MediaPath, filepath.FromSlash(file.FilePath))
	return c.SendFile(path, true)
}
