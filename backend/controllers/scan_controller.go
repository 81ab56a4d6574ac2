package controllers

import (
	"errors"
	"strconv"

	"coursestream/backend/config"
	"coursestream/backend/scanner"
	"coursestream/backend/utils"

	"github.com/gofiber/fiber/v2"
)

type ScanController struct {
	Cfg        *config.Config
	Reconciler *scanner.Reconciler
}

func NewScanController(cfg *config.Config, reconciler *scanner.Reconciler) *ScanController {
	return &ScanController{Cfg: cfg, Reconciler: reconciler}
}

type scanInput struct {
	Path   string `json:"path"`
	Rescan bool   `json:"rescan"`
}

// Scan triggers a synchronous reconcile pass of the media root (or the
// given path) and returns its scan record.
func (sc *ScanController) Scan(c *fiber.Ctx) error {
	var input scanInput
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&input); err != nil {
			return utils.BadRequest(c, "Cannot parse JSON")
		}
	}
	root := input.Path
	if root == "" {
		root = sc.Cfg.MediaPath
	}

	record, err := sc.Reconciler.Scan(c.UserContext(), root, input.Rescan)
	if err != nil {
		if errors.Is(err, scanner.ErrScanInProgress) {
			return utils.Conflict(c, "A scan of this root is already running")
		}
		var scanErr *scanner.ScanError
		if errors.As(err, &scanErr) {
			return utils.BadRequest(c, scanErr.Error())
		}
		return utils.InternalServerError(c, "Scan failed")
	}

	return utils.Success(c, fiber.StatusOK, record)
}

// History lists recent scan records, newest first.
func (sc *ScanController) History(c *fiber.Ctx) error {
	limit, err := strconv.Atoi(c.Query("limit", "10"))
	if err != nil || limit < 1 {
		limit = 10
	}

	records, err := sc.Reconciler.History(c.UserContext(), limit)
	if err != nil {
		return utils.InternalServerError(c, "Could not query scan history")
	}
	return utils.Success(c, fiber.StatusOK, records)
}

// Purge removes file records that stayed missing long enough. Their
// progress entries remain untouched.
func (sc *ScanController) Purge(c *fiber.Ctx) error {
	purged, err := sc.Reconciler.PurgeMissing(c.UserContext())
	if err != nil {
		return utils.InternalServerError(c, "Purge failed")
	}
	return utils.Success(c, fiber.StatusOK, fiber.Map{"purged": purged})
}
