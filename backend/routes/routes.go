package routes

import (
	"coursestream/backend/config"
	"coursestream/backend/controllers"
	"coursestream/backend/middleware"
	"coursestream/backend/progress"
	"coursestream/backend/scanner"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

func SetupRoutes(app *fiber.App, db *gorm.DB, cfg *config.Config, store *progress.Store, reconciler *scanner.Reconciler) {
	authMiddleware := middleware.AuthMiddleware(cfg)

	app.Get("/api/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// Courses
	coursesController := controllers.NewCoursesController(db, cfg)
	courses := app.Group("/api/courses", authMiddleware)
	courses.Get("/", coursesController.GetCourses)
	courses.Get("/:id", coursesController.GetCourseDetails)
	app.Get("/api/lessons/:id", authMiddleware, coursesController.GetLessonDetails)

	// Progress
	progressController := controllers.NewProgressController(db, cfg, store)
	app.Post("/api/progress", authMiddleware, progressController.UpdateProgress)
	app.Get("/api/progress/:fileId", authMiddleware, progressController.GetProgress)
	courses.Get("/:id/progress", progressController.GetCourseProgress)

	// Scanning
	scanController := controllers.NewScanController(cfg, reconciler)
	scan := app.Group("/api/scan", authMiddleware)
	scan.Post("/", scanController.Scan)
	scan.Get("/history", scanController.History)
	scan.Post("/purge", scanController.Purge)

	// Media
	mediaController := controllers.NewMediaController(db, cfg)
	app.Get("/api/media/:fileId/url", authMiddleware, mediaController.SignURL)
	// The signed token is the credential here, no auth middleware.
	app.Get("/api/media/stream", mediaController.Stream)
}
