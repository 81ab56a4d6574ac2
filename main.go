package main

import (
	"context"
	"log"

	"coursestream/backend/backup"
	"coursestream/backend/cache"
	"coursestream/backend/config"
	"coursestream/backend/middleware"
	"coursestream/backend/progress"
	"coursestream/backend/routes"
	"coursestream/backend/scanner"
	"coursestream/backend/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Error loading config: %v", err)
	}

	// Initialize logger
	logger := utils.InitLogger()

	// Initialize database
	db, err := utils.InitDB(cfg)
	if err != nil {
		log.Fatalf("Error initializing database: %v", err)
	}

	// Fast cache tier; the platform runs fine without it.
	var cacheTier progress.Cache
	redisCache, err := cache.New(cfg.RedisAddr, cfg.RedisDB, cfg.CacheTTL, logger)
	if err != nil {
		logger.Printf("Redis cache unavailable, running without cache: %v", err)
	} else {
		cacheTier = redisCache
	}

	// Offsite backup tier; optional as well.
	var backupTier progress.Backup
	if cfg.FirebaseProjectID != "" {
		fsBackup, err := backup.New(context.Background(), cfg.FirebaseProjectID, cfg.FirebaseCredentialsFile, logger)
		if err != nil {
			logger.Printf("Firestore backup unavailable, running without backup: %v", err)
		} else {
			backupTier = fsBackup
		}
	}

	// Progress stack
	repo := progress.NewGormRepository(db)
	aggregator := progress.NewAggregator(repo, logger)
	store := progress.NewStore(repo, cacheTier, backupTier, repo, aggregator, logger)

	syncWorker := progress.NewSyncWorker(cacheTier, backupTier, cfg.BackupSyncInterval, logger)
	if err := syncWorker.Start(); err != nil {
		log.Fatalf("Error starting progress sync worker: %v", err)
	}

	// Scanner stack
	var thumbs scanner.ThumbnailSource
	if cfg.ThumbnailsEnabled {
		ffmpeg := scanner.NewFFmpegThumbnailer()
		if ffmpeg.Available() {
			thumbs = ffmpeg
		} else {
			logger.Println("ffmpeg not found, thumbnails disabled")
		}
	}
	catalogStore := scanner.NewGormCatalogStore(db)
	walker := scanner.NewWalker(cfg.ScanWorkers, logger)
	reconciler := scanner.NewReconciler(catalogStore, walker, thumbs, cfg.MissingPurgeAfter, logger)

	watcher := scanner.NewWatcher(reconciler, cfg.MediaPath, cfg.ScanInterval, logger)
	if err := watcher.Start(); err != nil {
		log.Fatalf("Error starting folder watcher: %v", err)
	}

	// Create Fiber app
	app := fiber.New()

	// Middleware
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))
	app.Use(middleware.LoggingMiddleware(logger))

	// Setup routes
	routes.SetupRoutes(app, db, cfg, store, reconciler)

	// Start server
	log.Fatal(app.Listen(":" + cfg.ServerPort))
}
