package progress

import (
	"context"
	"log"
	"time"

	"github.com/go-co-op/gocron"
)

// SyncWorker periodically replays dirty cache entries into the backup tier.
// A backup write that failed at checkpoint time leaves its dirty marker in
// place; the worker retries until the offsite store accepts it.
type SyncWorker struct {
	cache     Cache
	backup    Backup
	interval  time.Duration
	logger    *log.Logger
	scheduler *gocron.Scheduler
}

func NewSyncWorker(cache Cache, backup Backup, interval time.Duration, logger *log.Logger) *SyncWorker {
	if logger == nil {
		logger = log.Default()
	}
	return &SyncWorker{
		cache:    cache,
		backup:   backup,
		interval: interval,
		logger:   logger,
	}
}

// Start schedules the periodic sync. Without both a cache and a backup tier
// there is nothing to replay, so the worker stays idle.
func (w *SyncWorker) Start() error {
	if w.cache == nil || w.backup == nil {
		w.logger.Println("progress sync: disabled (cache or backup tier not configured)")
		return nil
	}
	if w.interval <= 0 {
		w.interval = 30 * time.Second
	}

	w.scheduler = gocron.NewScheduler(time.UTC)
	_, err := w.scheduler.Every(w.interval).Do(w.syncOnce)
	if err != nil {
		return err
	}
	w.scheduler.StartAsync()
	w.logger.Printf("progress sync: replaying dirty entries every %s", w.interval)
	return nil
}

// Stop halts the schedule after one final drain.
func (w *SyncWorker) Stop() {
	if w.scheduler == nil {
		return
	}
	w.scheduler.Stop()
	w.syncOnce()
}

func (w *SyncWorker) syncOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), w.interval)
	defer cancel()

	entries, err := w.cache.DirtyEntries(ctx)
	if err != nil {
		w.logger.Printf("progress sync: listing dirty entries failed: %v", err)
		return
	}
	if len(entries) == 0 {
		return
	}

	synced, failed := 0, 0
	for _, entry := range entries {
		if err := w.backup.Save(ctx, entry); err != nil {
			w.logger.Printf("progress sync: backup save failed for %s/%s: %v", entry.UserID, entry.FileID, err)
			failed++
			continue
		}
		if err := w.cache.ClearDirty(ctx, entry.UserID, entry.FileID); err != nil {
			w.logger.Printf("progress sync: clearing dirty marker failed for %s/%s: %v", entry.UserID, entry.FileID, err)
		}
		synced++
	}
	w.logger.Printf("progress sync: %d synced, %d failed", synced, failed)
}
